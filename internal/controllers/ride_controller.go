package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"husaride/internal/models"
	"husaride/internal/services"
)

type RideController struct {
	responder
	rides *services.RideService
}

func NewRideController(rides *services.RideService, production bool) *RideController {
	return &RideController{
		responder: responder{production: production, loginPath: "/"},
		rides:     rides,
	}
}

type bookedRide struct {
	ID              string             `json:"id"`
	PickupLocation  string             `json:"pickupLocation"`
	DropoffLocation string             `json:"dropoffLocation"`
	VehicleType     models.VehicleType `json:"vehicleType"`
	Fare            float64            `json:"fare"`
	Status          models.RideStatus  `json:"status"`
}

// Book accepts bookings from signed-in passengers and guests alike.
func (rc *RideController) Book(c *gin.Context) {
	var req services.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		rc.badRequest(c, err)
		return
	}
	ride, err := rc.rides.Book(c.Request.Context(), identity(c), req)
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Ride booked successfully",
		"ride": bookedRide{
			ID:              ride.ID,
			PickupLocation:  ride.PickupLocation,
			DropoffLocation: ride.DropoffLocation,
			VehicleType:     ride.VehicleType,
			Fare:            ride.Fare,
			Status:          ride.Status,
		},
	})
}

func (rc *RideController) MyRides(c *gin.Context) {
	rides, err := rc.rides.MyRides(c.Request.Context(), identity(c))
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rides": rides})
}

func (rc *RideController) Profile(c *gin.Context) {
	user, recent, err := rc.rides.Profile(c.Request.Context(), identity(c))
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "recentRides": recent})
}

func (rc *RideController) Cancel(c *gin.Context) {
	ride, err := rc.rides.Cancel(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ride cancelled successfully", "ride": ride})
}

func (rc *RideController) VehicleTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"vehicleTypes": rc.rides.Rates()})
}

func (rc *RideController) Estimate(c *gin.Context) {
	var in struct {
		VehicleType string `json:"vehicleType" binding:"required,vehicletype"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		rc.badRequest(c, err)
		return
	}
	q, err := rc.rides.Estimate(in.VehicleType)
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}
