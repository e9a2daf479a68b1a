package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"husaride/internal/services"
)

type DriverController struct {
	responder
	rides *services.RideService
}

func NewDriverController(rides *services.RideService, production bool) *DriverController {
	return &DriverController{
		responder: responder{production: production, loginPath: "/driver/login"},
		rides:     rides,
	}
}

func (d *DriverController) Dashboard(c *gin.Context) {
	dash, err := d.rides.DriverDashboard(c.Request.Context(), identity(c))
	if err != nil {
		d.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (d *DriverController) Rides(c *gin.Context) {
	rides, err := d.rides.DriverRides(c.Request.Context(), identity(c))
	if err != nil {
		d.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rides": rides})
}

func (d *DriverController) Accept(c *gin.Context) {
	ride, err := d.rides.Accept(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		d.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ride accepted successfully", "ride": ride})
}

func (d *DriverController) Complete(c *gin.Context) {
	ride, points, err := d.rides.Complete(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		d.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       "Ride completed successfully",
		"ride":          ride,
		"pointsAwarded": points,
	})
}
