package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"husaride/internal/models"
	"husaride/internal/services"
)

type AdminController struct {
	responder
	admin *services.AdminService
	rides *services.RideService
}

func NewAdminController(admin *services.AdminService, rides *services.RideService, production bool) *AdminController {
	return &AdminController{
		responder: responder{production: production, loginPath: "/admin/login"},
		admin:     admin,
		rides:     rides,
	}
}

type driverInput struct {
	DriverID string `json:"driverId" binding:"required"`
}

func (a *AdminController) Dashboard(c *gin.Context) {
	dash, err := a.admin.Dashboard(c.Request.Context(), identity(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (a *AdminController) Users(c *gin.Context) {
	users, err := a.admin.Users(c.Request.Context(), identity(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (a *AdminController) Rides(c *gin.Context) {
	rides, err := a.admin.Rides(c.Request.Context(), identity(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rides": rides})
}

func (a *AdminController) AvailableDrivers(c *gin.Context) {
	drivers, err := a.admin.AvailableDrivers(c.Request.Context(), identity(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"drivers": drivers})
}

func (a *AdminController) AcceptRide(c *gin.Context) {
	var in driverInput
	if err := c.ShouldBindJSON(&in); err != nil {
		a.badRequest(c, err)
		return
	}
	ride, err := a.rides.AdminAccept(c.Request.Context(), identity(c), c.Param("id"), in.DriverID)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ride accepted and assigned to driver", "ride": ride})
}

func (a *AdminController) ReassignRide(c *gin.Context) {
	var in driverInput
	if err := c.ShouldBindJSON(&in); err != nil {
		a.badRequest(c, err)
		return
	}
	ride, err := a.rides.Reassign(c.Request.Context(), identity(c), c.Param("id"), in.DriverID)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ride reassigned successfully", "ride": ride})
}

func (a *AdminController) UpdateRole(c *gin.Context) {
	var in struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		a.badRequest(c, err)
		return
	}
	if err := a.admin.UpdateRole(c.Request.Context(), identity(c), c.Param("id"), models.Role(in.Role)); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User role updated successfully"})
}

func (a *AdminController) ResetPassword(c *gin.Context) {
	var in struct {
		NewPassword string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		a.badRequest(c, err)
		return
	}
	if err := a.admin.ResetPassword(c.Request.Context(), identity(c), c.Param("id"), in.NewPassword); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

func (a *AdminController) UpdateField(c *gin.Context) {
	var in struct {
		Field string `json:"field" binding:"required"`
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		a.badRequest(c, err)
		return
	}
	if err := a.admin.UpdateField(c.Request.Context(), identity(c), c.Param("id"), in.Field, in.Value); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User updated successfully"})
}

func (a *AdminController) UpdateVehicles(c *gin.Context) {
	var in struct {
		Action      services.VehicleAction `json:"action" binding:"required,oneof=add edit delete"`
		VehicleData services.VehicleData   `json:"vehicleData"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		a.badRequest(c, err)
		return
	}
	if err := a.admin.UpdateVehicles(c.Request.Context(), identity(c), c.Param("id"), in.Action, in.VehicleData); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Vehicle information updated successfully"})
}

func (a *AdminController) DeleteUser(c *gin.Context) {
	if err := a.admin.DeleteUser(c.Request.Context(), identity(c), c.Param("id")); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func (a *AdminController) UserStats(c *gin.Context) {
	stats, err := a.admin.UserStats(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (a *AdminController) DriverStats(c *gin.Context) {
	stats, err := a.admin.DriverStats(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
