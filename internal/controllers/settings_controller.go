package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"husaride/internal/models"
	"husaride/internal/services"
)

type SettingsController struct {
	responder
	accounts *services.AccountService
}

func NewSettingsController(accounts *services.AccountService, production bool) *SettingsController {
	return &SettingsController{
		responder: responder{production: production, loginPath: "/"},
		accounts:  accounts,
	}
}

func (s *SettingsController) Get(c *gin.Context) {
	user, err := s.accounts.Settings(c.Request.Context(), identity(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": user.Settings()})
}

func (s *SettingsController) UpdateNotifications(c *gin.Context) {
	var in models.NotificationSettings
	if err := c.ShouldBindJSON(&in); err != nil {
		s.badRequest(c, err)
		return
	}
	if err := s.accounts.UpdateNotifications(c.Request.Context(), identity(c), in); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification preferences updated"})
}

func (s *SettingsController) AddFavoriteLocation(c *gin.Context) {
	var in struct {
		Name    string              `json:"name" binding:"required"`
		Address string              `json:"address" binding:"required"`
		Type    models.LocationType `json:"type"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		s.badRequest(c, err)
		return
	}
	loc, err := s.accounts.AddFavoriteLocation(c.Request.Context(), identity(c), models.FavoriteLocation{
		Name: in.Name, Address: in.Address, Type: in.Type,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Favorite location added", "location": loc})
}

func (s *SettingsController) RemoveFavoriteLocation(c *gin.Context) {
	if err := s.accounts.RemoveFavoriteLocation(c.Request.Context(), identity(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Favorite location removed"})
}

func (s *SettingsController) AddEmergencyContact(c *gin.Context) {
	var in struct {
		Name         string `json:"name" binding:"required"`
		Phone        string `json:"phone" binding:"required,phone"`
		Relationship string `json:"relationship" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		s.badRequest(c, err)
		return
	}
	contact, err := s.accounts.AddEmergencyContact(c.Request.Context(), identity(c), models.EmergencyContact{
		Name: in.Name, Phone: in.Phone, Relationship: in.Relationship,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Emergency contact added", "contact": contact})
}

func (s *SettingsController) RemoveEmergencyContact(c *gin.Context) {
	if err := s.accounts.RemoveEmergencyContact(c.Request.Context(), identity(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Emergency contact removed"})
}

func (s *SettingsController) ChangePassword(c *gin.Context) {
	var in struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		s.badRequest(c, err)
		return
	}
	if err := s.accounts.ChangePassword(c.Request.Context(), identity(c), in.CurrentPassword, in.NewPassword); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}
