package routes

import (
	"github.com/gin-gonic/gin"

	"husaride/internal/controllers"
	"husaride/internal/middleware"
)

func SettingsRoutes(r *gin.Engine, d Deps) {
	ctl := controllers.NewSettingsController(d.Accounts, d.Production)

	settings := r.Group("/settings", middleware.RequireAuth(d.Issuer, middleware.PassengerCookie, "/"))
	{
		settings.GET("", ctl.Get)
		settings.PATCH("/notifications", ctl.UpdateNotifications)
		settings.POST("/favorite-locations", ctl.AddFavoriteLocation)
		settings.DELETE("/favorite-locations/:id", ctl.RemoveFavoriteLocation)
		settings.POST("/emergency-contacts", ctl.AddEmergencyContact)
		settings.DELETE("/emergency-contacts/:id", ctl.RemoveEmergencyContact)
		settings.POST("/reset-password", ctl.ChangePassword)
	}
}
