package routes

import (
	"github.com/gin-gonic/gin"

	"husaride/internal/controllers"
	"husaride/internal/middleware"
	"husaride/internal/models"
)

func AdminRoutes(r *gin.Engine, d Deps, auth *controllers.AuthController) {
	ctl := controllers.NewAdminController(d.Admin, d.Rides, d.Production)
	role := models.RoleAdmin

	admin := r.Group("/admin")
	admin.POST("/login", auth.Login(&role, middleware.AdminCookie))
	admin.POST("/logout", auth.Logout(middleware.AdminCookie))

	admin.Use(
		middleware.RequireAuth(d.Issuer, middleware.AdminCookie, "/admin/login"),
		middleware.RequireRole("/admin/login", models.RoleAdmin),
	)
	{
		admin.GET("/dashboard", ctl.Dashboard)
		admin.GET("/users", ctl.Users)
		admin.GET("/rides", ctl.Rides)
		admin.GET("/drivers/available", ctl.AvailableDrivers)

		admin.PATCH("/rides/:id/accept", ctl.AcceptRide)
		admin.PATCH("/rides/:id/reassign", ctl.ReassignRide)

		admin.PATCH("/users/:id/role", middleware.CSRF(), ctl.UpdateRole)
		admin.PATCH("/users/:id/reset-password", ctl.ResetPassword)
		admin.PATCH("/users/:id/update-field", ctl.UpdateField)
		admin.PATCH("/users/:id/vehicles", ctl.UpdateVehicles)
		admin.DELETE("/users/:id", ctl.DeleteUser)

		admin.GET("/users/:id/stats", ctl.UserStats)
		admin.GET("/drivers/:id/stats", ctl.DriverStats)
	}
}
