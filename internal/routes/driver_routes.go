package routes

import (
	"github.com/gin-gonic/gin"

	"husaride/internal/controllers"
	"husaride/internal/middleware"
	"husaride/internal/models"
)

func DriverRoutes(r *gin.Engine, d Deps, auth *controllers.AuthController) {
	ctl := controllers.NewDriverController(d.Rides, d.Production)
	role := models.RoleDriver

	driver := r.Group("/driver")
	driver.POST("/login", auth.Login(&role, middleware.DriverCookie))
	driver.POST("/logout", auth.Logout(middleware.DriverCookie))

	driver.Use(
		middleware.RequireAuth(d.Issuer, middleware.DriverCookie, "/driver/login"),
		middleware.RequireRole("/driver/login", models.RoleDriver),
	)
	{
		driver.GET("/dashboard", ctl.Dashboard)
		driver.GET("/rides", ctl.Rides)
		driver.PATCH("/rides/:id/accept", ctl.Accept)
		driver.PATCH("/rides/:id/complete", ctl.Complete)
	}
}
