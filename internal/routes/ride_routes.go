package routes

import (
	"github.com/gin-gonic/gin"

	"husaride/internal/controllers"
	"husaride/internal/middleware"
)

func RideRoutes(r *gin.Engine, d Deps) {
	ctl := controllers.NewRideController(d.Rides, d.Production)

	rides := r.Group("/rides")
	{
		rides.GET("/vehicle-types", ctl.VehicleTypes)
		rides.POST("/estimate", ctl.Estimate)
		rides.POST("/book", middleware.OptionalAuth(d.Issuer, middleware.PassengerCookie), ctl.Book)
	}

	own := rides.Group("", middleware.RequireAuth(d.Issuer, middleware.PassengerCookie, "/"))
	{
		own.GET("/my-rides", ctl.MyRides)
		own.GET("/profile", ctl.Profile)
		own.PATCH("/:id/cancel", ctl.Cancel)
	}
}
