package routes

import (
	"github.com/gin-gonic/gin"

	"husaride/internal/controllers"
	"husaride/internal/middleware"
)

func AuthRoutes(r *gin.Engine, d Deps, ctl *controllers.AuthController) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", ctl.Register)
		auth.POST("/login", ctl.Login(nil, middleware.PassengerCookie))
		auth.POST("/logout", ctl.Logout(middleware.PassengerCookie))
		auth.POST("/forgot-password", ctl.ForgotPassword)
		auth.POST("/create-admin", ctl.CreateAdmin)
		auth.POST("/create-driver", ctl.CreateDriver)
		auth.GET("/me", middleware.RequireAuth(d.Issuer, middleware.PassengerCookie, "/"), ctl.Me)
	}
}
