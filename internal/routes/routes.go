package routes

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"husaride/internal/auth"
	"husaride/internal/controllers"
	"husaride/internal/logger"
	"husaride/internal/middleware"
	"husaride/internal/ratelimit"
	"husaride/internal/realtime"
	"husaride/internal/services"
	"husaride/internal/validation"
)

// Deps is everything the router needs. LogWriter and Limiter are optional.
type Deps struct {
	Production   bool
	SessionTTL   time.Duration
	RequestLimit int
	LogWriter    io.Writer
	Limiter      ratelimit.Limiter

	Issuer   *auth.Issuer
	Accounts *services.AccountService
	Admin    *services.AdminService
	Rides    *services.RideService
	Hub      *realtime.Hub

	AdminSeed  services.ProvisionRequest
	DriverSeed services.ProvisionRequest
}

// SetupRouter builds the HTTP handler; the caller owns the listener.
func SetupRouter(d Deps) *gin.Engine {
	if err := validation.Register(); err != nil {
		logrus.WithError(err).Error("Failed to register request validators")
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if d.LogWriter != nil {
		r.Use(logger.RequestLogger(d.LogWriter))
	}
	r.Use(middleware.CORS())
	if d.Limiter != nil {
		r.Use(middleware.RateLimit(d.Limiter, d.RequestLimit))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "timestamp": time.Now().UTC()})
	})

	authCtl := controllers.NewAuthController(d.Accounts, controllers.AuthOptions{
		Production: d.Production,
		SessionTTL: d.SessionTTL,
		Admin:      d.AdminSeed,
		Driver:     d.DriverSeed,
	})

	AuthRoutes(r, d, authCtl)
	RideRoutes(r, d)
	DriverRoutes(r, d, authCtl)
	AdminRoutes(r, d, authCtl)
	SettingsRoutes(r, d)
	WebSocketRoutes(r, d)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})
	return r
}
