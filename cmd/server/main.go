package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"husaride/internal/auth"
	"husaride/internal/config"
	"husaride/internal/fare"
	"husaride/internal/logger"
	"husaride/internal/models"
	"husaride/internal/notify"
	"husaride/internal/obs"
	"husaride/internal/ratelimit"
	"husaride/internal/realtime"
	"husaride/internal/repository"
	"husaride/internal/routes"
	"husaride/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	// Initialize structured logging to file
	logWriter := logger.Setup(logger.Options{File: cfg.LogFile, Level: cfg.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, cfg.AppName, cfg.AppEnv, cfg.OTLPEndpoint)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize tracing")
	}

	// Connect to the database
	db, err := config.InitDB(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	users := repository.NewUserRepo(db)
	rides := repository.NewRideRepo(db)

	registry, err := notify.NewRegistry(cfg.AppName)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to build email templates")
	}
	transport, closeTransport := mailTransport(cfg)
	queue := notify.NewQueue(notify.NewDispatcher(registry, transport), cfg.NotifyWorkers, cfg.NotifyQueueSize)

	hub := realtime.NewHub()
	limiter := rateLimiter(ctx, cfg)

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTExpiresIn)
	rideSvc := services.NewRideService(rides, users, fare.NewCalculator(fare.DefaultRates(), nil), queue, hub,
		services.RideOptions{AdminEmail: cfg.AdminEmail})

	r := routes.SetupRouter(routes.Deps{
		Production:   cfg.IsProduction(),
		SessionTTL:   cfg.JWTExpiresIn,
		RequestLimit: cfg.RequestLimit(),
		LogWriter:    logWriter,
		Limiter:      limiter,
		Issuer:       issuer,
		Accounts:     services.NewAccountService(users, issuer, queue, cfg.BcryptCost),
		Admin:        services.NewAdminService(users, rides, queue, cfg.BcryptCost),
		Rides:        rideSvc,
		Hub:          hub,
		AdminSeed: services.ProvisionRequest{
			Role: models.RoleAdmin, Name: cfg.AdminName, Email: cfg.AdminEmail,
			Password: cfg.AdminPassword, Phone: cfg.AdminPhone,
		},
		DriverSeed: services.ProvisionRequest{
			Role: models.RoleDriver, Name: cfg.DriverName, Email: cfg.DriverEmail,
			Password: cfg.DriverPassword, Phone: cfg.DriverPhone,
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.WithFields(logrus.Fields{"port": cfg.Port, "env": cfg.AppEnv}).Info("HusaRide server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown")
	}
	hub.Close()
	queue.Close()
	if err := closeTransport(); err != nil {
		logrus.WithError(err).Warn("Mail transport close")
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("Tracer shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// mailTransport picks the delivery path. AMQP failures fall back to logging
// so the server still starts without a broker.
func mailTransport(cfg config.Config) (notify.Transport, func() error) {
	noop := func() error { return nil }
	switch cfg.NotifyTransport {
	case "smtp":
		return notify.NewSMTPTransport(notify.SMTPConfig{
			Host:     cfg.EmailHost,
			Port:     cfg.EmailPort,
			Username: cfg.EmailUser,
			Password: cfg.EmailPass,
			From:     cfg.EmailUser,
		}), noop
	case "amqp":
		t, err := notify.NewAMQPTransport(cfg.RabbitURL, cfg.NotifyExchange)
		if err != nil {
			logrus.WithError(err).Error("RabbitMQ unavailable, logging mail instead")
			return notify.LogTransport{}, noop
		}
		return t, t.Close
	default:
		return notify.LogTransport{}, noop
	}
}

// rateLimiter uses Redis when configured and reachable, else process
// memory.
func rateLimiter(ctx context.Context, cfg config.Config) ratelimit.Limiter {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		err := client.Ping(pingCtx).Err()
		if err == nil {
			return ratelimit.NewRedisLimiter(client, cfg.RequestLimit(), cfg.RateWindow)
		}
		logrus.WithError(err).Warn("Redis unavailable, using in-memory rate limiter")
		_ = client.Close()
	}
	return ratelimit.NewMemoryLimiter(cfg.RequestLimit(), cfg.RateWindow)
}
