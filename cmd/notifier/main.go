// Command notifier consumes rendered mail from RabbitMQ and delivers it
// over SMTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"husaride/internal/config"
	"husaride/internal/logger"
	"husaride/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logger.Setup(logger.Options{File: cfg.LogFile, Level: cfg.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	smtp := notify.NewSMTPTransport(notify.SMTPConfig{
		Host:     cfg.EmailHost,
		Port:     cfg.EmailPort,
		Username: cfg.EmailUser,
		Password: cfg.EmailPass,
		From:     cfg.EmailUser,
	})
	consumer, err := notify.NewConsumer(cfg.RabbitURL, cfg.NotifyExchange, cfg.NotifyQueue, cfg.NotifyWorkers, smtp)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to RabbitMQ")
	}
	defer consumer.Close()

	logrus.WithField("queue", cfg.NotifyQueue).Info("Notifier consuming mail")
	if err := consumer.Run(ctx); err != nil {
		logrus.WithError(err).Error("Notifier stopped")
	}
}
