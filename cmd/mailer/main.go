package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"authkit/pkg/config"
	"authkit/pkg/logger"
	"authkit/pkg/mailer"
	"authkit/pkg/queue"
)

// The mailer worker drains the email queue filled by the auth service when
// MAIL_TRANSPORT=queue and delivers each message over SMTP.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New()

	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Error("Failed to connect to RabbitMQ: %v", err)
		panic(err)
	}
	defer queueClient.Close()

	if pending, err := queueClient.QueueLength(); err == nil {
		log.Info("Mailer worker starting, %d messages pending", pending)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	smtpMailer := mailer.NewSMTPMailer(cfg, log)
	if err := queueClient.ConsumeEmailTasks(ctx, mailer.Relay(smtpMailer)); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Mailer worker stopped: %v", err)
		return
	}

	log.Info("Mailer worker exited")
}
