// Command mailer drains the mail queue and delivers each message over SMTP.
// The API publishes to the queue when MAIL_DRIVER=queue.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"spendwise/internal/config"
	"spendwise/internal/logger"
	"spendwise/internal/mailer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Env, cfg.LogLevel)
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Get().Fatalf("Mailer error: %v", err)
	}
}

func run(cfg *config.Config) error {
	log := logger.Named("mailer")

	queue, err := mailer.NewQueueClient(cfg.AMQPURL, cfg.MailQueue)
	if err != nil {
		return fmt.Errorf("failed to connect to queue: %w", err)
	}
	defer func() {
		if err := queue.Close(); err != nil {
			log.Warnw("failed to close queue", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infow("starting mail worker", "smtp_host", cfg.SMTPHost)
		err := queue.Consume(gctx, mailer.NewSMTPMailer(cfg))
		if errors.Is(err, context.Canceled) {
			log.Info("mail worker stopped")
			return nil
		}
		return err
	})

	return g.Wait()
}
