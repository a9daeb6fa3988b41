package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/RomeoJackson199/dentibot-scheduling/internal/booking"
	"github.com/RomeoJackson199/dentibot-scheduling/internal/config"
	"github.com/RomeoJackson199/dentibot-scheduling/internal/db"
	"github.com/RomeoJackson199/dentibot-scheduling/internal/directory"
	"github.com/RomeoJackson199/dentibot-scheduling/internal/notify"
	"github.com/RomeoJackson199/dentibot-scheduling/internal/reminder"
	"github.com/RomeoJackson199/dentibot-scheduling/pkg/logging"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("reminder-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	logger.Info("running reminder worker", "env", cfg.Env, "interval", cfg.ReminderInterval.String())

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	logger.Info("connected to postgres")

	repo := booking.NewPgRepository(pgPool)
	contacts := directory.NewPgDirectory(pgPool)

	var sender notify.EmailSender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		sender = sg
	} else {
		logger.Warn("sendgrid not configured, using stub email sender")
		sender = notify.NewStubEmailSender(logger)
	}
	gateway := notify.NewGateway(sender, contacts, cfg.NotifyTimeout, logger)

	worker := reminder.NewWorker(repo, gateway, cfg.ReminderLeadTime, logger)

	// Run once at startup
	runOnce(rootCtx, worker, logger)

	ticker := time.NewTicker(cfg.ReminderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info("shutdown signal received, stopping reminder worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, worker, logger)
		}
	}
}

func runOnce(ctx context.Context, worker *reminder.Worker, logger *logging.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	start := time.Now()
	sent, err := worker.Run(runCtx)
	if err != nil {
		logger.Error("reminder run error", "error", err)
		return
	}
	logger.Info("reminder run complete", "sent", sent, "duration", time.Since(start).String())
}
