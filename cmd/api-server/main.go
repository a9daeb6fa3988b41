package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/RomeoJackson199/dentibot-scheduling/internal/api"
	"github.com/RomeoJackson199/dentibot-scheduling/internal/booking"
	"github.com/RomeoJackson199/dentibot-scheduling/internal/completion"
	"github.com/RomeoJackson199/dentibot-scheduling/internal/config"
	"github.com/RomeoJackson199/dentibot-scheduling/internal/db"
	"github.com/RomeoJackson199/dentibot-scheduling/internal/directory"
	"github.com/RomeoJackson199/dentibot-scheduling/internal/notify"
	"github.com/RomeoJackson199/dentibot-scheduling/internal/observability/metrics"
	redisclient "github.com/RomeoJackson199/dentibot-scheduling/internal/redis"
	"github.com/RomeoJackson199/dentibot-scheduling/internal/schedule"
	"github.com/RomeoJackson199/dentibot-scheduling/pkg/logging"
)

const version = "0.3.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting", "env", cfg.Env, "http_port", cfg.HTTPPort)

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

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("closing redis", "error", err)
		}
	}()
	logger.Info("connected to redis")

	m := metrics.NewBookingMetrics(nil)

	scheduleRepo := schedule.NewPgRepository(pgPool)
	bookingRepo := booking.NewPgRepository(pgPool)
	completionRepo := completion.NewPgRepository(pgPool)
	contacts := directory.NewPgDirectory(pgPool)

	calendar := schedule.NewCalendar(scheduleRepo)
	generator := schedule.NewGenerator(calendar, scheduleRepo, bookingRepo)

	locker := redisclient.NewRedisProviderLocker(rdb, cfg.LockTTL)
	ledger := booking.NewLedger(bookingRepo, locker, booking.Status(cfg.BookingInitialStatus), m, logger)

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

	orchestrator := completion.NewOrchestrator(ledger, completionRepo, contacts, gateway, cfg.NotifyTimeout, m, logger)

	router := api.NewRouter(api.RouterConfig{
		Calendar:        calendar,
		Generator:       generator,
		Ledger:          ledger,
		Orchestrator:    orchestrator,
		PgPool:          pgPool,
		Redis:           rdb,
		Env:             cfg.Env,
		Version:         version,
		DefaultDuration: cfg.DefaultSlotMinutes,
		Logger:          logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-rootCtx.Done()
	logger.Info("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
}
