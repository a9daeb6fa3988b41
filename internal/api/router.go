package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/RomeoJackson199/dentibot-scheduling/internal/booking"
	"github.com/RomeoJackson199/dentibot-scheduling/internal/completion"
	"github.com/RomeoJackson199/dentibot-scheduling/internal/schedule"
	"github.com/RomeoJackson199/dentibot-scheduling/pkg/logging"
)

type RouterConfig struct {
	Calendar        *schedule.Calendar
	Generator       *schedule.Generator
	Ledger          *booking.Ledger
	Orchestrator    *completion.Orchestrator
	PgPool          *pgxpool.Pool
	Redis           *redis.Client
	Env             string
	Version         string
	DefaultDuration int
	Logger          *logging.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/providers/{id}", func(r chi.Router) {
		r.Get("/slots", slotsHandler(cfg.Generator, cfg.DefaultDuration))
		r.Put("/availability", setAvailabilityHandler(cfg.Calendar))
		r.Post("/exceptions", createExceptionHandler(cfg.Calendar))
	})

	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", reserveHandler(cfg.Ledger, cfg.Generator))
		r.Get("/{id}", getAppointmentHandler(cfg.Ledger))
		r.Post("/{id}/confirm", confirmHandler(cfg.Ledger))
		r.Post("/{id}/cancel", cancelHandler(cfg.Ledger))
		r.Post("/{id}/complete", completeHandler(cfg.Orchestrator))
	})

	r.Get("/patients/{id}/appointments", listPatientAppointmentsHandler(cfg.Ledger))

	return r
}
