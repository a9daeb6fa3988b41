package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RomeoJackson199/dentibot-scheduling/internal/config"
	"github.com/RomeoJackson199/dentibot-scheduling/internal/db"
)

// Contention demo: every worker races for the same few morning slots of a
// single provider, so exactly one reservation per slot should land and the
// rest should come back 409.

type simConfig struct {
	APIBaseURL   string
	Workers      int
	Rounds       int
	SlotMinutes  int
	PatientLimit int
	PostgresDSN  string
}

type counters struct {
	reserved  int64
	conflicts int64
	rejected  int64
	errors    int64
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	cfg := simConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Workers:      getInt("SIM_WORKERS", 16),
		Rounds:       getInt("SIM_ROUNDS", 8),
		SlotMinutes:  getInt("SIM_SLOT_MINUTES", 30),
		PatientLimit: getInt("SIM_PATIENT_LIMIT", 200),
		PostgresDSN:  baseCfg.PostgresDSN,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	providerID, patients, err := loadIDs(ctx, pool, cfg.PatientLimit)
	if err != nil {
		log.Fatalf("load ids: %v", err)
	}
	log.Printf("provider %s, %d patients loaded", providerID, len(patients))

	client := &http.Client{Timeout: 10 * time.Second}

	// Next Monday 09:00 local time, one slot per round.
	day := nextMonday(time.Now())
	var totals counters

	for round := 0; round < cfg.Rounds; round++ {
		start := day.Add(time.Duration(9*60+round*cfg.SlotMinutes) * time.Minute)

		var wg sync.WaitGroup
		var c counters
		for i := 0; i < cfg.Workers; i++ {
			wg.Add(1)
			go func(workerID int) {
				defer wg.Done()
				patient := patients[rand.Intn(len(patients))]
				reserve(ctx, client, cfg, &c, providerID, patient, start)
			}(i)
		}
		wg.Wait()

		log.Printf("round %d (%s): reserved=%d conflicts=%d rejected=%d errors=%d",
			round, start.Format(time.RFC3339),
			c.reserved, c.conflicts, c.rejected, c.errors)

		if c.reserved > 1 {
			log.Printf("WARNING: slot double booked (%d winners)", c.reserved)
		}

		atomic.AddInt64(&totals.reserved, c.reserved)
		atomic.AddInt64(&totals.conflicts, c.conflicts)
		atomic.AddInt64(&totals.rejected, c.rejected)
		atomic.AddInt64(&totals.errors, c.errors)
	}

	fmt.Println()
	fmt.Println("SIMULATION REPORT")
	fmt.Printf("  rounds:    %d (workers per round: %d)\n", cfg.Rounds, cfg.Workers)
	fmt.Printf("  reserved:  %d\n", totals.reserved)
	fmt.Printf("  conflicts: %d\n", totals.conflicts)
	fmt.Printf("  rejected:  %d\n", totals.rejected)
	fmt.Printf("  errors:    %d\n", totals.errors)
}

func reserve(ctx context.Context, client *http.Client, cfg simConfig, c *counters, providerID, patientID uuid.UUID, start time.Time) {
	body, _ := json.Marshal(map[string]any{
		"provider_id":      providerID.String(),
		"patient_id":       patientID.String(),
		"start":            start.Format(time.RFC3339),
		"duration_minutes": cfg.SlotMinutes,
		"reason":           "simulated checkup",
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		cfg.APIBaseURL+"/appointments", bytes.NewReader(body))
	if err != nil {
		atomic.AddInt64(&c.errors, 1)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		atomic.AddInt64(&c.errors, 1)
		return
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		atomic.AddInt64(&c.reserved, 1)
	case http.StatusConflict:
		atomic.AddInt64(&c.conflicts, 1)
	case http.StatusUnprocessableEntity:
		atomic.AddInt64(&c.rejected, 1)
	default:
		atomic.AddInt64(&c.errors, 1)
	}
}

func loadIDs(ctx context.Context, pool *pgxpool.Pool, patientLimit int) (uuid.UUID, []uuid.UUID, error) {
	var providerID uuid.UUID
	err := pool.QueryRow(ctx, `
		SELECT p.id
		FROM providers p
		JOIN provider_availability a ON a.provider_id = p.id
		LIMIT 1
	`).Scan(&providerID)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("load provider: %w", err)
	}

	rows, err := pool.Query(ctx, `SELECT id FROM patients LIMIT $1`, patientLimit)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("load patients: %w", err)
	}
	defer rows.Close()

	var patients []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return uuid.Nil, nil, err
		}
		patients = append(patients, id)
	}
	if len(patients) == 0 {
		return uuid.Nil, nil, fmt.Errorf("no patients loaded, run the seed command first")
	}

	return providerID, patients, nil
}

func nextMonday(from time.Time) time.Time {
	d := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	for d.Weekday() != time.Monday || !d.After(from) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
