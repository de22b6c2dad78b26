package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/dropwatch/internal/config"
	"github.com/stemsi/dropwatch/internal/database"
	"github.com/stemsi/dropwatch/internal/logger"
	"github.com/stemsi/dropwatch/internal/model"
	"github.com/stemsi/dropwatch/internal/repository"
	"github.com/stemsi/dropwatch/internal/service"
)

func main() {
	processNew := flag.Bool("new", false, "Score every student without a risk score")
	idList := flag.String("ids", "", "Comma-separated student UUIDs to score")
	timeout := flag.Duration("timeout", 30*time.Minute, "Abort the run after this long")
	flag.Parse()

	req := model.PredictionRequest{ProcessNewStudents: *processNew}
	for _, raw := range strings.Split(*idList, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid student id %q: %v\n", raw, err)
			os.Exit(2)
		}
		req.StudentIDs = append(req.StudentIDs, id)
	}
	if err := service.ValidateRequest(req); err != nil {
		fmt.Fprintln(os.Stderr, "Usage: predict -new | -ids <uuid>[,<uuid>...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// ─── Connect ───────────────────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// Redis is optional here; without it the run is not broadcast.
	var notifier service.RunNotifier
	if rdb, err := database.NewRedisClient(ctx, cfg, log); err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, run will not be broadcast")
	} else {
		defer rdb.Close()
		notifier = service.NewEventService(rdb, log)
	}

	predictor := service.NewPredictionService(repository.NewStudentRepository(pool), notifier, cfg.PredictionBatchSize, log)

	summary, err := predictor.Run(ctx, model.TriggerCLI, req)
	if err != nil {
		log.Fatal().Err(err).Msg("Prediction run failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(summary)

	if summary.FailedBatches > 0 {
		os.Exit(1)
	}
}
