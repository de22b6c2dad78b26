package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/stemsi/dropwatch/internal/config"
	"github.com/stemsi/dropwatch/internal/database"
	"github.com/stemsi/dropwatch/internal/logger"
	"github.com/stemsi/dropwatch/internal/model"
	"github.com/stemsi/dropwatch/internal/repository"
	"github.com/stemsi/dropwatch/internal/service"
)

func main() {
	path := flag.String("file", "", "Path to a .csv or .xlsx student sheet")
	predict := flag.Bool("predict", false, "Score the new students once the import finishes")
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "Usage: import-students -file <sheet.csv|sheet.xlsx> [-predict]")
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	f, err := os.Open(*path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open upload")
	}
	defer f.Close()

	studentRepo := repository.NewStudentRepository(pool)

	// The run below is synchronous, so nothing is queued.
	importer := service.NewImportService(studentRepo, nil, nil, cfg.ImportBatchSize, log)

	fmt.Printf("=== Importing %s ===\n", filepath.Base(*path))
	result, err := importer.Import(ctx, filepath.Base(*path), f)
	if result != nil {
		printJSON(result)
	}
	if err != nil {
		if service.IsUploadError(err) {
			fmt.Fprintf(os.Stderr, "Upload rejected: %v\n", err)
			os.Exit(1)
		}
		log.Fatal().Err(err).Msg("Import failed")
	}

	if !*predict || result.Inserted == 0 {
		return
	}

	predictor := service.NewPredictionService(studentRepo, nil, cfg.PredictionBatchSize, log)
	summary, err := predictor.Run(ctx, model.TriggerCLI, model.PredictionRequest{ProcessNewStudents: true})
	if err != nil {
		log.Fatal().Err(err).Msg("Prediction run failed")
	}
	printJSON(summary)
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
