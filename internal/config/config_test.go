package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PREDICTION_BATCH_SIZE", "")
	t.Setenv("SCORE_EDIT_POLICY", "")

	cfg := Load()

	assert.Equal(t, 50, cfg.PredictionBatchSize)
	assert.Equal(t, 100, cfg.ImportBatchSize)
	assert.Equal(t, ScoreEditKeep, cfg.ScoreEditPolicy)
	assert.Equal(t, time.Duration(0), cfg.PredictionSweepPeriod)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PREDICTION_BATCH_SIZE", "25")
	t.Setenv("SCORE_EDIT_POLICY", "Invalidate")
	t.Setenv("PREDICTION_SWEEP_INTERVAL_SECONDS", "300")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg := Load()

	assert.Equal(t, 25, cfg.PredictionBatchSize)
	assert.Equal(t, ScoreEditInvalidate, cfg.ScoreEditPolicy)
	assert.Equal(t, 5*time.Minute, cfg.PredictionSweepPeriod)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoad_RejectsNonPositiveBatchSize(t *testing.T) {
	t.Setenv("PREDICTION_BATCH_SIZE", "0")
	t.Setenv("IMPORT_BATCH_SIZE", "nope")

	cfg := Load()

	assert.Equal(t, 50, cfg.PredictionBatchSize)
	assert.Equal(t, 100, cfg.ImportBatchSize)
}

func TestParseScoreEditPolicy_UnknownFallsBackToKeep(t *testing.T) {
	assert.Equal(t, ScoreEditKeep, parseScoreEditPolicy("sometimes"))
}
