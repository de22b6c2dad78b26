package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/dropwatch/internal/config"
	"github.com/stemsi/dropwatch/internal/model"
)

// EventService publishes prediction run events over Redis PubSub and
// drops the cached dashboard whenever the student population changes.
type EventService struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewEventService creates a new EventService.
func NewEventService(rdb *redis.Client, log zerolog.Logger) *EventService {
	return &EventService{rdb: rdb, log: log.With().Str("component", "events").Logger()}
}

// PredictionFinished publishes the event and invalidates the dashboard in
// one pipeline. Failures are logged only.
func (s *EventService) PredictionFinished(ctx context.Context, ev model.PredictionEvent) {
	raw, err := json.Marshal(ev)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to encode prediction event")
		return
	}

	pipe := s.rdb.Pipeline()
	pipe.Publish(ctx, config.CacheKey.PredictionEventsChannel(), raw)
	pipe.Del(ctx, config.CacheKey.DashboardSummaryKey())
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Failed to publish prediction event")
	}
}

// InvalidateDashboard drops the cached dashboard payload.
func (s *EventService) InvalidateDashboard(ctx context.Context) {
	if err := s.rdb.Del(ctx, config.CacheKey.DashboardSummaryKey()).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to invalidate dashboard cache")
	}
}

// Subscribe opens a subscription to prediction run events. The caller
// must close the returned PubSub.
func (s *EventService) Subscribe(ctx context.Context) *redis.PubSub {
	return s.rdb.Subscribe(ctx, config.CacheKey.PredictionEventsChannel())
}
