package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/dropwatch/internal/config"
	"github.com/stemsi/dropwatch/internal/repository"
	"github.com/stemsi/dropwatch/internal/risk"
	"golang.org/x/sync/errgroup"
)

const topAtRiskLimit = 10

// DashboardData consolidates all metrics for the admin dashboard.
type DashboardData struct {
	repository.DashboardTotals
	LevelDistribution map[risk.Level]int                  `json:"level_distribution"`
	Departments       []repository.DashboardDepartment    `json:"departments"`
	TopAtRisk         []repository.DashboardAtRiskStudent `json:"top_at_risk"`
	GeneratedAt       time.Time                           `json:"generated_at"`
}

// DashboardService handles admin dashboard business logic.
type DashboardService struct {
	repo *repository.DashboardRepository
	rdb  *redis.Client
	ttl  time.Duration
	log  zerolog.Logger
}

// NewDashboardService creates a new DashboardService. A zero ttl disables caching.
func NewDashboardService(repo *repository.DashboardRepository, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *DashboardService {
	return &DashboardService{
		repo: repo,
		rdb:  rdb,
		ttl:  ttl,
		log:  log.With().Str("component", "dashboard").Logger(),
	}
}

// GetDashboardData serves the cached payload when present, otherwise runs
// the dashboard queries concurrently and caches the result.
func (s *DashboardService) GetDashboardData(ctx context.Context) (*DashboardData, error) {
	key := config.CacheKey.DashboardSummaryKey()

	if s.ttl > 0 {
		raw, err := s.rdb.Get(ctx, key).Bytes()
		if err == nil {
			var cached DashboardData
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Msg("Dashboard cache read failed")
		}
	}

	data := &DashboardData{GeneratedAt: time.Now().UTC()}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		data.DashboardTotals, err = s.repo.GetTotals(gCtx)
		return err
	})
	g.Go(func() (err error) {
		data.LevelDistribution, err = s.repo.GetLevelDistribution(gCtx)
		return err
	})
	g.Go(func() (err error) {
		data.Departments, err = s.repo.GetDepartmentBreakdown(gCtx)
		return err
	})
	g.Go(func() (err error) {
		data.TopAtRisk, err = s.repo.GetTopAtRisk(gCtx, topAtRiskLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if s.ttl > 0 {
		if raw, err := json.Marshal(data); err == nil {
			if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
				s.log.Warn().Err(err).Msg("Dashboard cache write failed")
			}
		}
	}
	return data, nil
}
