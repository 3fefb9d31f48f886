// Package statistics aggregates stored decisions into the summary shown on
// the statistics page.
package statistics

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/glucorisk/backend/internal/metrics"
	"github.com/glucorisk/backend/internal/storage/models"
	"github.com/glucorisk/backend/pkg/logger"
)

type Store interface {
	CountPredictions(ctx context.Context) (int, error)
	CountPositive(ctx context.Context) (int, error)
	CountByModel(ctx context.Context) ([]models.ModelUsage, error)
}

type Cache interface {
	GetStats(ctx context.Context, summary interface{}) (bool, error)
	SetStats(ctx context.Context, summary interface{}) error
}

type Summary struct {
	Total         int                 `json:"total"`
	Positive      int                 `json:"positive"`
	Normal        int                 `json:"normal"`
	PositiveRatio float64             `json:"positive_ratio"`
	ModelUsage    []models.ModelUsage `json:"model_usage"`
}

// RatioText renders the positive share as a percentage with one decimal.
func (s Summary) RatioText() string {
	return fmt.Sprintf("%.1f%%", s.PositiveRatio)
}

type Service struct {
	store Store
	cache Cache
}

// NewService builds a Service. cache may be nil.
func NewService(store Store, cache Cache) *Service {
	return &Service{store: store, cache: cache}
}

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	if s.cache != nil {
		var cached Summary
		found, err := s.cache.GetStats(ctx, &cached)
		if err != nil {
			logger.Warn("Failed to read stats cache", zap.Error(err))
		}
		if found {
			metrics.CacheHits.WithLabelValues("stats").Inc()
			return &cached, nil
		}
		metrics.CacheMisses.WithLabelValues("stats").Inc()
	}

	var (
		total, positive int
		usage           []models.ModelUsage
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		if total, err = s.store.CountPredictions(gctx); err != nil {
			return fmt.Errorf("failed to count predictions: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if positive, err = s.store.CountPositive(gctx); err != nil {
			return fmt.Errorf("failed to count positive predictions: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if usage, err = s.store.CountByModel(gctx); err != nil {
			return fmt.Errorf("failed to count model usage: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := Compute(total, positive, usage)

	if s.cache != nil {
		if err := s.cache.SetStats(ctx, summary); err != nil {
			logger.Warn("Failed to write stats cache", zap.Error(err))
		}
	}

	logger.Debug("Statistics computed",
		zap.Int("total", summary.Total),
		zap.Int("positive", summary.Positive),
		zap.Int("models", len(summary.ModelUsage)),
	)

	return summary, nil
}

// Compute builds a Summary from raw counts. The ratio is 0 when there are
// no records.
func Compute(total, positive int, usage []models.ModelUsage) *Summary {
	// The counts come from separate queries and may straddle an insert.
	positive = min(positive, total)

	summary := &Summary{
		Total:      total,
		Positive:   positive,
		Normal:     total - positive,
		ModelUsage: usage,
	}
	if summary.ModelUsage == nil {
		summary.ModelUsage = []models.ModelUsage{}
	}

	if total > 0 {
		summary.PositiveRatio = float64(positive) / float64(total) * 100
	}

	return summary
}

func Report(s *Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, `
Prediction Statistics
=====================

Total Predictions: %d
- At risk: %d
- Normal: %d
- Ratio: %s at risk

Model Usage:
`, s.Total, s.Positive, s.Normal, s.RatioText())

	if len(s.ModelUsage) == 0 {
		b.WriteString("- none\n")
	}
	for _, u := range s.ModelUsage {
		fmt.Fprintf(&b, "- %s: %d\n", u.ModelUsed, u.Count)
	}

	return b.String()
}
