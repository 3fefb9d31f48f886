package risk

import (
	"math"

	"go.uber.org/zap"

	"github.com/glucorisk/backend/internal/features"
	"github.com/glucorisk/backend/pkg/logger"
)

// Fallback scores a vector without a classifier. The first matching rule wins.
func Fallback(v features.Vector) Inference {
	c := Count(v)

	logger.Debug("Fallback check",
		zap.Int("main", c.Main),
		zap.Int("secondary", c.Secondary),
		zap.Int("other", c.Other),
		zap.Int("total", c.Total),
		zap.Int("age", c.Age),
	)

	total := float64(c.Total)

	if c.Main >= 2 {
		return Inference{Label: Positive, Probability: math.Min(0.85, 0.70+total*0.05)}
	}
	if c.Main >= 1 && c.Total >= 3 {
		return Inference{Label: Positive, Probability: math.Min(0.80, 0.65+total*0.04)}
	}
	if c.Age > 45 && c.Total >= 4 {
		return Inference{Label: Positive, Probability: 0.70}
	}
	if c.Total >= 5 {
		return Inference{Label: Positive, Probability: 0.65}
	}
	return Inference{Label: Negative, Probability: math.Min(0.45, 0.20+total*0.03)}
}
