// Package prediction runs the decision pipeline: encode, classify or fall
// back, adjust, persist and publish.
package prediction

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/glucorisk/backend/internal/features"
	"github.com/glucorisk/backend/internal/feed"
	"github.com/glucorisk/backend/internal/metrics"
	"github.com/glucorisk/backend/internal/risk"
	"github.com/glucorisk/backend/internal/storage/models"
	"github.com/glucorisk/backend/pkg/logger"
)

const (
	ModelFallback = "Fallback logic"

	DiagnosisPositive = "Berisiko Diabetes"
	DiagnosisNormal   = "Normal"
)

// FallbackName is the model_used value when the named classifier failed.
func FallbackName(model string) string {
	return fmt.Sprintf("Fallback (%s failed)", model)
}

type Inferrer interface {
	ModelName() string
	Infer(ctx context.Context, v features.Vector) (risk.Inference, error)
}

type Store interface {
	InsertPrediction(ctx context.Context, record *models.PredictionRecord) (int64, error)
}

type Cache interface {
	GetInference(ctx context.Context, model string, v features.Vector) (risk.Inference, bool, error)
	SetInference(ctx context.Context, model string, v features.Vector, inf risk.Inference) error
	InvalidateStats(ctx context.Context) error
}

type Publisher interface {
	Publish(ev feed.Event) int
}

// Config is fixed at startup. Every field is optional; leave Inferrer nil
// when no classifier loaded.
type Config struct {
	Inferrer Inferrer
	Store    Store
	Cache    Cache
	Feed     Publisher
}

type Decision struct {
	Label       int     `json:"prediction"`
	Probability float64 `json:"probability"`
	ModelUsed   string  `json:"model_used"`
	// Rule names the threshold rule that changed the label, if any.
	Rule string `json:"-"`
}

func (d Decision) Diagnosis() string {
	if d.Label == risk.Positive {
		return DiagnosisPositive
	}
	return DiagnosisNormal
}

type Result struct {
	// ID is 0 when the decision could not be stored.
	ID        int64
	TraceID   string
	CreatedAt time.Time
	Decision
}

type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// ActiveModel returns the classifier name, or "" when only the fallback
// rules are available.
func (e *Engine) ActiveModel() string {
	if e.cfg.Inferrer == nil {
		return ""
	}
	return e.cfg.Inferrer.ModelName()
}

// Decide turns a vector into a decision. It never fails: classifier errors
// route to the fallback rules.
func (e *Engine) Decide(ctx context.Context, v features.Vector) Decision {
	start := time.Now()
	d, path := e.decide(ctx, v)

	metrics.PipelineDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	metrics.ProbabilityScore.Observe(d.Probability)
	metrics.PredictionsTotal.WithLabelValues(d.ModelUsed, strconv.Itoa(d.Label)).Inc()

	return d
}

func (e *Engine) decide(ctx context.Context, v features.Vector) (Decision, string) {
	if e.cfg.Inferrer == nil {
		inf := risk.Fallback(v)
		return Decision{Label: inf.Label, Probability: inf.Probability, ModelUsed: ModelFallback}, "fallback"
	}

	model := e.cfg.Inferrer.ModelName()
	raw, err := e.infer(ctx, model, v)
	if err != nil {
		metrics.InferenceFailures.WithLabelValues(model).Inc()
		logger.Warn("Classifier failed, using fallback rules",
			zap.String("model", model),
			zap.Error(err),
		)
		inf := risk.Fallback(v)
		return Decision{Label: inf.Label, Probability: inf.Probability, ModelUsed: FallbackName(model)}, "fallback"
	}

	adjusted, rule := risk.AdjustRule(raw, v)
	if rule != "" {
		metrics.ThresholdAdjustments.WithLabelValues(rule).Inc()
		c := risk.Count(v)
		logger.Debug("Classifier label adjusted",
			zap.String("model", model),
			zap.String("rule", rule),
			zap.Int("raw_label", raw.Label),
			zap.Int("label", adjusted.Label),
			zap.Float64("probability", raw.Probability),
			zap.Int("main", c.Main),
			zap.Int("secondary", c.Secondary),
			zap.Int("total", c.Total),
			zap.Int("age", c.Age),
		)
	}

	return Decision{
		Label:       adjusted.Label,
		Probability: adjusted.Probability,
		ModelUsed:   model,
		Rule:        rule,
	}, "classifier"
}

func (e *Engine) infer(ctx context.Context, model string, v features.Vector) (risk.Inference, error) {
	if e.cfg.Cache != nil {
		inf, found, err := e.cfg.Cache.GetInference(ctx, model, v)
		if err != nil {
			logger.Warn("Failed to read inference cache", zap.Error(err))
		}
		if found {
			metrics.CacheHits.WithLabelValues("inference").Inc()
			return inf, nil
		}
		metrics.CacheMisses.WithLabelValues("inference").Inc()
	}

	inf, err := e.cfg.Inferrer.Infer(ctx, v)
	if err != nil {
		return inf, err
	}

	if e.cfg.Cache != nil {
		if err := e.cfg.Cache.SetInference(ctx, model, v, inf); err != nil {
			logger.Warn("Failed to write inference cache", zap.Error(err))
		}
	}
	return inf, nil
}

// Predict runs the full pipeline for one questionnaire. A storage failure
// is logged and the decision is still returned with ID 0. The only error
// is a context that was already done.
func (e *Engine) Predict(ctx context.Context, answers features.Answers) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v := features.Encode(answers)
	d := e.Decide(ctx, v)

	result := &Result{
		TraceID:   uuid.New().String(),
		CreatedAt: time.Now(),
		Decision:  d,
	}

	if e.cfg.Store != nil {
		record := NewRecord(answers, v, result)
		id, err := e.cfg.Store.InsertPrediction(ctx, record)
		if err != nil {
			metrics.StoreErrors.WithLabelValues("insert").Inc()
			logger.Error("Failed to store prediction",
				zap.String("trace_id", result.TraceID),
				zap.Error(err),
			)
		} else {
			result.ID = id
			if e.cfg.Cache != nil {
				if err := e.cfg.Cache.InvalidateStats(ctx); err != nil {
					logger.Warn("Failed to invalidate stats cache", zap.Error(err))
				}
			}
		}
	}

	if e.cfg.Feed != nil {
		e.cfg.Feed.Publish(feed.Event{
			Type:        "prediction",
			ID:          result.ID,
			TraceID:     result.TraceID,
			Prediction:  d.Label,
			Probability: d.Probability,
			ModelUsed:   d.ModelUsed,
			Diagnosis:   d.Diagnosis(),
			CreatedAt:   result.CreatedAt,
		})
	}

	logger.Info("Prediction completed",
		zap.String("trace_id", result.TraceID),
		zap.Int64("id", result.ID),
		zap.Int("prediction", d.Label),
		zap.Float64("probability", d.Probability),
		zap.String("model_used", d.ModelUsed),
	)

	return result, nil
}

// NewRecord builds the stored form of a decision with the raw answers.
func NewRecord(answers features.Answers, v features.Vector, r *Result) *models.PredictionRecord {
	return &models.PredictionRecord{
		TraceID: r.TraceID,
		Age:     v.AgeYears(),
		Answers: models.Answers{
			Age:             answers.Text("age"),
			Gender:          answers.Text("gender"),
			Polyuria:        answers.Text("polyuria"),
			Polydipsia:      answers.Text("polydipsia"),
			WeightLoss:      answers.Text("weight_loss"),
			Weakness:        answers.Text("weakness"),
			Polyphagia:      answers.Text("polyphagia"),
			GenitalThrush:   answers.Text("genital_thrush"),
			VisualBlurring:  answers.Text("visual_blurring"),
			Itching:         answers.Text("itching"),
			Irritability:    answers.Text("irritability"),
			DelayedHealing:  answers.Text("delayed_healing"),
			PartialParesis:  answers.Text("partial_paresis"),
			MuscleStiffness: answers.Text("muscle_stiffness"),
			Alopecia:        answers.Text("alopecia"),
			Obesity:         answers.Text("obesity"),
		},
		Label:       r.Label,
		Probability: r.Probability,
		ModelUsed:   r.ModelUsed,
		CreatedAt:   r.CreatedAt,
	}
}
