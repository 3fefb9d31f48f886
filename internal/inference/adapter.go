package inference

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/glucorisk/backend/internal/classifier"
	"github.com/glucorisk/backend/internal/features"
	"github.com/glucorisk/backend/internal/risk"
	"github.com/glucorisk/backend/pkg/circuitbreaker"
	"github.com/glucorisk/backend/pkg/logger"
)

var (
	ErrUnsupportedModel = errors.New("classifier exposes neither vector nor tabular input")
	ErrMalformedOutput  = errors.New("classifier returned malformed output")
)

// Error reports that the active classifier could not produce a result.
type Error struct {
	Model string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("inference with %s failed: %v", e.Model, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type Config struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
	OnStateChange    func(name string, from, to circuitbreaker.State)
}

// Adapter runs the one active classifier behind a circuit breaker.
type Adapter struct {
	model classifier.Classifier
	cb    *circuitbreaker.CircuitBreaker
}

func NewAdapter(model classifier.Classifier, cfg Config) *Adapter {
	cb := circuitbreaker.NewCircuitBreaker(model.Name(), circuitbreaker.Config{
		MaxRequests:      1,
		Timeout:          cfg.OpenTimeout,
		FailureThreshold: cfg.FailureThreshold,
		SuccessThreshold: 1,
		OnStateChange:    cfg.OnStateChange,
		Logger:           logger.GetLogger(),
	})

	return &Adapter{model: model, cb: cb}
}

func (a *Adapter) ModelName() string {
	return a.model.Name()
}

func (a *Adapter) BreakerState() circuitbreaker.State {
	return a.cb.State()
}

// Infer shapes v for the classifier, asks for label and probability and
// checks both. Every failure comes back as *Error.
func (a *Adapter) Infer(ctx context.Context, v features.Vector) (out risk.Inference, err error) {
	err = a.cb.Execute(ctx, func() (callErr error) {
		defer func() {
			if r := recover(); r != nil {
				callErr = fmt.Errorf("classifier panicked: %v", r)
			}
		}()
		out, callErr = a.call(v)
		return callErr
	})
	if err != nil {
		logger.Warn("Classifier inference failed", zap.String("model", a.model.Name()), zap.Error(err))
		return risk.Inference{}, &Error{Model: a.model.Name(), Err: err}
	}
	return out, nil
}

func (a *Adapter) call(v features.Vector) (risk.Inference, error) {
	var (
		label int
		prob  float64
		err   error
	)

	switch m := a.model.(type) {
	case classifier.TabularClassifier:
		row, rowErr := classifier.RowFromVector(v, m.Columns())
		if rowErr != nil {
			return risk.Inference{}, rowErr
		}
		if label, err = m.PredictRow(row); err != nil {
			return risk.Inference{}, err
		}
		if prob, err = m.PredictRowProbability(row); err != nil {
			return risk.Inference{}, err
		}
	case classifier.VectorClassifier:
		x := v.Slice()
		if label, err = m.Predict(x); err != nil {
			return risk.Inference{}, err
		}
		if prob, err = m.PredictProbability(x); err != nil {
			return risk.Inference{}, err
		}
	default:
		return risk.Inference{}, ErrUnsupportedModel
	}

	if label != risk.Negative && label != risk.Positive {
		return risk.Inference{}, fmt.Errorf("%w: label %d", ErrMalformedOutput, label)
	}
	if math.IsNaN(prob) || prob < 0 || prob > 1 {
		return risk.Inference{}, fmt.Errorf("%w: probability %v", ErrMalformedOutput, prob)
	}

	return risk.Inference{Label: label, Probability: prob}, nil
}
