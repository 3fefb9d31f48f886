package prediction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/glucorisk/backend/internal/features"
	"github.com/glucorisk/backend/internal/feed"
	"github.com/glucorisk/backend/internal/risk"
	"github.com/glucorisk/backend/internal/storage/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubInferrer struct {
	name  string
	out   risk.Inference
	err   error
	calls int
}

func (s *stubInferrer) ModelName() string { return s.name }

func (s *stubInferrer) Infer(context.Context, features.Vector) (risk.Inference, error) {
	s.calls++
	return s.out, s.err
}

type memStore struct {
	records []*models.PredictionRecord
	err     error
}

func (m *memStore) InsertPrediction(_ context.Context, r *models.PredictionRecord) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.records = append(m.records, r)
	r.ID = int64(len(m.records))
	return r.ID, nil
}

type memCache struct {
	inference   map[string]risk.Inference
	invalidated int
}

func newMemCache() *memCache {
	return &memCache{inference: map[string]risk.Inference{}}
}

func (m *memCache) GetInference(_ context.Context, model string, v features.Vector) (risk.Inference, bool, error) {
	inf, ok := m.inference[model+v.String()]
	return inf, ok, nil
}

func (m *memCache) SetInference(_ context.Context, model string, v features.Vector, inf risk.Inference) error {
	m.inference[model+v.String()] = inf
	return nil
}

func (m *memCache) InvalidateStats(context.Context) error {
	m.invalidated++
	return nil
}

type recordingFeed struct {
	events []feed.Event
}

func (r *recordingFeed) Publish(ev feed.Event) int {
	r.events = append(r.events, ev)
	return 1
}

func answers(age any, present ...string) features.Answers {
	a := features.Answers{"age": age, "gender": features.Female}
	for _, k := range features.Keys[features.Polyuria:] {
		a[k] = features.Absent
	}
	for _, k := range present {
		a[k] = features.Present
	}
	return a
}

func TestDecideWithoutClassifier(t *testing.T) {
	e := NewEngine(Config{})

	d := e.Decide(context.Background(), features.Encode(answers(50, "polyuria", "polydipsia")))

	assert.Equal(t, risk.Positive, d.Label)
	assert.InDelta(t, 0.80, d.Probability, 1e-9)
	assert.Equal(t, ModelFallback, d.ModelUsed)
	assert.Equal(t, DiagnosisPositive, d.Diagnosis())
	assert.Equal(t, "", e.ActiveModel())
}

func TestDecideClassifierFailureFallsBack(t *testing.T) {
	inf := &stubInferrer{name: "CatBoost", err: errors.New("bad input")}
	e := NewEngine(Config{Inferrer: inf})

	d := e.Decide(context.Background(), features.Encode(answers(20)))

	assert.Equal(t, risk.Negative, d.Label)
	assert.InDelta(t, 0.20, d.Probability, 1e-9)
	assert.Equal(t, "Fallback (CatBoost failed)", d.ModelUsed)
	assert.Equal(t, DiagnosisNormal, d.Diagnosis())
}

func TestDecideAdjustsClassifierOutput(t *testing.T) {
	t.Run("downgrade with few symptoms", func(t *testing.T) {
		inf := &stubInferrer{name: "Gradient Boosting", out: risk.Inference{Label: 1, Probability: 0.70}}
		d := NewEngine(Config{Inferrer: inf}).Decide(context.Background(),
			features.Encode(answers(35, "polyuria")))

		assert.Equal(t, risk.Negative, d.Label)
		assert.InDelta(t, 0.70, d.Probability, 1e-9)
		assert.Equal(t, "Gradient Boosting", d.ModelUsed)
		assert.NotEmpty(t, d.Rule)
	})

	t.Run("upgrade with both main symptoms", func(t *testing.T) {
		inf := &stubInferrer{name: "KNN", out: risk.Inference{Label: 0, Probability: 0.62}}
		d := NewEngine(Config{Inferrer: inf}).Decide(context.Background(),
			features.Encode(answers(40, "polyuria", "polydipsia")))

		assert.Equal(t, risk.Positive, d.Label)
		assert.InDelta(t, 0.62, d.Probability, 1e-9)
		assert.Equal(t, risk.RuleMainSymptoms, d.Rule)
	})

	t.Run("confident positive kept", func(t *testing.T) {
		inf := &stubInferrer{name: "KNN", out: risk.Inference{Label: 1, Probability: 0.9}}
		d := NewEngine(Config{Inferrer: inf}).Decide(context.Background(),
			features.Encode(answers(50, "polyuria", "polydipsia", "weakness", "itching")))

		assert.Equal(t, risk.Positive, d.Label)
		assert.Empty(t, d.Rule)
	})
}

func TestDecideUsesInferenceCache(t *testing.T) {
	inf := &stubInferrer{name: "KNN", out: risk.Inference{Label: 0, Probability: 0.1}}
	e := NewEngine(Config{Inferrer: inf, Cache: newMemCache()})
	v := features.Encode(answers(33))

	first := e.Decide(context.Background(), v)
	second := e.Decide(context.Background(), v)

	assert.Equal(t, 1, inf.calls)
	assert.Equal(t, first, second)
}

func TestPredictStoresAndPublishes(t *testing.T) {
	store := &memStore{}
	cache := newMemCache()
	live := &recordingFeed{}
	e := NewEngine(Config{Store: store, Cache: cache, Feed: live})

	a := answers("52", "polyuria", "polydipsia")
	a["gender"] = features.Male

	res, err := e.Predict(context.Background(), a)
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.ID)
	assert.NotEmpty(t, res.TraceID)
	assert.Equal(t, ModelFallback, res.ModelUsed)
	assert.Equal(t, 1, cache.invalidated)

	require.Len(t, store.records, 1)
	rec := store.records[0]
	assert.Equal(t, 52, rec.Age)
	assert.Equal(t, "52", rec.Answers.Age)
	assert.Equal(t, features.Male, rec.Answers.Gender)
	assert.Equal(t, features.Present, rec.Answers.Polyuria)
	assert.Equal(t, features.Absent, rec.Answers.Obesity)
	assert.Equal(t, res.Label, rec.Label)
	assert.Equal(t, res.TraceID, rec.TraceID)

	require.Len(t, live.events, 1)
	assert.Equal(t, int64(1), live.events[0].ID)
	assert.Equal(t, DiagnosisPositive, live.events[0].Diagnosis)
}

func TestPredictStoreFailureStillDecides(t *testing.T) {
	cache := newMemCache()
	e := NewEngine(Config{Store: &memStore{err: errors.New("disk full")}, Cache: cache})

	res, err := e.Predict(context.Background(), answers(20))
	require.NoError(t, err)

	assert.Equal(t, int64(0), res.ID)
	assert.Equal(t, risk.Negative, res.Label)
	assert.Equal(t, 0, cache.invalidated)
}

func TestPredictMalformedAnswers(t *testing.T) {
	res, err := NewEngine(Config{}).Predict(context.Background(), features.Answers{
		"age": []int{1}, "gender": 3, "polyuria": true,
	})
	require.NoError(t, err)

	assert.Equal(t, risk.Negative, res.Label)
	assert.InDelta(t, 0.20, res.Probability, 1e-9)
}

func TestPredictCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(Config{}).Predict(ctx, answers(30))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFallbackName(t *testing.T) {
	assert.Equal(t, "Fallback (Gradient Boosting failed)", FallbackName("Gradient Boosting"))
}
