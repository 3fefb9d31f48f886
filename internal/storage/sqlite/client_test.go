package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glucorisk/backend/internal/storage/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(filepath.Join(t.TempDir(), "db", "predictions.db"))
	require.NoError(t, err)
	require.NoError(t, c.InitSchema())
	t.Cleanup(func() { c.Close() })
	return c
}

func record(label int, model string, at time.Time) *models.PredictionRecord {
	return &models.PredictionRecord{
		TraceID:     "trace",
		Age:         45,
		Answers:     models.Answers{Age: "45", Gender: "Pria", Polyuria: "Ya", Polydipsia: "Tidak"},
		Label:       label,
		Probability: 0.8,
		ModelUsed:   model,
		CreatedAt:   at,
	}
}

func TestInsertAndList(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	base := time.Unix(1700000000, 0)

	first, err := c.InsertPrediction(ctx, record(1, "Gradient Boosting", base))
	require.NoError(t, err)
	second, err := c.InsertPrediction(ctx, record(0, "KNN", base.Add(time.Minute)))
	require.NoError(t, err)
	assert.Greater(t, second, first)

	list, err := c.ListPredictions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, second, list[0].ID)
	assert.Equal(t, "KNN", list[0].ModelUsed)
	assert.Equal(t, first, list[1].ID)
	assert.Equal(t, "Pria", list[1].Answers.Gender)
	assert.Equal(t, "Ya", list[1].Answers.Polyuria)
	assert.Equal(t, "45", list[1].Answers.Age)
	assert.Equal(t, 45, list[1].Age)
	assert.True(t, base.Equal(list[1].CreatedAt))
}

func TestListRespectsLimit(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := c.InsertPrediction(ctx, record(0, "KNN", time.Unix(int64(i), 0)))
		require.NoError(t, err)
	}

	list, err := c.ListPredictions(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestListNonPositiveLimitUsesDefault(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := c.InsertPrediction(ctx, record(0, "KNN", time.Unix(int64(i), 0)))
		require.NoError(t, err)
	}

	for _, limit := range []int{0, -1} {
		list, err := c.ListPredictions(ctx, limit)
		require.NoError(t, err)
		assert.Len(t, list, 3)
	}
}

func TestInsertSetsCreatedAt(t *testing.T) {
	c := newTestClient(t)
	r := record(0, "KNN", time.Time{})

	id, err := c.InsertPrediction(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, id, r.ID)
	assert.False(t, r.CreatedAt.IsZero())
}

func TestDeletePrediction(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	id, err := c.InsertPrediction(ctx, record(1, "CatBoost", time.Now()))
	require.NoError(t, err)

	deleted, err := c.DeletePrediction(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = c.DeletePrediction(ctx, id)
	require.NoError(t, err)
	assert.False(t, deleted)

	n, err := c.CountPredictions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCounts(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	now := time.Now()

	for _, r := range []*models.PredictionRecord{
		record(1, "Gradient Boosting", now),
		record(1, "Gradient Boosting", now),
		record(0, "Fallback logic", now),
		record(0, "Gradient Boosting", now),
	} {
		_, err := c.InsertPrediction(ctx, r)
		require.NoError(t, err)
	}

	total, err := c.CountPredictions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	positive, err := c.CountPositive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, positive)

	usage, err := c.CountByModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.ModelUsage{
		{ModelUsed: "Gradient Boosting", Count: 3},
		{ModelUsed: "Fallback logic", Count: 1},
	}, usage)
}

func TestCountByModelEmpty(t *testing.T) {
	c := newTestClient(t)

	usage, err := c.CountByModel(context.Background())
	require.NoError(t, err)
	assert.Empty(t, usage)
	assert.NotNil(t, usage)
}

func TestIsBusy(t *testing.T) {
	assert.True(t, isBusy(sqlite3.Error{Code: sqlite3.ErrBusy}))
	assert.True(t, isBusy(sqlite3.Error{Code: sqlite3.ErrLocked}))
	assert.False(t, isBusy(sqlite3.Error{Code: sqlite3.ErrConstraint}))
	assert.False(t, isBusy(errors.New("other")))
}
