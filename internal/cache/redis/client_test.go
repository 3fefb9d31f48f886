package redis

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glucorisk/backend/internal/features"
	"github.com/glucorisk/backend/internal/risk"
)

func TestNilClientIsAlwaysMiss(t *testing.T) {
	var c *Client
	ctx := context.Background()
	var v features.Vector

	assert.False(t, c.Available())
	require.NoError(t, c.SetInference(ctx, "KNN", v, risk.Inference{Label: 1, Probability: 0.9}))

	_, found, err := c.GetInference(ctx, "KNN", v)
	require.NoError(t, err)
	assert.False(t, found)

	var summary map[string]any
	found, err = c.GetStats(ctx, &summary)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.SetStats(ctx, summary))
	require.NoError(t, c.InvalidateStats(ctx))
	require.NoError(t, c.Close())
}

func TestInferenceKey(t *testing.T) {
	var a, b features.Vector
	b[features.Polyuria] = 1

	ka := InferenceKey("CatBoost", a)
	assert.True(t, strings.HasPrefix(ka, "inference:CatBoost:"))
	assert.Equal(t, ka, InferenceKey("CatBoost", a))
	assert.NotEqual(t, ka, InferenceKey("CatBoost", b))
	assert.NotEqual(t, ka, InferenceKey("KNN", a))
}

func TestNewClientUnreachable(t *testing.T) {
	c, err := NewClient(context.Background(), Options{Host: "127.0.0.1", Port: 1})
	assert.Error(t, err)
	assert.Nil(t, c)
}
