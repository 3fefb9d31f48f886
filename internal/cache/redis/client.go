package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/glucorisk/backend/internal/features"
	"github.com/glucorisk/backend/internal/risk"
	"github.com/glucorisk/backend/pkg/logger"
	"github.com/glucorisk/backend/pkg/utils"
)

const statsKey = "stats:summary"

// Client caches classifier outputs and the statistics summary. A nil
// *Client is valid and behaves as an always-missing cache.
type Client struct {
	client       *redis.Client
	inferenceTTL time.Duration
	statsTTL     time.Duration
}

type Options struct {
	Host         string
	Port         int
	Password     string
	DB           int
	InferenceTTL time.Duration
	StatsTTL     time.Duration
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", addr))

	return &Client{
		client:       client,
		inferenceTTL: opts.InferenceTTL,
		statsTTL:     opts.StatsTTL,
	}, nil
}

func (c *Client) Available() bool {
	return c != nil && c.client != nil
}

func (c *Client) Close() error {
	if !c.Available() {
		return nil
	}
	return c.client.Close()
}

func InferenceKey(model string, v features.Vector) string {
	return fmt.Sprintf("inference:%s:%s", model, utils.HashString(v.String()))
}

// SetInference stores a classifier output for the given model and vector.
func (c *Client) SetInference(ctx context.Context, model string, v features.Vector, inf risk.Inference) error {
	if !c.Available() {
		return nil
	}
	return c.set(ctx, InferenceKey(model, v), inf, c.inferenceTTL)
}

func (c *Client) GetInference(ctx context.Context, model string, v features.Vector) (risk.Inference, bool, error) {
	var inf risk.Inference
	if !c.Available() {
		return inf, false, nil
	}
	found, err := c.get(ctx, InferenceKey(model, v), &inf)
	return inf, found, err
}

func (c *Client) SetStats(ctx context.Context, summary interface{}) error {
	if !c.Available() {
		return nil
	}
	return c.set(ctx, statsKey, summary, c.statsTTL)
}

func (c *Client) GetStats(ctx context.Context, summary interface{}) (bool, error) {
	if !c.Available() {
		return false, nil
	}
	return c.get(ctx, statsKey, summary)
}

// InvalidateStats drops the cached summary after the record set changed.
func (c *Client) InvalidateStats(ctx context.Context) error {
	if !c.Available() {
		return nil
	}
	if err := c.client.Del(ctx, statsKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate stats cache: %w", err)
	}
	logger.Debug("Stats cache invalidated")
	return nil
}

func (c *Client) set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache key: %w", err)
	}

	logger.Debug("Cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func (c *Client) get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get cache key: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	logger.Debug("Cache hit", zap.String("key", key))
	return true, nil
}
