package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/glucorisk/backend/internal/metrics"
	"github.com/glucorisk/backend/internal/prediction"
	"github.com/glucorisk/backend/internal/storage/models"
	"github.com/glucorisk/backend/pkg/logger"
)

const maxHistoryLimit = 200

type HistoryStore interface {
	ListPredictions(ctx context.Context, limit int) ([]models.PredictionRecord, error)
	DeletePrediction(ctx context.Context, id int64) (bool, error)
}

type StatsInvalidator interface {
	InvalidateStats(ctx context.Context) error
}

type HistoryHandler struct {
	store        HistoryStore
	cache        StatsInvalidator
	defaultLimit int
}

// NewHistoryHandler builds a HistoryHandler. cache may be nil.
func NewHistoryHandler(store HistoryStore, cache StatsInvalidator, defaultLimit int) *HistoryHandler {
	if defaultLimit <= 0 || defaultLimit > maxHistoryLimit {
		defaultLimit = 50
	}
	return &HistoryHandler{
		store:        store,
		cache:        cache,
		defaultLimit: defaultLimit,
	}
}

type historyItem struct {
	ID          int64   `json:"id"`
	TraceID     string  `json:"trace_id"`
	Age         int     `json:"age"`
	Gender      string  `json:"gender"`
	Prediction  int     `json:"prediction"`
	Probability float64 `json:"probability"`
	ModelUsed   string  `json:"model_used"`
	Diagnosis   string  `json:"diagnosis"`
	CreatedAt   string  `json:"created_at"`
}

func toHistoryItem(r models.PredictionRecord) historyItem {
	d := prediction.Decision{Label: r.Label}
	return historyItem{
		ID:          r.ID,
		TraceID:     r.TraceID,
		Age:         r.Age,
		Gender:      r.Answers.Gender,
		Prediction:  r.Label,
		Probability: r.Probability,
		ModelUsed:   r.ModelUsed,
		Diagnosis:   d.Diagnosis(),
		CreatedAt:   r.CreatedAt.Format(timeLayout),
	}
}

// Page renders the newest records as HTML with a delete button per row.
func (h *HistoryHandler) Page(c *fiber.Ctx) error {
	records, err := h.store.ListPredictions(c.UserContext(), h.defaultLimit)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("list").Inc()
		logger.Error("Failed to load history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString("Error: failed to load prediction history")
	}

	items := make([]historyItem, 0, len(records))
	for _, r := range records {
		items = append(items, toHistoryItem(r))
	}

	return render(c, historyTemplate, items)
}

func (h *HistoryHandler) List(c *fiber.Ctx) error {
	limit := h.defaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "limit must be a positive integer",
			})
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := h.store.ListPredictions(c.UserContext(), limit)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("list").Inc()
		logger.Error("Failed to load history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to load prediction history",
		})
	}

	items := make([]historyItem, 0, len(records))
	for _, r := range records {
		items = append(items, toHistoryItem(r))
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"count":       len(items),
		"predictions": items,
	})
}

func (h *HistoryHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid prediction id",
		})
	}

	deleted, err := h.store.DeletePrediction(c.UserContext(), id)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("delete").Inc()
		logger.Error("Failed to delete prediction", zap.Int64("id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to delete prediction",
		})
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Prediction not found",
		})
	}

	if h.cache != nil {
		if err := h.cache.InvalidateStats(c.UserContext()); err != nil {
			logger.Warn("Failed to invalidate stats cache", zap.Error(err))
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Data berhasil dihapus",
	})
}
