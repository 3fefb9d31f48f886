package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/glucorisk/backend/internal/statistics"
	"github.com/glucorisk/backend/pkg/logger"
)

type SummaryProvider interface {
	Summary(ctx context.Context) (*statistics.Summary, error)
}

type StatisticsHandler struct {
	stats SummaryProvider
}

func NewStatisticsHandler(stats SummaryProvider) *StatisticsHandler {
	return &StatisticsHandler{stats: stats}
}

func (h *StatisticsHandler) Page(c *fiber.Ctx) error {
	summary, err := h.stats.Summary(c.UserContext())
	if err != nil {
		logger.Error("Failed to compute statistics", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString("Error: failed to compute statistics")
	}

	return render(c, statisticsTemplate, summary)
}

func (h *StatisticsHandler) Get(c *fiber.Ctx) error {
	summary, err := h.stats.Summary(c.UserContext())
	if err != nil {
		logger.Error("Failed to compute statistics", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to compute statistics",
		})
	}

	return c.JSON(summary)
}
