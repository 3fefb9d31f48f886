package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/glucorisk/backend/internal/features"
	"github.com/glucorisk/backend/internal/middleware/validation"
	"github.com/glucorisk/backend/internal/prediction"
	"github.com/glucorisk/backend/pkg/logger"
)

type Predictor interface {
	Predict(ctx context.Context, answers features.Answers) (*prediction.Result, error)
}

type PredictionHandler struct {
	engine Predictor
}

func NewPredictionHandler(engine Predictor) *PredictionHandler {
	return &PredictionHandler{
		engine: engine,
	}
}

// HandlePredict expects validation.Answers to run first.
func (h *PredictionHandler) HandlePredict(c *fiber.Ctx) error {
	answers := validation.FromContext(c)
	if answers == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	result, err := h.engine.Predict(c.UserContext(), answers)
	if err != nil {
		logger.Error("Failed to process prediction", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to process prediction",
		})
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"id":          result.ID,
		"trace_id":    result.TraceID,
		"prediction":  result.Label,
		"probability": result.Probability,
		"model_used":  result.ModelUsed,
		"diagnosis":   result.Diagnosis(),
	})
}
