package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/glucorisk/backend/internal/prediction"
	"github.com/glucorisk/backend/pkg/logger"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type InfoHandler struct {
	activeModel string
	loaded      []string
	store       Pinger
}

// NewInfoHandler describes the running service. activeModel is "" when
// only the fallback rules are available.
func NewInfoHandler(activeModel string, loaded []string, store Pinger) *InfoHandler {
	return &InfoHandler{
		activeModel: activeModel,
		loaded:      loaded,
		store:       store,
	}
}

func (h *InfoHandler) modelLabel() string {
	if h.activeModel == "" {
		return prediction.ModelFallback
	}
	return h.activeModel
}

func (h *InfoHandler) Backend(c *fiber.Ctx) error {
	loaded := "none"
	if len(h.loaded) > 0 {
		loaded = strings.Join(h.loaded, ", ")
	}

	return c.SendString(fmt.Sprintf(`Diabetes Risk Prediction Backend
================================

ENDPOINTS:
  GET    /                        Prediction form
  POST   /prediksi                Predict diabetes risk
  POST   /predict                 Predict diabetes risk (alias)
  GET    /riwayat                 Prediction history
  GET    /statistik               Statistics
  DELETE /hapus/<id>              Delete prediction
  GET    /api/v1/predictions      Prediction history (JSON)
  POST   /api/v1/predictions      Predict diabetes risk (JSON)
  DELETE /api/v1/predictions/<id> Delete prediction (JSON)
  GET    /api/v1/statistics       Statistics (JSON)
  GET    /api/v1/health           Liveness
  GET    /api/v1/ready            Readiness
  GET    /metrics                 Prometheus metrics
  GET    /ws/predictions          Live prediction feed

MODEL:
  Active model:  %s
  Loaded models: %s
  Features:      16 clinical answers
`, h.modelLabel(), loaded))
}

func (h *InfoHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

func (h *InfoHandler) Ready(c *fiber.Ctx) error {
	if h.store != nil {
		if err := h.store.Ping(c.UserContext()); err != nil {
			logger.Warn("Readiness check failed", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
				"error":  "database unreachable",
			})
		}
	}

	return c.JSON(fiber.Map{
		"status": "ready",
		"model":  h.modelLabel(),
	})
}
