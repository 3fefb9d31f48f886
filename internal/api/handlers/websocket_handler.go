package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/glucorisk/backend/internal/feed"
	"github.com/glucorisk/backend/pkg/logger"
)

type WebSocketHandler struct {
	hub *feed.Hub
}

func NewWebSocketHandler(hub *feed.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
	}
}

// Upgrade rejects plain HTTP requests to the feed route.
func (h *WebSocketHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// HandleConnection streams every new decision to the client until either
// side closes.
func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	sub := h.hub.Subscribe()
	logger.Info("WebSocket connection established", zap.String("remote", c.RemoteAddr().String()))

	defer func() {
		h.hub.Unsubscribe(sub)
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.sendStatus(c, "subscribed")

	for {
		select {
		case <-closed:
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := c.WriteJSON(ev); err != nil {
				logger.Debug("Failed to write WebSocket event", zap.Error(err))
				return
			}
		}
	}
}

func (h *WebSocketHandler) sendStatus(c *websocket.Conn, status string) {
	msg := map[string]interface{}{
		"type":   "status",
		"status": status,
	}

	if err := c.WriteJSON(msg); err != nil {
		logger.Debug("Failed to write WebSocket status", zap.Error(err))
	}
}
