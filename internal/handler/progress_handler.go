package handler

import (
	"design-companion-be/internal/pkg/logger"
	"design-companion-be/internal/pkg/serverutils"
	internalWS "design-companion-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// ProgressHandler upgrades authenticated clients to the live push channel
// carrying upload progress and activity notices.
type ProgressHandler struct {
	hub    *internalWS.Hub
	tokens *serverutils.TokenManager
	logger logger.ILogger
}

func NewProgressHandler(hub *internalWS.Hub, tokens *serverutils.TokenManager, log logger.ILogger) *ProgressHandler {
	return &ProgressHandler{
		hub:    hub,
		tokens: tokens,
		logger: log,
	}
}

// ServeWs accepts the token from the query string (browsers cannot set
// headers on a websocket handshake) or the Authorization header.
func (h *ProgressHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		tokenStr = serverutils.BearerToken(c)
	}
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Missing token (Query 'token' or Header 'Authorization')"))
	}

	claims, err := h.tokens.Parse(tokenStr)
	if err != nil {
		h.logger.Warn("PROGRESS", "Invalid token in websocket handshake", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
	}

	if websocket.IsWebSocketUpgrade(c) {
		clientID := claims.ClientID
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("PROGRESS", "Websocket session started", map[string]interface{}{"client_id": clientID})
			internalWS.ServeWs(h.hub, conn, clientID)
			h.logger.Info("PROGRESS", "Websocket session ended", map[string]interface{}{"client_id": clientID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

func (h *ProgressHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/progress", h.ServeWs)
}
