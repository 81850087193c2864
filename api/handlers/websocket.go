package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chat-app/backend/internal/auth"
	"github.com/chat-app/backend/internal/model"
	"github.com/chat-app/backend/internal/ws"
)

// WebSocketHandler handles the live chat socket.
type WebSocketHandler struct {
	tokens    *auth.TokenIssuer
	wsHandler *ws.Handler
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(tokens *auth.TokenIssuer, wsHandler *ws.Handler) *WebSocketHandler {
	return &WebSocketHandler{
		tokens:    tokens,
		wsHandler: wsHandler,
	}
}

// Connect handles GET /api/socket. A bearer token, when present, must be
// valid and registers the connection as that user right away; without one
// the connection starts anonymous and is expected to send "register".
func (h *WebSocketHandler) Connect(c *gin.Context) {
	var identity *model.Identity
	if token := auth.BearerToken(c.Request); token != "" {
		claims, err := h.tokens.Validate(token)
		if err != nil {
			sendError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
			return
		}
		identity = &model.Identity{UserID: claims.UserID, Username: claims.Username}
	}

	if err := h.wsHandler.HandleConnection(c.Writer, c.Request, identity); err != nil {
		// The upgrader has already responded.
		return
	}
}

// RegisterRoutes registers the WebSocket handler routes on a Gin router group.
func (h *WebSocketHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/socket", h.Connect)
}
