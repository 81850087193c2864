package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/chat-app/backend/internal/auth"
	"github.com/chat-app/backend/internal/chat"
	"github.com/chat-app/backend/internal/ws"
)

// Dependencies are the collaborators shared by the API handlers.
type Dependencies struct {
	Manager   *chat.Manager
	Tokens    *auth.TokenIssuer
	WSService *ws.Service
}

// RegisterAPI registers every /api route on rg.
func RegisterAPI(rg *gin.RouterGroup, deps Dependencies) {
	requireAuth := auth.Middleware(deps.Tokens)

	NewAuthHandler(deps.Manager).RegisterRoutes(rg, requireAuth)
	NewWebSocketHandler(deps.Tokens, deps.WSService.Handler()).RegisterRoutes(rg)

	protected := rg.Group("", requireAuth)
	{
		NewUserHandler(deps.Manager, deps.WSService).RegisterRoutes(protected)
		NewFriendHandler(deps.Manager, deps.WSService).RegisterRoutes(protected)
		NewChatHandler(deps.Manager).RegisterRoutes(protected)
	}
}
