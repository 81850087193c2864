package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chat-app/backend/internal/auth"
	"github.com/chat-app/backend/internal/chat"
)

// ChatHandler handles chat listing and creation.
type ChatHandler struct {
	manager *chat.Manager
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(manager *chat.Manager) *ChatHandler {
	return &ChatHandler{manager: manager}
}

// CreateChatRequest represents the request body for starting a private chat.
type CreateChatRequest struct {
	ParticipantID string `json:"participantId" binding:"required"`
}

// List handles GET /api/chats/:userId.
func (h *ChatHandler) List(c *gin.Context) {
	identity, ok := requireSelf(c, "userId")
	if !ok {
		return
	}

	chats, err := h.manager.ListChats(c.Request.Context(), identity.UserID)
	if err != nil {
		sendDomainError(c, err, "list chats")
		return
	}

	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// Create handles POST /api/chats.
func (h *ChatHandler) Create(c *gin.Context) {
	var req CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}

	identity, _ := auth.IdentityFrom(c)
	result, created, err := h.manager.CreatePrivateChat(c.Request.Context(), identity.UserID, req.ParticipantID)
	if err != nil {
		sendDomainError(c, err, "create chat")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"chat": result})
}

// RegisterRoutes registers the chat routes on an authenticated group.
func (h *ChatHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chats", h.Create)
	rg.GET("/chats/:userId", h.List)
}
