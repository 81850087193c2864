package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chat-app/backend/internal/auth"
	"github.com/chat-app/backend/internal/chat"
)

// FriendHandler handles friend lists and friend invites.
type FriendHandler struct {
	manager  *chat.Manager
	presence PresenceChecker
}

// NewFriendHandler creates a new FriendHandler.
func NewFriendHandler(manager *chat.Manager, presence PresenceChecker) *FriendHandler {
	return &FriendHandler{manager: manager, presence: presence}
}

// InviteFriendRequest represents the request body for adding a friend.
type InviteFriendRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// List handles GET /api/friends/:userId.
func (h *FriendHandler) List(c *gin.Context) {
	identity, ok := requireSelf(c, "userId")
	if !ok {
		return
	}

	friends, err := h.manager.ListFriends(c.Request.Context(), identity.UserID)
	if err != nil {
		sendDomainError(c, err, "list friends")
		return
	}

	c.JSON(http.StatusOK, gin.H{"friends": toUserResponses(friends, h.presence)})
}

// Invite handles POST /api/friends/invite.
func (h *FriendHandler) Invite(c *gin.Context) {
	var req InviteFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}

	identity, _ := auth.IdentityFrom(c)
	friend, err := h.manager.AddFriendByEmail(c.Request.Context(), identity.UserID, req.Email)
	if err != nil {
		sendDomainError(c, err, "add friend")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"friend": UserResponse{User: friend, Online: h.presence.IsOnline(friend.ID)}})
}

// RegisterRoutes registers the friend routes on an authenticated group.
func (h *FriendHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/friends/invite", h.Invite)
	rg.GET("/friends/:userId", h.List)
}
