package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chat-app/backend/internal/auth"
	"github.com/chat-app/backend/internal/chat"
	"github.com/chat-app/backend/internal/model"
)

// PresenceChecker reports whether a user has a live socket connection.
type PresenceChecker interface {
	IsOnline(userID string) bool
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	*model.User
	Online bool `json:"online"`
}

func toUserResponses(users []*model.User, presence PresenceChecker) []UserResponse {
	response := make([]UserResponse, len(users))
	for i, u := range users {
		response[i] = UserResponse{User: u, Online: presence.IsOnline(u.ID)}
	}
	return response
}

// UserHandler handles user lookup and search.
type UserHandler struct {
	manager  *chat.Manager
	presence PresenceChecker
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(manager *chat.Manager, presence PresenceChecker) *UserHandler {
	return &UserHandler{manager: manager, presence: presence}
}

// Search handles GET /api/users/search?query=.
func (h *UserHandler) Search(c *gin.Context) {
	identity, _ := auth.IdentityFrom(c)

	users, err := h.manager.SearchUsers(c.Request.Context(), c.Query("query"), identity.UserID)
	if err != nil {
		sendDomainError(c, err, "search users")
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": toUserResponses(users, h.presence)})
}

// Get handles GET /api/users/:id.
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.manager.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		sendDomainError(c, err, "get user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": UserResponse{User: user, Online: h.presence.IsOnline(user.ID)}})
}

// RegisterRoutes registers the user routes on an authenticated group.
func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/users/search", h.Search)
	rg.GET("/users/:id", h.Get)
}
