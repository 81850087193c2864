package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chat-app/backend/internal/auth"
	"github.com/chat-app/backend/internal/chat"
	"github.com/chat-app/backend/internal/model"
)

// AuthHandler handles account registration, login and the current user.
type AuthHandler struct {
	manager *chat.Manager
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(manager *chat.Manager) *AuthHandler {
	return &AuthHandler{manager: manager}
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}

	user, token, err := h.manager.Register(c.Request.Context(), &req)
	if err != nil {
		sendDomainError(c, err, "register user")
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{Token: token, User: user})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}

	user, token, err := h.manager.Login(c.Request.Context(), &req)
	if err != nil {
		sendDomainError(c, err, "log in")
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Token: token, User: user})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		sendError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	user, err := h.manager.GetUser(c.Request.Context(), identity.UserID)
	if err != nil {
		sendDomainError(c, err, "get current user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// RegisterRoutes registers the auth routes. requireAuth guards /me.
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	group := rg.Group("/auth")
	group.POST("/register", h.Register)
	group.POST("/login", h.Login)
	group.GET("/me", requireAuth, h.Me)
}
