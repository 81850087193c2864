// Package handlers provides HTTP API request handlers.
package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chat-app/backend/internal/auth"
	"github.com/chat-app/backend/internal/model"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// sendError sends an error response with the appropriate status code.
func sendError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// sendDomainError maps a manager or repository error to an HTTP response.
func sendDomainError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		sendError(c, http.StatusNotFound, "USER_NOT_FOUND", err.Error())
	case errors.Is(err, model.ErrChatNotFound):
		sendError(c, http.StatusNotFound, "CHAT_NOT_FOUND", err.Error())
	case errors.Is(err, model.ErrEmailTaken), errors.Is(err, model.ErrUsernameTaken), errors.Is(err, model.ErrAlreadyFriends):
		sendError(c, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, model.ErrSelfFriendship):
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, model.ErrInvalidCredentials):
		sendError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error())
	case errors.Is(err, model.ErrForbidden):
		sendError(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	default:
		log.Printf("Failed to %s: %v", action, err)
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+action)
	}
}

// requireSelf returns the authenticated identity when it matches the :param
// user ID, writing a 403 otherwise.
func requireSelf(c *gin.Context, param string) (model.Identity, bool) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		sendError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return model.Identity{}, false
	}
	if c.Param(param) != identity.UserID {
		sendError(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
		return model.Identity{}, false
	}
	return identity, true
}
