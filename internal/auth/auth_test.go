package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("correct horse battery")
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$2a$"))

	match, err := ComparePassword("correct horse battery", hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("wrong", hash)
	req.NoError(err)
	req.False(match)

	_, err = ComparePassword("anything", "not-a-hash")
	req.Error(err)
}

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	t.Run("round trip", func(t *testing.T) {
		req := require.New(t)
		token, err := issuer.Generate("u1", "Alice")
		req.NoError(err)

		claims, err := issuer.Validate(token)
		req.NoError(err)
		req.Equal("u1", claims.UserID)
		req.Equal("Alice", claims.Username)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewTokenIssuer("other-secret", time.Hour).Generate("u1", "Alice")
		require.NoError(t, err)

		_, err = issuer.Validate(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		req := require.New(t)
		old := NewTokenIssuer("test-secret", time.Minute)
		old.now = func() time.Time { return time.Now().Add(-time.Hour) }

		token, err := old.Generate("u1", "Alice")
		req.NoError(err)

		_, err = issuer.Validate(token)
		req.ErrorIs(err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Validate("invalid-token-string")
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issuer := NewTokenIssuer("test-secret", time.Hour)

	r := gin.New()
	r.GET("/me", Middleware(issuer), func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id.UserID, "username": id.Username})
	})

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Contains(t, w.Body.String(), "UNAUTHORIZED")
	})

	t.Run("header token", func(t *testing.T) {
		token, err := issuer.Generate("u1", "Alice")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.JSONEq(t, `{"id":"u1","username":"Alice"}`, w.Body.String())
	})

	t.Run("query token", func(t *testing.T) {
		token, err := issuer.Generate("u2", "Bob")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me?token="+token, nil))
		require.Equal(t, http.StatusOK, w.Code)
	})
}
