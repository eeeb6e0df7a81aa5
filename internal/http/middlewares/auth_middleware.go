package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wisdomhub/filekeep/internal/auth"
)

// SessionVerifier resolves a bearer token to a user id.
type SessionVerifier interface {
	VerifySession(token string) (string, error)
}

type AuthMiddleware struct {
	sessions SessionVerifier
}

func NewAuthMiddleware(sessions SessionVerifier) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, "Missing or invalid Authorization header")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if raw == "" {
			abortUnauthorized(c, "Missing or invalid access token")
			return
		}

		userID, err := m.sessions.VerifySession(raw)
		if err != nil {
			msg := "Invalid access token"
			if errors.Is(err, auth.ErrExpiredToken) {
				msg = "Access token expired"
			}
			abortUnauthorized(c, msg)
			return
		}

		c.Set(CtxUserID, userID)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":      "unauthorized",
			"message":   message,
			"requestId": RequestIDFromContext(c),
		},
	})
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
