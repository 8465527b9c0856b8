package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/codeforchange/hackportal/internal/models"
	"github.com/codeforchange/hackportal/internal/services"
	"github.com/codeforchange/hackportal/pkg/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	UserIDKey   = "userID"
	IdentityKey = "identity"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*services.Identity, error)
}

// AuthMiddleware проверяет JWT токен из заголовка Authorization
func AuthMiddleware(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractTokenFromHeader(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}

		authenticate(c, authenticator, token)
	}
}

// WSAuthMiddleware специальный middleware для WebSocket: браузер не может
// выставить заголовок при апгрейде, поэтому токен берется из query
func WSAuthMiddleware(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			authHeader := c.GetHeader("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
				token = parts[1]
			}
		}

		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		authenticate(c, authenticator, token)
	}
}

// RequireRole пропускает только пользователей с указанной ролью
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok || id.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		c.Next()
	}
}

func GetIdentity(c *gin.Context) (*services.Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*services.Identity)
	return id, ok
}

func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func authenticate(c *gin.Context, authenticator Authenticator, token string) {
	id, err := authenticator.Authenticate(c.Request.Context(), token)
	if err != nil {
		msg := "invalid token"
		if errors.Is(err, services.ErrTokenRevoked) {
			msg = "token is blacklisted"
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
		return
	}

	c.Set(UserIDKey, id.UserID)
	c.Set(IdentityKey, id)
	c.Next()
}
