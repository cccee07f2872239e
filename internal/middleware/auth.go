package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kediacrm/internal/authz"
	"kediacrm/internal/logger"
	"kediacrm/internal/models"
	"kediacrm/internal/services"
)

const (
	CtxUserID   = "user_id"
	CtxUserName = "user_name"
	CtxRole     = "role"
)

// TokenParser is the part of the auth service the middleware needs.
type TokenParser interface {
	ParseToken(token string) (*services.Claims, error)
}

// UserLookup resolves the subject of a token to the stored account.
// Get returns nil, nil for an unknown id.
type UserLookup interface {
	Get(ctx context.Context, id string) (*models.User, error)
}

// ErrorBody is the JSON body of every failed request. The dashboard reads "message".
func ErrorBody(msg string) gin.H {
	return gin.H{"error": msg, "message": msg}
}

// список публичных эндпоинтов, которые не требуют токена
func isPublicPath(path string) bool {
	switch path {
	case "/api/auth/login", "/health":
		return true
	}
	return strings.HasPrefix(path, "/swagger")
}

// AuthMiddleware accepts a bearer token only while its account still exists.
// Name and role come from the stored user, so a demotion or deletion applies
// on the next request instead of when the token expires.
func AuthMiddleware(tokens TokenParser, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		// preflight
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		if isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorBody("Missing or invalid Authorization header"))
			return
		}

		claims, err := tokens.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			logger.Warn("[auth][token] rejected", zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorBody("Invalid or expired token"))
			return
		}
		if claims.UserID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorBody("Invalid or expired token"))
			return
		}

		user, err := users.Get(c.Request.Context(), claims.UserID)
		if err != nil {
			logger.Error("[auth][token] user lookup failed", err, zap.String("user_id", claims.UserID))
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorBody("internal server error"))
			return
		}
		if user == nil {
			logger.Warn("[auth][token] account gone", zap.String("user_id", claims.UserID))
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorBody("Invalid or expired token"))
			return
		}
		role, err := authz.ParseRole(string(user.Role))
		if err != nil {
			logger.Warn("[auth][token] account has no known role", zap.String("user_id", user.ID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorBody("Invalid or expired token"))
			return
		}

		c.Set(CtxUserID, user.ID)
		c.Set(CtxUserName, user.Name)
		c.Set(CtxRole, role)
		c.Next()
	}
}
