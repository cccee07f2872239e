package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kediacrm/internal/models"
)

func RequireRoles(allowed ...models.Role) gin.HandlerFunc {
	allowedSet := map[models.Role]struct{}{}
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}
	return func(c *gin.Context) {
		v, exists := c.Get(CtxRole)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorBody("no role in context"))
			return
		}
		role, _ := v.(models.Role)
		if _, ok := allowedSet[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorBody("forbidden"))
			return
		}
		c.Next()
	}
}
