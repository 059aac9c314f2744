package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/solarerp/backend/internal/infrastructure/auth"
	"github.com/solarerp/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// RequireCapability lets the request through when the caller's role grants
// capability. Must run after JWTAuth.
func RequireCapability(capability string, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			abort(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		if !auth.Can(claims.Role, capability) {
			log.Info("permission denied",
				zap.String("user_id", claims.UserID),
				zap.String("role", string(claims.Role)),
				zap.String("capability", capability),
				zap.String("route", c.FullPath()))
			abort(c, http.StatusForbidden, dto.ErrCodeForbidden, "Missing capability "+capability)
			return
		}
		c.Next()
	}
}
