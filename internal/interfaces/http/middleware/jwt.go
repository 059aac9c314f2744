package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/solarerp/backend/internal/infrastructure/auth"
	"github.com/solarerp/backend/internal/infrastructure/logger"
	"github.com/solarerp/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Gin context keys written by JWTAuth
const (
	ClaimsKey   = "jwt_claims"
	TenantIDKey = "jwt_tenant_id"
	UserIDKey   = "jwt_user_id"
)

const bearerPrefix = "Bearer "

// ErrNoPrincipal is returned when a handler runs without authenticated claims
var ErrNoPrincipal = errors.New("no authenticated principal")

// JWTConfig configures JWTAuth
type JWTConfig struct {
	JWTService *auth.JWTService
	// Blacklist is optional; when set revoked tokens are rejected
	Blacklist        auth.TokenBlacklist
	SkipPaths        []string
	SkipPathPrefixes []string
	Logger           *zap.Logger
}

// JWTAuth validates the bearer token and stores the claims, tenant and user
// in the gin context and the request logger
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if slices.Contains(cfg.SkipPaths, path) {
			c.Next()
			return
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, bearerPrefix)
		if !found || token == "" {
			authFailed(c, log, auth.ErrInvalidToken)
			return
		}

		claims, err := cfg.JWTService.Validate(token)
		if err != nil {
			authFailed(c, log, err)
			return
		}

		if cfg.Blacklist != nil && claims.ID != "" {
			revoked, err := cfg.Blacklist.IsRevoked(c.Request.Context(), claims.ID)
			switch {
			case err != nil:
				// fail open: the blacklist store being down must not take the API with it
				log.Error("token blacklist lookup failed", zap.String("jti", claims.ID), zap.Error(err))
			case revoked:
				authFailed(c, log, auth.ErrTokenRevoked)
				return
			}
		}

		setPrincipal(c, claims)
		c.Next()
	}
}

func setPrincipal(c *gin.Context, claims *auth.Claims) {
	c.Set(ClaimsKey, claims)
	c.Set(TenantIDKey, claims.TenantID)
	c.Set(UserIDKey, claims.UserID)
	c.Request = c.Request.WithContext(logger.WithPrincipal(c.Request.Context(), claims.TenantID, claims.UserID))
}

func authFailed(c *gin.Context, log *zap.Logger, err error) {
	log.Debug("authentication failed", zap.String("path", c.Request.URL.Path), zap.Error(err))

	code, message := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenRevoked):
		code, message = dto.ErrCodeTokenRevoked, "Token has been revoked"
	case errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrInvalidClaims),
		errors.Is(err, auth.ErrUnknownRole):
		code, message = dto.ErrCodeTokenInvalid, "Invalid token"
	case errors.Is(err, auth.ErrInvalidToken):
		if c.GetHeader("Authorization") != "" {
			code, message = dto.ErrCodeTokenInvalid, "Invalid token"
		}
	}
	abort(c, http.StatusUnauthorized, code, message)
}

// GetClaims returns the claims stored by JWTAuth, or nil
func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// TenantID returns the authenticated tenant
func TenantID(c *gin.Context) (uuid.UUID, error) {
	claims := GetClaims(c)
	if claims == nil {
		return uuid.Nil, ErrNoPrincipal
	}
	return claims.TenantUUID()
}

// UserID returns the authenticated user
func UserID(c *gin.Context) (uuid.UUID, error) {
	claims := GetClaims(c)
	if claims == nil {
		return uuid.Nil, ErrNoPrincipal
	}
	return claims.UserUUID()
}
