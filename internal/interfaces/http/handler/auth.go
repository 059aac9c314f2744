package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/solarerp/backend/internal/infrastructure/auth"
	"github.com/solarerp/backend/internal/infrastructure/logger"
	"github.com/solarerp/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// AuthHandler serves the session endpoints. Tokens are issued by the
// identity provider, so there is no login here.
type AuthHandler struct {
	BaseHandler
	blacklist auth.TokenBlacklist
	now       func() time.Time
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(blacklist auth.TokenBlacklist) *AuthHandler {
	return &AuthHandler{blacklist: blacklist, now: time.Now}
}

// LogoutResponse is returned by POST /auth/logout
// @Description Logout confirmation
type LogoutResponse struct {
	Message string `json:"message" example:"Logged out successfully"`
}

// CurrentUserResponse describes the authenticated principal
// @Description Authenticated principal
type CurrentUserResponse struct {
	TenantID     string    `json:"tenant_id"`
	UserID       string    `json:"user_id"`
	Username     string    `json:"username,omitempty"`
	Role         string    `json:"role" example:"SALES"`
	Capabilities []string  `json:"capabilities"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Logout godoc
// @ID           logout
// @Summary      Revoke the current token
// @Description  Blacklists the token id until the token would have expired anyway.
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[LogoutResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	if claims.ID == "" {
		h.BadRequest(c, "Token has no id and cannot be revoked")
		return
	}

	ttl := claims.ExpiresAtTime().Sub(h.now())
	if err := h.blacklist.Revoke(c.Request.Context(), claims.ID, ttl); err != nil {
		h.HandleError(c, err)
		return
	}
	logger.Ctx(c.Request.Context()).Info("token revoked",
		zap.String("jti", claims.ID),
		zap.Duration("ttl", ttl))

	h.Success(c, LogoutResponse{Message: "Logged out successfully"})
}

// Me godoc
// @ID           getCurrentUser
// @Summary      Describe the authenticated principal
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[CurrentUserResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	caps := auth.Capabilities(claims.Role)
	if caps == nil {
		caps = []string{}
	}
	h.Success(c, CurrentUserResponse{
		TenantID:     claims.TenantID,
		UserID:       claims.UserID,
		Username:     claims.Username,
		Role:         string(claims.Role),
		Capabilities: caps,
		ExpiresAt:    claims.ExpiresAtTime(),
	})
}
