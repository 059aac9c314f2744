package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/solarerp/backend/internal/domain/shared"
	"github.com/solarerp/backend/internal/infrastructure/logger"
	"github.com/solarerp/backend/internal/interfaces/http/dto"
	"github.com/solarerp/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler holds the response helpers every handler embeds. Helpers that
// return a bool have already written the failure when they report false.
type BaseHandler struct{}

// tenant is the tenant of the authenticated principal. A route without
// claims never reaches a handler, so a missing tenant answers 401.
func (h *BaseHandler) tenant(c *gin.Context) (uuid.UUID, bool) {
	id, err := middleware.TenantID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return uuid.Nil, false
	}
	return id, true
}

func (h *BaseHandler) pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

func (h *BaseHandler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.validation(c, err)
		return false
	}
	return true
}

func (h *BaseHandler) validation(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta answers one page of a list
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// fail answers with code, normalized to ERR_ form, and the status mapped to it
func (h *BaseHandler) fail(c *gin.Context, code, message string) {
	code = dto.NormalizeErrorCode(code)
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.fail(c, dto.ErrCodeBadRequest, message)
}

func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.fail(c, dto.ErrCodeUnauthorized, message)
}

// HandleError answers a service error. Business rule failures keep their
// code and message; anything else is logged and hidden behind ERR_INTERNAL.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	switch {
	case err == nil:
		return
	case errors.As(err, &domainErr):
		h.fail(c, domainErr.Code, domainErr.Message)
	default:
		logger.Ctx(c.Request.Context()).Error("request failed",
			zap.String("route", c.FullPath()),
			zap.Error(err))
		h.fail(c, dto.ErrCodeInternal, "An unexpected error occurred")
	}
}
