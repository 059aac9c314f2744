package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	kitapp "github.com/solarerp/backend/internal/application/kit"
	"github.com/solarerp/backend/internal/domain/kit"
	"github.com/solarerp/backend/internal/interfaces/http/dto"
)

// KitHandler serves kit compositions
type KitHandler struct {
	BaseHandler
	kitService *kitapp.KitService
}

// NewKitHandler creates a new KitHandler
func NewKitHandler(kitService *kitapp.KitService) *KitHandler {
	return &KitHandler{kitService: kitService}
}

// KitLineRequest is one stock backed line of a kit
type KitLineRequest struct {
	MaterialID string          `json:"material_id" binding:"required,uuid"`
	Quantity   decimal.Decimal `json:"quantity" binding:"decimal_gt0" swaggertype:"string" example:"10"`
}

// KitRequest is the body of POST /kits and PUT /kits/:id. An update replaces
// the whole kit, lines and informational items included.
// @Description Request body for a kit
type KitRequest struct {
	Name               string                 `json:"name" binding:"required,min=1,max=200" example:"Kit 5kWp Residencial"`
	Category           string                 `json:"category" binding:"max=100" example:"Residencial"`
	Price              decimal.Decimal        `json:"price" binding:"decimal_gte0" swaggertype:"string" example:"18990.90"`
	Lines              []KitLineRequest       `json:"lines" binding:"max=200,dive"`
	InformationalItems kit.InformationalItems `json:"informational_items"`
}

// KitListQuery is the query of GET /kits
type KitListQuery struct {
	Category string `form:"category" binding:"max=100"`
	Search   string `form:"search" binding:"max=200"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

func (r KitRequest) toInput() kitapp.KitInput {
	lines := make([]kit.LineInput, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, kit.LineInput{MaterialID: uuid.MustParse(l.MaterialID), Quantity: l.Quantity})
	}
	return kitapp.KitInput{
		Name:               r.Name,
		Category:           r.Category,
		Price:              r.Price,
		Lines:              lines,
		InformationalItems: r.InformationalItems,
	}
}

// CreateKit godoc
// @ID           createKit
// @Summary      Create a kit
// @Description  Creates a kit from stock backed lines plus informational items (COTACAO, SERVICO). Stock coverage is reported, not enforced.
// @Tags         kits
// @Accept       json
// @Produce      json
// @Param        request body KitRequest true "Kit"
// @Success      201 {object} APIResponse[kitapp.KitResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse "Invalid informational items or duplicate line"
// @Security     BearerAuth
// @Router       /kits [post]
func (h *KitHandler) CreateKit(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req KitRequest
	if !h.bind(c, &req) {
		return
	}

	k, err := h.kitService.CreateKit(c.Request.Context(), tenantID, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, k)
}

// UpdateKit godoc
// @ID           updateKit
// @Summary      Replace a kit
// @Tags         kits
// @Accept       json
// @Produce      json
// @Param        id      path string     true "Kit ID" format(uuid)
// @Param        request body KitRequest true "Kit"
// @Success      200 {object} APIResponse[kitapp.KitResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /kits/{id} [put]
func (h *KitHandler) UpdateKit(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req KitRequest
	if !h.bind(c, &req) {
		return
	}

	k, err := h.kitService.UpdateKit(c.Request.Context(), tenantID, id, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, k)
}

// GetKit godoc
// @ID           getKit
// @Summary      Get a kit
// @Tags         kits
// @Produce      json
// @Param        id path string true "Kit ID" format(uuid)
// @Success      200 {object} APIResponse[kitapp.KitResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /kits/{id} [get]
func (h *KitHandler) GetKit(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	k, err := h.kitService.GetKit(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, k)
}

// ListKits godoc
// @ID           listKits
// @Summary      List kits
// @Tags         kits
// @Produce      json
// @Param        category  query string false "Category"
// @Param        search    query string false "Name contains"
// @Param        page      query int    false "Page" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]kitapp.KitResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /kits [get]
func (h *KitHandler) ListKits(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	defaults := dto.DefaultListRequest()
	query := KitListQuery{Page: defaults.Page, PageSize: defaults.PageSize}
	if err := c.ShouldBindQuery(&query); err != nil {
		h.validation(c, err)
		return
	}

	result, err := h.kitService.ListKits(c.Request.Context(), tenantID, kitapp.KitListFilter{
		Category: query.Category,
		Search:   query.Search,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// DeleteKit godoc
// @ID           deleteKit
// @Summary      Delete a kit
// @Tags         kits
// @Param        id path string true "Kit ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /kits/{id} [delete]
func (h *KitHandler) DeleteKit(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.kitService.DeleteKit(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
