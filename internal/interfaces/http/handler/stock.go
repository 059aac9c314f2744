package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	stockapp "github.com/solarerp/backend/internal/application/stock"
	"github.com/solarerp/backend/internal/domain/stock"
	"github.com/solarerp/backend/internal/interfaces/http/dto"
)

// StockHandler serves materials, manual adjustments and project allocations
type StockHandler struct {
	BaseHandler
	stockService *stockapp.StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stockService *stockapp.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// CreateMaterialRequest is the body of POST /materials
// @Description Request body for registering a material
type CreateMaterialRequest struct {
	Name           string          `json:"name" binding:"required,min=1,max=200" example:"Painel 550W"`
	Unit           string          `json:"unit" binding:"required,min=1,max=20" example:"pc"`
	PurchasePrice  decimal.Decimal `json:"purchase_price" binding:"decimal_gte0" swaggertype:"string" example:"780.00"`
	SalePrice      decimal.Decimal `json:"sale_price" binding:"decimal_gte0" swaggertype:"string" example:"1100.00"`
	InitialOnHand  decimal.Decimal `json:"initial_on_hand" binding:"decimal_gte0" swaggertype:"string" example:"40"`
	OpeningComment string          `json:"opening_comment" binding:"max=500"`
}

// UpdatePricesRequest is the body of PUT /materials/:id/prices
// @Description Request body for updating material prices
type UpdatePricesRequest struct {
	PurchasePrice decimal.Decimal `json:"purchase_price" binding:"decimal_gte0" swaggertype:"string" example:"790.00"`
	SalePrice     decimal.Decimal `json:"sale_price" binding:"decimal_gte0" swaggertype:"string" example:"1150.00"`
}

// AdjustStockRequest is the body of POST /materials/:id/adjust
// @Description Request body for a manual stock correction
type AdjustStockRequest struct {
	Direction string          `json:"direction" binding:"required,oneof=IN OUT" example:"IN"`
	Quantity  decimal.Decimal `json:"quantity" binding:"decimal_gt0" swaggertype:"string" example:"5"`
	Reason    string          `json:"reason" binding:"required,max=200" example:"Inventory count"`
	Notes     string          `json:"notes" binding:"max=500"`
}

// AllocateMaterialRequest is the body of POST /projects/:id/allocations
// @Description Request body for allocating a material to a project
type AllocateMaterialRequest struct {
	MaterialID string          `json:"material_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Quantity   decimal.Decimal `json:"quantity" binding:"decimal_gt0" swaggertype:"string" example:"12"`
	QuoteID    string          `json:"quote_id" binding:"omitempty,uuid"`
	Notes      string          `json:"notes" binding:"max=500"`
}

// CreateMaterial godoc
// @ID           createMaterial
// @Summary      Register a material
// @Description  Creates a material. A positive initial quantity is booked as an opening credit.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        request body CreateMaterialRequest true "Material"
// @Success      201 {object} APIResponse[stockapp.MaterialResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /materials [post]
func (h *StockHandler) CreateMaterial(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req CreateMaterialRequest
	if !h.bind(c, &req) {
		return
	}

	material, err := h.stockService.CreateMaterial(c.Request.Context(), tenantID, stockapp.CreateMaterialInput{
		Name:           req.Name,
		Unit:           req.Unit,
		PurchasePrice:  req.PurchasePrice,
		SalePrice:      req.SalePrice,
		InitialOnHand:  req.InitialOnHand,
		OpeningComment: req.OpeningComment,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, material)
}

// GetMaterial godoc
// @ID           getMaterial
// @Summary      Get a material
// @Tags         stock
// @Produce      json
// @Param        id path string true "Material ID" format(uuid)
// @Success      200 {object} APIResponse[stockapp.MaterialResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /materials/{id} [get]
func (h *StockHandler) GetMaterial(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	material, err := h.stockService.GetMaterial(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, material)
}

// ListMaterials godoc
// @ID           listMaterials
// @Summary      List materials
// @Tags         stock
// @Produce      json
// @Param        search    query string false "Name contains"
// @Param        page      query int    false "Page" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Param        order_by  query string false "Order by" default(created_at)
// @Param        order_dir query string false "asc or desc" default(desc)
// @Success      200 {object} APIResponse[[]stockapp.MaterialResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /materials [get]
func (h *StockHandler) ListMaterials(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	query := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&query); err != nil {
		h.validation(c, err)
		return
	}

	result, err := h.stockService.ListMaterials(c.Request.Context(), tenantID, stockapp.MaterialListFilter{
		Search:   query.Search,
		Page:     query.Page,
		PageSize: query.PageSize,
		OrderBy:  query.OrderBy,
		OrderDir: query.OrderDir,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// UpdateMaterialPrices godoc
// @ID           updateMaterialPrices
// @Summary      Update material prices
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        id      path string              true "Material ID" format(uuid)
// @Param        request body UpdatePricesRequest true "Prices"
// @Success      200 {object} APIResponse[stockapp.MaterialResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /materials/{id}/prices [put]
func (h *StockHandler) UpdateMaterialPrices(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req UpdatePricesRequest
	if !h.bind(c, &req) {
		return
	}

	material, err := h.stockService.UpdateMaterialPrices(c.Request.Context(), tenantID, id, stockapp.UpdatePricesInput{
		PurchasePrice: req.PurchasePrice,
		SalePrice:     req.SalePrice,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, material)
}

// AdjustStock godoc
// @ID           adjustStock
// @Summary      Book a manual stock correction
// @Description  Credits (IN) or debits (OUT) a material through the ledger. Debits never take on-hand stock below zero.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        id      path string             true "Material ID" format(uuid)
// @Param        request body AdjustStockRequest true "Adjustment"
// @Success      200 {object} APIResponse[stockapp.AllocationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /materials/{id}/adjust [post]
func (h *StockHandler) AdjustStock(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req AdjustStockRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.stockService.AdjustStock(c.Request.Context(), tenantID, id, stockapp.AdjustStockInput{
		Direction: stock.Direction(req.Direction),
		Quantity:  req.Quantity,
		Reason:    req.Reason,
		Notes:     req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListMovements godoc
// @ID           listMaterialMovements
// @Summary      List the ledger of a material
// @Tags         stock
// @Produce      json
// @Param        id        path  string true  "Material ID" format(uuid)
// @Param        page      query int    false "Page" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]stockapp.MovementResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /materials/{id}/movements [get]
func (h *StockHandler) ListMovements(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	query := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&query); err != nil {
		h.validation(c, err)
		return
	}

	result, err := h.stockService.ListMovements(c.Request.Context(), tenantID, id, query.Page, query.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// AllocateMaterial godoc
// @ID           allocateMaterial
// @Summary      Allocate a material to a project
// @Description  Debits on-hand stock and records the allocation. A material can be allocated to a project only once.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        id      path string                  true "Project ID" format(uuid)
// @Param        request body AllocateMaterialRequest true "Allocation"
// @Success      201 {object} APIResponse[stockapp.AllocationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "Material already allocated to this project"
// @Failure      422 {object} ErrorResponse "Insufficient stock"
// @Security     BearerAuth
// @Router       /projects/{id}/allocations [post]
func (h *StockHandler) AllocateMaterial(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	projectID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req AllocateMaterialRequest
	if !h.bind(c, &req) {
		return
	}

	input := stockapp.AllocateMaterialInput{
		ProjectID:  projectID,
		MaterialID: uuid.MustParse(req.MaterialID),
		Quantity:   req.Quantity,
		Notes:      req.Notes,
	}
	if req.QuoteID != "" {
		quoteID := uuid.MustParse(req.QuoteID)
		input.QuoteID = &quoteID
	}

	result, err := h.stockService.AllocateMaterial(c.Request.Context(), tenantID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ListAllocatedMaterials godoc
// @ID           listAllocatedMaterials
// @Summary      List the materials allocated to a project
// @Tags         stock
// @Produce      json
// @Param        id path string true "Project ID" format(uuid)
// @Success      200 {object} APIResponse[[]stockapp.AllocatedMaterialResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id}/allocations [get]
func (h *StockHandler) ListAllocatedMaterials(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	projectID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	items, err := h.stockService.ListAllocatedMaterials(c.Request.Context(), tenantID, projectID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}
