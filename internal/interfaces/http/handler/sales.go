package handler

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	salesapp "github.com/solarerp/backend/internal/application/sales"
	"github.com/solarerp/backend/internal/domain/sales"
	"github.com/solarerp/backend/internal/infrastructure/export"
	"github.com/solarerp/backend/internal/interfaces/http/dto"
)

// SalesHandler serves the sale lifecycle and the receivables of each sale
type SalesHandler struct {
	BaseHandler
	saleService *salesapp.SaleService
}

// NewSalesHandler creates a new SalesHandler
func NewSalesHandler(saleService *salesapp.SaleService) *SalesHandler {
	return &SalesHandler{saleService: saleService}
}

// RealizeSaleRequest is the body of POST /sales
// @Description Request body for turning an approved quote into a sale
type RealizeSaleRequest struct {
	QuoteID          string          `json:"quote_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	ClientID         string          `json:"client_id" binding:"omitempty,uuid"`
	TotalAmount      decimal.Decimal `json:"total_amount" binding:"decimal_gt0" swaggertype:"string" example:"10000.00"`
	PaymentMethod    string          `json:"payment_method" binding:"required,oneof=CASH INSTALLMENT CARD_INSTALLMENT BANK_SLIP" example:"INSTALLMENT"`
	InstallmentCount int             `json:"installment_count" binding:"required,min=1,max=120" example:"3"`
	EntryAmount      decimal.Decimal `json:"entry_amount" binding:"decimal_gte0" swaggertype:"string" example:"3000.00"`
	FirstDueDate     string          `json:"first_due_date" binding:"omitempty,datetime=2006-01-02" example:"2026-11-10"`
	SiteAddress      string          `json:"site_address" binding:"max=500" example:"Rua das Flores 120, Campinas"`
}

// CancelSaleRequest is the body of POST /sales/:id/cancel
// @Description Request body for cancelling a sale
type CancelSaleRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500" example:"Client withdrew"`
}

// PayInstallmentRequest is the body of POST /receivables/:id/pay
// @Description Request body for registering the payment of one receivable
type PayInstallmentRequest struct {
	PaidAt *time.Time `json:"paid_at" example:"2026-10-18T14:00:00Z"`
	Notes  string     `json:"notes" binding:"max=500" example:"PIX"`
}

// SaleListQuery is the query of GET /sales
type SaleListQuery struct {
	dto.ListRequest
	Status   string `form:"status" binding:"omitempty,oneof=PENDING PARTIALLY_PAID COMPLETED CANCELLED"`
	ClientID string `form:"client_id" binding:"omitempty,uuid"`
}

// RealizeSale godoc
// @ID           realizeSale
// @Summary      Realize a sale
// @Description  Creates the sale of an approved quote, links or creates its project and schedules the receivables in one transaction.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        request body RealizeSaleRequest true "Sale"
// @Success      201 {object} APIResponse[salesapp.SaleDetailResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse "Quote not found"
// @Failure      409 {object} ErrorResponse "Quote already has a sale"
// @Failure      422 {object} ErrorResponse "Invalid installment plan or quote not approved"
// @Security     BearerAuth
// @Router       /sales [post]
func (h *SalesHandler) RealizeSale(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req RealizeSaleRequest
	if !h.bind(c, &req) {
		return
	}

	input := salesapp.RealizeSaleInput{
		QuoteID:          uuid.MustParse(req.QuoteID),
		TotalAmount:      req.TotalAmount,
		PaymentMethod:    sales.PaymentMethod(req.PaymentMethod),
		InstallmentCount: req.InstallmentCount,
		EntryAmount:      req.EntryAmount,
		SiteAddress:      req.SiteAddress,
	}
	if req.ClientID != "" {
		input.ClientID = uuid.MustParse(req.ClientID)
	}
	if req.FirstDueDate != "" {
		due, _ := time.Parse(time.DateOnly, req.FirstDueDate)
		input.FirstDueDate = &due
	}

	detail, err := h.saleService.RealizeSale(c.Request.Context(), tenantID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, detail)
}

// GetSale godoc
// @ID           getSale
// @Summary      Get a sale with its receivables
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Success      200 {object} APIResponse[salesapp.SaleDetailResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id} [get]
func (h *SalesHandler) GetSale(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	detail, err := h.saleService.GetSale(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, detail)
}

// ListSales godoc
// @ID           listSales
// @Summary      List sales
// @Tags         sales
// @Produce      json
// @Param        status    query string false "Status" Enums(PENDING, PARTIALLY_PAID, COMPLETED, CANCELLED)
// @Param        client_id query string false "Client ID" format(uuid)
// @Param        page      query int    false "Page" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Param        order_by  query string false "Order by" default(created_at)
// @Param        order_dir query string false "asc or desc" default(desc)
// @Success      200 {object} APIResponse[[]salesapp.SaleResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales [get]
func (h *SalesHandler) ListSales(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	query := SaleListQuery{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&query); err != nil {
		h.validation(c, err)
		return
	}

	filter := salesapp.SaleListFilter{
		Status:   query.Status,
		Page:     query.Page,
		PageSize: query.PageSize,
		OrderBy:  query.OrderBy,
		OrderDir: query.OrderDir,
	}
	if query.ClientID != "" {
		clientID := uuid.MustParse(query.ClientID)
		filter.ClientID = &clientID
	}

	result, err := h.saleService.ListSales(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// CancelSale godoc
// @ID           cancelSale
// @Summary      Cancel a sale
// @Description  Cancels a pending or partially paid sale and returns the material allocated to its project to stock.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id      path string            true "Sale ID" format(uuid)
// @Param        request body CancelSaleRequest true "Reason"
// @Success      200 {object} APIResponse[salesapp.SaleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse "Sale already completed or cancelled"
// @Security     BearerAuth
// @Router       /sales/{id}/cancel [post]
func (h *SalesHandler) CancelSale(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req CancelSaleRequest
	if !h.bind(c, &req) {
		return
	}

	sale, err := h.saleService.CancelSale(c.Request.Context(), tenantID, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// DeleteSale godoc
// @ID           deleteSale
// @Summary      Delete a settled or cancelled sale
// @Description  Removes the sale, its receivables and its project with site and tasks. Refused while any receivable is pending.
// @Tags         sales
// @Param        id path string true "Sale ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "Sale has outstanding receivables"
// @Security     BearerAuth
// @Router       /sales/{id} [delete]
func (h *SalesHandler) DeleteSale(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.saleService.DeleteSale(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListReceivables godoc
// @ID           listSaleReceivables
// @Summary      List the receivables of a sale
// @Tags         receivables
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Success      200 {object} APIResponse[[]salesapp.ReceivableResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id}/receivables [get]
func (h *SalesHandler) ListReceivables(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	items, err := h.saleService.ListReceivables(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// ExportReceivables godoc
// @ID           exportSaleReceivables
// @Summary      Download the payment schedule of a sale
// @Tags         receivables
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        id path string true "Sale ID" format(uuid)
// @Success      200 {file} file
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id}/receivables/export [get]
func (h *SalesHandler) ExportReceivables(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	detail, err := h.saleService.GetSale(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	// rendered to memory first so a failure can still produce a JSON error
	var buf bytes.Buffer
	if err := export.WriteReceivables(&buf, detail); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.ReceivablesFileName(detail.Sale.SaleNumber)+`"`)
	c.Data(http.StatusOK, export.XLSXContentType, buf.Bytes())
}

// PayInstallment godoc
// @ID           payInstallment
// @Summary      Pay a receivable
// @Description  Marks one receivable as paid. The sale becomes COMPLETED when every receivable is paid.
// @Tags         receivables
// @Accept       json
// @Produce      json
// @Param        id      path string                true  "Receivable ID" format(uuid)
// @Param        request body PayInstallmentRequest false "Payment"
// @Success      200 {object} APIResponse[salesapp.ReceivableResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "Receivable already paid"
// @Failure      422 {object} ErrorResponse "Sale is cancelled"
// @Security     BearerAuth
// @Router       /receivables/{id}/pay [post]
func (h *SalesHandler) PayInstallment(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req PayInstallmentRequest
	if c.Request.ContentLength != 0 && !h.bind(c, &req) {
		return
	}

	receivable, err := h.saleService.PayInstallment(c.Request.Context(), tenantID, id, salesapp.PayInstallmentInput{
		PaidAt: req.PaidAt,
		Notes:  req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receivable)
}
