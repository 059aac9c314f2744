package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/sales"
)

// RealizeSaleInput turns an approved quote into a sale
type RealizeSaleInput struct {
	QuoteID          uuid.UUID
	ClientID         uuid.UUID
	TotalAmount      decimal.Decimal
	PaymentMethod    sales.PaymentMethod
	InstallmentCount int
	EntryAmount      decimal.Decimal
	FirstDueDate     *time.Time
	SiteAddress      string
}

// PayInstallmentInput marks one receivable as paid
type PayInstallmentInput struct {
	PaidAt *time.Time
	Notes  string
}

// SaleListFilter filters sale listings
type SaleListFilter struct {
	Status   string
	ClientID *uuid.UUID
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID               uuid.UUID       `json:"id"`
	SaleNumber       string          `json:"sale_number"`
	QuoteID          uuid.UUID       `json:"quote_id"`
	ClientID         uuid.UUID       `json:"client_id"`
	ProjectID        *uuid.UUID      `json:"project_id,omitempty"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	PaymentMethod    string          `json:"payment_method"`
	InstallmentCount int             `json:"installment_count"`
	EntryAmount      decimal.Decimal `json:"entry_amount"`
	Status           string          `json:"status"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
	CancelledAt      *time.Time      `json:"cancelled_at,omitempty"`
	CancelReason     string          `json:"cancel_reason,omitempty"`
	Version          int             `json:"version"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ReceivableResponse represents one scheduled payment in API responses
type ReceivableResponse struct {
	ID               uuid.UUID       `json:"id"`
	SaleID           uuid.UUID       `json:"sale_id"`
	InstallmentIndex int             `json:"installment_index"`
	IsEntry          bool            `json:"is_entry"`
	Amount           decimal.Decimal `json:"amount"`
	Status           string          `json:"status"`
	DueDate          time.Time       `json:"due_date"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
	Description      string          `json:"description"`
	Notes            string          `json:"notes,omitempty"`
}

// SaleDetailResponse is a sale with its receivables ordered by index
type SaleDetailResponse struct {
	Sale        SaleResponse         `json:"sale"`
	Receivables []ReceivableResponse `json:"receivables"`
}

// ToSaleResponse converts a domain sale to a response
func ToSaleResponse(s *sales.Sale) SaleResponse {
	return SaleResponse{
		ID:               s.ID,
		SaleNumber:       s.SaleNumber,
		QuoteID:          s.QuoteID,
		ClientID:         s.ClientID,
		ProjectID:        s.ProjectID,
		TotalAmount:      s.TotalAmount,
		PaymentMethod:    string(s.PaymentMethod),
		InstallmentCount: s.InstallmentCount,
		EntryAmount:      s.EntryAmount,
		Status:           string(s.Status),
		CompletedAt:      s.CompletedAt,
		CancelledAt:      s.CancelledAt,
		CancelReason:     s.CancelReason,
		Version:          s.Version,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

// ToReceivableResponse converts a domain receivable to a response
func ToReceivableResponse(r *sales.Receivable) ReceivableResponse {
	return ReceivableResponse{
		ID:               r.ID,
		SaleID:           r.SaleID,
		InstallmentIndex: r.InstallmentIndex,
		IsEntry:          r.IsEntry,
		Amount:           r.Amount,
		Status:           string(r.Status),
		DueDate:          r.DueDate,
		PaidAt:           r.PaidAt,
		Description:      r.Description,
		Notes:            r.Notes,
	}
}

// ToReceivableResponses converts a receivable slice
func ToReceivableResponses(items []sales.Receivable) []ReceivableResponse {
	out := make([]ReceivableResponse, 0, len(items))
	for i := range items {
		out = append(out, ToReceivableResponse(&items[i]))
	}
	return out
}
