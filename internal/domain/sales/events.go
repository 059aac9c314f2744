package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/shared"
)

// AggregateTypeSale is the aggregate type of sale events
const AggregateTypeSale = "Sale"

// Event type constants
const (
	EventTypeSaleRealized    = "SaleRealized"
	EventTypeInstallmentPaid = "InstallmentPaid"
	EventTypeSaleCompleted   = "SaleCompleted"
	EventTypeSaleCancelled   = "SaleCancelled"
)

// ScheduledPayment is the event view of a receivable
type ScheduledPayment struct {
	Index   int             `json:"index"`
	IsEntry bool            `json:"is_entry"`
	Amount  decimal.Decimal `json:"amount"`
	DueDate time.Time       `json:"due_date"`
}

// SaleRealizedEvent is raised when a quote becomes a sale
type SaleRealizedEvent struct {
	shared.BaseDomainEvent
	SaleID        uuid.UUID          `json:"sale_id"`
	SaleNumber    string             `json:"sale_number"`
	QuoteID       uuid.UUID          `json:"quote_id"`
	ClientID      uuid.UUID          `json:"client_id"`
	ProjectID     *uuid.UUID         `json:"project_id,omitempty"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	PaymentMethod PaymentMethod      `json:"payment_method"`
	Schedule      []ScheduledPayment `json:"schedule"`
}

// NewSaleRealizedEvent creates a new SaleRealizedEvent
func NewSaleRealizedEvent(s *Sale, receivables []*Receivable) *SaleRealizedEvent {
	schedule := make([]ScheduledPayment, 0, len(receivables))
	for _, r := range receivables {
		schedule = append(schedule, ScheduledPayment{
			Index:   r.InstallmentIndex,
			IsEntry: r.IsEntry,
			Amount:  r.Amount,
			DueDate: r.DueDate,
		})
	}
	return &SaleRealizedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleRealized, AggregateTypeSale, s.ID, s.TenantID),
		SaleID:          s.ID,
		SaleNumber:      s.SaleNumber,
		QuoteID:         s.QuoteID,
		ClientID:        s.ClientID,
		ProjectID:       s.ProjectID,
		TotalAmount:     s.TotalAmount,
		PaymentMethod:   s.PaymentMethod,
		Schedule:        schedule,
	}
}

// InstallmentPaidEvent is raised when a receivable is paid
type InstallmentPaidEvent struct {
	shared.BaseDomainEvent
	SaleID           uuid.UUID       `json:"sale_id"`
	SaleNumber       string          `json:"sale_number"`
	ClientID         uuid.UUID       `json:"client_id"`
	ReceivableID     uuid.UUID       `json:"receivable_id"`
	InstallmentIndex int             `json:"installment_index"`
	IsEntry          bool            `json:"is_entry"`
	Amount           decimal.Decimal `json:"amount"`
	PaidAt           time.Time       `json:"paid_at"`
}

// NewInstallmentPaidEvent creates a new InstallmentPaidEvent
func NewInstallmentPaidEvent(s *Sale, r *Receivable) *InstallmentPaidEvent {
	e := &InstallmentPaidEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeInstallmentPaid, AggregateTypeSale, s.ID, s.TenantID),
		SaleID:           s.ID,
		SaleNumber:       s.SaleNumber,
		ClientID:         s.ClientID,
		ReceivableID:     r.ID,
		InstallmentIndex: r.InstallmentIndex,
		IsEntry:          r.IsEntry,
		Amount:           r.Amount,
	}
	if r.PaidAt != nil {
		e.PaidAt = *r.PaidAt
	}
	return e
}

// SaleCompletedEvent is raised when every receivable of a sale is paid
type SaleCompletedEvent struct {
	shared.BaseDomainEvent
	SaleID      uuid.UUID       `json:"sale_id"`
	SaleNumber  string          `json:"sale_number"`
	ClientID    uuid.UUID       `json:"client_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewSaleCompletedEvent creates a new SaleCompletedEvent
func NewSaleCompletedEvent(s *Sale) *SaleCompletedEvent {
	return &SaleCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCompleted, AggregateTypeSale, s.ID, s.TenantID),
		SaleID:          s.ID,
		SaleNumber:      s.SaleNumber,
		ClientID:        s.ClientID,
		TotalAmount:     s.TotalAmount,
	}
}

// SaleCancelledEvent is raised when a sale is cancelled
type SaleCancelledEvent struct {
	shared.BaseDomainEvent
	SaleID     uuid.UUID  `json:"sale_id"`
	SaleNumber string     `json:"sale_number"`
	ClientID   uuid.UUID  `json:"client_id"`
	ProjectID  *uuid.UUID `json:"project_id,omitempty"`
	Reason     string     `json:"reason,omitempty"`
}

// NewSaleCancelledEvent creates a new SaleCancelledEvent
func NewSaleCancelledEvent(s *Sale) *SaleCancelledEvent {
	return &SaleCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCancelled, AggregateTypeSale, s.ID, s.TenantID),
		SaleID:          s.ID,
		SaleNumber:      s.SaleNumber,
		ClientID:        s.ClientID,
		ProjectID:       s.ProjectID,
		Reason:          s.CancelReason,
	}
}
