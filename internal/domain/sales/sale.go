package sales

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/shared"
)

// SaleStatus represents the aggregate payment status of a sale
type SaleStatus string

const (
	SaleStatusPending       SaleStatus = "PENDING"
	SaleStatusPartiallyPaid SaleStatus = "PARTIALLY_PAID"
	SaleStatusCompleted     SaleStatus = "COMPLETED"
	SaleStatusCancelled     SaleStatus = "CANCELLED"
)

// IsValid checks if the status is valid
func (s SaleStatus) IsValid() bool {
	switch s {
	case SaleStatusPending, SaleStatusPartiallyPaid, SaleStatusCompleted, SaleStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s SaleStatus) IsTerminal() bool {
	return s == SaleStatusCompleted || s == SaleStatusCancelled
}

// CanTransitionTo checks the sale state machine
func (s SaleStatus) CanTransitionTo(target SaleStatus) bool {
	switch s {
	case SaleStatusPending:
		return target == SaleStatusPartiallyPaid || target == SaleStatusCompleted || target == SaleStatusCancelled
	case SaleStatusPartiallyPaid:
		return target == SaleStatusCompleted || target == SaleStatusCancelled
	}
	return false
}

// PaymentMethod is how the client settles the sale
type PaymentMethod string

const (
	PaymentMethodCash            PaymentMethod = "CASH"
	PaymentMethodInstallment     PaymentMethod = "INSTALLMENT"
	PaymentMethodCardInstallment PaymentMethod = "CARD_INSTALLMENT"
	PaymentMethodBankSlip        PaymentMethod = "BANK_SLIP"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodInstallment, PaymentMethodCardInstallment, PaymentMethodBankSlip:
		return true
	}
	return false
}

// Sale is the aggregate root for a committed, billable transaction created from a quote
type Sale struct {
	shared.TenantAggregateRoot
	SaleNumber       string
	QuoteID          uuid.UUID
	ClientID         uuid.UUID
	ProjectID        *uuid.UUID
	TotalAmount      decimal.Decimal
	PaymentMethod    PaymentMethod
	InstallmentCount int
	EntryAmount      decimal.Decimal
	Status           SaleStatus
	CompletedAt      *time.Time
	CancelledAt      *time.Time
	CancelReason     string
}

// NewSale creates a pending sale. The plan must already be valid.
func NewSale(tenantID uuid.UUID, saleNumber string, quoteID, clientID uuid.UUID, plan PaymentPlan) (*Sale, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if strings.TrimSpace(saleNumber) == "" {
		return nil, shared.NewDomainError("INVALID_SALE_NUMBER", "Sale number cannot be empty")
	}
	if quoteID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_QUOTE", "Quote ID cannot be empty")
	}
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	s := &Sale{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SaleNumber:          saleNumber,
		QuoteID:             quoteID,
		ClientID:            clientID,
		TotalAmount:         plan.Total,
		PaymentMethod:       plan.Method,
		InstallmentCount:    plan.InstallmentCount,
		EntryAmount:         plan.EntryAmount,
		Status:              SaleStatusPending,
	}
	return s, nil
}

// LinkProject records the project that carries out this sale
func (s *Sale) LinkProject(projectID uuid.UUID) {
	s.ProjectID = &projectID
	s.Touch()
}

// RecordRealization raises SaleRealized once receivables are scheduled
func (s *Sale) RecordRealization(receivables []*Receivable) {
	s.AddDomainEvent(NewSaleRealizedEvent(s, receivables))
}

// RegisterPayment records that one of the sale's receivables was paid and
// recomputes the aggregate status from the full receivable set.
// A strict subset paid leaves the status unchanged unless promotePartial is set,
// in which case a pending sale becomes partially paid. The status never moves back.
func (s *Sale) RegisterPayment(paid *Receivable, all []Receivable, promotePartial bool) error {
	if s.Status == SaleStatusCancelled {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("cannot pay installments of cancelled sale %s", s.SaleNumber))
	}
	if paid.SaleID != s.ID {
		return shared.NewDomainError(shared.CodeInvalidState, "receivable does not belong to this sale")
	}
	s.AddDomainEvent(NewInstallmentPaidEvent(s, paid))

	if allPaid(all) {
		return s.complete()
	}
	if promotePartial && s.Status == SaleStatusPending {
		s.Status = SaleStatusPartiallyPaid
		s.Touch()
		s.IncrementVersion()
	}
	return nil
}

func (s *Sale) complete() error {
	if s.Status == SaleStatusCompleted {
		return nil
	}
	if !s.Status.CanTransitionTo(SaleStatusCompleted) {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("cannot complete sale in %s status", s.Status))
	}
	now := time.Now()
	s.Status = SaleStatusCompleted
	s.CompletedAt = &now
	s.UpdatedAt = now
	s.IncrementVersion()
	s.AddDomainEvent(NewSaleCompletedEvent(s))
	return nil
}

// Cancel moves a pending or partially paid sale to cancelled
func (s *Sale) Cancel(reason string) error {
	if !s.Status.CanTransitionTo(SaleStatusCancelled) {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("cannot cancel sale %s in %s status", s.SaleNumber, s.Status))
	}
	now := time.Now()
	s.Status = SaleStatusCancelled
	s.CancelledAt = &now
	s.CancelReason = strings.TrimSpace(reason)
	s.UpdatedAt = now
	s.IncrementVersion()
	s.AddDomainEvent(NewSaleCancelledEvent(s))
	return nil
}

// EnsureDeletable fails with OUTSTANDING_RECEIVABLES while anything is still owed
func (s *Sale) EnsureDeletable(receivables []Receivable) error {
	outstanding := 0
	amount := decimal.Zero
	for i := range receivables {
		if receivables[i].IsOutstanding() {
			outstanding++
			amount = amount.Add(receivables[i].Amount)
		}
	}
	if outstanding > 0 {
		return shared.NewDomainError(shared.CodeOutstandingReceivables,
			fmt.Sprintf("sale %s has %d outstanding receivable(s) totalling %s", s.SaleNumber, outstanding, amount.StringFixed(AmountPlaces)))
	}
	return nil
}

// IsCancelled reports whether the sale was cancelled
func (s *Sale) IsCancelled() bool {
	return s.Status == SaleStatusCancelled
}

func allPaid(receivables []Receivable) bool {
	if len(receivables) == 0 {
		return false
	}
	for i := range receivables {
		if receivables[i].Status != ReceivableStatusPaid {
			return false
		}
	}
	return true
}
