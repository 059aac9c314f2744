package project

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/shared"
)

// QuoteStatus represents the status of a budget/quote
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "DRAFT"
	QuoteStatusApproved QuoteStatus = "APPROVED"
	QuoteStatusRejected QuoteStatus = "REJECTED"
	QuoteStatusSold     QuoteStatus = "SOLD"
)

// IsValid checks if the status is valid
func (s QuoteStatus) IsValid() bool {
	switch s {
	case QuoteStatusDraft, QuoteStatusApproved, QuoteStatusRejected, QuoteStatusSold:
		return true
	}
	return false
}

// Quote is the approved budget a sale is realized from. Quotes are edited
// elsewhere; the only change made here is marking one as sold.
type Quote struct {
	shared.TenantAggregateRoot
	Name      string
	ClientID  uuid.UUID
	SalePrice decimal.Decimal
	Status    QuoteStatus
	ProjectID *uuid.UUID
}

// NewQuote creates a draft quote
func NewQuote(tenantID, clientID uuid.UUID, name string, salePrice decimal.Decimal) (*Quote, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Quote name cannot be empty")
	}
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if salePrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Sale price cannot be negative")
	}
	return &Quote{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		ClientID:            clientID,
		SalePrice:           salePrice,
		Status:              QuoteStatusDraft,
	}, nil
}

// Approve moves a draft quote to approved
func (q *Quote) Approve() error {
	if q.Status != QuoteStatusDraft {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("cannot approve quote %s in %s status", q.Name, q.Status))
	}
	q.Status = QuoteStatusApproved
	q.Touch()
	q.IncrementVersion()
	return nil
}

// EnsureSellable fails unless the quote is approved
func (q *Quote) EnsureSellable() error {
	if q.Status != QuoteStatusApproved {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("quote %s is %s, only approved quotes can be sold", q.Name, q.Status))
	}
	return nil
}

// MarkSold records that the quote became a sale
func (q *Quote) MarkSold() error {
	if err := q.EnsureSellable(); err != nil {
		return err
	}
	q.Status = QuoteStatusSold
	q.Touch()
	q.IncrementVersion()
	return nil
}

// LinkProject attaches the project that executes this quote
func (q *Quote) LinkProject(projectID uuid.UUID) {
	q.ProjectID = &projectID
	q.Touch()
}

// ReleaseSale undoes MarkSold after the sale was deleted: the project
// reference is cleared and the quote can be sold again.
func (q *Quote) ReleaseSale() {
	q.ProjectID = nil
	if q.Status == QuoteStatusSold {
		q.Status = QuoteStatusApproved
		q.IncrementVersion()
	}
	q.Touch()
}
