package sales

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/shared"
)

// ReceivableStatus is the payment status of one scheduled payment
type ReceivableStatus string

const (
	ReceivableStatusPending ReceivableStatus = "PENDING"
	ReceivableStatusPaid    ReceivableStatus = "PAID"
	ReceivableStatusOverdue ReceivableStatus = "OVERDUE"
)

// IsValid checks if the status is valid
func (s ReceivableStatus) IsValid() bool {
	switch s {
	case ReceivableStatusPending, ReceivableStatusPaid, ReceivableStatusOverdue:
		return true
	}
	return false
}

// Receivable is one scheduled payment (entry or installment) owed against a sale.
// Index, IsEntry and Amount are fixed at creation.
type Receivable struct {
	shared.BaseEntity
	TenantID         uuid.UUID
	SaleID           uuid.UUID
	InstallmentIndex int
	IsEntry          bool
	Amount           decimal.Decimal
	Status           ReceivableStatus
	DueDate          time.Time
	PaidAt           *time.Time
	Description      string
	Notes            string
}

// NewReceivables materializes a schedule for a sale
func NewReceivables(s *Sale, rows []ScheduledInstallment) []*Receivable {
	out := make([]*Receivable, 0, len(rows))
	for _, row := range rows {
		out = append(out, &Receivable{
			BaseEntity:       shared.NewBaseEntity(),
			TenantID:         s.TenantID,
			SaleID:           s.ID,
			InstallmentIndex: row.Index,
			IsEntry:          row.IsEntry,
			Amount:           row.Amount,
			Status:           ReceivableStatusPending,
			DueDate:          row.DueDate,
			Description:      row.Description,
		})
	}
	return out
}

// Pay marks the receivable as paid. A zero paidAt means now.
func (r *Receivable) Pay(paidAt time.Time, notes string) error {
	if r.Status == ReceivableStatusPaid {
		msg := fmt.Sprintf("receivable %d of sale %s is already paid", r.InstallmentIndex, r.SaleID)
		if r.PaidAt != nil {
			msg += " (paid on " + r.PaidAt.Format("2006-01-02") + ")"
		}
		return shared.NewDomainError(shared.CodeAlreadyPaid, msg)
	}
	if paidAt.IsZero() {
		paidAt = time.Now()
	}
	r.Status = ReceivableStatusPaid
	r.PaidAt = &paidAt
	if notes = strings.TrimSpace(notes); notes != "" {
		r.Notes = notes
	}
	r.Touch()
	return nil
}

// OverdueCutoff is the instant before which a pending receivable counts as overdue on the given day
func OverdueCutoff(today time.Time) time.Time {
	return startOfDay(today)
}

// IsOverdueOn reports whether a pending receivable is past due on the given day
func (r *Receivable) IsOverdueOn(today time.Time) bool {
	return r.Status == ReceivableStatusPending && r.DueDate.Before(OverdueCutoff(today))
}

// IsOutstanding reports whether money is still owed on this receivable
func (r *Receivable) IsOutstanding() bool {
	return r.Status == ReceivableStatusPending || r.Status == ReceivableStatusOverdue
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
