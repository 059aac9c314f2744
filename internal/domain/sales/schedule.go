package sales

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/shared"
)

const (
	// AmountPlaces is the currency precision every receivable is rounded to
	AmountPlaces = 2
	// MaxInstallments caps the number of regular installments of one sale
	MaxInstallments = 120
	// DefaultPeriodMonths spaces installments when the plan does not say otherwise
	DefaultPeriodMonths = 1
)

// PaymentPlan is the input of the receivables schedule
type PaymentPlan struct {
	Total            decimal.Decimal
	Method           PaymentMethod
	InstallmentCount int
	EntryAmount      decimal.Decimal
	FirstDueDate     time.Time
	PeriodMonths     int
}

// ScheduledInstallment is one row of a computed schedule
type ScheduledInstallment struct {
	Index       int
	IsEntry     bool
	Amount      decimal.Decimal
	DueDate     time.Time
	Description string
}

// Validate checks the plan against the installment rules
func (p PaymentPlan) Validate() error {
	if !p.Method.IsValid() {
		return planError("unknown payment method %q", p.Method)
	}
	if p.InstallmentCount < 1 {
		return planError("installment count must be at least 1, got %d", p.InstallmentCount)
	}
	if p.InstallmentCount > MaxInstallments {
		return planError("installment count cannot exceed %d, got %d", MaxInstallments, p.InstallmentCount)
	}
	if p.Method == PaymentMethodCash && p.InstallmentCount != 1 {
		return planError("cash sales take exactly 1 installment, got %d", p.InstallmentCount)
	}
	if !p.Total.IsPositive() {
		return planError("sale total must be positive, got %s", p.Total)
	}
	if p.EntryAmount.IsNegative() {
		return planError("entry cannot be negative, got %s", p.EntryAmount)
	}
	if p.Method == PaymentMethodCash && p.EntryAmount.IsPositive() {
		return planError("cash sales settle in one receivable and take no entry, got %s", p.EntryAmount)
	}
	if p.EntryAmount.GreaterThanOrEqual(p.Total) && p.EntryAmount.IsPositive() {
		return planError("entry %s must be less than the sale total %s", p.EntryAmount, p.Total)
	}
	if !isCurrencyAmount(p.Total) || !isCurrencyAmount(p.EntryAmount) {
		return planError("amounts cannot have more than %d decimal places", AmountPlaces)
	}
	// every installment must carry at least one cent
	financed := p.Total.Sub(p.EntryAmount)
	if installmentBase(financed, p.InstallmentCount).IsZero() {
		return planError("%s cannot be split into %d installments of at least 0.01", financed, p.InstallmentCount)
	}
	return nil
}

// Schedule splits a sale total into an optional entry and N installments.
// The last installment takes the rounding remainder so the rows always add
// up to the total exactly. Rows come out with strictly increasing index.
func Schedule(p PaymentPlan) ([]ScheduledInstallment, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	period := p.PeriodMonths
	if period <= 0 {
		period = DefaultPeriodMonths
	}
	first := p.FirstDueDate
	if first.IsZero() {
		first = time.Now()
	}

	rows := make([]ScheduledInstallment, 0, p.InstallmentCount+1)
	hasEntry := p.EntryAmount.IsPositive()
	if hasEntry {
		rows = append(rows, ScheduledInstallment{
			Index:       0,
			IsEntry:     true,
			Amount:      p.EntryAmount,
			DueDate:     first,
			Description: EntryDescription,
		})
	}

	financed := p.Total.Sub(p.EntryAmount)
	base := installmentBase(financed, p.InstallmentCount)
	last := financed.Sub(base.Mul(decimal.NewFromInt(int64(p.InstallmentCount - 1))))

	for i := 1; i <= p.InstallmentCount; i++ {
		amount := base
		if i == p.InstallmentCount {
			amount = last
		}
		offset := i - 1
		if hasEntry {
			offset = i
		}
		rows = append(rows, ScheduledInstallment{
			Index:       i,
			Amount:      amount,
			DueDate:     first.AddDate(0, offset*period, 0),
			Description: installmentDescription(p.Method, i, p.InstallmentCount),
		})
	}
	return rows, nil
}

// EntryDescription tags the down payment row
const EntryDescription = "Entry"

func installmentDescription(method PaymentMethod, i, n int) string {
	if method == PaymentMethodCash {
		return "Cash payment"
	}
	return fmt.Sprintf("Installment %d/%d", i, n)
}

// installmentBase is the truncated per-installment amount; the last row
// absorbs the remainder.
func installmentBase(financed decimal.Decimal, n int) decimal.Decimal {
	return financed.Div(decimal.NewFromInt(int64(n))).Truncate(AmountPlaces)
}

func isCurrencyAmount(d decimal.Decimal) bool {
	return d.Round(AmountPlaces).Equal(d)
}

func planError(format string, args ...interface{}) error {
	return shared.NewDomainError(shared.CodeInvalidInstallmentPlan, fmt.Sprintf(format, args...))
}
