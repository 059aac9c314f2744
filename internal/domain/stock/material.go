package stock

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/shared"
)

// QuantityPlaces is the precision quantities are stored with
const QuantityPlaces = 4

// Material is the aggregate root for a stocked material.
// OnHand is only ever changed through Debit and Credit, which the Ledger drives.
type Material struct {
	shared.TenantAggregateRoot
	Name          string
	Unit          string
	OnHand        decimal.Decimal
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
}

// NewMaterial creates a material with no stock. Opening stock is booked through the Ledger.
func NewMaterial(tenantID uuid.UUID, name, unit string, purchasePrice, salePrice decimal.Decimal) (*Material, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Material name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Material name cannot exceed 200 characters")
	}
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return nil, shared.NewDomainError("INVALID_UNIT", "Unit of measure cannot be empty")
	}
	m := &Material{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Unit:                unit,
		OnHand:              decimal.Zero,
	}
	if err := m.SetPrices(purchasePrice, salePrice); err != nil {
		return nil, err
	}
	return m, nil
}

// SetPrices updates purchase and sale prices
func (m *Material) SetPrices(purchasePrice, salePrice decimal.Decimal) error {
	if purchasePrice.IsNegative() || salePrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Prices cannot be negative")
	}
	m.PurchasePrice = purchasePrice.Round(2)
	m.SalePrice = salePrice.Round(2)
	m.Touch()
	return nil
}

// Debit removes quantity from on-hand stock
func (m *Material) Debit(quantity decimal.Decimal) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}
	if quantity.GreaterThan(m.OnHand) {
		return shared.NewDomainError(shared.CodeInsufficientStock,
			fmt.Sprintf("insufficient stock for %s: available %s %s, requested %s %s",
				m.Name, m.OnHand.String(), m.Unit, quantity.String(), m.Unit))
	}
	m.OnHand = m.OnHand.Sub(quantity)
	m.Touch()
	m.IncrementVersion()
	return nil
}

// Credit adds quantity to on-hand stock
func (m *Material) Credit(quantity decimal.Decimal) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}
	m.OnHand = m.OnHand.Add(quantity)
	m.Touch()
	m.IncrementVersion()
	return nil
}

// Covers reports whether on-hand stock satisfies the quantity
func (m *Material) Covers(quantity decimal.Decimal) bool {
	return m.OnHand.GreaterThanOrEqual(quantity)
}

func validateQuantity(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if !quantity.Round(QuantityPlaces).Equal(quantity) {
		return shared.NewDomainError("INVALID_QUANTITY",
			fmt.Sprintf("Quantity cannot have more than %d decimal places", QuantityPlaces))
	}
	return nil
}
