package kit

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/shared"
)

// StockStatus is an informational summary of how well stock covers a kit
type StockStatus string

const (
	StockStatusAvailable   StockStatus = "AVAILABLE"
	StockStatusPartial     StockStatus = "PARTIAL"
	StockStatusUnavailable StockStatus = "UNAVAILABLE"
	StockStatusUnknown     StockStatus = "UNKNOWN"
)

// LineItem is a real kit line backed by a stocked material
type LineItem struct {
	ID         uuid.UUID
	KitID      uuid.UUID
	MaterialID uuid.UUID
	Quantity   decimal.Decimal
}

// LineInput describes a real line when creating or updating a kit
type LineInput struct {
	MaterialID uuid.UUID
	Quantity   decimal.Decimal
}

// Kit is a reusable bill of materials. Stock never gates kit writes;
// StockStatus only reports coverage.
type Kit struct {
	shared.TenantAggregateRoot
	Name               string
	Category           string
	Price              decimal.Decimal
	Items              []LineItem
	InformationalItems InformationalItems
	HasQuotedItems     bool
	StockStatus        StockStatus
}

// NewKit creates an empty kit
func NewKit(tenantID uuid.UUID, name, category string, price decimal.Decimal) (*Kit, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	k := &Kit{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InformationalItems:  InformationalItems{},
		StockStatus:         StockStatusUnknown,
	}
	if err := k.Rename(name, category, price); err != nil {
		return nil, err
	}
	return k, nil
}

// Rename updates the descriptive fields
func (k *Kit) Rename(name, category string, price decimal.Decimal) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Kit name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Kit name cannot exceed 200 characters")
	}
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Kit price cannot be negative")
	}
	k.Name = name
	k.Category = strings.TrimSpace(category)
	k.Price = price.Round(2)
	k.Touch()
	return nil
}

// ReplaceLines swaps the real lines. Each material may appear once.
func (k *Kit) ReplaceLines(lines []LineInput) error {
	seen := make(map[uuid.UUID]bool, len(lines))
	items := make([]LineItem, 0, len(lines))
	for _, line := range lines {
		if line.MaterialID == uuid.Nil {
			return shared.NewDomainError("INVALID_MATERIAL", "Kit line needs a material")
		}
		if !line.Quantity.IsPositive() {
			return shared.NewDomainError("INVALID_QUANTITY",
				fmt.Sprintf("Kit line for material %s needs a positive quantity", line.MaterialID))
		}
		if seen[line.MaterialID] {
			return shared.NewDomainError("DUPLICATE_LINE",
				fmt.Sprintf("Material %s appears more than once in the kit", line.MaterialID))
		}
		seen[line.MaterialID] = true
		items = append(items, LineItem{
			ID:         uuid.New(),
			KitID:      k.ID,
			MaterialID: line.MaterialID,
			Quantity:   line.Quantity,
		})
	}
	k.Items = items
	k.Touch()
	return nil
}

// ReplaceInformationalItems swaps the informational lines after validating them
func (k *Kit) ReplaceInformationalItems(items InformationalItems) error {
	if items == nil {
		items = InformationalItems{}
	}
	if err := items.Validate(); err != nil {
		return err
	}
	k.InformationalItems = items
	k.HasQuotedItems = items.HasQuoted()
	k.Touch()
	return nil
}

// MaterialIDs lists the materials referenced by real lines
func (k *Kit) MaterialIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(k.Items))
	for _, item := range k.Items {
		ids = append(ids, item.MaterialID)
	}
	return ids
}

// EvaluateStock derives StockStatus from the on-hand quantity of each material
func (k *Kit) EvaluateStock(onHand map[uuid.UUID]decimal.Decimal) StockStatus {
	if len(k.Items) == 0 {
		k.StockStatus = StockStatusUnknown
		return k.StockStatus
	}
	covered := 0
	for _, item := range k.Items {
		if qty, ok := onHand[item.MaterialID]; ok && qty.GreaterThanOrEqual(item.Quantity) {
			covered++
		}
	}
	switch {
	case covered == len(k.Items):
		k.StockStatus = StockStatusAvailable
	case covered == 0:
		k.StockStatus = StockStatusUnavailable
	default:
		k.StockStatus = StockStatusPartial
	}
	return k.StockStatus
}
