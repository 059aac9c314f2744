package kit

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/shared"
)

// ItemType tags an informational line
type ItemType string

const (
	// ItemTypeQuoted is a third-party priced item (COTACAO)
	ItemTypeQuoted ItemType = "COTACAO"
	// ItemTypeService is a labor or service entry (SERVICO)
	ItemTypeService ItemType = "SERVICO"
)

// IsValid checks if the item type is valid
func (t ItemType) IsValid() bool {
	return t == ItemTypeQuoted || t == ItemTypeService
}

// InformationalItem is a kit line that is not backed by stock
type InformationalItem struct {
	Type        ItemType        `json:"type"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	// Supplier applies to COTACAO items only
	Supplier string `json:"supplier,omitempty"`
	// Provider applies to SERVICO items only
	Provider string `json:"provider,omitempty"`
}

// Validate checks the item against its tag
func (i InformationalItem) Validate() error {
	if !i.Type.IsValid() {
		return itemsError("unknown informational item type %q", i.Type)
	}
	if strings.TrimSpace(i.Description) == "" {
		return itemsError("%s item needs a description", i.Type)
	}
	if !i.Quantity.IsPositive() {
		return itemsError("%s item %q needs a positive quantity", i.Type, i.Description)
	}
	if i.UnitPrice.IsNegative() {
		return itemsError("%s item %q cannot have a negative price", i.Type, i.Description)
	}
	switch i.Type {
	case ItemTypeQuoted:
		if i.Provider != "" {
			return itemsError("COTACAO item %q cannot carry a service provider", i.Description)
		}
	case ItemTypeService:
		if i.Supplier != "" {
			return itemsError("SERVICO item %q cannot carry a supplier", i.Description)
		}
	}
	return nil
}

// Total is quantity times unit price
func (i InformationalItem) Total() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// InformationalItems is the ordered sequence stored in one JSON column.
// The stored shape is always a JSON array of tagged objects; Value and Scan
// both reject anything else.
type InformationalItems []InformationalItem

// Validate checks every item
func (items InformationalItems) Validate() error {
	for idx, item := range items {
		if err := item.Validate(); err != nil {
			return itemsError("item %d: %s", idx, err.Error())
		}
	}
	return nil
}

// HasQuoted reports whether any item is a COTACAO
func (items InformationalItems) HasQuoted() bool {
	for _, item := range items {
		if item.Type == ItemTypeQuoted {
			return true
		}
	}
	return false
}

// Value implements driver.Valuer
func (items InformationalItems) Value() (driver.Value, error) {
	if items == nil {
		return "[]", nil
	}
	if err := items.Validate(); err != nil {
		return nil, err
	}
	b, err := json.Marshal([]InformationalItem(items))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (items *InformationalItems) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*items = InformationalItems{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("informational items: unsupported column type")
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return itemsError("stored informational items are not a JSON array")
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	var parsed []InformationalItem
	if err := dec.Decode(&parsed); err != nil {
		return itemsError("stored informational items are malformed: %s", err.Error())
	}
	result := InformationalItems(parsed)
	if result == nil {
		result = InformationalItems{}
	}
	if err := result.Validate(); err != nil {
		return err
	}
	*items = result
	return nil
}

func itemsError(format string, args ...interface{}) error {
	return shared.NewDomainError(shared.CodeInvalidKitItems, fmt.Sprintf(format, args...))
}
