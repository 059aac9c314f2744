package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/kit"
)

// KitModel is the persistence model for the Kit aggregate root.
// Informational items live in a jsonb column validated by kit.InformationalItems.
type KitModel struct {
	TenantAggregateModel
	Name               string                 `gorm:"type:varchar(200);not null"`
	Category           string                 `gorm:"type:varchar(100);index"`
	Price              decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	InformationalItems kit.InformationalItems `gorm:"type:jsonb;not null;default:'[]'"`
	HasQuotedItems     bool                   `gorm:"not null;default:false"`
	Items              []KitLineItemModel     `gorm:"foreignKey:KitID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (KitModel) TableName() string {
	return "kits"
}

// ToDomain converts the persistence model to a domain Kit.
// StockStatus is left UNKNOWN; it depends on current stock and is evaluated on read.
func (m *KitModel) ToDomain() *kit.Kit {
	k := &kit.Kit{
		Name:               m.Name,
		Category:           m.Category,
		Price:              m.Price,
		Items:              make([]kit.LineItem, len(m.Items)),
		InformationalItems: m.InformationalItems,
		HasQuotedItems:     m.HasQuotedItems,
		StockStatus:        kit.StockStatusUnknown,
	}
	if k.InformationalItems == nil {
		k.InformationalItems = kit.InformationalItems{}
	}
	m.PopulateTenantAggregateRoot(&k.TenantAggregateRoot)
	for i, line := range m.Items {
		k.Items[i] = line.ToDomain()
	}
	return k
}

// KitModelFromDomain creates a persistence model from a domain Kit
func KitModelFromDomain(k *kit.Kit) *KitModel {
	m := &KitModel{
		Name:               k.Name,
		Category:           k.Category,
		Price:              k.Price,
		InformationalItems: k.InformationalItems,
		HasQuotedItems:     k.HasQuotedItems,
		Items:              make([]KitLineItemModel, len(k.Items)),
	}
	m.FromDomainTenantAggregateRoot(k.TenantAggregateRoot)
	for i, line := range k.Items {
		m.Items[i] = KitLineItemModelFromDomain(line)
	}
	return m
}

// KitLineItemModel is one stocked line of a kit; a material appears once per kit
type KitLineItemModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	KitID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_kit_line_items_kit_material,priority:1"`
	MaterialID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_kit_line_items_kit_material,priority:2"`
	Quantity   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (KitLineItemModel) TableName() string {
	return "kit_line_items"
}

// ToDomain converts the persistence model to a domain LineItem
func (m KitLineItemModel) ToDomain() kit.LineItem {
	return kit.LineItem{ID: m.ID, KitID: m.KitID, MaterialID: m.MaterialID, Quantity: m.Quantity}
}

// KitLineItemModelFromDomain creates a persistence model from a domain LineItem
func KitLineItemModelFromDomain(l kit.LineItem) KitLineItemModel {
	return KitLineItemModel{ID: l.ID, KitID: l.KitID, MaterialID: l.MaterialID, Quantity: l.Quantity}
}
