package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/stock"
)

// MaterialModel is the persistence model for the Material aggregate root.
type MaterialModel struct {
	TenantAggregateModel
	Name          string          `gorm:"type:varchar(200);not null"`
	Unit          string          `gorm:"type:varchar(20);not null"`
	OnHand        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	SalePrice     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (MaterialModel) TableName() string {
	return "materials"
}

// ToDomain converts the persistence model to a domain Material
func (m *MaterialModel) ToDomain() *stock.Material {
	mat := &stock.Material{
		Name:          m.Name,
		Unit:          m.Unit,
		OnHand:        m.OnHand,
		PurchasePrice: m.PurchasePrice,
		SalePrice:     m.SalePrice,
	}
	m.PopulateTenantAggregateRoot(&mat.TenantAggregateRoot)
	return mat
}

// MaterialModelFromDomain creates a persistence model from a domain Material
func MaterialModelFromDomain(mat *stock.Material) *MaterialModel {
	m := &MaterialModel{
		Name:          mat.Name,
		Unit:          mat.Unit,
		OnHand:        mat.OnHand,
		PurchasePrice: mat.PurchasePrice,
		SalePrice:     mat.SalePrice,
	}
	m.FromDomainTenantAggregateRoot(mat.TenantAggregateRoot)
	return m
}

// StockMovementModel is the persistence model for the append-only movement log.
// At most one ALLOCATION and one ALLOCATION_REVERSAL may exist per material and reference.
type StockMovementModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	MaterialID    uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_stock_movements_allocation_once,priority:1,where:kind LIKE 'ALLOCATION%'"`
	ReferenceID   uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_stock_movements_allocation_once,priority:2"`
	Kind          string          `gorm:"type:varchar(30);not null;uniqueIndex:idx_stock_movements_allocation_once,priority:3"`
	Direction     string          `gorm:"type:varchar(3);not null"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReasonDetail  string          `gorm:"type:varchar(500)"`
	ReferenceType string          `gorm:"type:varchar(20);not null"`
	Notes         string          `gorm:"type:text"`
	OccurredAt    time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain StockMovement
func (m *StockMovementModel) ToDomain() *stock.StockMovement {
	return &stock.StockMovement{
		ID:            m.ID,
		TenantID:      m.TenantID,
		MaterialID:    m.MaterialID,
		Direction:     stock.Direction(m.Direction),
		Kind:          stock.MovementKind(m.Kind),
		Quantity:      m.Quantity,
		BalanceAfter:  m.BalanceAfter,
		ReasonDetail:  m.ReasonDetail,
		ReferenceID:   m.ReferenceID,
		ReferenceType: stock.ReferenceType(m.ReferenceType),
		Notes:         m.Notes,
		OccurredAt:    m.OccurredAt,
	}
}

// StockMovementModelFromDomain creates a persistence model from a domain StockMovement
func StockMovementModelFromDomain(mv *stock.StockMovement) *StockMovementModel {
	return &StockMovementModel{
		ID:            mv.ID,
		TenantID:      mv.TenantID,
		MaterialID:    mv.MaterialID,
		Direction:     string(mv.Direction),
		Kind:          string(mv.Kind),
		Quantity:      mv.Quantity,
		BalanceAfter:  mv.BalanceAfter,
		ReasonDetail:  mv.ReasonDetail,
		ReferenceID:   mv.ReferenceID,
		ReferenceType: string(mv.ReferenceType),
		Notes:         mv.Notes,
		OccurredAt:    mv.OccurredAt,
	}
}
