package stock

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/shared"
)

// AggregateTypeMaterial is the aggregate type of stock events
const AggregateTypeMaterial = "Material"

// Event type constants
const (
	EventTypeStockDebited      = "StockDebited"
	EventTypeStockCredited     = "StockCredited"
	EventTypeMaterialAllocated = "MaterialAllocated"
)

// StockMovedEvent is raised for every ledger debit or credit
type StockMovedEvent struct {
	shared.BaseDomainEvent
	MaterialID   uuid.UUID       `json:"material_id"`
	MovementID   uuid.UUID       `json:"movement_id"`
	Direction    Direction       `json:"direction"`
	Kind         MovementKind    `json:"kind"`
	Quantity     decimal.Decimal `json:"quantity"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	ReferenceID  uuid.UUID       `json:"reference_id"`
}

// NewStockMovedEvent creates a StockDebited or StockCredited event for a movement
func NewStockMovedEvent(m *Material, mv *StockMovement) *StockMovedEvent {
	eventType := EventTypeStockCredited
	if mv.Direction == DirectionOut {
		eventType = EventTypeStockDebited
	}
	return &StockMovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeMaterial, m.ID, m.TenantID),
		MaterialID:      m.ID,
		MovementID:      mv.ID,
		Direction:       mv.Direction,
		Kind:            mv.Kind,
		Quantity:        mv.Quantity,
		BalanceAfter:    mv.BalanceAfter,
		ReferenceID:     mv.ReferenceID,
	}
}

// MaterialAllocatedEvent is raised when material is committed to a project
type MaterialAllocatedEvent struct {
	shared.BaseDomainEvent
	MaterialID uuid.UUID       `json:"material_id"`
	ProjectID  uuid.UUID       `json:"project_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	MovementID uuid.UUID       `json:"movement_id"`
}

// NewMaterialAllocatedEvent creates a new MaterialAllocatedEvent
func NewMaterialAllocatedEvent(m *Material, mv *StockMovement) *MaterialAllocatedEvent {
	return &MaterialAllocatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMaterialAllocated, AggregateTypeMaterial, m.ID, m.TenantID),
		MaterialID:      m.ID,
		ProjectID:       mv.ReferenceID,
		Quantity:        mv.Quantity,
		MovementID:      mv.ID,
	}
}
