package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/shared"
)

// Direction is the sign of a stock movement
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// IsValid checks if the direction is valid
func (d Direction) IsValid() bool {
	return d == DirectionIn || d == DirectionOut
}

// MovementKind classifies why stock moved
type MovementKind string

const (
	// KindAllocation commits material to a project. At most one per (material, project).
	KindAllocation MovementKind = "ALLOCATION"
	// KindAllocationReversal gives an allocation back to stock. At most one per (material, project).
	KindAllocationReversal MovementKind = "ALLOCATION_REVERSAL"
	KindAdjustment         MovementKind = "ADJUSTMENT"
	KindSale               MovementKind = "SALE"
)

// IsValid checks if the kind is valid
func (k MovementKind) IsValid() bool {
	switch k {
	case KindAllocation, KindAllocationReversal, KindAdjustment, KindSale:
		return true
	}
	return false
}

// String returns the string representation
func (k MovementKind) String() string {
	return string(k)
}

// ReferenceType is the kind of entity a movement points at
type ReferenceType string

const (
	ReferenceProject    ReferenceType = "PROJECT"
	ReferenceSale       ReferenceType = "SALE"
	ReferenceAdjustment ReferenceType = "ADJUSTMENT"
)

// IsValid checks if the reference type is valid
func (r ReferenceType) IsValid() bool {
	switch r {
	case ReferenceProject, ReferenceSale, ReferenceAdjustment:
		return true
	}
	return false
}

// StockMovement is an immutable audit record of a stock change
type StockMovement struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	MaterialID    uuid.UUID
	Direction     Direction
	Kind          MovementKind
	Quantity      decimal.Decimal
	BalanceAfter  decimal.Decimal
	ReasonDetail  string
	ReferenceID   uuid.UUID
	ReferenceType ReferenceType
	Notes         string
	OccurredAt    time.Time
}

// NewStockMovement creates a movement for an already-applied stock change
func NewStockMovement(m *Material, direction Direction, entry LedgerEntry) (*StockMovement, error) {
	if !direction.IsValid() {
		return nil, shared.NewDomainError("INVALID_DIRECTION", "Invalid movement direction")
	}
	if !entry.Kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_KIND", "Invalid movement kind")
	}
	if !entry.ReferenceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_REFERENCE_TYPE", "Invalid reference type")
	}
	if entry.ReferenceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Reference ID cannot be empty")
	}
	if !entry.Quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	return &StockMovement{
		ID:            uuid.New(),
		TenantID:      m.TenantID,
		MaterialID:    m.ID,
		Direction:     direction,
		Kind:          entry.Kind,
		Quantity:      entry.Quantity,
		BalanceAfter:  m.OnHand,
		ReasonDetail:  entry.ReasonDetail,
		ReferenceID:   entry.ReferenceID,
		ReferenceType: entry.ReferenceType,
		Notes:         entry.Notes,
		OccurredAt:    time.Now(),
	}, nil
}

// IsAllocation reports whether the movement commits stock to a project
func (mv *StockMovement) IsAllocation() bool {
	return mv.Kind == KindAllocation && mv.Direction == DirectionOut
}
