package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/shared"
)

// LedgerEntry describes one debit or credit request
type LedgerEntry struct {
	TenantID      uuid.UUID
	MaterialID    uuid.UUID
	Quantity      decimal.Decimal
	Kind          MovementKind
	ReasonDetail  string
	ReferenceID   uuid.UUID
	ReferenceType ReferenceType
	Notes         string
}

// Guard runs after the material row is locked and before stock changes.
// Returning an error aborts the ledger operation.
type Guard func(ctx context.Context, material *Material) error

// Ledger is the only writer of material quantities. It must be built over
// repositories bound to the caller's transaction so every debit or credit
// commits or rolls back together with the surrounding business operation.
type Ledger struct {
	materials MaterialRepository
	movements MovementRepository
}

// NewLedger creates a ledger over transaction-bound repositories
func NewLedger(materials MaterialRepository, movements MovementRepository) *Ledger {
	return &Ledger{materials: materials, movements: movements}
}

// Debit decrements on-hand stock and appends an OUT movement
func (l *Ledger) Debit(ctx context.Context, entry LedgerEntry, guards ...Guard) (*Material, *StockMovement, error) {
	return l.apply(ctx, DirectionOut, entry, guards)
}

// Credit increments on-hand stock and appends an IN movement
func (l *Ledger) Credit(ctx context.Context, entry LedgerEntry, guards ...Guard) (*Material, *StockMovement, error) {
	return l.apply(ctx, DirectionIn, entry, guards)
}

func (l *Ledger) apply(ctx context.Context, direction Direction, entry LedgerEntry, guards []Guard) (*Material, *StockMovement, error) {
	if err := validateQuantity(entry.Quantity); err != nil {
		return nil, nil, err
	}

	material, err := l.materials.FindByIDForUpdate(ctx, entry.TenantID, entry.MaterialID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, shared.NewDomainError(shared.CodeNotFound,
				fmt.Sprintf("material %s not found", entry.MaterialID))
		}
		return nil, nil, fmt.Errorf("load material %s: %w", entry.MaterialID, err)
	}

	for _, guard := range guards {
		if err := guard(ctx, material); err != nil {
			return nil, nil, err
		}
	}

	if direction == DirectionOut {
		err = material.Debit(entry.Quantity)
	} else {
		err = material.Credit(entry.Quantity)
	}
	if err != nil {
		return nil, nil, err
	}

	movement, err := NewStockMovement(material, direction, entry)
	if err != nil {
		return nil, nil, err
	}

	if err := l.materials.SaveWithLock(ctx, material); err != nil {
		return nil, nil, err
	}
	if err := l.movements.Create(ctx, movement); err != nil {
		if errors.Is(err, ErrDuplicateMovement) && entry.Kind == KindAllocation {
			return nil, nil, duplicateAllocationError(material, entry.ReferenceID)
		}
		return nil, nil, err
	}

	material.AddDomainEvent(NewStockMovedEvent(material, movement))
	return material, movement, nil
}

func duplicateAllocationError(m *Material, projectID uuid.UUID) error {
	return shared.NewDomainError(shared.CodeDuplicateAllocation,
		fmt.Sprintf("material %s is already allocated to project %s", m.Name, projectID))
}
