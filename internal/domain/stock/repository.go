package stock

import (
	"context"

	"github.com/google/uuid"
	"github.com/solarerp/backend/internal/domain/shared"
)

// ErrDuplicateMovement is returned by MovementRepository.Create when the store
// rejects a movement that breaks the one-allocation-per-project constraint.
var ErrDuplicateMovement = shared.NewDomainError(shared.CodeAlreadyExists, "Stock movement already recorded for this reference")

// MaterialRepository persists Material aggregates
type MaterialRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Material, error)

	// FindByIDForUpdate loads the material and holds a row lock until the
	// surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Material, error)

	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Material, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Material, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// Save inserts or fully updates a material
	Save(ctx context.Context, material *Material) error

	// SaveWithLock persists a stock change only if nobody else bumped the version
	SaveWithLock(ctx context.Context, material *Material) error
}

// MovementRepository is the append-only store of stock movements
type MovementRepository interface {
	// Create appends a movement. Returns ErrDuplicateMovement on a uniqueness violation.
	Create(ctx context.Context, movement *StockMovement) error

	// FindByMaterial lists movements of a material, newest first
	FindByMaterial(ctx context.Context, tenantID, materialID uuid.UUID, filter shared.Filter) ([]StockMovement, error)
	CountByMaterial(ctx context.Context, tenantID, materialID uuid.UUID) (int64, error)

	// FindByReference lists movements of one kind pointing at a reference, newest first
	FindByReference(ctx context.Context, tenantID, referenceID uuid.UUID, kind MovementKind) ([]StockMovement, error)

	// ExistsForReference reports whether a movement of the kind exists for (material, reference)
	ExistsForReference(ctx context.Context, tenantID, materialID, referenceID uuid.UUID, kind MovementKind) (bool, error)
}
