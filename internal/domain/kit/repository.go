package kit

import (
	"context"

	"github.com/google/uuid"
	"github.com/solarerp/backend/internal/domain/shared"
)

// Filter narrows kit listings
type Filter struct {
	shared.Filter
	Category string
}

// Repository persists kits with their line items
type Repository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Kit, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]Kit, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter Filter) (int64, error)

	// Save writes the kit and replaces its line items
	Save(ctx context.Context, kit *Kit) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
