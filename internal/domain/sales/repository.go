package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/solarerp/backend/internal/domain/shared"
)

// SaleFilter narrows sale listings
type SaleFilter struct {
	shared.Filter
	Status   SaleStatus
	ClientID *uuid.UUID
}

// SaleRepository persists Sale aggregates
type SaleRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Sale, error)

	// FindByIDForUpdate loads the sale and holds its row lock until the transaction ends.
	// Writers that re-derive the sale status from its receivables take this lock first.
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Sale, error)

	ExistsByQuote(ctx context.Context, tenantID, quoteID uuid.UUID) (bool, error)
	ExistsByNumber(ctx context.Context, tenantID uuid.UUID, saleNumber string) (bool, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter SaleFilter) ([]Sale, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter SaleFilter) (int64, error)

	// Save inserts or updates a sale. A second sale for the same quote fails with DUPLICATE_SALE.
	Save(ctx context.Context, sale *Sale) error

	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// ReceivableRepository persists the receivables owned by sales
type ReceivableRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Receivable, error)

	// FindBySale returns the receivables of a sale ordered by installment index
	FindBySale(ctx context.Context, tenantID, saleID uuid.UUID) ([]Receivable, error)

	SaveBatch(ctx context.Context, receivables []*Receivable) error
	Save(ctx context.Context, receivable *Receivable) error
	DeleteBySale(ctx context.Context, tenantID, saleID uuid.UUID) error

	// MarkOverdue flips pending receivables due before the cutoff to overdue.
	// Returns the number of rows changed.
	MarkOverdue(ctx context.Context, cutoff time.Time) (int64, error)
}

// NumberGenerator produces short unique sale numbers. The exists callback
// reports collisions so the generator can retry.
type NumberGenerator interface {
	Generate(ctx context.Context, exists func(ctx context.Context, candidate string) (bool, error)) (string, error)
}
