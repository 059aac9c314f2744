package stock

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/shared"
)

// Ref is a display reference to a project or quote
type Ref struct {
	ID   uuid.UUID
	Name string
}

// AllocationRequest commits a quantity of a material to a project
type AllocationRequest struct {
	TenantID   uuid.UUID
	MaterialID uuid.UUID
	Quantity   decimal.Decimal
	Project    Ref
	Quote      *Ref
	Notes      string
}

// AllocationGuard enforces that a material is committed to a project at most once.
// The duplicate check runs under the material row lock; the unique index on
// (material_id, reference_id, kind) rejects whatever slips past it.
type AllocationGuard struct {
	ledger    *Ledger
	movements MovementRepository
}

// NewAllocationGuard creates an allocation guard on top of a ledger
func NewAllocationGuard(ledger *Ledger, movements MovementRepository) *AllocationGuard {
	return &AllocationGuard{ledger: ledger, movements: movements}
}

// EnsureNotAllocated fails with DUPLICATE_ALLOCATION if the material already went to the project
func (g *AllocationGuard) EnsureNotAllocated(ctx context.Context, tenantID, materialID, projectID uuid.UUID) error {
	exists, err := g.movements.ExistsForReference(ctx, tenantID, materialID, projectID, KindAllocation)
	if err != nil {
		return fmt.Errorf("check allocation: %w", err)
	}
	if exists {
		return shared.NewDomainError(shared.CodeDuplicateAllocation,
			fmt.Sprintf("material %s is already allocated to project %s", materialID, projectID))
	}
	return nil
}

// Allocate checks for a previous allocation and debits the stock
func (g *AllocationGuard) Allocate(ctx context.Context, req AllocationRequest) (*Material, *StockMovement, error) {
	if req.Project.ID == uuid.Nil {
		return nil, nil, shared.NewDomainError("INVALID_REFERENCE", "Project ID cannot be empty")
	}

	entry := LedgerEntry{
		TenantID:      req.TenantID,
		MaterialID:    req.MaterialID,
		Quantity:      req.Quantity,
		Kind:          KindAllocation,
		ReasonDetail:  AllocationReason(req.Project, req.Quote),
		ReferenceID:   req.Project.ID,
		ReferenceType: ReferenceProject,
		Notes:         req.Notes,
	}
	notYetAllocated := func(ctx context.Context, m *Material) error {
		if err := g.EnsureNotAllocated(ctx, req.TenantID, m.ID, req.Project.ID); err != nil {
			if shared.ErrorCode(err) == shared.CodeDuplicateAllocation {
				return duplicateAllocationError(m, req.Project.ID)
			}
			return err
		}
		return nil
	}

	material, movement, err := g.ledger.Debit(ctx, entry, notYetAllocated)
	if err != nil {
		return nil, nil, err
	}
	material.AddDomainEvent(NewMaterialAllocatedEvent(material, movement))
	return material, movement, nil
}

// Release credits back every allocation of the project that was not reversed yet.
// Returns the touched materials and the reversal movements.
func (g *AllocationGuard) Release(ctx context.Context, tenantID uuid.UUID, project Ref, reason string) ([]*Material, []*StockMovement, error) {
	allocations, err := g.movements.FindByReference(ctx, tenantID, project.ID, KindAllocation)
	if err != nil {
		return nil, nil, fmt.Errorf("load allocations of project %s: %w", project.ID, err)
	}
	reversals, err := g.movements.FindByReference(ctx, tenantID, project.ID, KindAllocationReversal)
	if err != nil {
		return nil, nil, fmt.Errorf("load reversals of project %s: %w", project.ID, err)
	}
	reversed := make(map[uuid.UUID]bool, len(reversals))
	for _, r := range reversals {
		reversed[r.MaterialID] = true
	}

	var materials []*Material
	var movements []*StockMovement
	for _, alloc := range allocations {
		if reversed[alloc.MaterialID] {
			continue
		}
		m, mv, err := g.ledger.Credit(ctx, LedgerEntry{
			TenantID:      tenantID,
			MaterialID:    alloc.MaterialID,
			Quantity:      alloc.Quantity,
			Kind:          KindAllocationReversal,
			ReasonDetail:  fmt.Sprintf("reversal of allocation for project %s", displayName(project)),
			ReferenceID:   project.ID,
			ReferenceType: ReferenceProject,
			Notes:         reason,
		})
		if err != nil {
			return nil, nil, err
		}
		reversed[alloc.MaterialID] = true
		materials = append(materials, m)
		movements = append(movements, mv)
	}
	return materials, movements, nil
}

// AllocationReason builds the human readable audit text of an allocation
func AllocationReason(project Ref, quote *Ref) string {
	var b strings.Builder
	b.WriteString("allocation for project ")
	b.WriteString(displayName(project))
	if quote != nil {
		b.WriteString(" (quote ")
		b.WriteString(displayName(*quote))
		b.WriteString(")")
	}
	return b.String()
}

func displayName(r Ref) string {
	if name := strings.TrimSpace(r.Name); name != "" {
		return name
	}
	return r.ID.String()
}
