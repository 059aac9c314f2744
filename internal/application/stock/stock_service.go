package stock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/project"
	"github.com/solarerp/backend/internal/domain/shared"
	"github.com/solarerp/backend/internal/domain/stock"
	"github.com/solarerp/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// StockService handles material administration and project allocations.
// Every quantity change goes through a stock.Ledger built inside a transaction.
type StockService struct {
	txScope        TransactionScope
	materialRepo   stock.MaterialRepository
	movementRepo   stock.MovementRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewStockService creates a new StockService
func NewStockService(
	txScope TransactionScope,
	materialRepo stock.MaterialRepository,
	movementRepo stock.MovementRepository,
	logger *zap.Logger,
) *StockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockService{
		txScope:      txScope,
		materialRepo: materialRepo,
		movementRepo: movementRepo,
		logger:       logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *StockService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// publishDomainEvents publishes the pending events of the given materials after commit
func (s *StockService) publishDomainEvents(ctx context.Context, materials ...*stock.Material) {
	if s.eventPublisher == nil {
		return
	}
	aggregates := make([]shared.AggregateRoot, 0, len(materials))
	for _, m := range materials {
		if m != nil {
			aggregates = append(aggregates, m)
		}
	}
	events := shared.CollectEvents(aggregates...)
	if len(events) == 0 {
		return
	}
	// Errors are logged by the event bus, not propagated
	_ = s.eventPublisher.Publish(ctx, events...)
}

// AllocateMaterial commits a quantity of a material to a project.
// Fails with DUPLICATE_ALLOCATION when the material already went to the project
// and with INSUFFICIENT_STOCK when on-hand stock does not cover the quantity.
func (s *StockService) AllocateMaterial(ctx context.Context, tenantID uuid.UUID, input AllocateMaterialInput) (_ *AllocationResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "allocate")
	defer func() { telemetry.EndSpan(span, err) }()
	telemetry.SetAttributes(span,
		"tenant_id", tenantID.String(),
		"project_id", input.ProjectID.String(),
		"material_id", input.MaterialID.String(),
		"quantity", input.Quantity.String())

	var material *stock.Material
	var movement *stock.StockMovement

	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("allocate_material", tenantID.String()), func(ctx context.Context) {
		err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			proj, err := repos.ProjectRepo().FindByIDForTenant(ctx, tenantID, input.ProjectID)
			if err != nil {
				return err
			}
			if proj.Status == project.ProjectStatusCancelled {
				return shared.NewDomainError(shared.CodeInvalidState,
					fmt.Sprintf("cannot allocate material to cancelled project %s", proj.Name))
			}

			req := stock.AllocationRequest{
				TenantID:   tenantID,
				MaterialID: input.MaterialID,
				Quantity:   input.Quantity,
				Project:    stock.Ref{ID: proj.ID, Name: proj.Name},
				Notes:      strings.TrimSpace(input.Notes),
			}
			quoteID := proj.QuoteID
			if input.QuoteID != nil {
				quoteID = *input.QuoteID
			}
			if quoteID != uuid.Nil {
				if q, qerr := repos.QuoteRepo().FindByIDForTenant(ctx, tenantID, quoteID); qerr == nil {
					req.Quote = &stock.Ref{ID: q.ID, Name: q.Name}
				} else if !errors.Is(qerr, shared.ErrNotFound) {
					return qerr
				}
			}

			ledger := stock.NewLedger(repos.MaterialRepo(), repos.MovementRepo())
			guard := stock.NewAllocationGuard(ledger, repos.MovementRepo())
			material, movement, err = guard.Allocate(ctx, req)
			return err
		})
	})
	if err != nil {
		s.logger.Info("material allocation rejected",
			zap.String("tenant_id", tenantID.String()),
			zap.String("project_id", input.ProjectID.String()),
			zap.String("material_id", input.MaterialID.String()),
			zap.String("code", shared.ErrorCode(err)),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("material allocated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("project_id", input.ProjectID.String()),
		zap.String("material_id", material.ID.String()),
		zap.String("quantity", movement.Quantity.String()),
		zap.String("balance_after", movement.BalanceAfter.String()))

	s.publishDomainEvents(ctx, material)
	return &AllocationResponse{
		Material: ToMaterialResponse(material),
		Movement: ToMovementResponse(movement),
	}, nil
}

// ListAllocatedMaterials returns the allocations of a project, newest first,
// each with a snapshot of the material. Allocations given back to stock by
// a cancellation are flagged as reversed.
func (s *StockService) ListAllocatedMaterials(ctx context.Context, tenantID, projectID uuid.UUID) ([]AllocatedMaterialResponse, error) {
	movements, err := s.movementRepo.FindByReference(ctx, tenantID, projectID, stock.KindAllocation)
	if err != nil {
		return nil, err
	}
	if len(movements) == 0 {
		return []AllocatedMaterialResponse{}, nil
	}
	reversals, err := s.movementRepo.FindByReference(ctx, tenantID, projectID, stock.KindAllocationReversal)
	if err != nil {
		return nil, err
	}
	reversedAt := make(map[uuid.UUID]time.Time, len(reversals))
	for _, r := range reversals {
		reversedAt[r.MaterialID] = r.OccurredAt
	}

	ids := make([]uuid.UUID, 0, len(movements))
	for i := range movements {
		ids = append(ids, movements[i].MaterialID)
	}
	materials, err := s.materialRepo.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*stock.Material, len(materials))
	for i := range materials {
		byID[materials[i].ID] = &materials[i]
	}

	out := make([]AllocatedMaterialResponse, 0, len(movements))
	for i := range movements {
		item := AllocatedMaterialResponse{Movement: ToMovementResponse(&movements[i])}
		if at, ok := reversedAt[movements[i].MaterialID]; ok {
			item.Reversed = true
			item.ReversedAt = &at
		}
		if m, ok := byID[movements[i].MaterialID]; ok {
			resp := ToMaterialResponse(m)
			item.Material = &resp
		}
		out = append(out, item)
	}
	return out, nil
}

// CreateMaterial registers a material. A positive opening balance is booked
// through the ledger as an ADJUSTMENT credit so it shows up in the movement history.
func (s *StockService) CreateMaterial(ctx context.Context, tenantID uuid.UUID, input CreateMaterialInput) (*MaterialResponse, error) {
	if input.InitialOnHand.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Opening stock cannot be negative")
	}
	material, err := stock.NewMaterial(tenantID, input.Name, input.Unit, input.PurchasePrice, input.SalePrice)
	if err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.MaterialRepo().Save(ctx, material); err != nil {
			return err
		}
		if !input.InitialOnHand.IsPositive() {
			return nil
		}
		reason := strings.TrimSpace(input.OpeningComment)
		if reason == "" {
			reason = "opening balance"
		}
		ledger := stock.NewLedger(repos.MaterialRepo(), repos.MovementRepo())
		credited, _, err := ledger.Credit(ctx, stock.LedgerEntry{
			TenantID:      tenantID,
			MaterialID:    material.ID,
			Quantity:      input.InitialOnHand,
			Kind:          stock.KindAdjustment,
			ReasonDetail:  reason,
			ReferenceID:   material.ID,
			ReferenceType: stock.ReferenceAdjustment,
		})
		if err != nil {
			return err
		}
		material = credited
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, material)
	resp := ToMaterialResponse(material)
	return &resp, nil
}

// GetMaterial retrieves a material by ID
func (s *StockService) GetMaterial(ctx context.Context, tenantID, materialID uuid.UUID) (*MaterialResponse, error) {
	m, err := s.materialRepo.FindByIDForTenant(ctx, tenantID, materialID)
	if err != nil {
		return nil, err
	}
	resp := ToMaterialResponse(m)
	return &resp, nil
}

// ListMaterials lists materials with pagination
func (s *StockService) ListMaterials(ctx context.Context, tenantID uuid.UUID, filter MaterialListFilter) (*shared.Paginated[MaterialResponse], error) {
	f := toDomainFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir, filter.Search)

	materials, err := s.materialRepo.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	total, err := s.materialRepo.CountForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}

	items := make([]MaterialResponse, 0, len(materials))
	for i := range materials {
		items = append(items, ToMaterialResponse(&materials[i]))
	}
	page := shared.NewPaginated(items, total, f.Page, f.Limit())
	return &page, nil
}

// UpdateMaterialPrices changes purchase and sale prices. Quantities are untouched.
func (s *StockService) UpdateMaterialPrices(ctx context.Context, tenantID, materialID uuid.UUID, input UpdatePricesInput) (*MaterialResponse, error) {
	var material *stock.Material
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		m, err := repos.MaterialRepo().FindByIDForUpdate(ctx, tenantID, materialID)
		if err != nil {
			return err
		}
		if err := m.SetPrices(input.PurchasePrice, input.SalePrice); err != nil {
			return err
		}
		if err := repos.MaterialRepo().Save(ctx, m); err != nil {
			return err
		}
		material = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := ToMaterialResponse(material)
	return &resp, nil
}

// AdjustStock books a manual correction through the ledger
func (s *StockService) AdjustStock(ctx context.Context, tenantID, materialID uuid.UUID, input AdjustStockInput) (_ *AllocationResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "adjust")
	defer func() { telemetry.EndSpan(span, err) }()
	telemetry.SetAttributes(span, "material_id", materialID.String(), "direction", string(input.Direction))

	if !input.Direction.IsValid() {
		return nil, shared.NewDomainError("INVALID_DIRECTION",
			fmt.Sprintf("direction must be IN or OUT, got %q", input.Direction))
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Adjustment reason cannot be empty")
	}

	var material *stock.Material
	var movement *stock.StockMovement
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		ledger := stock.NewLedger(repos.MaterialRepo(), repos.MovementRepo())
		entry := stock.LedgerEntry{
			TenantID:      tenantID,
			MaterialID:    materialID,
			Quantity:      input.Quantity,
			Kind:          stock.KindAdjustment,
			ReasonDetail:  reason,
			ReferenceID:   uuid.New(),
			ReferenceType: stock.ReferenceAdjustment,
			Notes:         strings.TrimSpace(input.Notes),
		}
		var err error
		if input.Direction == stock.DirectionOut {
			material, movement, err = ledger.Debit(ctx, entry)
		} else {
			material, movement, err = ledger.Credit(ctx, entry)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock adjusted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("material_id", materialID.String()),
		zap.String("direction", string(input.Direction)),
		zap.String("quantity", input.Quantity.String()))

	s.publishDomainEvents(ctx, material)
	return &AllocationResponse{
		Material: ToMaterialResponse(material),
		Movement: ToMovementResponse(movement),
	}, nil
}

// ListMovements returns the movement history of a material, newest first
func (s *StockService) ListMovements(ctx context.Context, tenantID, materialID uuid.UUID, page, pageSize int) (*shared.Paginated[MovementResponse], error) {
	if _, err := s.materialRepo.FindByIDForTenant(ctx, tenantID, materialID); err != nil {
		return nil, err
	}
	f := toDomainFilter(page, pageSize, "occurred_at", "desc", "")

	movements, err := s.movementRepo.FindByMaterial(ctx, tenantID, materialID, f)
	if err != nil {
		return nil, err
	}
	total, err := s.movementRepo.CountByMaterial(ctx, tenantID, materialID)
	if err != nil {
		return nil, err
	}
	items := make([]MovementResponse, 0, len(movements))
	for i := range movements {
		items = append(items, ToMovementResponse(&movements[i]))
	}
	result := shared.NewPaginated(items, total, f.Page, f.Limit())
	return &result, nil
}

// OnHandByMaterial returns the current on-hand quantity of each requested material
func (s *StockService) OnHandByMaterial(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	out := make(map[uuid.UUID]decimal.Decimal, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	materials, err := s.materialRepo.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	for i := range materials {
		out[materials[i].ID] = materials[i].OnHand
	}
	return out, nil
}

func toDomainFilter(page, pageSize int, orderBy, orderDir, search string) shared.Filter {
	f := shared.DefaultFilter()
	if page > 0 {
		f.Page = page
	}
	if pageSize > 0 {
		f.PageSize = pageSize
	}
	if orderBy != "" {
		f.OrderBy = orderBy
	}
	if orderDir != "" {
		f.OrderDir = orderDir
	}
	f.Search = search
	return f
}
