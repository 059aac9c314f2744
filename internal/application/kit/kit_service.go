package kit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/kit"
	"github.com/solarerp/backend/internal/domain/shared"
	"github.com/solarerp/backend/internal/domain/stock"
	"go.uber.org/zap"
)

// KitService manages kit compositions. Stock coverage is reported, never enforced.
type KitService struct {
	kitRepo      kit.Repository
	materialRepo stock.MaterialRepository
	logger       *zap.Logger
}

// NewKitService creates a new KitService
func NewKitService(kitRepo kit.Repository, materialRepo stock.MaterialRepository, logger *zap.Logger) *KitService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KitService{kitRepo: kitRepo, materialRepo: materialRepo, logger: logger}
}

// CreateKit creates a kit with its real lines and informational items
func (s *KitService) CreateKit(ctx context.Context, tenantID uuid.UUID, input KitInput) (*KitResponse, error) {
	k, err := kit.NewKit(tenantID, input.Name, input.Category, input.Price)
	if err != nil {
		return nil, err
	}
	materials, err := s.apply(ctx, k, input)
	if err != nil {
		return nil, err
	}
	if err := s.kitRepo.Save(ctx, k); err != nil {
		return nil, err
	}
	s.logger.Info("kit created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("kit_id", k.ID.String()),
		zap.Int("lines", len(k.Items)),
		zap.Int("informational_items", len(k.InformationalItems)))
	return toKitResponse(k, materials), nil
}

// UpdateKit replaces the whole kit state
func (s *KitService) UpdateKit(ctx context.Context, tenantID, kitID uuid.UUID, input KitInput) (*KitResponse, error) {
	k, err := s.kitRepo.FindByIDForTenant(ctx, tenantID, kitID)
	if err != nil {
		return nil, err
	}
	if err := k.Rename(input.Name, input.Category, input.Price); err != nil {
		return nil, err
	}
	materials, err := s.apply(ctx, k, input)
	if err != nil {
		return nil, err
	}
	k.IncrementVersion()
	if err := s.kitRepo.Save(ctx, k); err != nil {
		return nil, err
	}
	return toKitResponse(k, materials), nil
}

// apply validates lines against existing materials and sets lines and informational items
func (s *KitService) apply(ctx context.Context, k *kit.Kit, input KitInput) (map[uuid.UUID]*stock.Material, error) {
	if err := k.ReplaceLines(input.Lines); err != nil {
		return nil, err
	}
	if err := k.ReplaceInformationalItems(input.InformationalItems); err != nil {
		return nil, err
	}
	materials, err := s.loadMaterials(ctx, k)
	if err != nil {
		return nil, err
	}
	for _, id := range k.MaterialIDs() {
		if _, ok := materials[id]; !ok {
			return nil, shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("material %s not found", id))
		}
	}
	return materials, nil
}

// GetKit returns a kit with its stock coverage computed from current on-hand
func (s *KitService) GetKit(ctx context.Context, tenantID, kitID uuid.UUID) (*KitResponse, error) {
	k, err := s.kitRepo.FindByIDForTenant(ctx, tenantID, kitID)
	if err != nil {
		return nil, err
	}
	materials, err := s.loadMaterials(ctx, k)
	if err != nil {
		return nil, err
	}
	return toKitResponse(k, materials), nil
}

// ListKits lists kits with pagination
func (s *KitService) ListKits(ctx context.Context, tenantID uuid.UUID, filter KitListFilter) (*shared.Paginated[KitResponse], error) {
	f := kit.Filter{Filter: shared.DefaultFilter(), Category: filter.Category}
	f.OrderBy = "name"
	f.OrderDir = "asc"
	f.Search = filter.Search
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}

	kits, err := s.kitRepo.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	total, err := s.kitRepo.CountForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}

	items := make([]KitResponse, 0, len(kits))
	for i := range kits {
		materials, err := s.loadMaterials(ctx, &kits[i])
		if err != nil {
			return nil, err
		}
		items = append(items, *toKitResponse(&kits[i], materials))
	}
	page := shared.NewPaginated(items, total, f.Page, f.Limit())
	return &page, nil
}

// DeleteKit removes a kit and its lines
func (s *KitService) DeleteKit(ctx context.Context, tenantID, kitID uuid.UUID) error {
	return s.kitRepo.Delete(ctx, tenantID, kitID)
}

func (s *KitService) loadMaterials(ctx context.Context, k *kit.Kit) (map[uuid.UUID]*stock.Material, error) {
	ids := k.MaterialIDs()
	out := make(map[uuid.UUID]*stock.Material, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	materials, err := s.materialRepo.FindByIDs(ctx, k.TenantID, ids)
	if err != nil {
		return nil, err
	}
	for i := range materials {
		out[materials[i].ID] = &materials[i]
	}
	return out, nil
}

func toKitResponse(k *kit.Kit, materials map[uuid.UUID]*stock.Material) *KitResponse {
	onHand := make(map[uuid.UUID]decimal.Decimal, len(materials))
	for id, m := range materials {
		onHand[id] = m.OnHand
	}
	k.EvaluateStock(onHand)

	resp := &KitResponse{
		ID:                 k.ID,
		Name:               k.Name,
		Category:           k.Category,
		Price:              k.Price,
		Items:              make([]LineItemResponse, 0, len(k.Items)),
		InformationalItems: k.InformationalItems,
		HasQuotedItems:     k.HasQuotedItems,
		StockStatus:        string(k.StockStatus),
		CreatedAt:          k.CreatedAt,
		UpdatedAt:          k.UpdatedAt,
	}
	if resp.InformationalItems == nil {
		resp.InformationalItems = kit.InformationalItems{}
	}
	for _, item := range k.Items {
		line := LineItemResponse{ID: item.ID, MaterialID: item.MaterialID, Quantity: item.Quantity}
		if m, ok := materials[item.MaterialID]; ok {
			line.MaterialName = m.Name
			line.Unit = m.Unit
			line.OnHand = m.OnHand
		}
		resp.Items = append(resp.Items, line)
	}
	return resp
}
