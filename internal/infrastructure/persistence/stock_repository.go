package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/solarerp/backend/internal/domain/shared"
	"github.com/solarerp/backend/internal/domain/stock"
	"github.com/solarerp/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMaterialRepository implements stock.MaterialRepository using GORM
type GormMaterialRepository struct {
	db *gorm.DB
}

// NewGormMaterialRepository creates a new GormMaterialRepository
func NewGormMaterialRepository(db *gorm.DB) *GormMaterialRepository {
	return &GormMaterialRepository{db: db}
}

// FindByIDForTenant finds a material by ID within a tenant
func (r *GormMaterialRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*stock.Material, error) {
	return r.findOne(r.db.WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate loads the material with SELECT ... FOR UPDATE.
// Must run inside a transaction for the lock to mean anything.
func (r *GormMaterialRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*stock.Material, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), tenantID, id)
}

func (r *GormMaterialRepository) findOne(db *gorm.DB, tenantID, id uuid.UUID) (*stock.Material, error) {
	var model models.MaterialModel
	if err := db.Scopes(models.OwnedBy(tenantID, id)).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds the materials of a tenant among ids; unknown ids are skipped
func (r *GormMaterialRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]stock.Material, error) {
	if len(ids) == 0 {
		return []stock.Material{}, nil
	}
	var rows []models.MaterialModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return materialsToDomain(rows), nil
}

// FindAllForTenant lists materials, optionally filtered by a name search
func (r *GormMaterialRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]stock.Material, error) {
	var rows []models.MaterialModel
	query := paginate(r.filtered(ctx, tenantID, filter), filter, MaterialSortFields, "name")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return materialsToDomain(rows), nil
}

// CountForTenant counts materials matching the filter
func (r *GormMaterialRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormMaterialRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.MaterialModel{}).Scopes(models.ForTenant(tenantID))
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE ? ESCAPE '\\'", likePattern(filter.Search))
	}
	return query
}

// Save inserts or fully updates a material
func (r *GormMaterialRepository) Save(ctx context.Context, material *stock.Material) error {
	return r.db.WithContext(ctx).Save(models.MaterialModelFromDomain(material)).Error
}

// SaveWithLock writes the stock balance only if the stored version is the one
// the material was loaded with
func (r *GormMaterialRepository) SaveWithLock(ctx context.Context, material *stock.Material) error {
	result := r.db.WithContext(ctx).
		Model(&models.MaterialModel{}).
		Where("id = ? AND tenant_id = ? AND version = ?", material.ID, material.TenantID, material.Version-1).
		Updates(map[string]interface{}{
			"on_hand":    material.OnHand,
			"version":    material.Version,
			"updated_at": material.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func materialsToDomain(rows []models.MaterialModel) []stock.Material {
	out := make([]stock.Material, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// GormStockMovementRepository implements stock.MovementRepository using GORM
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Create appends a movement. A second allocation (or reversal) of the same
// material for the same reference trips the partial unique index.
func (r *GormStockMovementRepository) Create(ctx context.Context, movement *stock.StockMovement) error {
	err := r.db.WithContext(ctx).Create(models.StockMovementModelFromDomain(movement)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return stock.ErrDuplicateMovement
	}
	return err
}

// FindByMaterial lists movements of a material, newest first by default
func (r *GormStockMovementRepository) FindByMaterial(ctx context.Context, tenantID, materialID uuid.UUID, filter shared.Filter) ([]stock.StockMovement, error) {
	var rows []models.StockMovementModel
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND material_id = ?", tenantID, materialID)
	if filter.OrderBy == "" || filter.OrderBy == "created_at" {
		filter.OrderBy = "occurred_at"
	}
	if err := paginate(query, filter, MovementSortFields, "occurred_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	return movementsToDomain(rows), nil
}

// CountByMaterial counts the movements of a material
func (r *GormStockMovementRepository) CountByMaterial(ctx context.Context, tenantID, materialID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.StockMovementModel{}).
		Where("tenant_id = ? AND material_id = ?", tenantID, materialID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindByReference lists movements of one kind pointing at a reference, newest first
func (r *GormStockMovementRepository) FindByReference(ctx context.Context, tenantID, referenceID uuid.UUID, kind stock.MovementKind) ([]stock.StockMovement, error) {
	var rows []models.StockMovementModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND reference_id = ? AND kind = ?", tenantID, referenceID, string(kind)).
		Order("occurred_at DESC").Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return movementsToDomain(rows), nil
}

// ExistsForReference reports whether a movement of the kind exists for (material, reference)
func (r *GormStockMovementRepository) ExistsForReference(ctx context.Context, tenantID, materialID, referenceID uuid.UUID, kind stock.MovementKind) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.StockMovementModel{}).
		Where("tenant_id = ? AND material_id = ? AND reference_id = ? AND kind = ?", tenantID, materialID, referenceID, string(kind)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func movementsToDomain(rows []models.StockMovementModel) []stock.StockMovement {
	out := make([]stock.StockMovement, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var (
	_ stock.MaterialRepository = (*GormMaterialRepository)(nil)
	_ stock.MovementRepository = (*GormStockMovementRepository)(nil)
)
