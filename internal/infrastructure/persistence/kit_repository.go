package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/solarerp/backend/internal/domain/kit"
	"github.com/solarerp/backend/internal/domain/shared"
	"github.com/solarerp/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormKitRepository implements kit.Repository using GORM
type GormKitRepository struct {
	db *gorm.DB
}

// NewGormKitRepository creates a new GormKitRepository
func NewGormKitRepository(db *gorm.DB) *GormKitRepository {
	return &GormKitRepository{db: db}
}

// FindByIDForTenant loads a kit with its line items
func (r *GormKitRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*kit.Kit, error) {
	var model models.KitModel
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Scopes(models.OwnedBy(tenantID, id)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists kits with their line items
func (r *GormKitRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter kit.Filter) ([]kit.Kit, error) {
	var rows []models.KitModel
	query := paginate(r.filtered(ctx, tenantID, filter), filter.Filter, KitSortFields, "name").
		Preload("Items")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]kit.Kit, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// CountForTenant counts kits matching the filter
func (r *GormKitRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter kit.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormKitRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter kit.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.KitModel{}).Scopes(models.ForTenant(tenantID))
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE ? ESCAPE '\\'", likePattern(filter.Search))
	}
	return query
}

// Save writes the kit row and replaces its line items in one transaction
func (r *GormKitRepository) Save(ctx context.Context, k *kit.Kit) error {
	model := models.KitModelFromDomain(k)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(model).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.KitLineItemModel{}, "kit_id = ?", model.ID).Error; err != nil {
			return err
		}
		if len(model.Items) == 0 {
			return nil
		}
		if err := tx.Create(&model.Items).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.NewDomainError("DUPLICATE_LINE", "a material can appear only once per kit")
			}
			return err
		}
		return nil
	})
}

// Delete removes the line items of a kit, then the kit itself
func (r *GormKitRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned int64
		if err := tx.Model(&models.KitModel{}).Scopes(models.OwnedBy(tenantID, id)).Count(&owned).Error; err != nil {
			return err
		}
		if owned == 0 {
			return shared.ErrNotFound
		}
		if err := tx.Delete(&models.KitLineItemModel{}, "kit_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.KitModel{}, "tenant_id = ? AND id = ?", tenantID, id).Error
	})
}

var _ kit.Repository = (*GormKitRepository)(nil)
