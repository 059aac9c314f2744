package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/solarerp/backend/internal/domain/sales"
	"github.com/solarerp/backend/internal/domain/shared"
	"github.com/solarerp/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSaleRepository implements sales.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByIDForTenant finds a sale by ID within a tenant
func (r *GormSaleRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sales.Sale, error) {
	return r.findOne(r.db.WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate loads the sale with SELECT ... FOR UPDATE
func (r *GormSaleRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*sales.Sale, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), tenantID, id)
}

func (r *GormSaleRepository) findOne(db *gorm.DB, tenantID, id uuid.UUID) (*sales.Sale, error) {
	var model models.SaleModel
	if err := db.Scopes(models.OwnedBy(tenantID, id)).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByQuote reports whether the quote already has a sale
func (r *GormSaleRepository) ExistsByQuote(ctx context.Context, tenantID, quoteID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Where("tenant_id = ? AND quote_id = ?", tenantID, quoteID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistsByNumber reports whether a sale number is taken. Numbers are unique
// across tenants, so the tenant does not narrow the check.
func (r *GormSaleRepository) ExistsByNumber(ctx context.Context, _ uuid.UUID, saleNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Where("sale_number = ?", saleNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindAllForTenant lists sales, newest first by default
func (r *GormSaleRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter sales.SaleFilter) ([]sales.Sale, error) {
	var rows []models.SaleModel
	query := paginate(r.filtered(ctx, tenantID, filter), filter.Filter, SaleSortFields, "created_at")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]sales.Sale, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// CountForTenant counts sales matching the filter
func (r *GormSaleRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter sales.SaleFilter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormSaleRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter sales.SaleFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.SaleModel{}).Scopes(models.ForTenant(tenantID))
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Search != "" {
		query = query.Where("LOWER(sale_number) LIKE ? ESCAPE '\\'", likePattern(filter.Search))
	}
	return query
}

// Save inserts or updates a sale. The unique quote_id index turns a
// concurrent second sale of the same quote into DUPLICATE_SALE.
func (r *GormSaleRepository) Save(ctx context.Context, sale *sales.Sale) error {
	err := r.db.WithContext(ctx).Save(models.SaleModelFromDomain(sale)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrDuplicateSale
	}
	return err
}

// Delete removes a sale row
func (r *GormSaleRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.SaleModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormReceivableRepository implements sales.ReceivableRepository using GORM
type GormReceivableRepository struct {
	db *gorm.DB
}

// NewGormReceivableRepository creates a new GormReceivableRepository
func NewGormReceivableRepository(db *gorm.DB) *GormReceivableRepository {
	return &GormReceivableRepository{db: db}
}

// FindByIDForTenant finds a receivable by ID within a tenant
func (r *GormReceivableRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sales.Receivable, error) {
	var model models.ReceivableModel
	if err := r.db.WithContext(ctx).
		Scopes(models.OwnedBy(tenantID, id)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySale returns the receivables of a sale ordered by installment index
func (r *GormReceivableRepository) FindBySale(ctx context.Context, tenantID, saleID uuid.UUID) ([]sales.Receivable, error) {
	var rows []models.ReceivableModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND sale_id = ?", tenantID, saleID).
		Order("installment_index").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]sales.Receivable, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// SaveBatch inserts a sale's schedule in one statement
func (r *GormReceivableRepository) SaveBatch(ctx context.Context, receivables []*sales.Receivable) error {
	if len(receivables) == 0 {
		return nil
	}
	rows := make([]*models.ReceivableModel, len(receivables))
	for i, rec := range receivables {
		rows[i] = models.ReceivableModelFromDomain(rec)
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// Save updates a single receivable
func (r *GormReceivableRepository) Save(ctx context.Context, receivable *sales.Receivable) error {
	return r.db.WithContext(ctx).Save(models.ReceivableModelFromDomain(receivable)).Error
}

// DeleteBySale removes the schedule of a sale
func (r *GormReceivableRepository) DeleteBySale(ctx context.Context, tenantID, saleID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.ReceivableModel{}, "tenant_id = ? AND sale_id = ?", tenantID, saleID).Error
}

// MarkOverdue flips every pending receivable due before cutoff, across tenants
func (r *GormReceivableRepository) MarkOverdue(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ReceivableModel{}).
		Where("status = ? AND due_date < ?", string(sales.ReceivableStatusPending), cutoff).
		Updates(map[string]interface{}{
			"status":     string(sales.ReceivableStatusOverdue),
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

var (
	_ sales.SaleRepository       = (*GormSaleRepository)(nil)
	_ sales.ReceivableRepository = (*GormReceivableRepository)(nil)
)
