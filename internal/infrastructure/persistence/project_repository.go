package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/solarerp/backend/internal/domain/project"
	"github.com/solarerp/backend/internal/domain/shared"
	"github.com/solarerp/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormQuoteRepository implements project.QuoteRepository using GORM
type GormQuoteRepository struct {
	db *gorm.DB
}

// NewGormQuoteRepository creates a new GormQuoteRepository
func NewGormQuoteRepository(db *gorm.DB) *GormQuoteRepository {
	return &GormQuoteRepository{db: db}
}

// FindByIDForTenant finds a quote by ID within a tenant
func (r *GormQuoteRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*project.Quote, error) {
	var model models.QuoteModel
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

// Save creates or updates a quote
func (r *GormQuoteRepository) Save(ctx context.Context, quote *project.Quote) error {
	return r.db.WithContext(ctx).Save(models.QuoteModelFromDomain(quote)).Error
}

// GormProjectRepository implements project.ProjectRepository using GORM
type GormProjectRepository struct {
	db *gorm.DB
}

// NewGormProjectRepository creates a new GormProjectRepository
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

// FindByIDForTenant finds a project by ID within a tenant
func (r *GormProjectRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*project.Project, error) {
	var model models.ProjectModel
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

// Save creates or updates a project
func (r *GormProjectRepository) Save(ctx context.Context, p *project.Project) error {
	return r.db.WithContext(ctx).Save(models.ProjectModelFromDomain(p)).Error
}

// Delete removes the project row only
func (r *GormProjectRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ProjectModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SaveSite creates or updates the construction site of a project
func (r *GormProjectRepository) SaveSite(ctx context.Context, site *project.ConstructionSite) error {
	err := r.db.WithContext(ctx).Save(models.ConstructionSiteModelFromDomain(site)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.NewDomainError(shared.CodeAlreadyExists, "project already has a construction site")
	}
	return err
}

// FindSite returns the construction site of a project
func (r *GormProjectRepository) FindSite(ctx context.Context, tenantID, projectID uuid.UUID) (*project.ConstructionSite, error) {
	var model models.ConstructionSiteModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND project_id = ?", tenantID, projectID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// DeleteSite removes the construction site of a project if there is one
func (r *GormProjectRepository) DeleteSite(ctx context.Context, tenantID, projectID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.ConstructionSiteModel{}, "tenant_id = ? AND project_id = ?", tenantID, projectID).Error
}

// SaveTask creates or updates a project task
func (r *GormProjectRepository) SaveTask(ctx context.Context, task *project.Task) error {
	return r.db.WithContext(ctx).Save(models.TaskModelFromDomain(task)).Error
}

// FindTasks lists the tasks of a project in creation order
func (r *GormProjectRepository) FindTasks(ctx context.Context, tenantID, projectID uuid.UUID) ([]project.Task, error) {
	var rows []models.TaskModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND project_id = ?", tenantID, projectID).
		Order("created_at").Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	tasks := make([]project.Task, len(rows))
	for i := range rows {
		tasks[i] = *rows[i].ToDomain()
	}
	return tasks, nil
}

// DeleteTasks removes every task of a project
func (r *GormProjectRepository) DeleteTasks(ctx context.Context, tenantID, projectID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.TaskModel{}, "tenant_id = ? AND project_id = ?", tenantID, projectID).Error
}

var (
	_ project.QuoteRepository   = (*GormQuoteRepository)(nil)
	_ project.ProjectRepository = (*GormProjectRepository)(nil)
)
