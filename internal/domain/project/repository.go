package project

import (
	"context"

	"github.com/google/uuid"
)

// QuoteRepository reads quotes and records the sold transition
type QuoteRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Quote, error)
	Save(ctx context.Context, quote *Quote) error
}

// ProjectRepository persists projects together with their construction site and tasks.
// Delete removes only the project row; callers remove owned rows first.
type ProjectRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Project, error)
	Save(ctx context.Context, project *Project) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	SaveSite(ctx context.Context, site *ConstructionSite) error
	FindSite(ctx context.Context, tenantID, projectID uuid.UUID) (*ConstructionSite, error)
	DeleteSite(ctx context.Context, tenantID, projectID uuid.UUID) error

	SaveTask(ctx context.Context, task *Task) error
	FindTasks(ctx context.Context, tenantID, projectID uuid.UUID) ([]Task, error)
	DeleteTasks(ctx context.Context, tenantID, projectID uuid.UUID) error
}
