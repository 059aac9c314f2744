package project

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/project"
	"github.com/solarerp/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// QuoteResponse represents a quote in API responses
type QuoteResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	ClientID  uuid.UUID       `json:"client_id"`
	SalePrice decimal.Decimal `json:"sale_price"`
	Status    string          `json:"status"`
	ProjectID *uuid.UUID      `json:"project_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// TaskResponse represents a project task
type TaskResponse struct {
	ID      uuid.UUID  `json:"id"`
	Title   string     `json:"title"`
	Status  string     `json:"status"`
	DueDate *time.Time `json:"due_date,omitempty"`
}

// ProjectResponse is a project with its site and tasks
type ProjectResponse struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Status      string         `json:"status"`
	QuoteID     uuid.UUID      `json:"quote_id"`
	SaleID      *uuid.UUID     `json:"sale_id,omitempty"`
	SiteAddress string         `json:"site_address,omitempty"`
	Tasks       []TaskResponse `json:"tasks"`
	CreatedAt   time.Time      `json:"created_at"`
}

// CreateQuoteInput registers a quote
type CreateQuoteInput struct {
	ClientID  uuid.UUID
	Name      string
	SalePrice decimal.Decimal
}

// ProjectService is the small admin surface over quotes and projects the
// sale flow depends on
type ProjectService struct {
	quoteRepo   project.QuoteRepository
	projectRepo project.ProjectRepository
	logger      *zap.Logger
}

// NewProjectService creates a new ProjectService
func NewProjectService(quoteRepo project.QuoteRepository, projectRepo project.ProjectRepository, logger *zap.Logger) *ProjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{quoteRepo: quoteRepo, projectRepo: projectRepo, logger: logger}
}

// CreateQuote creates a draft quote
func (s *ProjectService) CreateQuote(ctx context.Context, tenantID uuid.UUID, input CreateQuoteInput) (*QuoteResponse, error) {
	q, err := project.NewQuote(tenantID, input.ClientID, input.Name, input.SalePrice)
	if err != nil {
		return nil, err
	}
	if err := s.quoteRepo.Save(ctx, q); err != nil {
		return nil, err
	}
	return toQuoteResponse(q), nil
}

// ApproveQuote moves a draft quote to approved so it can be sold
func (s *ProjectService) ApproveQuote(ctx context.Context, tenantID, quoteID uuid.UUID) (*QuoteResponse, error) {
	q, err := s.quoteRepo.FindByIDForTenant(ctx, tenantID, quoteID)
	if err != nil {
		return nil, err
	}
	if err := q.Approve(); err != nil {
		return nil, err
	}
	if err := s.quoteRepo.Save(ctx, q); err != nil {
		return nil, err
	}
	s.logger.Info("quote approved", zap.String("tenant_id", tenantID.String()), zap.String("quote_id", q.ID.String()))
	return toQuoteResponse(q), nil
}

// GetQuote retrieves a quote
func (s *ProjectService) GetQuote(ctx context.Context, tenantID, quoteID uuid.UUID) (*QuoteResponse, error) {
	q, err := s.quoteRepo.FindByIDForTenant(ctx, tenantID, quoteID)
	if err != nil {
		return nil, err
	}
	return toQuoteResponse(q), nil
}

// GetProject returns a project with its construction site and tasks
func (s *ProjectService) GetProject(ctx context.Context, tenantID, projectID uuid.UUID) (*ProjectResponse, error) {
	p, err := s.projectRepo.FindByIDForTenant(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	resp := &ProjectResponse{
		ID:        p.ID,
		Name:      p.Name,
		Status:    string(p.Status),
		QuoteID:   p.QuoteID,
		SaleID:    p.SaleID,
		Tasks:     []TaskResponse{},
		CreatedAt: p.CreatedAt,
	}
	site, err := s.projectRepo.FindSite(ctx, tenantID, p.ID)
	switch {
	case err == nil:
		resp.SiteAddress = site.Address
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}
	tasks, err := s.projectRepo.FindTasks(ctx, tenantID, p.ID)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		resp.Tasks = append(resp.Tasks, TaskResponse{ID: t.ID, Title: t.Title, Status: string(t.Status), DueDate: t.DueDate})
	}
	return resp, nil
}

// AddTask appends a todo task to a project
func (s *ProjectService) AddTask(ctx context.Context, tenantID, projectID uuid.UUID, title string, dueDate *time.Time) (*TaskResponse, error) {
	p, err := s.projectRepo.FindByIDForTenant(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	if p.Status == project.ProjectStatusCancelled {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "cannot add tasks to a cancelled project")
	}
	task, err := project.NewTask(p, title, dueDate)
	if err != nil {
		return nil, err
	}
	if err := s.projectRepo.SaveTask(ctx, task); err != nil {
		return nil, err
	}
	return &TaskResponse{ID: task.ID, Title: task.Title, Status: string(task.Status), DueDate: task.DueDate}, nil
}

func toQuoteResponse(q *project.Quote) *QuoteResponse {
	return &QuoteResponse{
		ID:        q.ID,
		Name:      q.Name,
		ClientID:  q.ClientID,
		SalePrice: q.SalePrice,
		Status:    string(q.Status),
		ProjectID: q.ProjectID,
		CreatedAt: q.CreatedAt,
	}
}
