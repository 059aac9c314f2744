package project

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/solarerp/backend/internal/domain/shared"
)

// ProjectStatus represents the execution status of a project
type ProjectStatus string

const (
	ProjectStatusPlanning   ProjectStatus = "PLANNING"
	ProjectStatusInProgress ProjectStatus = "IN_PROGRESS"
	ProjectStatusDone       ProjectStatus = "DONE"
	ProjectStatusCancelled  ProjectStatus = "CANCELLED"
)

// IsValid checks if the status is valid
func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusInProgress, ProjectStatusDone, ProjectStatusCancelled:
		return true
	}
	return false
}

// Project is the execution of a sold quote. It owns its construction site and tasks.
type Project struct {
	shared.TenantAggregateRoot
	Name    string
	Status  ProjectStatus
	QuoteID uuid.UUID
	SaleID  *uuid.UUID
}

// NewProject creates a project in planning for a quote
func NewProject(tenantID, quoteID uuid.UUID, name string) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Project name cannot be empty")
	}
	if quoteID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_QUOTE", "Quote ID cannot be empty")
	}
	return &Project{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Status:              ProjectStatusPlanning,
		QuoteID:             quoteID,
	}, nil
}

// NewProjectForQuote names a new project after the quote it executes
func NewProjectForQuote(q *Quote) (*Project, error) {
	return NewProject(q.TenantID, q.ID, "Project "+q.Name)
}

// LinkSale records the sale that funds this project
func (p *Project) LinkSale(saleID uuid.UUID) {
	p.SaleID = &saleID
	p.Touch()
}

// Cancel stops a project that is not finished
func (p *Project) Cancel() error {
	if p.Status == ProjectStatusDone {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("cannot cancel finished project %s", p.Name))
	}
	if p.Status == ProjectStatusCancelled {
		return nil
	}
	p.Status = ProjectStatusCancelled
	p.Touch()
	p.IncrementVersion()
	return nil
}

// ConstructionSite is the physical installation site of a project
type ConstructionSite struct {
	shared.BaseEntity
	TenantID  uuid.UUID
	ProjectID uuid.UUID
	Address   string
	Notes     string
}

// NewConstructionSite creates the site record of a project
func NewConstructionSite(p *Project, address string) *ConstructionSite {
	return &ConstructionSite{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   p.TenantID,
		ProjectID:  p.ID,
		Address:    strings.TrimSpace(address),
	}
}

// TaskStatus is the progress of a project task
type TaskStatus string

const (
	TaskStatusTodo  TaskStatus = "TODO"
	TaskStatusDoing TaskStatus = "DOING"
	TaskStatusDone  TaskStatus = "DONE"
)

// Task is a unit of work inside a project
type Task struct {
	shared.BaseEntity
	TenantID  uuid.UUID
	ProjectID uuid.UUID
	Title     string
	Status    TaskStatus
	DueDate   *time.Time
}

// NewTask creates a todo task in a project
func NewTask(p *Project, title string, dueDate *time.Time) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Task title cannot be empty")
	}
	return &Task{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   p.TenantID,
		ProjectID:  p.ID,
		Title:      title,
		Status:     TaskStatusTodo,
		DueDate:    dueDate,
	}, nil
}
