package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/project"
)

// QuoteModel is the persistence model for the Quote aggregate root.
type QuoteModel struct {
	TenantAggregateModel
	Name      string          `gorm:"type:varchar(200);not null"`
	ClientID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	SalePrice decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Status    string          `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	ProjectID *uuid.UUID      `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (QuoteModel) TableName() string {
	return "quotes"
}

// ToDomain converts the persistence model to a domain Quote
func (m *QuoteModel) ToDomain() *project.Quote {
	q := &project.Quote{
		Name:      m.Name,
		ClientID:  m.ClientID,
		SalePrice: m.SalePrice,
		Status:    project.QuoteStatus(m.Status),
		ProjectID: m.ProjectID,
	}
	m.PopulateTenantAggregateRoot(&q.TenantAggregateRoot)
	return q
}

// QuoteModelFromDomain creates a persistence model from a domain Quote
func QuoteModelFromDomain(q *project.Quote) *QuoteModel {
	m := &QuoteModel{
		Name:      q.Name,
		ClientID:  q.ClientID,
		SalePrice: q.SalePrice,
		Status:    string(q.Status),
		ProjectID: q.ProjectID,
	}
	m.FromDomainTenantAggregateRoot(q.TenantAggregateRoot)
	return m
}

// ProjectModel is the persistence model for the Project aggregate root.
type ProjectModel struct {
	TenantAggregateModel
	Name    string     `gorm:"type:varchar(250);not null"`
	Status  string     `gorm:"type:varchar(20);not null;default:'PLANNING'"`
	QuoteID uuid.UUID  `gorm:"type:uuid;not null;index"`
	SaleID  *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (ProjectModel) TableName() string {
	return "projects"
}

// ToDomain converts the persistence model to a domain Project
func (m *ProjectModel) ToDomain() *project.Project {
	p := &project.Project{
		Name:    m.Name,
		Status:  project.ProjectStatus(m.Status),
		QuoteID: m.QuoteID,
		SaleID:  m.SaleID,
	}
	m.PopulateTenantAggregateRoot(&p.TenantAggregateRoot)
	return p
}

// ProjectModelFromDomain creates a persistence model from a domain Project
func ProjectModelFromDomain(p *project.Project) *ProjectModel {
	m := &ProjectModel{
		Name:    p.Name,
		Status:  string(p.Status),
		QuoteID: p.QuoteID,
		SaleID:  p.SaleID,
	}
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	return m
}

// ConstructionSiteModel stores the one site a project owns
type ConstructionSiteModel struct {
	BaseModel
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Address   string    `gorm:"type:varchar(500)"`
	Notes     string    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ConstructionSiteModel) TableName() string {
	return "construction_sites"
}

// ToDomain converts the persistence model to a domain ConstructionSite
func (m *ConstructionSiteModel) ToDomain() *project.ConstructionSite {
	return &project.ConstructionSite{
		BaseEntity: m.BaseModel.ToDomain(),
		TenantID:   m.TenantID,
		ProjectID:  m.ProjectID,
		Address:    m.Address,
		Notes:      m.Notes,
	}
}

// ConstructionSiteModelFromDomain creates a persistence model from a domain ConstructionSite
func ConstructionSiteModelFromDomain(s *project.ConstructionSite) *ConstructionSiteModel {
	m := &ConstructionSiteModel{
		TenantID:  s.TenantID,
		ProjectID: s.ProjectID,
		Address:   s.Address,
		Notes:     s.Notes,
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}

// TaskModel stores a project task
type TaskModel struct {
	BaseModel
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProjectID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Title     string     `gorm:"type:varchar(200);not null"`
	Status    string     `gorm:"type:varchar(20);not null;default:'TODO'"`
	DueDate   *time.Time `gorm:"type:date"`
}

// TableName returns the table name for GORM
func (TaskModel) TableName() string {
	return "project_tasks"
}

// ToDomain converts the persistence model to a domain Task
func (m *TaskModel) ToDomain() *project.Task {
	return &project.Task{
		BaseEntity: m.BaseModel.ToDomain(),
		TenantID:   m.TenantID,
		ProjectID:  m.ProjectID,
		Title:      m.Title,
		Status:     project.TaskStatus(m.Status),
		DueDate:    m.DueDate,
	}
}

// TaskModelFromDomain creates a persistence model from a domain Task
func TaskModelFromDomain(t *project.Task) *TaskModel {
	m := &TaskModel{
		TenantID:  t.TenantID,
		ProjectID: t.ProjectID,
		Title:     t.Title,
		Status:    string(t.Status),
		DueDate:   t.DueDate,
	}
	m.FromDomainBaseEntity(t.BaseEntity)
	return m
}
