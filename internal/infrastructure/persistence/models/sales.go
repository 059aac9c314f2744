package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/sales"
)

// SaleModel is the persistence model for the Sale aggregate root.
// quote_id is unique so a quote is sold at most once; sale numbers are unique across tenants.
type SaleModel struct {
	TenantAggregateModel
	SaleNumber       string          `gorm:"type:varchar(30);not null;uniqueIndex"`
	QuoteID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	ClientID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProjectID        *uuid.UUID      `gorm:"type:uuid;index"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PaymentMethod    string          `gorm:"type:varchar(30);not null"`
	InstallmentCount int             `gorm:"not null"`
	EntryAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Status           string          `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	CompletedAt      *time.Time
	CancelledAt      *time.Time
	CancelReason     string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale
func (m *SaleModel) ToDomain() *sales.Sale {
	s := &sales.Sale{
		SaleNumber:       m.SaleNumber,
		QuoteID:          m.QuoteID,
		ClientID:         m.ClientID,
		ProjectID:        m.ProjectID,
		TotalAmount:      m.TotalAmount,
		PaymentMethod:    sales.PaymentMethod(m.PaymentMethod),
		InstallmentCount: m.InstallmentCount,
		EntryAmount:      m.EntryAmount,
		Status:           sales.SaleStatus(m.Status),
		CompletedAt:      m.CompletedAt,
		CancelledAt:      m.CancelledAt,
		CancelReason:     m.CancelReason,
	}
	m.PopulateTenantAggregateRoot(&s.TenantAggregateRoot)
	return s
}

// SaleModelFromDomain creates a persistence model from a domain Sale
func SaleModelFromDomain(s *sales.Sale) *SaleModel {
	m := &SaleModel{
		SaleNumber:       s.SaleNumber,
		QuoteID:          s.QuoteID,
		ClientID:         s.ClientID,
		ProjectID:        s.ProjectID,
		TotalAmount:      s.TotalAmount,
		PaymentMethod:    string(s.PaymentMethod),
		InstallmentCount: s.InstallmentCount,
		EntryAmount:      s.EntryAmount,
		Status:           string(s.Status),
		CompletedAt:      s.CompletedAt,
		CancelledAt:      s.CancelledAt,
		CancelReason:     s.CancelReason,
	}
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	return m
}

// ReceivableModel stores one scheduled payment of a sale.
// Index 0 is reserved for the entry; (sale_id, installment_index) is unique.
type ReceivableModel struct {
	BaseModel
	TenantID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	SaleID           uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_receivables_sale_index,priority:1"`
	InstallmentIndex int             `gorm:"not null;uniqueIndex:idx_receivables_sale_index,priority:2"`
	IsEntry          bool            `gorm:"not null;default:false"`
	Amount           decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Status           string          `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_receivables_status_due,priority:1"`
	DueDate          time.Time       `gorm:"type:date;not null;index:idx_receivables_status_due,priority:2"`
	PaidAt           *time.Time
	Description      string `gorm:"type:varchar(200)"`
	Notes            string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ReceivableModel) TableName() string {
	return "receivables"
}

// ToDomain converts the persistence model to a domain Receivable
func (m *ReceivableModel) ToDomain() *sales.Receivable {
	return &sales.Receivable{
		BaseEntity:       m.BaseModel.ToDomain(),
		TenantID:         m.TenantID,
		SaleID:           m.SaleID,
		InstallmentIndex: m.InstallmentIndex,
		IsEntry:          m.IsEntry,
		Amount:           m.Amount,
		Status:           sales.ReceivableStatus(m.Status),
		DueDate:          m.DueDate,
		PaidAt:           m.PaidAt,
		Description:      m.Description,
		Notes:            m.Notes,
	}
}

// ReceivableModelFromDomain creates a persistence model from a domain Receivable
func ReceivableModelFromDomain(r *sales.Receivable) *ReceivableModel {
	m := &ReceivableModel{
		TenantID:         r.TenantID,
		SaleID:           r.SaleID,
		InstallmentIndex: r.InstallmentIndex,
		IsEntry:          r.IsEntry,
		Amount:           r.Amount,
		Status:           string(r.Status),
		DueDate:          r.DueDate,
		PaidAt:           r.PaidAt,
		Description:      r.Description,
		Notes:            r.Notes,
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}
