package persistence

import (
	"context"

	salesapp "github.com/solarerp/backend/internal/application/sales"
	stockapp "github.com/solarerp/backend/internal/application/stock"
	"github.com/solarerp/backend/internal/domain/project"
	"github.com/solarerp/backend/internal/domain/sales"
	"github.com/solarerp/backend/internal/domain/stock"
	"gorm.io/gorm"
)

// GormStockTransactionScope implements the stock TransactionScope using GORM transactions.
type GormStockTransactionScope struct {
	db *gorm.DB
}

// NewGormStockTransactionScope creates a new GormStockTransactionScope.
func NewGormStockTransactionScope(db *gorm.DB) *GormStockTransactionScope {
	return &GormStockTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back; otherwise it is committed.
func (s *GormStockTransactionScope) Execute(ctx context.Context, fn func(repos stockapp.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// GormSalesTransactionScope implements the sales TransactionScope using GORM transactions.
type GormSalesTransactionScope struct {
	db *gorm.DB
}

// NewGormSalesTransactionScope creates a new GormSalesTransactionScope.
func NewGormSalesTransactionScope(db *gorm.DB) *GormSalesTransactionScope {
	return &GormSalesTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
func (s *GormSalesTransactionScope) Execute(ctx context.Context, fn func(repos salesapp.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// MaterialRepo returns the material repository scoped to the current transaction.
func (r *gormTransactionalRepositories) MaterialRepo() stock.MaterialRepository {
	return NewGormMaterialRepository(r.tx)
}

// MovementRepo returns the stock movement repository scoped to the current transaction.
func (r *gormTransactionalRepositories) MovementRepo() stock.MovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

// ProjectRepo returns the project repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ProjectRepo() project.ProjectRepository {
	return NewGormProjectRepository(r.tx)
}

// QuoteRepo returns the quote repository scoped to the current transaction.
func (r *gormTransactionalRepositories) QuoteRepo() project.QuoteRepository {
	return NewGormQuoteRepository(r.tx)
}

// SaleRepo returns the sale repository scoped to the current transaction.
func (r *gormTransactionalRepositories) SaleRepo() sales.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

// ReceivableRepo returns the receivable repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ReceivableRepo() sales.ReceivableRepository {
	return NewGormReceivableRepository(r.tx)
}

var (
	_ stockapp.TransactionScope          = (*GormStockTransactionScope)(nil)
	_ salesapp.TransactionScope          = (*GormSalesTransactionScope)(nil)
	_ stockapp.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
	_ salesapp.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
