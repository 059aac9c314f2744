package sales

import (
	"context"

	"github.com/solarerp/backend/internal/domain/project"
	"github.com/solarerp/backend/internal/domain/sales"
	"github.com/solarerp/backend/internal/domain/stock"
)

// TransactionScope runs a sale operation inside one database transaction
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories hands out repositories bound to the current transaction.
// Stock repositories are included so cancellation can give allocations back in the same commit.
type TransactionalRepositories interface {
	SaleRepo() sales.SaleRepository
	ReceivableRepo() sales.ReceivableRepository
	QuoteRepo() project.QuoteRepository
	ProjectRepo() project.ProjectRepository
	MaterialRepo() stock.MaterialRepository
	MovementRepo() stock.MovementRepository
}

// Repositories groups the plain repositories a NoOpTransactionScope hands out
type Repositories struct {
	Sales       sales.SaleRepository
	Receivables sales.ReceivableRepository
	Quotes      project.QuoteRepository
	Projects    project.ProjectRepository
	Materials   stock.MaterialRepository
	Movements   stock.MovementRepository
}

// NoOpTransactionScope runs fn without a transaction. Used by tests.
type NoOpTransactionScope struct {
	repos Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope
func NewNoOpTransactionScope(repos Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) SaleRepo() sales.SaleRepository             { return s.repos.Sales }
func (s *NoOpTransactionScope) ReceivableRepo() sales.ReceivableRepository { return s.repos.Receivables }
func (s *NoOpTransactionScope) QuoteRepo() project.QuoteRepository         { return s.repos.Quotes }
func (s *NoOpTransactionScope) ProjectRepo() project.ProjectRepository     { return s.repos.Projects }
func (s *NoOpTransactionScope) MaterialRepo() stock.MaterialRepository     { return s.repos.Materials }
func (s *NoOpTransactionScope) MovementRepo() stock.MovementRepository     { return s.repos.Movements }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
