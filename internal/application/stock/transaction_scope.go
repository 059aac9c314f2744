package stock

import (
	"context"

	"github.com/solarerp/backend/internal/domain/project"
	"github.com/solarerp/backend/internal/domain/stock"
)

// TransactionScope runs a function inside one database transaction.
// An error returned by fn rolls the transaction back; nil commits it.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories hands out repositories bound to the current transaction
type TransactionalRepositories interface {
	MaterialRepo() stock.MaterialRepository
	MovementRepo() stock.MovementRepository
	ProjectRepo() project.ProjectRepository
	QuoteRepo() project.QuoteRepository
}

// NoOpTransactionScope runs fn against plain repositories without a transaction.
// Used by tests.
type NoOpTransactionScope struct {
	materials stock.MaterialRepository
	movements stock.MovementRepository
	projects  project.ProjectRepository
	quotes    project.QuoteRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	materials stock.MaterialRepository,
	movements stock.MovementRepository,
	projects project.ProjectRepository,
	quotes project.QuoteRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{materials: materials, movements: movements, projects: projects, quotes: quotes}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) MaterialRepo() stock.MaterialRepository { return s.materials }
func (s *NoOpTransactionScope) MovementRepo() stock.MovementRepository { return s.movements }
func (s *NoOpTransactionScope) ProjectRepo() project.ProjectRepository { return s.projects }
func (s *NoOpTransactionScope) QuoteRepo() project.QuoteRepository     { return s.quotes }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
