package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/solarerp/backend/internal/domain/project"
	"github.com/solarerp/backend/internal/domain/sales"
	"github.com/solarerp/backend/internal/domain/shared"
	"github.com/solarerp/backend/internal/domain/stock"
	"github.com/solarerp/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Config tunes the sale lifecycle
type Config struct {
	// InstallmentPeriodMonths spaces consecutive installments. Zero means one month.
	InstallmentPeriodMonths int
	// PromotePartialPayments moves a pending sale to PARTIALLY_PAID on its first payment
	PromotePartialPayments bool
}

// SaleService turns approved quotes into sales and settles their receivables
type SaleService struct {
	txScope        TransactionScope
	saleRepo       sales.SaleRepository
	receivableRepo sales.ReceivableRepository
	numbers        sales.NumberGenerator
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	config         Config
	now            func() time.Time
}

// NewSaleService creates a new SaleService
func NewSaleService(
	txScope TransactionScope,
	saleRepo sales.SaleRepository,
	receivableRepo sales.ReceivableRepository,
	numbers sales.NumberGenerator,
	config Config,
	logger *zap.Logger,
) *SaleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaleService{
		txScope:        txScope,
		saleRepo:       saleRepo,
		receivableRepo: receivableRepo,
		numbers:        numbers,
		logger:         logger,
		config:         config,
		now:            time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *SaleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *SaleService) publishDomainEvents(ctx context.Context, aggregates ...shared.AggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	events := shared.CollectEvents(aggregates...)
	if len(events) == 0 {
		return
	}
	// Errors are logged by the event bus, not propagated
	_ = s.eventPublisher.Publish(ctx, events...)
}

// RealizeSale creates a sale from an approved quote, sets up or links its project,
// schedules the receivables and marks the quote sold, all in one transaction.
func (s *SaleService) RealizeSale(ctx context.Context, tenantID uuid.UUID, input RealizeSaleInput) (_ *SaleDetailResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "realize")
	defer func() { telemetry.EndSpan(span, err) }()
	telemetry.SetAttributes(span,
		"tenant_id", tenantID.String(),
		"quote_id", input.QuoteID.String(),
		"payment_method", string(input.PaymentMethod),
		"installments", input.InstallmentCount)

	firstDue := s.now()
	if input.FirstDueDate != nil && !input.FirstDueDate.IsZero() {
		firstDue = *input.FirstDueDate
	}
	plan := sales.PaymentPlan{
		Total:            input.TotalAmount,
		Method:           input.PaymentMethod,
		InstallmentCount: input.InstallmentCount,
		EntryAmount:      input.EntryAmount,
		FirstDueDate:     firstDue,
		PeriodMonths:     s.config.InstallmentPeriodMonths,
	}
	rows, err := sales.Schedule(plan)
	if err != nil {
		return nil, err
	}

	var sale *sales.Sale
	var receivables []*sales.Receivable

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		exists, err := repos.SaleRepo().ExistsByQuote(ctx, tenantID, input.QuoteID)
		if err != nil {
			return err
		}
		if exists {
			return duplicateSaleError(input.QuoteID)
		}

		quote, err := repos.QuoteRepo().FindByIDForTenant(ctx, tenantID, input.QuoteID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("quote %s not found", input.QuoteID))
			}
			return err
		}
		if err := quote.EnsureSellable(); err != nil {
			return err
		}

		number, err := s.numbers.Generate(ctx, func(ctx context.Context, candidate string) (bool, error) {
			return repos.SaleRepo().ExistsByNumber(ctx, tenantID, candidate)
		})
		if err != nil {
			return fmt.Errorf("generate sale number: %w", err)
		}

		clientID := input.ClientID
		if clientID == uuid.Nil {
			clientID = quote.ClientID
		}
		sale, err = sales.NewSale(tenantID, number, quote.ID, clientID, plan)
		if err != nil {
			return err
		}

		proj, err := s.projectForQuote(ctx, repos, quote, input.SiteAddress)
		if err != nil {
			return err
		}
		proj.LinkSale(sale.ID)
		if err := repos.ProjectRepo().Save(ctx, proj); err != nil {
			return err
		}
		sale.LinkProject(proj.ID)
		quote.LinkProject(proj.ID)

		if err := repos.SaleRepo().Save(ctx, sale); err != nil {
			if errors.Is(err, shared.ErrDuplicateSale) {
				return duplicateSaleError(input.QuoteID)
			}
			return err
		}

		receivables = sales.NewReceivables(sale, rows)
		if err := repos.ReceivableRepo().SaveBatch(ctx, receivables); err != nil {
			return err
		}

		if err := quote.MarkSold(); err != nil {
			return err
		}
		if err := repos.QuoteRepo().Save(ctx, quote); err != nil {
			return err
		}

		sale.RecordRealization(receivables)
		return nil
	})
	if err != nil {
		s.logger.Info("sale not realized",
			zap.String("tenant_id", tenantID.String()),
			zap.String("quote_id", input.QuoteID.String()),
			zap.String("code", shared.ErrorCode(err)),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("sale realized",
		zap.String("tenant_id", tenantID.String()),
		zap.String("sale_id", sale.ID.String()),
		zap.String("sale_number", sale.SaleNumber),
		zap.String("total", sale.TotalAmount.StringFixed(sales.AmountPlaces)),
		zap.Int("receivables", len(receivables)))

	telemetry.SetAttributes(span, "sale_number", sale.SaleNumber)
	s.publishDomainEvents(ctx, sale)

	resp := &SaleDetailResponse{
		Sale:        ToSaleResponse(sale),
		Receivables: make([]ReceivableResponse, 0, len(receivables)),
	}
	for _, r := range receivables {
		resp.Receivables = append(resp.Receivables, ToReceivableResponse(r))
	}
	return resp, nil
}

// projectForQuote returns the quote's project, creating it with its site when missing
func (s *SaleService) projectForQuote(ctx context.Context, repos TransactionalRepositories, quote *project.Quote, siteAddress string) (*project.Project, error) {
	if quote.ProjectID != nil {
		proj, err := repos.ProjectRepo().FindByIDForTenant(ctx, quote.TenantID, *quote.ProjectID)
		if err == nil {
			return proj, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}

	proj, err := project.NewProjectForQuote(quote)
	if err != nil {
		return nil, err
	}
	if err := repos.ProjectRepo().Save(ctx, proj); err != nil {
		return nil, err
	}
	if err := repos.ProjectRepo().SaveSite(ctx, project.NewConstructionSite(proj, siteAddress)); err != nil {
		return nil, err
	}
	return proj, nil
}

// PayInstallment marks one receivable as paid and re-derives the sale status
// from every receivable of the sale, under the sale row lock.
func (s *SaleService) PayInstallment(ctx context.Context, tenantID, receivableID uuid.UUID, input PayInstallmentInput) (_ *ReceivableResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "receivable", "pay")
	defer func() { telemetry.EndSpan(span, err) }()
	telemetry.SetAttributes(span, "tenant_id", tenantID.String())

	var paid *sales.Receivable
	var sale *sales.Sale

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		r, err := repos.ReceivableRepo().FindByIDForTenant(ctx, tenantID, receivableID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("receivable %s not found", receivableID))
			}
			return err
		}

		sale, err = repos.SaleRepo().FindByIDForUpdate(ctx, tenantID, r.SaleID)
		if err != nil {
			return err
		}
		if sale.IsCancelled() {
			return shared.NewDomainError(shared.CodeInvalidState,
				fmt.Sprintf("cannot pay installments of cancelled sale %s", sale.SaleNumber))
		}

		// Re-read under the sale lock so a concurrent payment is visible
		r, err = repos.ReceivableRepo().FindByIDForTenant(ctx, tenantID, receivableID)
		if err != nil {
			return err
		}
		var paidAt time.Time
		if input.PaidAt != nil {
			paidAt = *input.PaidAt
		}
		if err := r.Pay(paidAt, input.Notes); err != nil {
			return err
		}
		if err := repos.ReceivableRepo().Save(ctx, r); err != nil {
			return err
		}

		all, err := repos.ReceivableRepo().FindBySale(ctx, tenantID, sale.ID)
		if err != nil {
			return err
		}
		before := sale.Status
		if err := sale.RegisterPayment(r, all, s.config.PromotePartialPayments); err != nil {
			return err
		}
		if sale.Status != before {
			if err := repos.SaleRepo().Save(ctx, sale); err != nil {
				return err
			}
		}
		paid = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("installment paid",
		zap.String("tenant_id", tenantID.String()),
		zap.String("sale_id", sale.ID.String()),
		zap.Int("installment_index", paid.InstallmentIndex),
		zap.String("amount", paid.Amount.StringFixed(sales.AmountPlaces)),
		zap.String("sale_status", string(sale.Status)))

	telemetry.SetAttributes(span, "sale_status", string(sale.Status))
	s.publishDomainEvents(ctx, sale)
	resp := ToReceivableResponse(paid)
	return &resp, nil
}

// CancelSale cancels a pending or partially paid sale. Allocations made to the
// linked project go back to stock and the project is cancelled in the same commit.
// A finished project keeps its allocations since the material was installed.
func (s *SaleService) CancelSale(ctx context.Context, tenantID, saleID uuid.UUID, reason string) (_ *SaleResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "cancel")
	defer func() { telemetry.EndSpan(span, err) }()
	telemetry.SetAttributes(span, "tenant_id", tenantID.String())

	var sale *sales.Sale
	var released []*stock.Material

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		sale, err = repos.SaleRepo().FindByIDForUpdate(ctx, tenantID, saleID)
		if err != nil {
			return err
		}
		if err := sale.Cancel(reason); err != nil {
			return err
		}
		if err := repos.SaleRepo().Save(ctx, sale); err != nil {
			return err
		}
		if sale.ProjectID == nil {
			return nil
		}

		proj, err := repos.ProjectRepo().FindByIDForTenant(ctx, tenantID, *sale.ProjectID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil
			}
			return err
		}
		if proj.Status == project.ProjectStatusDone {
			return nil
		}

		ledger := stock.NewLedger(repos.MaterialRepo(), repos.MovementRepo())
		guard := stock.NewAllocationGuard(ledger, repos.MovementRepo())
		released, _, err = guard.Release(ctx, tenantID, stock.Ref{ID: proj.ID, Name: proj.Name},
			fmt.Sprintf("sale %s cancelled", sale.SaleNumber))
		if err != nil {
			return err
		}
		if err := proj.Cancel(); err != nil {
			return err
		}
		return repos.ProjectRepo().Save(ctx, proj)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sale cancelled",
		zap.String("tenant_id", tenantID.String()),
		zap.String("sale_id", sale.ID.String()),
		zap.Int("allocations_released", len(released)))

	aggregates := []shared.AggregateRoot{sale}
	for _, m := range released {
		aggregates = append(aggregates, m)
	}
	s.publishDomainEvents(ctx, aggregates...)
	resp := ToSaleResponse(sale)
	return &resp, nil
}

// DeleteSale removes a fully settled or cancelled-and-settled sale with its project.
// Rows go in order: site, tasks, project, receivables, sale. The quote goes back to
// APPROVED. Stock movements stay as audit.
func (s *SaleService) DeleteSale(ctx context.Context, tenantID, saleID uuid.UUID) (err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "delete")
	defer func() { telemetry.EndSpan(span, err) }()

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		sale, err := repos.SaleRepo().FindByIDForUpdate(ctx, tenantID, saleID)
		if err != nil {
			return err
		}
		receivables, err := repos.ReceivableRepo().FindBySale(ctx, tenantID, sale.ID)
		if err != nil {
			return err
		}
		if err := sale.EnsureDeletable(receivables); err != nil {
			return err
		}

		if sale.ProjectID != nil {
			if err := s.deleteProject(ctx, repos, tenantID, *sale.ProjectID); err != nil {
				return err
			}
		}
		if err := repos.ReceivableRepo().DeleteBySale(ctx, tenantID, sale.ID); err != nil {
			return err
		}
		if err := repos.SaleRepo().Delete(ctx, tenantID, sale.ID); err != nil {
			return err
		}
		return releaseQuote(ctx, repos, tenantID, sale.QuoteID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("sale deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("sale_id", saleID.String()))
	return nil
}

func (s *SaleService) deleteProject(ctx context.Context, repos TransactionalRepositories, tenantID, projectID uuid.UUID) error {
	proj, err := repos.ProjectRepo().FindByIDForTenant(ctx, tenantID, projectID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := repos.ProjectRepo().DeleteSite(ctx, tenantID, proj.ID); err != nil {
		return err
	}
	if err := repos.ProjectRepo().DeleteTasks(ctx, tenantID, proj.ID); err != nil {
		return err
	}
	return repos.ProjectRepo().Delete(ctx, tenantID, proj.ID)
}

// releaseQuote returns the sold quote to APPROVED so it can be sold again
func releaseQuote(ctx context.Context, repos TransactionalRepositories, tenantID, quoteID uuid.UUID) error {
	quote, err := repos.QuoteRepo().FindByIDForTenant(ctx, tenantID, quoteID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	quote.ReleaseSale()
	return repos.QuoteRepo().Save(ctx, quote)
}

// GetSale returns a sale with its receivables ordered by index
func (s *SaleService) GetSale(ctx context.Context, tenantID, saleID uuid.UUID) (*SaleDetailResponse, error) {
	sale, err := s.saleRepo.FindByIDForTenant(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	receivables, err := s.receivableRepo.FindBySale(ctx, tenantID, sale.ID)
	if err != nil {
		return nil, err
	}
	return &SaleDetailResponse{
		Sale:        ToSaleResponse(sale),
		Receivables: ToReceivableResponses(receivables),
	}, nil
}

// ListSales lists sales with pagination
func (s *SaleService) ListSales(ctx context.Context, tenantID uuid.UUID, filter SaleListFilter) (*shared.Paginated[SaleResponse], error) {
	f := sales.SaleFilter{Filter: shared.DefaultFilter(), ClientID: filter.ClientID}
	if filter.Status != "" {
		status := sales.SaleStatus(filter.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unknown sale status %q", filter.Status))
		}
		f.Status = status
	}
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		f.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		f.OrderDir = filter.OrderDir
	}

	list, err := s.saleRepo.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	total, err := s.saleRepo.CountForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	items := make([]SaleResponse, 0, len(list))
	for i := range list {
		items = append(items, ToSaleResponse(&list[i]))
	}
	page := shared.NewPaginated(items, total, f.Page, f.Limit())
	return &page, nil
}

// ListReceivables returns the receivables of a sale ordered by index
func (s *SaleService) ListReceivables(ctx context.Context, tenantID, saleID uuid.UUID) ([]ReceivableResponse, error) {
	if _, err := s.saleRepo.FindByIDForTenant(ctx, tenantID, saleID); err != nil {
		return nil, err
	}
	receivables, err := s.receivableRepo.FindBySale(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	return ToReceivableResponses(receivables), nil
}

// MarkOverdue flips every pending receivable due before today to overdue.
// Runs across tenants; returns the number of receivables changed.
func (s *SaleService) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	var changed int64
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		changed, err = repos.ReceivableRepo().MarkOverdue(ctx, sales.OverdueCutoff(now))
		return err
	})
	if err != nil {
		return 0, err
	}
	if changed > 0 {
		s.logger.Info("receivables marked overdue", zap.Int64("count", changed))
	}
	return changed, nil
}

func duplicateSaleError(quoteID uuid.UUID) error {
	return shared.NewDomainError(shared.CodeDuplicateSale,
		fmt.Sprintf("quote %s already has a sale", quoteID))
}
