package sales

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/project"
	"github.com/solarerp/backend/internal/domain/sales"
	"github.com/solarerp/backend/internal/domain/shared"
	"github.com/solarerp/backend/internal/domain/stock"
	"github.com/solarerp/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seqNumbers struct{ n int }

func (g *seqNumbers) Generate(ctx context.Context, exists func(context.Context, string) (bool, error)) (string, error) {
	for {
		g.n++
		candidate := fmt.Sprintf("V241018-%06d", g.n)
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
}

type saleFixture struct {
	tenantID    uuid.UUID
	repos       Repositories
	sales       *testutil.MemSales
	receivables *testutil.MemReceivables
	quotes      *testutil.MemQuotes
	projects    *testutil.MemProjects
	materials   *testutil.MemMaterials
	movements   *testutil.MemMovements
	publisher   *testutil.RecordingPublisher
	service     *SaleService
	quote       *project.Quote
}

func newSaleFixture(t *testing.T, cfg Config) *saleFixture {
	t.Helper()
	tenantID := uuid.New()
	q, err := project.NewQuote(tenantID, uuid.New(), "Residencia Souza", decimal.NewFromInt(30000))
	require.NoError(t, err)
	require.NoError(t, q.Approve())

	f := &saleFixture{
		tenantID:    tenantID,
		sales:       testutil.NewMemSales(),
		receivables: testutil.NewMemReceivables(),
		quotes:      testutil.NewMemQuotes(q),
		projects:    testutil.NewMemProjects(),
		materials:   testutil.NewMemMaterials(),
		movements:   testutil.NewMemMovements(),
		publisher:   testutil.NewRecordingPublisher(),
		quote:       q,
	}
	f.repos = Repositories{
		Sales:       f.sales,
		Receivables: f.receivables,
		Quotes:      f.quotes,
		Projects:    f.projects,
		Materials:   f.materials,
		Movements:   f.movements,
	}
	f.service = NewSaleService(NewNoOpTransactionScope(f.repos), f.sales, f.receivables, &seqNumbers{}, cfg, nil)
	f.service.SetEventPublisher(f.publisher)
	return f
}

func (f *saleFixture) realize(t *testing.T, input RealizeSaleInput) *SaleDetailResponse {
	t.Helper()
	if input.QuoteID == uuid.Nil {
		input.QuoteID = f.quote.ID
	}
	resp, err := f.service.RealizeSale(context.Background(), f.tenantID, input)
	require.NoError(t, err)
	f.publisher.Reset()
	return resp
}

func threeInstallments() RealizeSaleInput {
	first := time.Date(2024, 11, 10, 0, 0, 0, 0, time.UTC)
	return RealizeSaleInput{
		TotalAmount:      decimal.NewFromInt(1000),
		PaymentMethod:    sales.PaymentMethodInstallment,
		InstallmentCount: 3,
		FirstDueDate:     &first,
		SiteAddress:      "Rua das Flores 100",
	}
}

func TestSaleService_RealizeSale(t *testing.T) {
	f := newSaleFixture(t, Config{})
	input := threeInstallments()
	input.QuoteID = f.quote.ID

	resp, err := f.service.RealizeSale(context.Background(), f.tenantID, input)
	require.NoError(t, err)

	assert.Equal(t, string(sales.SaleStatusPending), resp.Sale.Status)
	assert.Equal(t, f.quote.ClientID, resp.Sale.ClientID, "client falls back to the quote's")
	assert.Regexp(t, `^V\d{6}-`, resp.Sale.SaleNumber)
	require.Len(t, resp.Receivables, 3)
	assert.Equal(t, "333.33", resp.Receivables[0].Amount.StringFixed(2))
	assert.Equal(t, "333.34", resp.Receivables[2].Amount.StringFixed(2))

	require.NotNil(t, resp.Sale.ProjectID)
	proj, ok := f.projects.Get(*resp.Sale.ProjectID)
	require.True(t, ok)
	assert.Equal(t, project.ProjectStatusPlanning, proj.Status)
	require.NotNil(t, proj.SaleID)
	assert.Equal(t, resp.Sale.ID, *proj.SaleID)
	assert.True(t, f.projects.HasSite(proj.ID))

	q, _ := f.quotes.Get(f.quote.ID)
	assert.Equal(t, project.QuoteStatusSold, q.Status)
	require.NotNil(t, q.ProjectID)
	assert.Equal(t, proj.ID, *q.ProjectID)

	realized := f.publisher.EventsByType(sales.EventTypeSaleRealized)
	require.Len(t, realized, 1)
	assert.Len(t, realized[0].(*sales.SaleRealizedEvent).Schedule, 3)
}

func TestSaleService_RealizeSaleReusesExistingProject(t *testing.T) {
	f := newSaleFixture(t, Config{})
	existing, err := project.NewProjectForQuote(f.quote)
	require.NoError(t, err)
	require.NoError(t, f.projects.Save(context.Background(), existing))
	f.quote.LinkProject(existing.ID)
	require.NoError(t, f.quotes.Save(context.Background(), f.quote))

	resp := f.realize(t, threeInstallments())
	require.NotNil(t, resp.Sale.ProjectID)
	assert.Equal(t, existing.ID, *resp.Sale.ProjectID)
	assert.False(t, f.projects.HasSite(existing.ID), "no new site for an existing project")
}

func TestSaleService_RealizeSaleRejections(t *testing.T) {
	t.Run("second sale for the same quote", func(t *testing.T) {
		f := newSaleFixture(t, Config{})
		f.realize(t, threeInstallments())

		input := threeInstallments()
		input.QuoteID = f.quote.ID
		_, err := f.service.RealizeSale(context.Background(), f.tenantID, input)
		assert.Equal(t, shared.CodeDuplicateSale, shared.ErrorCode(err))
		assert.Equal(t, 1, f.sales.Len())
	})

	t.Run("unknown quote", func(t *testing.T) {
		f := newSaleFixture(t, Config{})
		input := threeInstallments()
		input.QuoteID = uuid.New()
		_, err := f.service.RealizeSale(context.Background(), f.tenantID, input)
		assert.Equal(t, shared.CodeNotFound, shared.ErrorCode(err))
	})

	t.Run("draft quote", func(t *testing.T) {
		f := newSaleFixture(t, Config{})
		draft, err := project.NewQuote(f.tenantID, uuid.New(), "Rascunho", decimal.NewFromInt(10))
		require.NoError(t, err)
		require.NoError(t, f.quotes.Save(context.Background(), draft))

		input := threeInstallments()
		input.QuoteID = draft.ID
		_, err = f.service.RealizeSale(context.Background(), f.tenantID, input)
		assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))
	})

	t.Run("cash with more than one installment", func(t *testing.T) {
		f := newSaleFixture(t, Config{})
		input := threeInstallments()
		input.QuoteID = f.quote.ID
		input.PaymentMethod = sales.PaymentMethodCash
		_, err := f.service.RealizeSale(context.Background(), f.tenantID, input)
		assert.Equal(t, shared.CodeInvalidInstallmentPlan, shared.ErrorCode(err))
		assert.Equal(t, 0, f.sales.Len())
	})

	t.Run("cash with an entry", func(t *testing.T) {
		f := newSaleFixture(t, Config{})
		input := threeInstallments()
		input.QuoteID = f.quote.ID
		input.PaymentMethod = sales.PaymentMethodCash
		input.InstallmentCount = 1
		input.EntryAmount = decimal.NewFromInt(300)
		_, err := f.service.RealizeSale(context.Background(), f.tenantID, input)
		assert.Equal(t, shared.CodeInvalidInstallmentPlan, shared.ErrorCode(err))
		assert.Equal(t, 0, f.sales.Len())
	})
}

func TestSaleService_PayInstallment(t *testing.T) {
	ctx := context.Background()

	t.Run("subset paid keeps status, last payment completes", func(t *testing.T) {
		f := newSaleFixture(t, Config{})
		resp := f.realize(t, threeInstallments())

		for i, r := range resp.Receivables[:2] {
			paid, err := f.service.PayInstallment(ctx, f.tenantID, r.ID, PayInstallmentInput{Notes: fmt.Sprintf("pix %d", i)})
			require.NoError(t, err)
			assert.Equal(t, string(sales.ReceivableStatusPaid), paid.Status)
			require.NotNil(t, paid.PaidAt)
		}
		sale, _ := f.sales.Get(resp.Sale.ID)
		assert.Equal(t, sales.SaleStatusPending, sale.Status)

		_, err := f.service.PayInstallment(ctx, f.tenantID, resp.Receivables[2].ID, PayInstallmentInput{})
		require.NoError(t, err)
		sale, _ = f.sales.Get(resp.Sale.ID)
		assert.Equal(t, sales.SaleStatusCompleted, sale.Status)
		assert.NotNil(t, sale.CompletedAt)
		assert.Len(t, f.publisher.EventsByType(sales.EventTypeInstallmentPaid), 3)
		assert.Len(t, f.publisher.EventsByType(sales.EventTypeSaleCompleted), 1)
	})

	t.Run("promote partial payments when configured", func(t *testing.T) {
		f := newSaleFixture(t, Config{PromotePartialPayments: true})
		resp := f.realize(t, threeInstallments())

		_, err := f.service.PayInstallment(ctx, f.tenantID, resp.Receivables[0].ID, PayInstallmentInput{})
		require.NoError(t, err)
		sale, _ := f.sales.Get(resp.Sale.ID)
		assert.Equal(t, sales.SaleStatusPartiallyPaid, sale.Status)
	})

	t.Run("already paid", func(t *testing.T) {
		f := newSaleFixture(t, Config{})
		resp := f.realize(t, threeInstallments())
		paidAt := time.Date(2024, 11, 9, 0, 0, 0, 0, time.UTC)

		_, err := f.service.PayInstallment(ctx, f.tenantID, resp.Receivables[0].ID, PayInstallmentInput{PaidAt: &paidAt})
		require.NoError(t, err)
		_, err = f.service.PayInstallment(ctx, f.tenantID, resp.Receivables[0].ID, PayInstallmentInput{})
		assert.Equal(t, shared.CodeAlreadyPaid, shared.ErrorCode(err))
		assert.Contains(t, err.Error(), "2024-11-09")
	})

	t.Run("cancelled sale", func(t *testing.T) {
		f := newSaleFixture(t, Config{})
		resp := f.realize(t, threeInstallments())
		_, err := f.service.CancelSale(ctx, f.tenantID, resp.Sale.ID, "client gave up")
		require.NoError(t, err)

		_, err = f.service.PayInstallment(ctx, f.tenantID, resp.Receivables[0].ID, PayInstallmentInput{})
		assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))
	})

	t.Run("unknown receivable", func(t *testing.T) {
		f := newSaleFixture(t, Config{})
		_, err := f.service.PayInstallment(ctx, f.tenantID, uuid.New(), PayInstallmentInput{})
		assert.Equal(t, shared.CodeNotFound, shared.ErrorCode(err))
	})

	t.Run("overdue receivable can still be paid", func(t *testing.T) {
		f := newSaleFixture(t, Config{})
		resp := f.realize(t, threeInstallments())

		n, err := f.service.MarkOverdue(ctx, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		paid, err := f.service.PayInstallment(ctx, f.tenantID, resp.Receivables[1].ID, PayInstallmentInput{})
		require.NoError(t, err)
		assert.Equal(t, string(sales.ReceivableStatusPaid), paid.Status)
	})
}

func TestSaleService_CancelSaleReleasesAllocations(t *testing.T) {
	ctx := context.Background()
	f := newSaleFixture(t, Config{})
	resp := f.realize(t, threeInstallments())
	projectID := *resp.Sale.ProjectID
	proj, _ := f.projects.Get(projectID)

	m, err := stock.NewMaterial(f.tenantID, "Painel 550W", "pc", decimal.NewFromInt(700), decimal.NewFromInt(950))
	require.NoError(t, err)
	m.OnHand = decimal.NewFromInt(20)
	require.NoError(t, f.materials.Save(ctx, m))

	ledger := stock.NewLedger(f.materials, f.movements)
	guard := stock.NewAllocationGuard(ledger, f.movements)
	_, _, err = guard.Allocate(ctx, stock.AllocationRequest{
		TenantID: f.tenantID, MaterialID: m.ID, Quantity: decimal.NewFromInt(8),
		Project: stock.Ref{ID: proj.ID, Name: proj.Name},
	})
	require.NoError(t, err)

	cancelled, err := f.service.CancelSale(ctx, f.tenantID, resp.Sale.ID, "financing denied")
	require.NoError(t, err)
	assert.Equal(t, string(sales.SaleStatusCancelled), cancelled.Status)
	assert.Equal(t, "financing denied", cancelled.CancelReason)

	stored, _ := f.materials.Get(m.ID)
	assert.True(t, stored.OnHand.Equal(decimal.NewFromInt(20)), "allocation returned to stock")
	proj, _ = f.projects.Get(projectID)
	assert.Equal(t, project.ProjectStatusCancelled, proj.Status)

	assert.Equal(t, []string{sales.EventTypeSaleCancelled, stock.EventTypeStockCredited}, f.publisher.EventTypes())

	_, err = f.service.CancelSale(ctx, f.tenantID, resp.Sale.ID, "again")
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))
}

func TestSaleService_DeleteSale(t *testing.T) {
	ctx := context.Background()

	t.Run("outstanding receivables block deletion", func(t *testing.T) {
		f := newSaleFixture(t, Config{})
		resp := f.realize(t, threeInstallments())
		_, err := f.service.PayInstallment(ctx, f.tenantID, resp.Receivables[0].ID, PayInstallmentInput{})
		require.NoError(t, err)

		err = f.service.DeleteSale(ctx, f.tenantID, resp.Sale.ID)
		assert.Equal(t, shared.CodeOutstandingReceivables, shared.ErrorCode(err))
		assert.Contains(t, err.Error(), "2 outstanding")
		assert.Contains(t, err.Error(), "666.67")
		assert.Equal(t, 1, f.sales.Len())
	})

	t.Run("settled sale cascades", func(t *testing.T) {
		f := newSaleFixture(t, Config{})
		resp := f.realize(t, threeInstallments())
		for _, r := range resp.Receivables {
			_, err := f.service.PayInstallment(ctx, f.tenantID, r.ID, PayInstallmentInput{})
			require.NoError(t, err)
		}
		projectID := *resp.Sale.ProjectID
		proj, _ := f.projects.Get(projectID)
		task, err := project.NewTask(&proj, "Instalar inversor", nil)
		require.NoError(t, err)
		require.NoError(t, f.projects.SaveTask(ctx, task))

		require.NoError(t, f.service.DeleteSale(ctx, f.tenantID, resp.Sale.ID))

		assert.Equal(t, 0, f.sales.Len())
		_, ok := f.projects.Get(projectID)
		assert.False(t, ok)
		assert.False(t, f.projects.HasSite(projectID))
		assert.Equal(t, 0, f.projects.TaskCount(projectID))
		left, _ := f.receivables.FindBySale(ctx, f.tenantID, resp.Sale.ID)
		assert.Empty(t, left)
		q, _ := f.quotes.Get(f.quote.ID)
		assert.Nil(t, q.ProjectID)
		assert.Equal(t, project.QuoteStatusApproved, q.Status)
	})

	t.Run("deleted sale frees its quote for a new sale", func(t *testing.T) {
		f := newSaleFixture(t, Config{})
		input := threeInstallments()
		resp := f.realize(t, input)
		for _, r := range resp.Receivables {
			_, err := f.service.PayInstallment(ctx, f.tenantID, r.ID, PayInstallmentInput{})
			require.NoError(t, err)
		}
		require.NoError(t, f.service.DeleteSale(ctx, f.tenantID, resp.Sale.ID))

		again := f.realize(t, input)
		assert.NotEqual(t, resp.Sale.ID, again.Sale.ID)
		q, _ := f.quotes.Get(f.quote.ID)
		assert.Equal(t, project.QuoteStatusSold, q.Status)
	})

	t.Run("unknown sale", func(t *testing.T) {
		f := newSaleFixture(t, Config{})
		err := f.service.DeleteSale(ctx, f.tenantID, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestSaleService_Queries(t *testing.T) {
	ctx := context.Background()
	f := newSaleFixture(t, Config{})
	resp := f.realize(t, threeInstallments())

	detail, err := f.service.GetSale(ctx, f.tenantID, resp.Sale.ID)
	require.NoError(t, err)
	require.Len(t, detail.Receivables, 3)
	for i, r := range detail.Receivables {
		assert.Equal(t, i+1, r.InstallmentIndex)
	}

	list, err := f.service.ListSales(ctx, f.tenantID, SaleListFilter{Status: "PENDING"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)

	_, err = f.service.ListSales(ctx, f.tenantID, SaleListFilter{Status: "LOST"})
	assert.Error(t, err)

	receivables, err := f.service.ListReceivables(ctx, f.tenantID, resp.Sale.ID)
	require.NoError(t, err)
	assert.Len(t, receivables, 3)

	_, err = f.service.GetSale(ctx, uuid.New(), resp.Sale.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound, "other tenants cannot see the sale")
}
