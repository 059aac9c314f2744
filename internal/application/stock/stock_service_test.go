package stock

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/project"
	"github.com/solarerp/backend/internal/domain/shared"
	"github.com/solarerp/backend/internal/domain/stock"
	"github.com/solarerp/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stockFixture struct {
	tenantID  uuid.UUID
	materials *testutil.MemMaterials
	movements *testutil.MemMovements
	projects  *testutil.MemProjects
	quotes    *testutil.MemQuotes
	publisher *testutil.RecordingPublisher
	service   *StockService
	project   *project.Project
	quote     *project.Quote
}

func newStockFixture(t *testing.T) *stockFixture {
	t.Helper()
	tenantID := uuid.New()

	q, err := project.NewQuote(tenantID, uuid.New(), "Residencia Silva", decimal.NewFromInt(25000))
	require.NoError(t, err)
	p, err := project.NewProjectForQuote(q)
	require.NoError(t, err)

	f := &stockFixture{
		tenantID:  tenantID,
		materials: testutil.NewMemMaterials(),
		movements: testutil.NewMemMovements(),
		projects:  testutil.NewMemProjects(p),
		quotes:    testutil.NewMemQuotes(q),
		publisher: testutil.NewRecordingPublisher(),
		project:   p,
		quote:     q,
	}
	scope := NewNoOpTransactionScope(f.materials, f.movements, f.projects, f.quotes)
	f.service = NewStockService(scope, f.materials, f.movements, nil)
	f.service.SetEventPublisher(f.publisher)
	return f
}

func (f *stockFixture) createMaterial(t *testing.T, name string, onHand int64) *MaterialResponse {
	t.Helper()
	m, err := f.service.CreateMaterial(context.Background(), f.tenantID, CreateMaterialInput{
		Name:          name,
		Unit:          "pc",
		PurchasePrice: decimal.NewFromInt(500),
		SalePrice:     decimal.NewFromInt(800),
		InitialOnHand: decimal.NewFromInt(onHand),
	})
	require.NoError(t, err)
	f.publisher.Reset()
	return m
}

func TestStockService_CreateMaterialBooksOpeningBalance(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	m, err := f.service.CreateMaterial(ctx, f.tenantID, CreateMaterialInput{
		Name:          "Inversor 5kW",
		Unit:          "pc",
		PurchasePrice: decimal.NewFromInt(3000),
		SalePrice:     decimal.NewFromInt(4200),
		InitialOnHand: decimal.NewFromInt(12),
	})
	require.NoError(t, err)
	assert.True(t, m.OnHand.Equal(decimal.NewFromInt(12)))

	movements := f.movements.All()
	require.Len(t, movements, 1)
	assert.Equal(t, stock.KindAdjustment, movements[0].Kind)
	assert.Equal(t, stock.DirectionIn, movements[0].Direction)
	assert.Equal(t, "opening balance", movements[0].ReasonDetail)
	assert.Equal(t, []string{stock.EventTypeStockCredited}, f.publisher.EventTypes())

	empty, err := f.service.CreateMaterial(ctx, f.tenantID, CreateMaterialInput{Name: "Cabo 6mm", Unit: "m"})
	require.NoError(t, err)
	assert.True(t, empty.OnHand.IsZero())
	assert.Len(t, f.movements.All(), 1)

	_, err = f.service.CreateMaterial(ctx, f.tenantID, CreateMaterialInput{Name: "X", Unit: "m", InitialOnHand: decimal.NewFromInt(-1)})
	assert.Error(t, err)
}

func TestStockService_AllocateMaterial(t *testing.T) {
	t.Run("debits stock and tags the project and quote", func(t *testing.T) {
		f := newStockFixture(t)
		m := f.createMaterial(t, "Painel 550W", 20)

		resp, err := f.service.AllocateMaterial(context.Background(), f.tenantID, AllocateMaterialInput{
			ProjectID:  f.project.ID,
			MaterialID: m.ID,
			Quantity:   decimal.NewFromInt(8),
		})
		require.NoError(t, err)

		assert.True(t, resp.Material.OnHand.Equal(decimal.NewFromInt(12)))
		assert.Equal(t, string(stock.KindAllocation), resp.Movement.Kind)
		assert.Equal(t, f.project.ID, resp.Movement.ReferenceID)
		assert.Contains(t, resp.Movement.ReasonDetail, f.project.Name)
		assert.Contains(t, resp.Movement.ReasonDetail, "Residencia Silva")
		assert.Equal(t, []string{stock.EventTypeStockDebited, stock.EventTypeMaterialAllocated}, f.publisher.EventTypes())
	})

	t.Run("second allocation of the same material is rejected", func(t *testing.T) {
		f := newStockFixture(t)
		m := f.createMaterial(t, "Painel 550W", 20)
		input := AllocateMaterialInput{ProjectID: f.project.ID, MaterialID: m.ID, Quantity: decimal.NewFromInt(2)}

		_, err := f.service.AllocateMaterial(context.Background(), f.tenantID, input)
		require.NoError(t, err)
		_, err = f.service.AllocateMaterial(context.Background(), f.tenantID, input)
		require.Error(t, err)
		assert.Equal(t, shared.CodeDuplicateAllocation, shared.ErrorCode(err))

		stored, _ := f.materials.Get(m.ID)
		assert.True(t, stored.OnHand.Equal(decimal.NewFromInt(18)), "stock debited once")
	})

	t.Run("insufficient stock names both quantities", func(t *testing.T) {
		f := newStockFixture(t)
		m := f.createMaterial(t, "Painel 550W", 3)

		_, err := f.service.AllocateMaterial(context.Background(), f.tenantID, AllocateMaterialInput{
			ProjectID: f.project.ID, MaterialID: m.ID, Quantity: decimal.NewFromInt(5),
		})
		require.Error(t, err)
		assert.Equal(t, shared.CodeInsufficientStock, shared.ErrorCode(err))
		assert.Contains(t, err.Error(), "available 3")
		assert.Contains(t, err.Error(), "requested 5")
		assert.Empty(t, f.publisher.Events())
	})

	t.Run("unknown project", func(t *testing.T) {
		f := newStockFixture(t)
		m := f.createMaterial(t, "Painel 550W", 3)

		_, err := f.service.AllocateMaterial(context.Background(), f.tenantID, AllocateMaterialInput{
			ProjectID: uuid.New(), MaterialID: m.ID, Quantity: decimal.NewFromInt(1),
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("cancelled project", func(t *testing.T) {
		f := newStockFixture(t)
		m := f.createMaterial(t, "Painel 550W", 3)
		require.NoError(t, f.project.Cancel())
		require.NoError(t, f.projects.Save(context.Background(), f.project))

		_, err := f.service.AllocateMaterial(context.Background(), f.tenantID, AllocateMaterialInput{
			ProjectID: f.project.ID, MaterialID: m.ID, Quantity: decimal.NewFromInt(1),
		})
		assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))
	})
}

func TestStockService_ListAllocatedMaterials(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()
	panel := f.createMaterial(t, "Painel 550W", 20)
	cable := f.createMaterial(t, "Cabo 6mm", 100)

	for _, in := range []AllocateMaterialInput{
		{ProjectID: f.project.ID, MaterialID: panel.ID, Quantity: decimal.NewFromInt(10)},
		{ProjectID: f.project.ID, MaterialID: cable.ID, Quantity: decimal.NewFromInt(40)},
	} {
		_, err := f.service.AllocateMaterial(ctx, f.tenantID, in)
		require.NoError(t, err)
	}

	list, err := f.service.ListAllocatedMaterials(ctx, f.tenantID, f.project.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, cable.ID, list[0].Movement.MaterialID, "newest first")
	require.NotNil(t, list[0].Material)
	assert.Equal(t, "Cabo 6mm", list[0].Material.Name)

	assert.False(t, list[0].Reversed)
	assert.Nil(t, list[0].ReversedAt)

	none, err := f.service.ListAllocatedMaterials(ctx, f.tenantID, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStockService_ListAllocatedMaterialsFlagsReversals(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()
	panel := f.createMaterial(t, "Painel 550W", 20)

	_, err := f.service.AllocateMaterial(ctx, f.tenantID, AllocateMaterialInput{
		ProjectID: f.project.ID, MaterialID: panel.ID, Quantity: decimal.NewFromInt(6),
	})
	require.NoError(t, err)

	guard := stock.NewAllocationGuard(stock.NewLedger(f.materials, f.movements), f.movements)
	_, reversals, err := guard.Release(ctx, f.tenantID, stock.Ref{ID: f.project.ID, Name: f.project.Name}, "sale cancelled")
	require.NoError(t, err)
	require.Len(t, reversals, 1)

	list, err := f.service.ListAllocatedMaterials(ctx, f.tenantID, f.project.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Reversed)
	require.NotNil(t, list[0].ReversedAt)
	assert.True(t, list[0].ReversedAt.Equal(reversals[0].OccurredAt))
	require.NotNil(t, list[0].Material)
	assert.True(t, list[0].Material.OnHand.Equal(decimal.NewFromInt(20)), "stock is back after the reversal")
}

func TestStockService_AdjustStock(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()
	m := f.createMaterial(t, "Painel 550W", 10)

	resp, err := f.service.AdjustStock(ctx, f.tenantID, m.ID, AdjustStockInput{
		Direction: stock.DirectionOut, Quantity: decimal.NewFromInt(2), Reason: "breakage",
	})
	require.NoError(t, err)
	assert.True(t, resp.Material.OnHand.Equal(decimal.NewFromInt(8)))

	_, err = f.service.AdjustStock(ctx, f.tenantID, m.ID, AdjustStockInput{
		Direction: stock.DirectionOut, Quantity: decimal.NewFromInt(9), Reason: "theft",
	})
	assert.Equal(t, shared.CodeInsufficientStock, shared.ErrorCode(err))

	_, err = f.service.AdjustStock(ctx, f.tenantID, m.ID, AdjustStockInput{Direction: "SIDEWAYS", Quantity: decimal.NewFromInt(1), Reason: "x"})
	assert.Error(t, err)
	_, err = f.service.AdjustStock(ctx, f.tenantID, m.ID, AdjustStockInput{Direction: stock.DirectionIn, Quantity: decimal.NewFromInt(1)})
	assert.Error(t, err)

	history, err := f.service.ListMovements(ctx, f.tenantID, m.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), history.Total)
	assert.Equal(t, "breakage", history.Items[0].ReasonDetail)
}

func TestStockService_UpdatePricesKeepsQuantity(t *testing.T) {
	f := newStockFixture(t)
	m := f.createMaterial(t, "Painel 550W", 10)

	resp, err := f.service.UpdateMaterialPrices(context.Background(), f.tenantID, m.ID, UpdatePricesInput{
		PurchasePrice: decimal.RequireFromString("610.50"),
		SalePrice:     decimal.RequireFromString("899.90"),
	})
	require.NoError(t, err)
	assert.True(t, resp.OnHand.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "899.9", resp.SalePrice.String())

	_, err = f.service.UpdateMaterialPrices(context.Background(), f.tenantID, m.ID, UpdatePricesInput{SalePrice: decimal.NewFromInt(-1)})
	assert.Error(t, err)
}

func TestStockService_ListMaterials(t *testing.T) {
	f := newStockFixture(t)
	f.createMaterial(t, "Painel 550W", 1)
	f.createMaterial(t, "Cabo 6mm", 1)
	f.createMaterial(t, "Cabo 10mm", 1)

	page, err := f.service.ListMaterials(context.Background(), f.tenantID, MaterialListFilter{Search: "cabo", PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.TotalPages)

	onHand, err := f.service.OnHandByMaterial(context.Background(), f.tenantID, []uuid.UUID{page.Items[0].ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, onHand, 1)
}
