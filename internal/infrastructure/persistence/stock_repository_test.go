package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/shared"
	"github.com/solarerp/backend/internal/domain/stock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saveMaterial(t *testing.T, repo *GormMaterialRepository, tenantID uuid.UUID, name string, onHand int64) *stock.Material {
	t.Helper()
	m, err := stock.NewMaterial(tenantID, name, "pc", decimal.NewFromInt(100), decimal.NewFromInt(150))
	require.NoError(t, err)
	m.OnHand = decimal.NewFromInt(onHand)
	require.NoError(t, repo.Save(context.Background(), m))
	return m
}

func TestGormMaterialRepository_FindAndSearch(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormMaterialRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	panel := saveMaterial(t, repo, tenantID, "Painel 550W", 40)
	saveMaterial(t, repo, tenantID, "Inversor 5kW", 3)
	saveMaterial(t, repo, tenantID, "Cabo 6mm 100%_cobre", 500)
	saveMaterial(t, repo, uuid.New(), "Painel de outro tenant", 1)

	t.Run("finds by id within tenant", func(t *testing.T) {
		got, err := repo.FindByIDForTenant(ctx, tenantID, panel.ID)
		require.NoError(t, err)
		assert.Equal(t, "Painel 550W", got.Name)
		assert.True(t, decimal.NewFromInt(40).Equal(got.OnHand))

		_, err = repo.FindByIDForTenant(ctx, uuid.New(), panel.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("row lock query works inside a transaction", func(t *testing.T) {
		tx := db.Begin()
		defer tx.Rollback()
		got, err := NewGormMaterialRepository(tx).FindByIDForUpdate(ctx, tenantID, panel.ID)
		require.NoError(t, err)
		assert.Equal(t, panel.ID, got.ID)
	})

	t.Run("search is case insensitive and escapes wildcards", func(t *testing.T) {
		found, err := repo.FindAllForTenant(ctx, tenantID, shared.Filter{Search: "PAINEL"})
		require.NoError(t, err)
		require.Len(t, found, 1)

		found, err = repo.FindAllForTenant(ctx, tenantID, shared.Filter{Search: "100%_"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "Cabo 6mm 100%_cobre", found[0].Name)

		count, err := repo.CountForTenant(ctx, tenantID, shared.Filter{Search: "%"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("lists sorted by name with paging", func(t *testing.T) {
		page, err := repo.FindAllForTenant(ctx, tenantID, shared.Filter{Page: 1, PageSize: 2, OrderBy: "name", OrderDir: "asc"})
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "Cabo 6mm 100%_cobre", page[0].Name)
		assert.Equal(t, "Inversor 5kW", page[1].Name)
	})

	t.Run("finds a set of ids", func(t *testing.T) {
		got, err := repo.FindByIDs(ctx, tenantID, []uuid.UUID{panel.ID, uuid.New()})
		require.NoError(t, err)
		require.Len(t, got, 1)

		got, err = repo.FindByIDs(ctx, tenantID, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestGormMaterialRepository_SaveWithLock(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormMaterialRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	m := saveMaterial(t, repo, tenantID, "Painel 550W", 10)

	first, err := repo.FindByIDForTenant(ctx, tenantID, m.ID)
	require.NoError(t, err)
	second, err := repo.FindByIDForTenant(ctx, tenantID, m.ID)
	require.NoError(t, err)

	require.NoError(t, first.Debit(decimal.NewFromInt(4)))
	require.NoError(t, repo.SaveWithLock(ctx, first))

	require.NoError(t, second.Debit(decimal.NewFromInt(8)))
	err = repo.SaveWithLock(ctx, second)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict, "a stale version must not overwrite the balance")

	stored, err := repo.FindByIDForTenant(ctx, tenantID, m.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(6).Equal(stored.OnHand))
	assert.Equal(t, first.Version, stored.Version)
}

func newMovement(t *testing.T, m *stock.Material, kind stock.MovementKind, direction stock.Direction, ref uuid.UUID) *stock.StockMovement {
	t.Helper()
	mv, err := stock.NewStockMovement(m, direction, stock.LedgerEntry{
		Quantity:      decimal.NewFromInt(2),
		Kind:          kind,
		ReferenceID:   ref,
		ReferenceType: stock.ReferenceProject,
		ReasonDetail:  "Projeto Souza",
	})
	require.NoError(t, err)
	return mv
}

func TestGormStockMovementRepository_AllocationUniqueness(t *testing.T) {
	db := newTestDB(t)
	materials := NewGormMaterialRepository(db)
	repo := NewGormStockMovementRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	m := saveMaterial(t, materials, tenantID, "Painel 550W", 10)
	projectID := uuid.New()

	require.NoError(t, repo.Create(ctx, newMovement(t, m, stock.KindAllocation, stock.DirectionOut, projectID)))

	err := repo.Create(ctx, newMovement(t, m, stock.KindAllocation, stock.DirectionOut, projectID))
	assert.ErrorIs(t, err, stock.ErrDuplicateMovement)

	// one reversal is allowed, a second is not
	require.NoError(t, repo.Create(ctx, newMovement(t, m, stock.KindAllocationReversal, stock.DirectionIn, projectID)))
	err = repo.Create(ctx, newMovement(t, m, stock.KindAllocationReversal, stock.DirectionIn, projectID))
	assert.ErrorIs(t, err, stock.ErrDuplicateMovement)

	// other kinds are not constrained
	require.NoError(t, repo.Create(ctx, newMovement(t, m, stock.KindAdjustment, stock.DirectionIn, projectID)))
	require.NoError(t, repo.Create(ctx, newMovement(t, m, stock.KindAdjustment, stock.DirectionIn, projectID)))

	// another project can take the same material
	require.NoError(t, repo.Create(ctx, newMovement(t, m, stock.KindAllocation, stock.DirectionOut, uuid.New())))

	exists, err := repo.ExistsForReference(ctx, tenantID, m.ID, projectID, stock.KindAllocation)
	require.NoError(t, err)
	assert.True(t, exists)

	allocations, err := repo.FindByReference(ctx, tenantID, projectID, stock.KindAllocation)
	require.NoError(t, err)
	require.Len(t, allocations, 1)
	assert.Equal(t, "Projeto Souza", allocations[0].ReasonDetail)

	count, err := repo.CountByMaterial(ctx, tenantID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), count)

	history, err := repo.FindByMaterial(ctx, tenantID, m.ID, shared.Filter{Page: 1, PageSize: 4})
	require.NoError(t, err)
	assert.Len(t, history, 4)
}
