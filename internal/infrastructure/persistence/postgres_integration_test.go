//go:build integration

package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	salesapp "github.com/solarerp/backend/internal/application/sales"
	stockapp "github.com/solarerp/backend/internal/application/stock"
	"github.com/solarerp/backend/internal/domain/kit"
	"github.com/solarerp/backend/internal/domain/project"
	"github.com/solarerp/backend/internal/domain/sales"
	"github.com/solarerp/backend/internal/domain/shared"
	"github.com/solarerp/backend/internal/domain/stock"
	"github.com/solarerp/backend/internal/infrastructure/migration"
	"github.com/solarerp/backend/internal/infrastructure/persistence/models"
	"github.com/solarerp/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newPostgresDB starts a disposable PostgreSQL and applies the embedded migrations
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("solarerp_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), GormConfig(nil))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(10)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.NewFromFS(sqlDB, migrations.FS, nil)
	require.NoError(t, err)
	require.NoError(t, m.Up())
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
	return db
}

func (f *settlementFixture) project(t *testing.T, name string) *project.Project {
	t.Helper()
	q := f.approvedQuote(t, name)
	p, err := project.NewProjectForQuote(q)
	require.NoError(t, err)
	require.NoError(t, NewGormProjectRepository(f.db).Save(context.Background(), p))
	return p
}

func TestPostgres_ConcurrentDuplicateAllocation(t *testing.T) {
	f := newSettlementFixtureOn(newPostgresDB(t))
	ctx := context.Background()
	panel := f.material(t, "Painel 550W", 100)
	p := f.project(t, "Usina Norte")

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.stock.AllocateMaterial(ctx, f.tenantID, stockapp.AllocateMaterialInput{
				ProjectID: p.ID, MaterialID: panel, Quantity: decimal.NewFromInt(5),
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, shared.ErrDuplicateAllocation)
	}
	assert.Equal(t, 1, succeeded)
	assert.True(t, decimal.NewFromInt(95).Equal(f.onHand(t, panel)))
	assert.Equal(t, int64(1), f.count(t, &models.StockMovementModel{}, "material_id = ? AND kind = ?", panel, string(stock.KindAllocation)))
}

func TestPostgres_ConcurrentAllocationsNeverOverdraw(t *testing.T) {
	f := newSettlementFixtureOn(newPostgresDB(t))
	ctx := context.Background()
	inverter := f.material(t, "Inversor 10kW", 10)

	const workers = 6
	projects := make([]*project.Project, workers)
	for i := range projects {
		projects[i] = f.project(t, "Obra "+string(rune('A'+i)))
	}

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.stock.AllocateMaterial(ctx, f.tenantID, stockapp.AllocateMaterialInput{
				ProjectID: projects[i].ID, MaterialID: inverter, Quantity: decimal.NewFromInt(3),
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	}
	assert.Equal(t, 3, succeeded)
	assert.True(t, decimal.NewFromInt(1).Equal(f.onHand(t, inverter)))
}

func TestPostgres_ConcurrentRealizeSameQuote(t *testing.T) {
	f := newSettlementFixtureOn(newPostgresDB(t))
	ctx := context.Background()
	q := f.approvedQuote(t, "Galpao Sul")

	const workers = 5
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.sales.RealizeSale(ctx, f.tenantID, salesapp.RealizeSaleInput{
				QuoteID:          q.ID,
				TotalAmount:      decimal.NewFromInt(10000),
				PaymentMethod:    sales.PaymentMethodCash,
				InstallmentCount: 1,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, shared.ErrDuplicateSale)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, int64(1), f.count(t, &models.SaleModel{}, "quote_id = ?", q.ID))
	assert.Equal(t, int64(1), f.count(t, &models.ReceivableModel{}, "tenant_id = ?", f.tenantID))
}

func TestPostgres_SchemaConstraints(t *testing.T) {
	db := newPostgresDB(t)
	f := newSettlementFixtureOn(db)
	ctx := context.Background()
	panel := f.material(t, "Painel 550W", 5)

	t.Run("allocation index rejects a second allocation row", func(t *testing.T) {
		movements := NewGormStockMovementRepository(db)
		m, err := NewGormMaterialRepository(db).FindByIDForTenant(ctx, f.tenantID, panel)
		require.NoError(t, err)
		ref := uuid.New()
		require.NoError(t, movements.Create(ctx, newMovement(t, m, stock.KindAllocation, stock.DirectionOut, ref)))
		err = movements.Create(ctx, newMovement(t, m, stock.KindAllocation, stock.DirectionOut, ref))
		assert.ErrorIs(t, err, stock.ErrDuplicateMovement)
		require.NoError(t, movements.Create(ctx, newMovement(t, m, stock.KindAdjustment, stock.DirectionOut, ref)))
	})

	t.Run("on hand cannot go negative", func(t *testing.T) {
		err := db.Exec("UPDATE materials SET on_hand = -1 WHERE id = ?", panel).Error
		assert.Error(t, err)
	})

	t.Run("kit informational items round trip as jsonb", func(t *testing.T) {
		repo := NewGormKitRepository(db)
		k, err := kit.NewKit(f.tenantID, "Kit 8kWp", "Residencial", decimal.RequireFromString("25990.00"))
		require.NoError(t, err)
		require.NoError(t, k.ReplaceLines([]kit.LineInput{{MaterialID: panel, Quantity: decimal.NewFromInt(16)}}))
		require.NoError(t, k.ReplaceInformationalItems(kit.InformationalItems{{
			Type:        kit.ItemTypeQuoted,
			Description: "Estrutura de telhado",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(1800),
			Supplier:    "Metal Sul",
		}}))
		require.NoError(t, repo.Save(ctx, k))

		var kind string
		require.NoError(t, db.Raw("SELECT jsonb_typeof(informational_items) FROM kits WHERE id = ?", k.ID).Scan(&kind).Error)
		assert.Equal(t, "array", kind)

		got, err := repo.FindByIDForTenant(ctx, f.tenantID, k.ID)
		require.NoError(t, err)
		require.Len(t, got.InformationalItems, 1)
		assert.Equal(t, "Metal Sul", got.InformationalItems[0].Supplier)
		assert.True(t, got.HasQuotedItems)

		err = db.Exec(`UPDATE kits SET informational_items = '{"items":[]}' WHERE id = ?`, k.ID).Error
		assert.Error(t, err, "the column only accepts arrays")
	})

	t.Run("overdue sweep uses the status and due date index", func(t *testing.T) {
		q := f.approvedQuote(t, "Casa Leste")
		firstDue := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
		_, err := f.sales.RealizeSale(ctx, f.tenantID, salesapp.RealizeSaleInput{
			QuoteID: q.ID, TotalAmount: decimal.NewFromInt(900), PaymentMethod: sales.PaymentMethodInstallment,
			InstallmentCount: 3, FirstDueDate: &firstDue,
		})
		require.NoError(t, err)

		flipped, err := f.sales.MarkOverdue(ctx, time.Date(2024, 2, 20, 9, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, int64(2), flipped)
	})
}
