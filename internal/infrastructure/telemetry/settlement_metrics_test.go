package telemetry

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solarerp/backend/internal/domain/sales"
	"github.com/solarerp/backend/internal/domain/stock"
	"github.com/solarerp/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumFor(t *testing.T, data metricdata.Aggregation, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected an int64 sum, got %T", data)
	want := attribute.NewSet(attrs...)
	var total int64
	for _, dp := range sum.DataPoints {
		match := true
		for _, kv := range want.ToSlice() {
			v, ok := dp.Attributes.Value(kv.Key)
			if !ok || v.Emit() != kv.Value.Emit() {
				match = false
				break
			}
		}
		if match {
			total += dp.Value
		}
	}
	return total
}

func newTestSale(t *testing.T, method sales.PaymentMethod, count int) *sales.Sale {
	t.Helper()
	s, err := sales.NewSale(uuid.New(), "V261018-AB12CD", uuid.New(), uuid.New(), sales.PaymentPlan{
		Total:            decimal.NewFromInt(12000),
		Method:           method,
		InstallmentCount: count,
	})
	require.NoError(t, err)
	return s
}

func TestSettlementMetrics_CountsSaleLifecycle(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := NewMeterProviderWithReader(reader)
	m, err := NewSettlementMetrics(mp.Meter("test"))
	require.NoError(t, err)
	ctx := context.Background()

	s := newTestSale(t, sales.PaymentMethodInstallment, 3)
	require.NoError(t, m.Handle(ctx, sales.NewSaleRealizedEvent(s, nil)))
	require.NoError(t, m.Handle(ctx, sales.NewInstallmentPaidEvent(s, &sales.Receivable{IsEntry: true, Amount: decimal.NewFromInt(3000)})))
	require.NoError(t, m.Handle(ctx, sales.NewInstallmentPaidEvent(s, &sales.Receivable{InstallmentIndex: 1, Amount: decimal.NewFromInt(3000)})))
	require.NoError(t, m.Handle(ctx, sales.NewSaleCompletedEvent(s)))

	other := newTestSale(t, sales.PaymentMethodCash, 1)
	require.NoError(t, m.Handle(ctx, sales.NewSaleCancelledEvent(other)))

	data := collect(t, reader)
	assert.Equal(t, int64(1), sumFor(t, data["sales_realized_total"], AttrPaymentMethod.String("INSTALLMENT")))
	assert.Equal(t, int64(1), sumFor(t, data["receivables_paid_total"], AttrInstallment.String("entry")))
	assert.Equal(t, int64(1), sumFor(t, data["receivables_paid_total"], AttrInstallment.String("installment")))
	assert.Equal(t, int64(1), sumFor(t, data["sales_completed_total"]))
	assert.Equal(t, int64(1), sumFor(t, data["sales_cancelled_total"], AttrTenantID.String(other.TenantID.String())))

	hist, ok := data["sale_amount"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, 12000.0, hist.DataPoints[0].Sum)
}

func TestSettlementMetrics_CountsStockMovements(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	m, err := NewSettlementMetrics(NewMeterProviderWithReader(reader).Meter("test"))
	require.NoError(t, err)
	ctx := context.Background()

	material, err := stock.NewMaterial(uuid.New(), "Painel 550W", "pc", decimal.NewFromInt(600), decimal.NewFromInt(900))
	require.NoError(t, err)
	mv, err := stock.NewStockMovement(material, stock.DirectionOut, stock.LedgerEntry{
		Quantity:      decimal.NewFromInt(4),
		Kind:          stock.KindAllocation,
		ReferenceID:   uuid.New(),
		ReferenceType: stock.ReferenceProject,
	})
	require.NoError(t, err)

	require.NoError(t, m.Handle(ctx, stock.NewStockMovedEvent(material, mv)))
	require.NoError(t, m.Handle(ctx, stock.NewMaterialAllocatedEvent(material, mv)))
	require.NoError(t, m.Handle(ctx, testutil.NewTestEvent("Unrelated", uuid.New())))

	data := collect(t, reader)
	assert.Equal(t, int64(1), sumFor(t, data["stock_movements_total"],
		AttrMovementKind.String(string(stock.KindAllocation)),
		AttrDirection.String(string(stock.DirectionOut))))
	assert.Equal(t, int64(1), sumFor(t, data["material_allocations_total"]))
	assert.Contains(t, m.EventTypes(), stock.EventTypeMaterialAllocated)
}
