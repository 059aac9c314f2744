package telemetry

import (
	"context"

	"github.com/solarerp/backend/internal/domain/sales"
	"github.com/solarerp/backend/internal/domain/shared"
	"github.com/solarerp/backend/internal/domain/stock"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SettlementMetrics turns sale and stock events into business metrics.
// It subscribes to the event bus like any other handler.
type SettlementMetrics struct {
	salesRealized   *Counter
	saleAmount      *Histogram
	installmentPaid *Counter
	amountPaid      *Histogram
	salesCompleted  *Counter
	salesCancelled  *Counter
	stockMoves      *Counter
	allocations     *Counter
}

// NewSettlementMetrics creates the instruments on meter.
func NewSettlementMetrics(meter metric.Meter) (*SettlementMetrics, error) {
	var err error
	m := &SettlementMetrics{}
	counter := func(dst **Counter, name, desc, unit string) {
		if err == nil {
			*dst, err = NewCounter(meter, name, desc, unit)
		}
	}
	histogram := func(dst **Histogram, name, desc string) {
		if err == nil {
			*dst, err = NewHistogram(meter, HistogramOpts{Name: name, Description: desc, Unit: "BRL", Boundaries: AmountBuckets})
		}
	}
	counter(&m.salesRealized, "sales_realized_total", "Sales realized from approved quotes", "{sale}")
	histogram(&m.saleAmount, "sale_amount", "Total amount of realized sales")
	counter(&m.installmentPaid, "receivables_paid_total", "Receivables marked paid", "{receivable}")
	histogram(&m.amountPaid, "receivable_amount_paid", "Amount of paid receivables")
	counter(&m.salesCompleted, "sales_completed_total", "Sales with every receivable paid", "{sale}")
	counter(&m.salesCancelled, "sales_cancelled_total", "Cancelled sales", "{sale}")
	counter(&m.stockMoves, "stock_movements_total", "Ledger movements by kind and direction", "{movement}")
	counter(&m.allocations, "material_allocations_total", "Materials allocated to projects", "{allocation}")
	if err != nil {
		return nil, err
	}
	return m, nil
}

// EventTypes lists the events that feed the metrics.
func (m *SettlementMetrics) EventTypes() []string {
	return []string{
		sales.EventTypeSaleRealized,
		sales.EventTypeInstallmentPaid,
		sales.EventTypeSaleCompleted,
		sales.EventTypeSaleCancelled,
		stock.EventTypeStockDebited,
		stock.EventTypeStockCredited,
		stock.EventTypeMaterialAllocated,
	}
}

// Handle records one event. Unknown events are ignored.
func (m *SettlementMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	tenant := AttrTenantID.String(event.TenantID().String())
	switch e := event.(type) {
	case *sales.SaleRealizedEvent:
		method := AttrPaymentMethod.String(string(e.PaymentMethod))
		m.salesRealized.Inc(ctx, tenant, method)
		m.saleAmount.Record(ctx, e.TotalAmount.InexactFloat64(), method)
	case *sales.InstallmentPaidEvent:
		kind := "installment"
		if e.IsEntry {
			kind = "entry"
		}
		m.installmentPaid.Inc(ctx, tenant, AttrInstallment.String(kind))
		m.amountPaid.Record(ctx, e.Amount.InexactFloat64(), AttrInstallment.String(kind))
	case *sales.SaleCompletedEvent:
		m.salesCompleted.Inc(ctx, tenant)
	case *sales.SaleCancelledEvent:
		m.salesCancelled.Inc(ctx, tenant, attribute.Bool("had_project", e.ProjectID != nil))
	case *stock.StockMovedEvent:
		m.stockMoves.Inc(ctx, tenant,
			AttrMovementKind.String(string(e.Kind)),
			AttrDirection.String(string(e.Direction)))
	case *stock.MaterialAllocatedEvent:
		m.allocations.Inc(ctx, tenant)
	}
	return nil
}

var _ shared.EventHandler = (*SettlementMetrics)(nil)
