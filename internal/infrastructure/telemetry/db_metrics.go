package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"gorm.io/gorm"
)

const metricsStartKey = "telemetry:metrics_start"

// DBMetrics records query latency per operation and table, and reports
// connection pool usage through observable gauges.
type DBMetrics struct {
	queryTotal    *Counter
	queryErrors   *Counter
	queryDuration *Histogram
	registration  metric.Registration
}

// NewDBMetrics creates the instruments. sqlDB may be nil when pool stats are
// not wanted.
func NewDBMetrics(meter metric.Meter, sqlDB *sql.DB) (*DBMetrics, error) {
	queryTotal, err := NewCounter(meter, "db_query_total", "Database queries by operation", "{query}")
	if err != nil {
		return nil, err
	}
	queryErrors, err := NewCounter(meter, "db_query_errors_total", "Failed database queries", "{query}")
	if err != nil {
		return nil, err
	}
	queryDuration, err := NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	m := &DBMetrics{queryTotal: queryTotal, queryErrors: queryErrors, queryDuration: queryDuration}
	if sqlDB == nil {
		return m, nil
	}

	conns, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Connections in the pool by state"), metric.WithUnit("{connection}"))
	if err != nil {
		return nil, err
	}
	maxConns, err := meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum open connections"), metric.WithUnit("{connection}"))
	if err != nil {
		return nil, err
	}
	m.registration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := sqlDB.Stats()
		o.ObserveInt64(conns, int64(s.InUse), metric.WithAttributes(attribute.String("state", "in_use")))
		o.ObserveInt64(conns, int64(s.Idle), metric.WithAttributes(attribute.String("state", "idle")))
		o.ObserveInt64(maxConns, int64(s.MaxOpenConnections))
		return nil
	}, conns, maxConns)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Register hooks the instruments into db.
func (m *DBMetrics) Register(db *gorm.DB) error {
	before := func(tx *gorm.DB) { tx.InstanceSet(metricsStartKey, time.Now()) }
	after := func(tx *gorm.DB) {
		start, ok := tx.InstanceGet(metricsStartKey)
		if !ok {
			return
		}
		ctx := tx.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		attrs := []attribute.KeyValue{
			AttrDBOperation.String(operationOf(tx)),
			AttrDBTable.String(tx.Statement.Table),
		}
		m.queryTotal.Inc(ctx, attrs...)
		m.queryDuration.RecordDuration(ctx, time.Since(start.(time.Time)), attrs...)
		if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			m.queryErrors.Inc(ctx, attrs...)
		}
	}
	return registerAround(db, "telemetry_metrics", before, after)
}

// Stop unregisters the pool callback.
func (m *DBMetrics) Stop() error {
	if m.registration == nil {
		return nil
	}
	return m.registration.Unregister()
}

func operationOf(tx *gorm.DB) string {
	sqlText := strings.TrimSpace(tx.Statement.SQL.String())
	if i := strings.IndexByte(sqlText, ' '); i > 0 {
		return strings.ToLower(sqlText[:i])
	}
	return "unknown"
}
