package telemetry

import (
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls gorm instrumentation.
type DBTracingConfig struct {
	Enabled bool
	// LogFullSQL keeps bound variables in spans and slow query logs.
	LogFullSQL         bool
	SlowQueryThreshold time.Duration
	DBName             string
	// TracerProvider overrides the global provider, mostly for tests.
	TracerProvider trace.TracerProvider
}

const tracingStartKey = "telemetry:trace_start"

// InstrumentDB installs the otelgorm plugin and a slow query detector that
// logs and tags the active span.
func InstrumentDB(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = 200 * time.Millisecond
	}
	if cfg.DBName == "" {
		cfg.DBName = "postgresql"
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(cfg.TracerProvider))
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	before := func(tx *gorm.DB) { tx.InstanceSet(tracingStartKey, time.Now()) }
	after := func(tx *gorm.DB) {
		start, ok := tx.InstanceGet(tracingStartKey)
		if !ok {
			return
		}
		elapsed := time.Since(start.(time.Time))
		if elapsed < cfg.SlowQueryThreshold {
			return
		}
		trace.SpanFromContext(tx.Statement.Context).SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.duration_ms", elapsed.Milliseconds()),
		)
		fields := []zap.Field{
			zap.String("table", tx.Statement.Table),
			zap.Duration("duration", elapsed),
			zap.Int64("rows", tx.Statement.RowsAffected),
		}
		if cfg.LogFullSQL {
			fields = append(fields, zap.String("sql", tx.Statement.SQL.String()))
		}
		logger.Warn("slow query", fields...)
	}
	if err := registerAround(db, "telemetry_trace", before, after); err != nil {
		return err
	}
	logger.Info("database tracing enabled", zap.Duration("slow_query_threshold", cfg.SlowQueryThreshold))
	return nil
}

// registerAround hooks before and after every gorm processor.
func registerAround(db *gorm.DB, name string, before, after func(*gorm.DB)) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register(name+":before_create", before),
		cb.Create().After("gorm:create").Register(name+":after_create", after),
		cb.Query().Before("gorm:query").Register(name+":before_query", before),
		cb.Query().After("gorm:query").Register(name+":after_query", after),
		cb.Update().Before("gorm:update").Register(name+":before_update", before),
		cb.Update().After("gorm:update").Register(name+":after_update", after),
		cb.Delete().Before("gorm:delete").Register(name+":before_delete", before),
		cb.Delete().After("gorm:delete").Register(name+":after_delete", after),
		cb.Row().Before("gorm:row").Register(name+":before_row", before),
		cb.Row().After("gorm:row").Register(name+":after_row", after),
		cb.Raw().Before("gorm:raw").Register(name+":before_raw", before),
		cb.Raw().After("gorm:raw").Register(name+":after_raw", after),
	)
}
