package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func sqlFn(sql string) func() (string, int64) {
	return func() (string, int64) { return sql, 1 }
}

func TestGormLogger_Trace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Warn, WithSlowThreshold(10*time.Millisecond))
	ctx := WithRequestID(context.Background(), "req-7")

	gl.Trace(ctx, time.Now(), sqlFn("SELECT 1"), nil)
	assert.Equal(t, 0, logs.Len(), "fast queries are not logged at warn")

	gl.Trace(ctx, time.Now().Add(-time.Second), sqlFn("SELECT pg_sleep(1)"), nil)
	gl.Trace(ctx, time.Now(), sqlFn("SELECT * FROM sales"), gormlogger.ErrRecordNotFound)
	gl.Trace(ctx, time.Now(), sqlFn("INSERT INTO sales"), errors.New("duplicate key"))

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "slow sql", entries[0].Message)
		assert.Equal(t, "req-7", entries[0].ContextMap()["request_id"])
		assert.Equal(t, "sql error", entries[1].Message)
		assert.Equal(t, "gorm", entries[1].LoggerName)
	}
}

func TestGormLogger_LogModeCopies(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Silent)
	verbose := gl.LogMode(gormlogger.Info)

	gl.Trace(context.Background(), time.Now(), sqlFn("SELECT 1"), nil)
	verbose.Trace(context.Background(), time.Now(), sqlFn("SELECT 2"), nil)

	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, "SELECT 2", logs.All()[0].ContextMap()["sql"])
}

func TestGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, GormLevel("debug"))
	assert.Equal(t, gormlogger.Warn, GormLevel("info"))
	assert.Equal(t, gormlogger.Error, GormLevel("error"))
	assert.Equal(t, gormlogger.Silent, GormLevel("silent"))
}
