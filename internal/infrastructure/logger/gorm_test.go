package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLogger_Trace(t *testing.T) {
	query := func() (string, int64) { return "SELECT 1", 1 }

	t.Run("logs errors", func(t *testing.T) {
		log, logs := newObservedLogger()
		gl := NewGormLogger(log, gormlogger.Warn, 0)

		gl.Trace(context.Background(), time.Now(), query, errors.New("syntax error"))
		assert.Equal(t, 1, logs.FilterMessage("SQL Error").Len())
	})

	t.Run("skips record not found", func(t *testing.T) {
		log, logs := newObservedLogger()
		gl := NewGormLogger(log, gormlogger.Warn, 0)

		gl.Trace(context.Background(), time.Now(), query, gormlogger.ErrRecordNotFound)
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("warns on slow queries", func(t *testing.T) {
		log, logs := newObservedLogger()
		gl := NewGormLogger(log, gormlogger.Warn, time.Millisecond)

		gl.Trace(context.Background(), time.Now().Add(-time.Second), query, nil)
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("silent logs nothing", func(t *testing.T) {
		log, logs := newObservedLogger()
		gl := NewGormLogger(log, gormlogger.Warn, 0).LogMode(gormlogger.Silent)

		gl.Trace(context.Background(), time.Now(), query, errors.New("boom"))
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("tags request id", func(t *testing.T) {
		log, logs := newObservedLogger()
		gl := NewGormLogger(log, gormlogger.Info, 0)
		ctx, _ := WithRequestID(context.Background(), log, "req-1")

		gl.Trace(ctx, time.Now(), query, nil)
		entries := logs.FilterMessage("SQL Query").All()
		assert.Len(t, entries, 1)
		assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
	})
}

func TestGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, GormLevel("debug"))
	assert.Equal(t, gormlogger.Warn, GormLevel("info"))
	assert.Equal(t, gormlogger.Error, GormLevel("error"))
	assert.Equal(t, gormlogger.Silent, GormLevel("silent"))
}

func TestFor(t *testing.T) {
	log, logs := newObservedLogger()
	ctx, _ := WithRequestID(context.Background(), log, "req-9")

	For(ctx, log).Info("hello")
	assert.Equal(t, "req-9", logs.All()[0].ContextMap()["request_id"])
	assert.NotNil(t, For(context.Background(), nil))
	assert.Equal(t, "", GetTraceID(context.Background()))
}
