package logger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hospital-erp/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestNew(t *testing.T) {
	t.Run("writes json to a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		l, err := New(config.LogConfig{Level: "debug", Format: "json", Output: path})
		require.NoError(t, err)

		l.Info("hello", zap.String("k", "v"))
		_ = l.Sync()

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"hello"`)
		assert.Contains(t, string(data), `"k":"v"`)
	})

	t.Run("respects level", func(t *testing.T) {
		l, err := New(config.LogConfig{Level: "error", Format: "console", Output: "stderr"})
		require.NoError(t, err)
		assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, l.Core().Enabled(zapcore.ErrorLevel))
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestContext(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx, _ := WithRequestID(context.Background(), base, "req-1")
	ctx, _ = WithUserID(ctx, FromContext(ctx), "7")

	FromContext(ctx).Info("checked")

	require.Equal(t, 1, recorded.Len())
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "7", fields["user_id"])
	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "7", GetUserID(ctx))
}

func TestFromContext_NoLogger(t *testing.T) {
	l := FromContext(context.Background())
	assert.NotNil(t, l)
	l.Info("dropped")
}

func TestGormLogger_Trace(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Warn, 50*time.Millisecond)
	sql := func() (string, int64) { return "SELECT 1", 1 }

	t.Run("logs errors", func(t *testing.T) {
		gl.Trace(context.Background(), time.Now(), sql, errors.New("boom"))
		require.Equal(t, 1, recorded.FilterMessage("SQL Error").Len())
	})

	t.Run("ignores record not found", func(t *testing.T) {
		before := recorded.Len()
		gl.Trace(context.Background(), time.Now(), sql, gormlogger.ErrRecordNotFound)
		assert.Equal(t, before, recorded.Len())
	})

	t.Run("warns on slow queries", func(t *testing.T) {
		gl.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
		assert.Equal(t, 1, recorded.FilterMessage("Slow SQL").Len())
	})

	t.Run("silent mode logs nothing", func(t *testing.T) {
		before := recorded.Len()
		gl.LogMode(gormlogger.Silent).Trace(context.Background(), time.Now(), sql, errors.New("x"))
		assert.Equal(t, before, recorded.Len())
	})
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel(""))
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
}
