package logger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGorm(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), recorded
}

func TestNewGormLogger_Options(t *testing.T) {
	gl, _ := newObservedGorm(gormlogger.Warn)
	assert.Equal(t, 200*time.Millisecond, gl.slowThreshold)
	assert.False(t, gl.fullSQL)

	gl, _ = newObservedGorm(gormlogger.Warn, WithSlowThreshold(time.Second), WithFullSQL(true))
	assert.Equal(t, time.Second, gl.slowThreshold)
	assert.True(t, gl.fullSQL)
}

func TestGormLogger_LogMode(t *testing.T) {
	gl, _ := newObservedGorm(gormlogger.Info)
	changed, ok := gl.LogMode(gormlogger.Error).(*GormLogger)
	require.True(t, ok)

	assert.Equal(t, gormlogger.Info, gl.logLevel)
	assert.Equal(t, gormlogger.Error, changed.logLevel)
}

func TestGormLogger_Messages(t *testing.T) {
	tests := []struct {
		name  string
		level gormlogger.LogLevel
		want  []zapcore.Level
	}{
		{"info lets everything through", gormlogger.Info, []zapcore.Level{zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}},
		{"warn drops info", gormlogger.Warn, []zapcore.Level{zapcore.WarnLevel, zapcore.ErrorLevel}},
		{"error keeps errors only", gormlogger.Error, []zapcore.Level{zapcore.ErrorLevel}},
		{"silent", gormlogger.Silent, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gl, recorded := newObservedGorm(tt.level)
			ctx := context.Background()
			gl.Info(ctx, "migrated %s", "bills")
			gl.Warn(ctx, "slow %d", 3)
			gl.Error(ctx, "failed %s", "payments")

			var got []zapcore.Level
			for _, e := range recorded.All() {
				got = append(got, e.Level)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGormLogger_Trace(t *testing.T) {
	query := func() (string, int64) { return `SELECT * FROM "bills" WHERE id = $1`, 1 }

	tests := []struct {
		name    string
		level   gormlogger.LogLevel
		elapsed time.Duration
		err     error
		wantMsg string
		wantLvl zapcore.Level
	}{
		{"sql error", gormlogger.Warn, 0, errors.New("deadlock detected"), "SQL Error", zapcore.ErrorLevel},
		{"slow query", gormlogger.Warn, 300 * time.Millisecond, nil, "SLOW SQL >= 200ms", zapcore.WarnLevel},
		{"normal query at info", gormlogger.Info, 0, nil, "SQL Query", zapcore.DebugLevel},
		{"normal query at warn", gormlogger.Warn, 0, nil, "", 0},
		{"missing row", gormlogger.Info, 0, gormlogger.ErrRecordNotFound, "", 0},
		{"silent", gormlogger.Silent, 0, errors.New("boom"), "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gl, recorded := newObservedGorm(tt.level)
			gl.Trace(context.Background(), time.Now().Add(-tt.elapsed), query, tt.err)

			if tt.wantMsg == "" {
				assert.Empty(t, recorded.All())
				return
			}
			entries := recorded.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.wantMsg, entries[0].Message)
			assert.Equal(t, tt.wantLvl, entries[0].Level)
			assert.Equal(t, int64(1), entries[0].ContextMap()["rows"])
		})
	}
}

func TestGormLogger_TraceCarriesRequest(t *testing.T) {
	gl, recorded := newObservedGorm(gormlogger.Info)

	ctx, l := WithRequestID(context.Background(), zap.NewNop(), "req-42")
	ctx, l = WithUserID(ctx, l, "5b9e0c7e-2a41-4f0e-9d55-0d3c7f5f9a10")
	ctx, _ = WithFlatNumber(ctx, l, "A-101")

	gl.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)

	require.Len(t, recorded.All(), 1)
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "req-42", fields[FieldRequestID])
	assert.Equal(t, "5b9e0c7e-2a41-4f0e-9d55-0d3c7f5f9a10", fields[FieldUserID])
	assert.Equal(t, "A-101", fields[FieldFlatNumber])
}

func TestGormLogger_ParamsFilter(t *testing.T) {
	gl, _ := newObservedGorm(gormlogger.Info)
	sql, params := gl.ParamsFilter(context.Background(), "SELECT * FROM residents WHERE email = ?", "a101@example.com")
	assert.Equal(t, "SELECT * FROM residents WHERE email = ?", sql)
	assert.Nil(t, params)

	gl, _ = newObservedGorm(gormlogger.Info, WithFullSQL(true))
	_, params = gl.ParamsFilter(context.Background(), "SELECT ?", "a101@example.com")
	assert.Equal(t, []any{"a101@example.com"}, params)
}

func TestGormLogger_BoundValuesThroughGorm(t *testing.T) {
	for _, full := range []bool{false, true} {
		gl, recorded := newObservedGorm(gormlogger.Info, WithFullSQL(full))
		db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gl})
		require.NoError(t, err)

		var email string
		require.NoError(t, db.Raw("SELECT ?", "a101@example.com").Scan(&email).Error)

		var logged string
		for _, e := range recorded.FilterMessage("SQL Query").All() {
			logged += e.ContextMap()["sql"].(string)
		}
		assert.Equal(t, full, strings.Contains(logged, "a101@example.com"), "full sql %v: %s", full, logged)
	}
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"unknown", gormlogger.Warn},
		{"", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapGormLogLevel(tt.level))
		})
	}
}
