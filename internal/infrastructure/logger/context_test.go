package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	t.Run("missing logger is a no-op", func(t *testing.T) {
		l := FromContext(context.Background())
		require.NotNil(t, l)
		assert.NotPanics(t, func() { l.Info("nobody listens") })
	})

	t.Run("wrong type is ignored", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), LoggerKey, "not a logger")
		assert.NotNil(t, FromContext(ctx))
	})

	t.Run("attached logger is returned", func(t *testing.T) {
		l := zap.NewExample()
		assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
	})
}

func TestRequestScope(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithContext(context.Background(), zap.New(core))

	ctx, l := WithRequestID(ctx, FromContext(ctx), "req-7")
	ctx, l = WithUserID(ctx, l, "5b9e0c7e-2a41-4f0e-9d55-0d3c7f5f9a10")
	ctx, _ = WithFlatNumber(ctx, l, "C-303")

	assert.Equal(t, "req-7", GetRequestID(ctx))
	assert.Equal(t, "5b9e0c7e-2a41-4f0e-9d55-0d3c7f5f9a10", GetUserID(ctx))
	assert.Equal(t, "C-303", GetFlatNumber(ctx))

	FromContext(ctx).Info("Payment applied", TransactionID("TR1718000000000a1b2c3"))

	require.Len(t, recorded.All(), 1)
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "req-7", fields[FieldRequestID])
	assert.Equal(t, "5b9e0c7e-2a41-4f0e-9d55-0d3c7f5f9a10", fields[FieldUserID])
	assert.Equal(t, "C-303", fields[FieldFlatNumber])
	assert.Equal(t, "TR1718000000000a1b2c3", fields[FieldTransactionID])
}

func TestContextGetters_Empty(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetUserID(ctx))
	assert.Empty(t, GetFlatNumber(ctx))
}

func TestWithTraceContext(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	base := WithContext(context.Background(), zap.New(core))

	t.Run("no span leaves the logger alone", func(t *testing.T) {
		assert.Equal(t, base, WithTraceContext(base))
	})

	t.Run("invalid span context leaves the logger alone", func(t *testing.T) {
		ctx := trace.ContextWithSpanContext(base, trace.SpanContext{})
		assert.Same(t, FromContext(base), FromContext(WithTraceContext(ctx)))
	})

	t.Run("valid span stamps trace and span ids", func(t *testing.T) {
		traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
		require.NoError(t, err)
		spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
		require.NoError(t, err)
		ctx := trace.ContextWithSpanContext(base, trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			SpanID:     spanID,
			TraceFlags: trace.FlagsSampled,
		}))

		FromContext(WithTraceContext(ctx)).Info("Bill issued")

		entries := recorded.TakeAll()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields[FieldTraceID])
		assert.Equal(t, "00f067aa0ba902b7", fields[FieldSpanID])
	})
}
