package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// withRequestID stands in for the request id middleware
func withRequestID(id string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, _ := WithRequestID(c.Request.Context(), FromContext(c.Request.Context()), id)
		c.Request = c.Request.WithContext(ctx)
	}
}

// withResident stands in for the JWT middleware
func withResident(userID, flat string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ctx, l := WithUserID(ctx, FromContext(ctx), userID)
		ctx, _ = WithFlatNumber(ctx, l, flat)
		c.Request = c.Request.WithContext(ctx)
	}
}

func accessLines(recorded *observer.ObservedLogs) []observer.LoggedEntry {
	return recorded.FilterMessage("HTTP Request").All()
}

func TestGinMiddleware_StatusLevels(t *testing.T) {
	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusCreated, zapcore.InfoLevel},
		{http.StatusBadRequest, zapcore.WarnLevel},
		{http.StatusNotFound, zapcore.WarnLevel},
		{http.StatusInternalServerError, zapcore.ErrorLevel},
		{http.StatusServiceUnavailable, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)
			router := gin.New()
			router.Use(GinMiddleware(zap.New(core)))
			router.GET("/api/auth/dashboard", func(c *gin.Context) { c.Status(tt.status) })

			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/auth/dashboard", nil))

			lines := accessLines(recorded)
			require.Len(t, lines, 1)
			assert.Equal(t, tt.level, lines[0].Level)
			assert.Equal(t, int64(tt.status), lines[0].ContextMap()["status"])
		})
	}
}

func TestGinMiddleware_RequestScopedLogger(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	router := gin.New()
	router.Use(withRequestID("req-9"), GinMiddleware(zap.New(core)), withResident("user-1", "A-101"))
	router.POST("/api/auth/bills/:id/pay", func(c *gin.Context) {
		FromContext(c.Request.Context()).Info("Payment applied", TransactionID("TR1"))
		_ = c.Error(assert.AnError)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/bills/42/pay?source=app", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	handlerLines := recorded.FilterMessage("Payment applied").All()
	require.Len(t, handlerLines, 1)
	fields := handlerLines[0].ContextMap()
	assert.Equal(t, "req-9", fields[FieldRequestID])
	assert.Equal(t, "A-101", fields[FieldFlatNumber])
	assert.Equal(t, http.MethodPost, fields["method"])

	lines := accessLines(recorded)
	require.Len(t, lines, 1)
	access := lines[0].ContextMap()
	assert.Equal(t, "req-9", access[FieldRequestID])
	assert.Equal(t, "user-1", access[FieldUserID])
	assert.Equal(t, "A-101", access[FieldFlatNumber])
	assert.Equal(t, "/api/auth/bills/42/pay", access["path"])
	assert.Equal(t, "/api/auth/bills/:id/pay", access["route"])
	assert.Equal(t, "source=app", access["query"])
	assert.Contains(t, access, "latency")
	assert.Contains(t, access, "errors")
}

func TestGinMiddleware_SkipPaths(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	router := gin.New()
	router.Use(GinMiddleware(zap.New(core), "/health"))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/api/auth/dashboard", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, accessLines(recorded))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/auth/dashboard", nil))
	assert.Len(t, accessLines(recorded), 1)
}

func TestRecovery(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)
	log := zap.New(core)
	router := gin.New()
	router.Use(withRequestID("req-panic"), Recovery(log), withResident("user-2", "B-204"))
	router.GET("/api/admin/bills", func(c *gin.Context) { panic("nil bill") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/bills", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	entries := recorded.FilterMessage("Panic recovered").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-panic", fields[FieldRequestID])
	assert.Equal(t, "user-2", fields[FieldUserID])
	assert.Equal(t, "B-204", fields[FieldFlatNumber])
	assert.Equal(t, "nil bill", fields["error"])
}
