package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Nitish8696/flatgurugram/internal/infrastructure/config"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func corsRouter(cfg CORSConfig) *gin.Engine {
	router := gin.New()
	router.Use(CORS(cfg))
	router.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return router
}

func corsRequest(router *gin.Engine, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/test", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		origins     []string
		method      string
		origin      string
		wantStatus  int
		wantAllow   string
		wantCredHdr string
	}{
		{name: "empty whitelist rejects cross origin", method: http.MethodGet, origin: "http://evil.example", wantStatus: http.StatusOK},
		{name: "same origin request passes", method: http.MethodGet, wantStatus: http.StatusOK},
		{name: "preflight without whitelist is 204", method: http.MethodOptions, origin: "http://x.example", wantStatus: http.StatusNoContent},
		{
			name: "listed origin is echoed", origins: []string{"http://localhost:3000"},
			method: http.MethodGet, origin: "http://localhost:3000",
			wantStatus: http.StatusOK, wantAllow: "http://localhost:3000", wantCredHdr: "true",
		},
		{
			name: "unlisted origin gets nothing", origins: []string{"http://localhost:3000"},
			method: http.MethodGet, origin: "http://other.example", wantStatus: http.StatusOK,
		},
		{
			name: "wildcard never sends credentials", origins: []string{"*"},
			method: http.MethodOptions, origin: "http://any.example",
			wantStatus: http.StatusNoContent, wantAllow: "*",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultCORSConfig()
			cfg.AllowOrigins = tt.origins

			w := corsRequest(corsRouter(cfg), tt.method, tt.origin)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantAllow, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantCredHdr, w.Header().Get("Access-Control-Allow-Credentials"))
		})
	}
}

func TestCORS_PreflightHeaders(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"http://localhost:3000"}

	w := corsRequest(corsRouter(cfg), http.MethodOptions, "http://localhost:3000")

	assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), RequestIDHeader)
}

func TestCORSConfigFromHTTP(t *testing.T) {
	cfg := CORSConfigFromHTTP(config.HTTPConfig{
		CORSAllowOrigins: []string{"https://flats.example"},
		CORSAllowMethods: []string{"GET"},
	})

	assert.Equal(t, []string{"https://flats.example"}, cfg.AllowOrigins)
	assert.Equal(t, []string{"GET"}, cfg.AllowMethods)
	assert.Equal(t, DefaultCORSConfig().AllowHeaders, cfg.AllowHeaders)
}

func TestRequestID(t *testing.T) {
	var ctxRequestID string
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		ctxRequestID = logger.GetRequestID(c.Request.Context())
		c.String(http.StatusOK, c.GetString(RequestIDHeader))
	})

	t.Run("generates an id", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		id := w.Header().Get(RequestIDHeader)
		assert.Len(t, id, 36)
		assert.Equal(t, id, w.Body.String())
		assert.Equal(t, id, ctxRequestID)
	})

	t.Run("propagates the caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "req-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
	})
}

func TestSecure(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		router := gin.New()
		router.Use(Secure(DefaultSecurityConfig()))
		router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", w.Header().Get("Content-Security-Policy"))
		assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
	})

	t.Run("hsts", func(t *testing.T) {
		cfg := DefaultSecurityConfig()
		cfg.HSTSEnabled = true
		router := gin.New()
		router.Use(Secure(cfg))
		router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, "max-age=31536000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
	})
}

func TestTimeout(t *testing.T) {
	router := gin.New()
	router.Use(Timeout(time.Minute))
	router.GET("/test", func(c *gin.Context) {
		deadline, ok := c.Request.Context().Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
