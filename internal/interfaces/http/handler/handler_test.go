package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	appbilling "github.com/Nitish8696/flatgurugram/internal/application/billing"
	appidentity "github.com/Nitish8696/flatgurugram/internal/application/identity"
	"github.com/Nitish8696/flatgurugram/internal/domain/billing"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/auth"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/cache"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/config"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/persistence"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/persistence/models"
	"github.com/Nitish8696/flatgurugram/internal/interfaces/http/handler"
	"github.com/Nitish8696/flatgurugram/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
}

// stubGateway remembers sessions and reports them with a configurable status
type stubGateway struct {
	mu       sync.Mutex
	sessions map[string]billing.SessionRequest
	status   billing.OrderStatus
	err      error
}

func newStubGateway() *stubGateway {
	return &stubGateway{sessions: make(map[string]billing.SessionRequest), status: "CHARGED"}
}

func (g *stubGateway) CreateSession(_ context.Context, req billing.SessionRequest) (*billing.SessionResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.sessions[req.OrderID] = req
	return &billing.SessionResponse{SessionAmount: req.Amount, PaymentPageURL: "https://pay.example.test/" + req.OrderID}, nil
}

func (g *stubGateway) GetOrderStatus(_ context.Context, orderID string) (*billing.OrderStatusResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	req, ok := g.sessions[orderID]
	if !ok {
		return nil, billing.ErrGatewayRequestFailed
	}
	return &billing.OrderStatusResponse{
		OrderID:     orderID,
		Status:      g.status,
		Amount:      req.Amount,
		CustomerRef: req.CustomerRef,
		BillRef:     req.BillRef,
	}, nil
}

type testEnv struct {
	engine  *gin.Engine
	gateway *stubGateway
}

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.BillModel{},
		&models.PaymentModel{},
		&models.ResidentModel{},
		&models.AdminModel{},
	))
	return db
}

// newTestEnv wires the real services over sqlite and mounts every handler
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newSQLiteDB(t)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "handler-test-secret-at-least-32-chars",
		RefreshSecret:          "handler-test-refresh-secret-32-chars!",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "flatgurugram-test",
		MaxRefreshCount:        5,
	})

	residents := persistence.NewGormResidentRepository(db)
	admins := persistence.NewGormAdminRepository(db)
	bills := persistence.NewGormBillRepository(db)
	payments := persistence.NewGormPaymentRepository(db)
	txScope := persistence.NewGormTransactionScope(db)
	gateway := newStubGateway()

	authService := appidentity.NewAuthService(appidentity.AuthServiceConfig{
		Residents: residents,
		Admins:    admins,
		Tokens:    jwtService,
	})
	billService := appbilling.NewBillService(appbilling.BillServiceConfig{
		TxScope:      txScope,
		BillRepo:     bills,
		ResidentRepo: residents,
	})
	paymentService := appbilling.NewPaymentService(appbilling.PaymentServiceConfig{
		TxScope:     txScope,
		BillRepo:    bills,
		PaymentRepo: payments,
	})
	reconciliation := appbilling.NewReconciliationService(appbilling.ReconciliationServiceConfig{
		TxScope:     txScope,
		BillRepo:    bills,
		PaymentRepo: payments,
		Gateway:     gateway,
		Claims:      cache.NewInMemoryClaimStore(),
	})

	authH := handler.NewAuthHandler(authService)
	residentH := handler.NewResidentHandler(authService)
	billH := handler.NewBillHandler(billService)
	paymentH := handler.NewPaymentHandler(paymentService, reconciliation)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	healthH := handler.NewHealthHandler(sqlDB, "test")

	jwtCfg := middleware.JWTMiddlewareConfig{JWTService: jwtService, Revocations: authService}
	optional := jwtCfg
	optional.Optional = true

	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/health", healthH.Health)

	api := r.Group("/api")
	pub := api.Group("/auth")
	pub.POST("/register", authH.RegisterResident)
	pub.POST("/login", authH.LoginResident)
	pub.POST("/refresh", authH.Refresh)

	me := api.Group("/auth", middleware.JWTAuthMiddleware(jwtCfg))
	me.POST("/logout", authH.Logout)
	me.GET("/dashboard", paymentH.Dashboard)
	me.GET("/payments", paymentH.ListMine)
	me.POST("/pay-bill", paymentH.Pay)
	me.POST("/bills/:id/initiate-payment", paymentH.Initiate)
	me.GET("/pay-status/:transactionId", paymentH.Status)

	api.POST("/admin/login", authH.LoginAdmin)
	api.POST("/admin/register", middleware.JWTAuthMiddleware(optional), authH.RegisterAdmin)

	admin := api.Group("/admin", middleware.JWTAuthMiddleware(jwtCfg), middleware.RequireAdmin())
	admin.POST("/bills", billH.Issue)
	admin.POST("/bills/import", billH.BulkIssue)
	admin.GET("/bills", billH.List)
	admin.GET("/bills/:id", billH.Get)
	admin.PUT("/bills/:id", billH.Update)
	admin.GET("/users/:userId/bills", billH.ListForUser)
	admin.GET("/users/:userId/payments", paymentH.ListForUser)
	admin.GET("/reports/bills", billH.Report)
	admin.GET("/residents", residentH.List)
	admin.POST("/residents/import", residentH.Import)

	return &testEnv{engine: r, gateway: gateway}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details []struct {
			Field string `json:"field"`
		} `json:"details"`
	} `json:"error"`
	Meta *struct {
		Total int64 `json:"total"`
		Page  int   `json:"page"`
	} `json:"meta"`
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func (e *testEnv) bootstrapAdmin(t *testing.T) string {
	t.Helper()
	status, _ := e.do(t, http.MethodPost, "/api/admin/register", "", map[string]string{
		"email": "office@flatguru.test", "name": "Office", "password": "admin-pass-1",
	})
	require.Equal(t, http.StatusCreated, status)

	status, env := e.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{
		"email": "office@flatguru.test", "password": "admin-pass-1",
	})
	require.Equal(t, http.StatusOK, status)
	return decode[appidentity.LoginResult](t, env).Tokens.AccessToken
}

func (e *testEnv) registerResident(t *testing.T, flat, email string) (appidentity.ResidentResponse, *auth.TokenPair) {
	t.Helper()
	status, env := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"flat_number": flat,
		"name":        "Resident " + flat,
		"email":       email,
		"phone":       "9800000000",
		"password":    "resident-pass",
		"complex":     "Richmond Park",
	})
	require.Equal(t, http.StatusCreated, status)
	resident := decode[appidentity.ResidentResponse](t, env)

	status, env = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"flat_number": flat, "password": "resident-pass",
	})
	require.Equal(t, http.StatusOK, status)
	return resident, decode[appidentity.LoginResult](t, env).Tokens
}

func (e *testEnv) issueBill(t *testing.T, adminToken, flat string, amount int64, due time.Time) appbilling.BillResponse {
	t.Helper()
	status, env := e.do(t, http.MethodPost, "/api/admin/bills", adminToken, map[string]any{
		"flat_number":     flat,
		"bill_type":       "maintenance",
		"original_amount": decimal.NewFromInt(amount),
		"due_date":        due.Format("2006-01-02"),
	})
	require.Equal(t, http.StatusCreated, status, env.Error)
	return decode[appbilling.BillResponse](t, env)
}
