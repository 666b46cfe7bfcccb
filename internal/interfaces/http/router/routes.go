package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Nitish8696/flatgurugram/internal/interfaces/http/handler"
)

// Handlers are the HTTP handlers mounted by BillingRoutes
type Handlers struct {
	Auth      *handler.AuthHandler
	Residents *handler.ResidentHandler
	Bills     *handler.BillHandler
	Payments  *handler.PaymentHandler
}

// Guards are the access middleware applied per route group
type Guards struct {
	// Authenticated rejects requests without a valid access token
	Authenticated gin.HandlerFunc
	// OptionalAuth reads a token when present and lets anonymous requests through
	OptionalAuth gin.HandlerFunc
	// Admin rejects non-admin callers; runs after Authenticated
	Admin gin.HandlerFunc
	// CredentialLimit throttles login and registration; nil disables it
	CredentialLimit gin.HandlerFunc
}

// BillingRoutes builds the route groups of the billing API
func BillingRoutes(h Handlers, g Guards) []RouteRegistrar {
	public := NewDomainGroup("auth", "/auth")
	public.POST("/register", chain(g.CredentialLimit, h.Auth.RegisterResident)...)
	public.POST("/login", chain(g.CredentialLimit, h.Auth.LoginResident)...)
	public.POST("/refresh", chain(g.CredentialLimit, h.Auth.Refresh)...)

	resident := NewDomainGroup("resident", "/auth").Use(g.Authenticated)
	resident.POST("/logout", h.Auth.Logout)
	resident.GET("/dashboard", h.Payments.Dashboard)
	resident.GET("/payments", h.Payments.ListMine)
	resident.POST("/pay-bill", h.Payments.Pay)
	resident.POST("/bills/:id/initiate-payment", h.Payments.Initiate)
	resident.GET("/pay-status/:transactionId", h.Payments.Status)

	adminAuth := NewDomainGroup("admin-auth", "/admin")
	adminAuth.POST("/login", chain(g.CredentialLimit, h.Auth.LoginAdmin)...)
	adminAuth.POST("/register", chain(g.CredentialLimit, g.OptionalAuth, h.Auth.RegisterAdmin)...)

	admin := NewDomainGroup("admin", "/admin").Use(g.Authenticated, g.Admin)
	admin.POST("/bills", h.Bills.Issue)
	admin.POST("/bills/import", h.Bills.BulkIssue)
	admin.GET("/bills", h.Bills.List)
	admin.GET("/bills/:id", h.Bills.Get)
	admin.PUT("/bills/:id", h.Bills.Update)
	admin.GET("/reports/bills", h.Bills.Report)
	admin.GET("/users/:userId/bills", h.Bills.ListForUser)
	admin.GET("/users/:userId/payments", h.Payments.ListForUser)
	admin.GET("/residents", h.Residents.List)
	admin.POST("/residents/import", h.Residents.Import)

	return []RouteRegistrar{public, resident, adminAuth, admin}
}

// chain drops nil middleware so optional guards can be left unset
func chain(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}
