package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/afepanou/payments/internal/dashboard"
	"github.com/afepanou/payments/internal/order"
	"github.com/afepanou/payments/internal/payment"
	"github.com/afepanou/payments/internal/transport/middleware"
	"github.com/afepanou/payments/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, orderHandler *order.Handler, paymentHandler *payment.Handler, webhookHandler *payment.WebhookHandler, dashboardHandler *dashboard.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Serve the OpenAPI document at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check route
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if orderHandler != nil {
			r.Route("/orders", func(or chi.Router) {
				or.Post("/", orderHandler.CreateOrder)        // POST /orders
				or.Get("/", orderHandler.ListOrders)          // GET /orders
				or.Get("/{id}", orderHandler.GetOrder)        // GET /orders/:id
				or.Post("/{id}/cancel", orderHandler.CancelOrder)

				if paymentHandler != nil {
					or.Get("/{id}/payments", paymentHandler.ListOrderTransactions)
				}
			})
		}

		if paymentHandler != nil {
			r.Route("/payments", func(pr chi.Router) {
				pr.Post("/", paymentHandler.InitiatePayment)   // POST /payments
				pr.Post("/status", paymentHandler.PaymentStatus)
				pr.Get("/{id}", paymentHandler.GetTransaction) // GET /payments/:id

				if webhookHandler != nil {
					// Provider-facing endpoints, no auth by contract
					pr.Post("/callback", webhookHandler.HandleCallback)
					pr.Get("/return", webhookHandler.HandleReturn)
				}
			})
		}

		if dashboardHandler != nil {
			r.Route("/dashboard", func(dr chi.Router) {
				dr.Get("/stats", dashboardHandler.MonthlyStats)
				dr.Get("/report", dashboardHandler.MonthlyReport)
			})
		}
	})
}
