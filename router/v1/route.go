package v1

import (
	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/gvpay/handler"
)

// Handlers carries the handlers the v1 routes dispatch to
type Handlers struct {
	Payment *handler.PaymentHandler
	Config  *handler.ConfigHandler
	Logs    *handler.LogsHandler
}

// Routes registers the authenticated API routes
func Routes(r chi.Router, h Handlers) {
	r.Route("/payments", func(r chi.Router) {
		// default provider routes
		r.Post("/", h.Payment.ProcessPayment)

		// provider-specific routes
		r.Post("/{provider}", h.Payment.ProcessPayment)
		r.Get("/{provider}/{paymentID}", h.Payment.GetPaymentStatus)
		r.Delete("/{provider}/{paymentID}", h.Payment.CancelPayment)
		r.Post("/{provider}/refund", h.Payment.RefundPayment)
	})

	r.Route("/config", func(r chi.Router) {
		r.Get("/stats", h.Config.GetStats)
		r.Get("/{provider}/required", h.Config.GetRequiredConfig)
		r.Get("/{provider}", h.Config.GetTenantConfig)
		r.Post("/{provider}", h.Config.SetTenantConfig)
		r.Delete("/{provider}", h.Config.DeleteTenantConfig)
	})

	if h.Logs != nil {
		r.Route("/logs", func(r chi.Router) {
			r.Get("/{provider}/errors", h.Logs.GetErrorLogs)
			r.Get("/{provider}/orders/{orderID}", h.Logs.GetOrderLogs)
		})
	}
}
