package router

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/gvpay/handler"
	"github.com/mstgnz/gvpay/infra/config"
	"github.com/mstgnz/gvpay/infra/middle"
	"github.com/mstgnz/gvpay/infra/opensearch"
	"github.com/mstgnz/gvpay/infra/response"
	"github.com/mstgnz/gvpay/infra/validate"
	"github.com/mstgnz/gvpay/provider"
	v1 "github.com/mstgnz/gvpay/router/v1"

	// Import for side-effect registration
	_ "github.com/mstgnz/gvpay/provider/garanti"
)

// Deps carries the services the routes depend on
type Deps struct {
	PaymentService *provider.PaymentService
	ProviderConfig *config.ProviderConfig
	CallbackStore  *provider.CallbackStore
	Encryptor      *provider.CallbackEncryptor
	SearchLogger   *opensearch.Logger
	Validator      *validate.Validator
	DB             *sql.DB
	BaseURL        string
}

// Routes registers all application routes
func Routes(r chi.Router, deps Deps) {
	paymentHandler := handler.NewPaymentHandler(
		deps.PaymentService, deps.Validator,
		deps.CallbackStore, deps.Encryptor, deps.BaseURL,
	)
	configHandler := handler.NewConfigHandler(deps.ProviderConfig, deps.PaymentService)
	healthHandler := handler.NewHealthHandler(deps.DB, deps.SearchLogger, deps.PaymentService, deps.ProviderConfig)

	r.Get("/health", healthHandler.CheckHealth)

	r.Route("/v1", func(r chi.Router) {
		// bank redirects and notifications arrive unauthenticated
		r.Group(func(r chi.Router) {
			r.HandleFunc("/callback/{provider}", paymentHandler.HandleCallback)
			r.Post("/webhooks/{provider}", paymentHandler.HandleWebhook)
		})

		r.Group(func(r chi.Router) {
			r.Use(middle.AuthMiddleware())

			handlers := v1.Handlers{
				Payment: paymentHandler,
				Config:  configHandler,
			}
			if deps.SearchLogger != nil {
				handlers.Logs = handler.NewLogsHandler(deps.SearchLogger)
			}
			v1.Routes(r, handlers)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusNotFound, response.Response{
			Code:    http.StatusNotFound,
			Success: false,
			Message: "Not Found",
		})
	})
}
