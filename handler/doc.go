// Package handler provides the HTTP handlers for the GVPay payment API.
//
// # Core Handlers
//
//   - PaymentHandler: payment operations (create, 3D callback, status, cancel, refund)
//   - ConfigHandler: tenant provider credentials and required-config discovery
//   - LogsHandler: access to indexed payment logs
//   - HealthHandler: liveness and dependency health
//
// # Payment Handler
//
// The PaymentHandler manages all payment-related HTTP requests:
//
//	paymentHandler := handler.NewPaymentHandler(paymentService, validator, callbackStore, encryptor, baseURL)
//
//	r.Post("/v1/payments/{provider}", paymentHandler.ProcessPayment)
//	r.Get("/v1/payments/{provider}/{paymentID}", paymentHandler.GetPaymentStatus)
//	r.Delete("/v1/payments/{provider}/{paymentID}", paymentHandler.CancelPayment)
//	r.Post("/v1/payments/{provider}/refund", paymentHandler.RefundPayment)
//	r.HandleFunc("/v1/callback/{provider}", paymentHandler.HandleCallback)
//	r.Post("/v1/webhooks/{provider}", paymentHandler.HandleWebhook)
//
// Amounts are integers in minor currency units (kuruş, cents):
//
//	POST /v1/payments/garanti
//	Headers:
//	  X-Tenant-ID: 1
//	  Authorization: Bearer your-api-key
//	  Content-Type: application/json
//
//	Body:
//	{
//	  "orderId": "ORD-2024-001",
//	  "amount": 10050,
//	  "currency": "TRY",
//	  "use3D": true,
//	  "successUrl": "https://myapp.com/payment/ok",
//	  "errorUrl": "https://myapp.com/payment/fail",
//	  "customer": {"email": "john@example.com"},
//	  "cardInfo": {
//	    "cardNumber": "4242424242424242",
//	    "expireMonth": "06",
//	    "expireYear": "2030",
//	    "cvv": "123"
//	  }
//	}
//
// # 3D Secure Callbacks
//
// For 3D payments the handler rewrites the success and error URLs to point
// back at /v1/callback/{provider}. The payment context travels in an opaque
// state parameter, either AES-GCM encrypted or as a single-use stored key,
// so the callback can finish the payment and redirect the cardholder to the
// merchant's original URLs.
//
// # Error Mapping
//
// Provider errors map to HTTP status codes: a missing request field is 400,
// an unsupported currency is 422, and a gateway transport failure is 502.
// Gateway declines are delivered as a successful HTTP response with
// success=false and the gateway's error code in the body.
package handler
