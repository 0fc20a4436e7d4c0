// Package provider implements the payment gateway abstraction for GVPay.
//
// Gateway integrations live in subpackages and register themselves with the
// package registry; the PaymentService resolves an initialized provider per
// tenant and wraps every call with request/response logging.
//
// # Core Concepts
//
//   - PaymentProvider: the interface every gateway integration implements
//   - PaymentService: per-tenant provider resolution, caching and logging
//   - PaymentRequest/PaymentResponse: gateway-independent request and
//     response structures
//   - CallbackState: the payment context carried across a 3D secure redirect
//
// # Amounts
//
// All amounts are int64 values in minor currency units (kuruş, cents).
// Gateways that want a decimal display string get it formatted inside the
// integration; the integer value stays the single source of truth for hash
// computation and comparisons.
//
// # Basic Usage
//
//	service := provider.NewPaymentService(configStore, paymentLogger)
//
//	request := provider.PaymentRequest{
//	    TenantID: 1,
//	    OrderID:  "ORD-2024-001",
//	    Amount:   10050, // 100.50 TRY
//	    Currency: "TRY",
//	    Customer: provider.Customer{Email: "john@example.com"},
//	    CardInfo: provider.CardInfo{
//	        CardNumber:  "4242424242424242",
//	        ExpireMonth: "06",
//	        ExpireYear:  "2030",
//	        CVV:         "123",
//	    },
//	}
//
//	response, err := service.CreatePayment(ctx, "garanti", request)
//
// # 3D Secure Flow
//
// Setting Use3D starts the redirect flow: Create3DPayment returns an
// auto-submitting HTML form that posts the cardholder to the bank. After
// authentication the bank posts back to the callback endpoint, which loads
// the stored CallbackState and calls Complete3DPayment.
//
// # Registering a Provider
//
// Integrations register a factory in an init function:
//
//	func init() {
//	    provider.Register("garanti", NewProvider)
//	}
//
// and are linked in with a blank import. Each PaymentService resolution gets
// a fresh instance from the factory, initialized with the tenant's stored
// configuration.
//
// # Errors
//
// Providers return typed errors that callers can match with errors.As:
// MissingFieldError for rejected requests, UnsupportedCurrencyError for
// currencies the gateway has no numeric code for, and TransportError for
// network or malformed-response failures. A gateway decline is not an
// error: the response carries Success=false and the gateway's error code.
package provider
