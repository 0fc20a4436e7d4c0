package provider

import (
	"time"
)

// PaymentStatus represents the current status of a payment
type PaymentStatus string

const (
	StatusPending    PaymentStatus = "pending"
	StatusProcessing PaymentStatus = "processing"
	StatusSuccessful PaymentStatus = "successful"
	StatusFailed     PaymentStatus = "failed"
	StatusCancelled  PaymentStatus = "cancelled"
	StatusRefunded   PaymentStatus = "refunded"
)

// ConfigField represents a required configuration field for a payment provider
type ConfigField struct {
	Key         string `json:"key"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // "string", "number", "url", "email", "boolean"
	Description string `json:"description"`
	Example     string `json:"example"`
	Pattern     string `json:"pattern,omitempty"`   // regex pattern for validation
	MinLength   int    `json:"minLength,omitempty"` // minimum length for string fields
	MaxLength   int    `json:"maxLength,omitempty"` // maximum length for string fields
}

// Customer represents the buyer information
type Customer struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	Surname     string `json:"surname,omitempty"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	IPAddress   string `json:"ipAddress,omitempty"`
}

// CardInfo represents credit card information
type CardInfo struct {
	CardHolderName string `json:"cardHolderName,omitempty"`
	CardNumber     string `json:"cardNumber"`
	ExpireMonth    string `json:"expireMonth"`
	ExpireYear     string `json:"expireYear"`
	CVV            string `json:"cvv"`
}

// PaymentRequest contains all information required to create a payment.
//
// Amount is always expressed in minor currency units (kuruş, cents) as an
// integer. Gateways that expect a decimal display amount get it formatted by
// the provider; the integer value stays the single source of truth for hash
// computation.
type PaymentRequest struct {
	OrderID          string   `json:"orderId"`
	LogID            int64    `json:"logId,omitempty"`
	ReferenceID      string   `json:"referenceId,omitempty"`
	Currency         string   `json:"currency" validate:"required,len=3"`
	Amount           int64    `json:"amount" validate:"required,gt=0"`
	Customer         Customer `json:"customer"`
	CardInfo         CardInfo `json:"cardInfo"`
	Description      string   `json:"description,omitempty"`
	CallbackURL      string   `json:"callbackUrl,omitempty"`
	SuccessURL       string   `json:"successUrl,omitempty"`
	ErrorURL         string   `json:"errorUrl,omitempty"`
	Use3D            bool     `json:"use3D"`
	PreAuth          bool     `json:"preAuth,omitempty"`
	InstallmentCount int      `json:"installmentCount,omitempty" validate:"gte=0"`
	ConversationID   string   `json:"conversationId,omitempty"`
	ClientIP         string   `json:"clientIp,omitempty"`
	ClientUserAgent  string   `json:"clientUserAgent,omitempty"`
	Environment      string   `json:"environment,omitempty"`
	TenantID         int      `json:"tenantId,omitempty"`
}

// PaymentResponse contains the result of a payment request
type PaymentResponse struct {
	Success          bool          `json:"success"`
	Status           PaymentStatus `json:"status"`
	Message          string        `json:"message,omitempty"`
	ErrorCode        string        `json:"errorCode,omitempty"`
	TransactionID    string        `json:"transactionId,omitempty"`
	PaymentID        string        `json:"paymentId,omitempty"`
	OrderID          string        `json:"orderId,omitempty"`
	Amount           int64         `json:"amount,omitempty"`
	Currency         string        `json:"currency,omitempty"`
	RedirectURL      string        `json:"redirectUrl,omitempty"`
	HTML             string        `json:"html,omitempty"`
	SystemTime       *time.Time    `json:"systemTime,omitempty"`
	ProviderResponse any           `json:"providerResponse,omitempty"`
}

// RefundRequest contains information to request a refund
type RefundRequest struct {
	PaymentID      string `json:"paymentId" validate:"required"`
	RefundAmount   int64  `json:"refundAmount" validate:"required,gt=0"`
	Currency       string `json:"currency,omitempty"`
	Reason         string `json:"reason,omitempty"`
	Description    string `json:"description,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
	ClientIP       string `json:"clientIp,omitempty"`
	Environment    string `json:"environment,omitempty"`
	LogID          int64  `json:"logId,omitempty"`
}

// CancelRequest contains information to void a payment before settlement
type CancelRequest struct {
	PaymentID   string `json:"paymentId" validate:"required"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Currency    string `json:"currency,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Environment string `json:"environment,omitempty"`
	LogID       int64  `json:"logId,omitempty"`
}

// GetPaymentStatusRequest contains information to query payment status
type GetPaymentStatusRequest struct {
	PaymentID   string `json:"paymentId" validate:"required"`
	Environment string `json:"environment,omitempty"`
}

// RefundResponse contains the result of a refund request
type RefundResponse struct {
	Success      bool       `json:"success"`
	RefundID     string     `json:"refundId,omitempty"`
	PaymentID    string     `json:"paymentId,omitempty"`
	Status       string     `json:"status,omitempty"`
	RefundAmount int64      `json:"refundAmount,omitempty"`
	Message      string     `json:"message,omitempty"`
	ErrorCode    string     `json:"errorCode,omitempty"`
	SystemTime   *time.Time `json:"systemTime,omitempty"`
	RawResponse  any        `json:"rawResponse,omitempty"`
}
