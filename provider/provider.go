package provider

import (
	"context"
)

// PaymentProvider is the interface that all payment gateway integrations
// must implement
type PaymentProvider interface {
	// Initialize sets up the payment provider with configuration
	Initialize(config map[string]string) error

	// GetRequiredConfig returns the configuration fields required for the
	// given environment ("sandbox" or "production")
	GetRequiredConfig(environment string) []ConfigField

	// ValidateConfig validates the provided configuration against provider requirements
	ValidateConfig(config map[string]string) error

	// CreatePayment makes a non-3D payment request
	CreatePayment(ctx context.Context, request PaymentRequest) (*PaymentResponse, error)

	// Create3DPayment starts a 3D secure payment process
	Create3DPayment(ctx context.Context, request PaymentRequest) (*PaymentResponse, error)

	// Complete3DPayment completes a 3D secure payment after bank redirection
	Complete3DPayment(ctx context.Context, callbackState *CallbackState, data map[string]string) (*PaymentResponse, error)

	// GetPaymentStatus retrieves the current status of a payment
	GetPaymentStatus(ctx context.Context, request GetPaymentStatusRequest) (*PaymentResponse, error)

	// CancelPayment voids a payment before settlement
	CancelPayment(ctx context.Context, request CancelRequest) (*PaymentResponse, error)

	// RefundPayment issues a refund for a settled payment
	RefundPayment(ctx context.Context, request RefundRequest) (*RefundResponse, error)

	// ValidateWebhook validates an incoming webhook notification
	ValidateWebhook(ctx context.Context, data, headers map[string]string) (bool, map[string]string, error)
}

// ProviderFactory is a function that creates a new instance of a payment provider
type ProviderFactory func() PaymentProvider
