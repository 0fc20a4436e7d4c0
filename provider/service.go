package provider

import (
	"context"
	"fmt"
	"time"
)

// ConfigStore supplies per-tenant provider configuration
type ConfigStore interface {
	GetTenantConfig(tenantID int, providerName, environment string) (map[string]string, error)
}

// PaymentService resolves provider instances per tenant and wraps every
// provider call with payment logging
type PaymentService struct {
	configStore ConfigStore
	logger      PaymentLogger
	cache       *ProviderCache
}

// NewPaymentService creates a payment service
func NewPaymentService(store ConfigStore, logger PaymentLogger) *PaymentService {
	return &PaymentService{
		configStore: store,
		logger:      logger,
		cache:       NewProviderCache(100, 10*time.Minute),
	}
}

// GetProvider returns an initialized provider for the tenant. Instances are
// cached; InvalidateProvider must be called when tenant config changes.
func (s *PaymentService) GetProvider(tenantID int, providerName, environment string) (PaymentProvider, error) {
	cacheKey := fmt.Sprintf("%d:%s:%s", tenantID, providerName, environment)
	if p := s.cache.Get(cacheKey); p != nil {
		return p, nil
	}

	cfg, err := s.configStore.GetTenantConfig(tenantID, providerName, environment)
	if err != nil {
		return nil, fmt.Errorf("failed to load config for tenant %d provider %s: %w", tenantID, providerName, err)
	}

	p, err := Get(providerName)
	if err != nil {
		return nil, err
	}

	if err := p.Initialize(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize provider %s: %w", providerName, err)
	}

	s.cache.Set(cacheKey, p)
	return p, nil
}

// InvalidateProvider drops the cached instance for a tenant/provider pair
func (s *PaymentService) InvalidateProvider(tenantID int, providerName, environment string) {
	s.cache.Invalidate(fmt.Sprintf("%d:%s:%s", tenantID, providerName, environment))
}

// CreatePayment processes a payment, choosing the direct or 3D flow from
// the request
func (s *PaymentService) CreatePayment(ctx context.Context, providerName string, request PaymentRequest) (*PaymentResponse, error) {
	p, err := s.GetProvider(request.TenantID, providerName, request.Environment)
	if err != nil {
		return nil, err
	}

	method := "CreatePayment"
	if request.Use3D {
		method = "Create3DPayment"
	}

	logged := request
	logged.CardInfo.CardNumber = MaskCardNumber(request.CardInfo.CardNumber)
	logged.CardInfo.CVV = "***"

	logID, logErr := s.logger.LogRequest(request.TenantID, providerName, method, "", logged)
	if logErr == nil {
		request.LogID = logID
	}

	var resp *PaymentResponse
	if request.Use3D {
		resp, err = p.Create3DPayment(ctx, request)
	} else {
		resp, err = p.CreatePayment(ctx, request)
	}

	s.logOutcome(logID, resp, err)
	return resp, err
}

// Complete3DPayment finishes a 3D payment after the bank redirect
func (s *PaymentService) Complete3DPayment(ctx context.Context, state *CallbackState, data map[string]string) (*PaymentResponse, error) {
	p, err := s.GetProvider(state.TenantID, state.Provider, state.Environment)
	if err != nil {
		return nil, err
	}

	logID, logErr := s.logger.LogRequest(state.TenantID, state.Provider, "Complete3DPayment", "", data)
	if logErr == nil {
		state.LogID = logID
	}

	resp, err := p.Complete3DPayment(ctx, state, data)
	s.logOutcome(logID, resp, err)
	return resp, err
}

// GetPaymentStatus queries the current status of a payment
func (s *PaymentService) GetPaymentStatus(ctx context.Context, tenantID int, providerName, environment string, request GetPaymentStatusRequest) (*PaymentResponse, error) {
	p, err := s.GetProvider(tenantID, providerName, environment)
	if err != nil {
		return nil, err
	}
	return p.GetPaymentStatus(ctx, request)
}

// CancelPayment voids a payment before settlement
func (s *PaymentService) CancelPayment(ctx context.Context, tenantID int, providerName, environment string, request CancelRequest) (*PaymentResponse, error) {
	p, err := s.GetProvider(tenantID, providerName, environment)
	if err != nil {
		return nil, err
	}

	logID, logErr := s.logger.LogRequest(tenantID, providerName, "CancelPayment", "", request)
	if logErr == nil {
		request.LogID = logID
	}

	resp, err := p.CancelPayment(ctx, request)
	s.logOutcome(logID, resp, err)
	return resp, err
}

// RefundPayment refunds a settled payment
func (s *PaymentService) RefundPayment(ctx context.Context, tenantID int, providerName, environment string, request RefundRequest) (*RefundResponse, error) {
	p, err := s.GetProvider(tenantID, providerName, environment)
	if err != nil {
		return nil, err
	}

	logID, logErr := s.logger.LogRequest(tenantID, providerName, "RefundPayment", "", request)
	if logErr == nil {
		request.LogID = logID
	}

	resp, err := p.RefundPayment(ctx, request)
	if err != nil {
		_ = s.logger.LogResponse(logID, nil, false, err.Error())
	} else {
		_ = s.logger.LogResponse(logID, resp, resp.Success, resp.Message)
	}
	return resp, err
}

// ValidateWebhook validates an incoming webhook for the given provider
func (s *PaymentService) ValidateWebhook(ctx context.Context, tenantID int, providerName, environment string, data, headers map[string]string) (bool, map[string]string, error) {
	p, err := s.GetProvider(tenantID, providerName, environment)
	if err != nil {
		return false, nil, err
	}
	return p.ValidateWebhook(ctx, data, headers)
}

func (s *PaymentService) logOutcome(logID int64, resp *PaymentResponse, err error) {
	if err != nil {
		_ = s.logger.LogResponse(logID, nil, false, err.Error())
		return
	}
	_ = s.logger.LogResponse(logID, resp, resp.Success, resp.Message)
}
