package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mstgnz/gvpay/infra/validate"
	"github.com/mstgnz/gvpay/provider"
)

// Mock PaymentService for testing
type mockPaymentService struct {
	createPaymentFunc     func(ctx context.Context, providerName string, request provider.PaymentRequest) (*provider.PaymentResponse, error)
	complete3DPaymentFunc func(ctx context.Context, state *provider.CallbackState, data map[string]string) (*provider.PaymentResponse, error)
	getPaymentStatusFunc  func(ctx context.Context, tenantID int, providerName, environment string, request provider.GetPaymentStatusRequest) (*provider.PaymentResponse, error)
	cancelPaymentFunc     func(ctx context.Context, tenantID int, providerName, environment string, request provider.CancelRequest) (*provider.PaymentResponse, error)
	refundPaymentFunc     func(ctx context.Context, tenantID int, providerName, environment string, request provider.RefundRequest) (*provider.RefundResponse, error)
	validateWebhookFunc   func(ctx context.Context, tenantID int, providerName, environment string, data, headers map[string]string) (bool, map[string]string, error)
}

func (m *mockPaymentService) CreatePayment(ctx context.Context, providerName string, request provider.PaymentRequest) (*provider.PaymentResponse, error) {
	if m.createPaymentFunc != nil {
		return m.createPaymentFunc(ctx, providerName, request)
	}
	return &provider.PaymentResponse{
		Success:   true,
		PaymentID: "test-payment-123",
		OrderID:   request.OrderID,
		Status:    provider.StatusSuccessful,
		Amount:    request.Amount,
		Currency:  request.Currency,
	}, nil
}

func (m *mockPaymentService) Complete3DPayment(ctx context.Context, state *provider.CallbackState, data map[string]string) (*provider.PaymentResponse, error) {
	if m.complete3DPaymentFunc != nil {
		return m.complete3DPaymentFunc(ctx, state, data)
	}
	return &provider.PaymentResponse{
		Success:   true,
		PaymentID: state.OrderID,
		OrderID:   state.OrderID,
		Status:    provider.StatusSuccessful,
		Amount:    state.Amount,
		Currency:  state.Currency,
	}, nil
}

func (m *mockPaymentService) GetPaymentStatus(ctx context.Context, tenantID int, providerName, environment string, request provider.GetPaymentStatusRequest) (*provider.PaymentResponse, error) {
	if m.getPaymentStatusFunc != nil {
		return m.getPaymentStatusFunc(ctx, tenantID, providerName, environment, request)
	}
	return &provider.PaymentResponse{
		Success:   true,
		PaymentID: request.PaymentID,
		Status:    provider.StatusSuccessful,
	}, nil
}

func (m *mockPaymentService) CancelPayment(ctx context.Context, tenantID int, providerName, environment string, request provider.CancelRequest) (*provider.PaymentResponse, error) {
	if m.cancelPaymentFunc != nil {
		return m.cancelPaymentFunc(ctx, tenantID, providerName, environment, request)
	}
	return &provider.PaymentResponse{
		Success:   true,
		PaymentID: request.PaymentID,
		Status:    provider.StatusCancelled,
	}, nil
}

func (m *mockPaymentService) RefundPayment(ctx context.Context, tenantID int, providerName, environment string, request provider.RefundRequest) (*provider.RefundResponse, error) {
	if m.refundPaymentFunc != nil {
		return m.refundPaymentFunc(ctx, tenantID, providerName, environment, request)
	}
	return &provider.RefundResponse{
		Success:      true,
		RefundID:     "refund-123",
		PaymentID:    request.PaymentID,
		RefundAmount: request.RefundAmount,
		Status:       "refunded",
	}, nil
}

func (m *mockPaymentService) ValidateWebhook(ctx context.Context, tenantID int, providerName, environment string, data, headers map[string]string) (bool, map[string]string, error) {
	if m.validateWebhookFunc != nil {
		return m.validateWebhookFunc(ctx, tenantID, providerName, environment, data, headers)
	}
	return true, map[string]string{
		"paymentId": "test-payment-123",
		"status":    "success",
	}, nil
}

func newTestHandler(t *testing.T, service PaymentServiceInterface) *PaymentHandler {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "handler_test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := provider.NewCallbackStore(db, 10*time.Minute)
	if err != nil {
		t.Fatalf("Failed to create callback store: %v", err)
	}

	return NewPaymentHandler(
		service,
		validate.New(),
		store,
		provider.NewCallbackEncryptor("test-callback-secret"),
		"https://pay.example.com",
	)
}

func withChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func validPaymentBody() string {
	return `{
		"orderId": "ORD1",
		"amount": 10050,
		"currency": "TRY",
		"customer": {"email": "john@example.com"},
		"cardInfo": {
			"cardNumber": "4242424242424242",
			"expireMonth": "06",
			"expireYear": "2030",
			"cvv": "123"
		}
	}`
}

func TestProcessPayment(t *testing.T) {
	var captured provider.PaymentRequest
	service := &mockPaymentService{
		createPaymentFunc: func(ctx context.Context, providerName string, request provider.PaymentRequest) (*provider.PaymentResponse, error) {
			captured = request
			return &provider.PaymentResponse{Success: true, OrderID: request.OrderID, Status: provider.StatusSuccessful}, nil
		},
	}
	h := newTestHandler(t, service)

	req := httptest.NewRequest("POST", "/v1/payments/garanti", strings.NewReader(validPaymentBody()))
	req = withChiParams(req, map[string]string{"provider": "garanti"})
	w := httptest.NewRecorder()

	h.ProcessPayment(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if captured.OrderID != "ORD1" {
		t.Errorf("Expected orderId ORD1, got %s", captured.OrderID)
	}
	if captured.Amount != 10050 {
		t.Errorf("Expected amount 10050, got %d", captured.Amount)
	}
	if captured.Environment != "sandbox" {
		t.Errorf("Expected sandbox environment, got %s", captured.Environment)
	}
}

func TestProcessPaymentInvalidJSON(t *testing.T) {
	h := newTestHandler(t, &mockPaymentService{})

	req := httptest.NewRequest("POST", "/v1/payments/garanti", strings.NewReader("{not json"))
	req = withChiParams(req, map[string]string{"provider": "garanti"})
	w := httptest.NewRecorder()

	h.ProcessPayment(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestProcessPaymentValidation(t *testing.T) {
	h := newTestHandler(t, &mockPaymentService{})

	req := httptest.NewRequest("POST", "/v1/payments/garanti",
		strings.NewReader(`{"orderId": "ORD1", "amount": 0, "currency": "TRY"}`))
	req = withChiParams(req, map[string]string{"provider": "garanti"})
	w := httptest.NewRecorder()

	h.ProcessPayment(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for zero amount, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "amount") {
		t.Errorf("Expected amount field in validation error, got %s", w.Body.String())
	}
}

func TestProcessPayment3DRewritesURLs(t *testing.T) {
	var captured provider.PaymentRequest
	service := &mockPaymentService{
		createPaymentFunc: func(ctx context.Context, providerName string, request provider.PaymentRequest) (*provider.PaymentResponse, error) {
			captured = request
			return &provider.PaymentResponse{Success: true, Status: provider.StatusPending, HTML: "<form/>"}, nil
		},
	}
	h := newTestHandler(t, service)

	body := `{
		"orderId": "ORD1",
		"amount": 10050,
		"currency": "TRY",
		"use3D": true,
		"successUrl": "https://merchant.example.com/ok",
		"errorUrl": "https://merchant.example.com/fail",
		"customer": {"email": "john@example.com"},
		"cardInfo": {"cardNumber": "4242424242424242", "expireMonth": "06", "expireYear": "2030", "cvv": "123"}
	}`
	req := httptest.NewRequest("POST", "/v1/payments/garanti", strings.NewReader(body))
	req = withChiParams(req, map[string]string{"provider": "garanti"})
	w := httptest.NewRecorder()

	h.ProcessPayment(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.HasPrefix(captured.SuccessURL, "https://pay.example.com/v1/callback/garanti?state=") {
		t.Fatalf("Expected rewritten success URL, got %s", captured.SuccessURL)
	}
	if !strings.Contains(captured.ErrorURL, "result=error") {
		t.Errorf("Expected error result marker, got %s", captured.ErrorURL)
	}

	parsed, err := url.Parse(captured.SuccessURL)
	if err != nil {
		t.Fatalf("Rewritten URL does not parse: %v", err)
	}
	if got := parsed.Query().Get("successUrl"); got != "https://merchant.example.com/ok" {
		t.Errorf("Expected merchant success URL preserved, got %s", got)
	}

	state, err := h.resolveState(parsed.Query().Get("state"))
	if err != nil {
		t.Fatalf("State does not resolve: %v", err)
	}
	if state.OrderID != "ORD1" || state.Amount != 10050 || state.Provider != "garanti" {
		t.Errorf("Unexpected state: %+v", state)
	}
}

func TestProcessPaymentErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"missing field", &provider.MissingFieldError{Field: "orderId"}, http.StatusBadRequest},
		{"unsupported currency", &provider.UnsupportedCurrencyError{Currency: "XXX"}, http.StatusUnprocessableEntity},
		{"transport", &provider.TransportError{Provider: "garanti", Endpoint: "x", Err: context.DeadlineExceeded}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &mockPaymentService{
				createPaymentFunc: func(ctx context.Context, providerName string, request provider.PaymentRequest) (*provider.PaymentResponse, error) {
					return nil, tt.err
				},
			}
			h := newTestHandler(t, service)

			req := httptest.NewRequest("POST", "/v1/payments/garanti", strings.NewReader(validPaymentBody()))
			req = withChiParams(req, map[string]string{"provider": "garanti"})
			w := httptest.NewRecorder()

			h.ProcessPayment(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestHandleCallbackSuccess(t *testing.T) {
	var receivedState *provider.CallbackState
	service := &mockPaymentService{
		complete3DPaymentFunc: func(ctx context.Context, state *provider.CallbackState, data map[string]string) (*provider.PaymentResponse, error) {
			receivedState = state
			return &provider.PaymentResponse{
				Success:  true,
				OrderID:  state.OrderID,
				Status:   provider.StatusSuccessful,
				Amount:   state.Amount,
				Currency: state.Currency,
			}, nil
		},
	}
	h := newTestHandler(t, service)

	key, err := h.callbackStore.Save(&provider.CallbackState{
		TenantID:    1,
		Provider:    "garanti",
		Environment: "sandbox",
		OrderID:     "ORD1",
		Amount:      10050,
		Currency:    "TRY",
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Failed to save state: %v", err)
	}

	target := "/v1/callback/garanti?state=" + key +
		"&successUrl=" + url.QueryEscape("https://merchant.example.com/ok") +
		"&errorUrl=" + url.QueryEscape("https://merchant.example.com/fail")
	req := httptest.NewRequest("POST", target,
		strings.NewReader("mdstatus=1&procreturncode=00&orderid=ORD1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = withChiParams(req, map[string]string{"provider": "garanti"})
	w := httptest.NewRecorder()

	h.HandleCallback(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("Expected redirect 302, got %d: %s", w.Code, w.Body.String())
	}
	location := w.Header().Get("Location")
	if !strings.HasPrefix(location, "https://merchant.example.com/ok?") {
		t.Errorf("Expected redirect to merchant success URL, got %s", location)
	}
	if !strings.Contains(location, "orderId=ORD1") {
		t.Errorf("Expected orderId in redirect, got %s", location)
	}
	if receivedState == nil || receivedState.OrderID != "ORD1" {
		t.Errorf("Expected service to receive stored state, got %+v", receivedState)
	}
}

func TestHandleCallbackFailureRedirect(t *testing.T) {
	service := &mockPaymentService{
		complete3DPaymentFunc: func(ctx context.Context, state *provider.CallbackState, data map[string]string) (*provider.PaymentResponse, error) {
			return &provider.PaymentResponse{
				Success:   false,
				OrderID:   state.OrderID,
				Status:    provider.StatusFailed,
				Message:   "3D authentication failed",
				ErrorCode: "MDSTATUS_0",
			}, nil
		},
	}
	h := newTestHandler(t, service)

	key, err := h.callbackStore.Save(&provider.CallbackState{
		TenantID: 1, Provider: "garanti", Environment: "sandbox",
		OrderID: "ORD1", Amount: 10050, Currency: "TRY", CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Failed to save state: %v", err)
	}

	target := "/v1/callback/garanti?state=" + key +
		"&errorUrl=" + url.QueryEscape("https://merchant.example.com/fail")
	req := httptest.NewRequest("POST", target, strings.NewReader("mdstatus=0"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = withChiParams(req, map[string]string{"provider": "garanti"})
	w := httptest.NewRecorder()

	h.HandleCallback(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("Expected redirect 302, got %d", w.Code)
	}
	location := w.Header().Get("Location")
	if !strings.HasPrefix(location, "https://merchant.example.com/fail?") {
		t.Errorf("Expected redirect to merchant error URL, got %s", location)
	}
	if !strings.Contains(location, "errorCode=MDSTATUS_0") {
		t.Errorf("Expected error code in redirect, got %s", location)
	}
}

func TestHandleCallbackMissingState(t *testing.T) {
	h := newTestHandler(t, &mockPaymentService{})

	req := httptest.NewRequest("POST", "/v1/callback/garanti", nil)
	req = withChiParams(req, map[string]string{"provider": "garanti"})
	w := httptest.NewRecorder()

	h.HandleCallback(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestHandleCallbackStateSingleUse(t *testing.T) {
	h := newTestHandler(t, &mockPaymentService{})

	key, err := h.callbackStore.Save(&provider.CallbackState{
		TenantID: 1, Provider: "garanti", Environment: "sandbox",
		OrderID: "ORD1", Amount: 100, Currency: "TRY", CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Failed to save state: %v", err)
	}

	first := httptest.NewRequest("POST", "/v1/callback/garanti?state="+key, strings.NewReader("mdstatus=1"))
	first.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	first = withChiParams(first, map[string]string{"provider": "garanti"})
	w := httptest.NewRecorder()
	h.HandleCallback(w, first)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 on first use, got %d", w.Code)
	}

	second := httptest.NewRequest("POST", "/v1/callback/garanti?state="+key, strings.NewReader("mdstatus=1"))
	second.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	second = withChiParams(second, map[string]string{"provider": "garanti"})
	w = httptest.NewRecorder()
	h.HandleCallback(w, second)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 on state replay, got %d", w.Code)
	}
}

func TestCancelPayment(t *testing.T) {
	var captured provider.CancelRequest
	service := &mockPaymentService{
		cancelPaymentFunc: func(ctx context.Context, tenantID int, providerName, environment string, request provider.CancelRequest) (*provider.PaymentResponse, error) {
			captured = request
			return &provider.PaymentResponse{Success: true, PaymentID: request.PaymentID, Status: provider.StatusCancelled}, nil
		},
	}
	h := newTestHandler(t, service)

	req := httptest.NewRequest("DELETE", "/v1/payments/garanti/ORD1",
		strings.NewReader(`{"amount": 10050, "currency": "TRY"}`))
	req = withChiParams(req, map[string]string{"provider": "garanti", "paymentID": "ORD1"})
	w := httptest.NewRecorder()

	h.CancelPayment(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if captured.PaymentID != "ORD1" || captured.Amount != 10050 {
		t.Errorf("Unexpected cancel request: %+v", captured)
	}
}

func TestRefundPayment(t *testing.T) {
	var captured provider.RefundRequest
	service := &mockPaymentService{
		refundPaymentFunc: func(ctx context.Context, tenantID int, providerName, environment string, request provider.RefundRequest) (*provider.RefundResponse, error) {
			captured = request
			return &provider.RefundResponse{Success: true, PaymentID: request.PaymentID, RefundAmount: request.RefundAmount}, nil
		},
	}
	h := newTestHandler(t, service)

	req := httptest.NewRequest("POST", "/v1/payments/garanti/refund",
		strings.NewReader(`{"paymentId": "ORD1", "refundAmount": 500, "currency": "TRY"}`))
	req = withChiParams(req, map[string]string{"provider": "garanti"})
	w := httptest.NewRecorder()

	h.RefundPayment(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if captured.PaymentID != "ORD1" || captured.RefundAmount != 500 {
		t.Errorf("Unexpected refund request: %+v", captured)
	}
}

func TestRefundPaymentValidation(t *testing.T) {
	h := newTestHandler(t, &mockPaymentService{})

	req := httptest.NewRequest("POST", "/v1/payments/garanti/refund",
		strings.NewReader(`{"refundAmount": 0}`))
	req = withChiParams(req, map[string]string{"provider": "garanti"})
	w := httptest.NewRecorder()

	h.RefundPayment(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestHandleWebhook(t *testing.T) {
	h := newTestHandler(t, &mockPaymentService{})

	req := httptest.NewRequest("POST", "/v1/webhooks/garanti",
		strings.NewReader(`{"paymentId": "test-payment-123", "status": "success"}`))
	req.Header.Set("Content-Type", "application/json")
	req = withChiParams(req, map[string]string{"provider": "garanti"})
	w := httptest.NewRecorder()

	h.HandleWebhook(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Data["status"] != "accepted" {
		t.Errorf("Expected accepted status, got %v", resp.Data)
	}
}

func TestHandleWebhookInvalidSignature(t *testing.T) {
	service := &mockPaymentService{
		validateWebhookFunc: func(ctx context.Context, tenantID int, providerName, environment string, data, headers map[string]string) (bool, map[string]string, error) {
			return false, nil, nil
		},
	}
	h := newTestHandler(t, service)

	req := httptest.NewRequest("POST", "/v1/webhooks/garanti", strings.NewReader(`{"paymentId": "x"}`))
	req.Header.Set("Content-Type", "application/json")
	req = withChiParams(req, map[string]string{"provider": "garanti"})
	w := httptest.NewRecorder()

	h.HandleWebhook(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}
