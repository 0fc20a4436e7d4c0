package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/gvpay/infra/logger"
	"github.com/mstgnz/gvpay/infra/middle"
	"github.com/mstgnz/gvpay/infra/response"
	"github.com/mstgnz/gvpay/infra/validate"
	"github.com/mstgnz/gvpay/provider"
)

// encrypted callback state longer than this travels as a stored short key
// instead, some banks truncate long redirect URLs
const maxStateParamLen = 300

// PaymentServiceInterface defines the interface for payment operations
type PaymentServiceInterface interface {
	CreatePayment(ctx context.Context, providerName string, request provider.PaymentRequest) (*provider.PaymentResponse, error)
	Complete3DPayment(ctx context.Context, state *provider.CallbackState, data map[string]string) (*provider.PaymentResponse, error)
	GetPaymentStatus(ctx context.Context, tenantID int, providerName, environment string, request provider.GetPaymentStatusRequest) (*provider.PaymentResponse, error)
	CancelPayment(ctx context.Context, tenantID int, providerName, environment string, request provider.CancelRequest) (*provider.PaymentResponse, error)
	RefundPayment(ctx context.Context, tenantID int, providerName, environment string, request provider.RefundRequest) (*provider.RefundResponse, error)
	ValidateWebhook(ctx context.Context, tenantID int, providerName, environment string, data, headers map[string]string) (bool, map[string]string, error)
}

// PaymentHandler handles payment related HTTP requests
type PaymentHandler struct {
	paymentService PaymentServiceInterface
	validator      *validate.Validator
	callbackStore  *provider.CallbackStore
	encryptor      *provider.CallbackEncryptor
	baseURL        string
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService PaymentServiceInterface, validator *validate.Validator, store *provider.CallbackStore, encryptor *provider.CallbackEncryptor, baseURL string) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		validator:      validator,
		callbackStore:  store,
		encryptor:      encryptor,
		baseURL:        strings.TrimRight(baseURL, "/"),
	}
}

// ProcessPayment handles payment requests
func (h *PaymentHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var req provider.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	req.ClientIP = middle.GetClientIP(r)
	req.ClientUserAgent = r.Header.Get("User-Agent")
	req.TenantID = middle.GetTenantIDFromContext(r.Context())
	req.Environment = environmentFromQuery(r)

	if fields := h.validator.ValidateStruct(req); fields != nil {
		response.Error(w, http.StatusBadRequest, "Validation error", fieldErrors(fields))
		return
	}

	providerName := chi.URLParam(r, "provider")
	if providerName == "" {
		providerName = "garanti"
	}

	if req.Use3D {
		if err := h.rewriteCallbackURLs(providerName, &req); err != nil {
			response.Error(w, http.StatusInternalServerError, "Failed to prepare 3D callback", err)
			return
		}
	}

	resp, err := h.paymentService.CreatePayment(ctx, providerName, req)
	if err != nil {
		status, message := errorStatus(err)
		response.Error(w, status, message, err)
		return
	}

	response.Success(w, http.StatusOK, "Payment processed", resp)
}

// rewriteCallbackURLs points the bank's success and error URLs at the
// callback endpoint, carrying the merchant URLs and the payment context in
// an opaque state parameter
func (h *PaymentHandler) rewriteCallbackURLs(providerName string, req *provider.PaymentRequest) error {
	if req.SuccessURL == "" || req.ErrorURL == "" {
		return nil // provider reports the missing field
	}

	state := &provider.CallbackState{
		TenantID:    req.TenantID,
		Provider:    providerName,
		Environment: req.Environment,
		OrderID:     req.OrderID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		OriginalURL: req.CallbackURL,
		CreatedAt:   time.Now().UTC(),
	}

	param, err := h.encryptor.Encrypt(state)
	if err != nil {
		return err
	}
	if len(param) > maxStateParamLen {
		param, err = h.callbackStore.Save(state)
		if err != nil {
			return err
		}
	}

	callback := fmt.Sprintf("%s/v1/callback/%s?state=%s&successUrl=%s&errorUrl=%s",
		h.baseURL, providerName,
		url.QueryEscape(param),
		url.QueryEscape(req.SuccessURL),
		url.QueryEscape(req.ErrorURL),
	)

	req.SuccessURL = callback + "&result=success"
	req.ErrorURL = callback + "&result=error"
	return nil
}

// resolveState turns the state query parameter back into a callback state.
// Short-key store entries are 36 byte UUIDs, anything longer is an
// encrypted blob.
func (h *PaymentHandler) resolveState(param string) (*provider.CallbackState, error) {
	if len(param) == 36 {
		return h.callbackStore.Load(param)
	}
	return h.encryptor.Decrypt(param)
}

// HandleCallback completes a 3D secure payment after the bank redirects the
// cardholder back
func (h *PaymentHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	providerName := chi.URLParam(r, "provider")
	if providerName == "" {
		response.Error(w, http.StatusBadRequest, "Provider parameter is required", nil)
		return
	}

	if err := r.ParseForm(); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid callback data", err)
		return
	}

	stateParam := r.URL.Query().Get("state")
	if stateParam == "" {
		response.Error(w, http.StatusBadRequest, "Missing state", nil)
		return
	}

	state, err := h.resolveState(stateParam)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid or expired state", err)
		return
	}

	callbackData := make(map[string]string)
	for key, values := range r.Form {
		if len(values) > 0 {
			callbackData[key] = values[0]
		}
	}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			callbackData[key] = values[0]
		}
	}

	resp, err := h.paymentService.Complete3DPayment(ctx, state, callbackData)
	if err != nil {
		h.redirectCallbackError(w, r, err)
		return
	}

	if resp.Success {
		h.redirectCallbackSuccess(w, r, resp)
	} else {
		h.redirectCallbackFailure(w, r, resp)
	}
}

func (h *PaymentHandler) redirectCallbackSuccess(w http.ResponseWriter, r *http.Request, resp *provider.PaymentResponse) {
	if successURL := r.URL.Query().Get("successUrl"); successURL != "" {
		http.Redirect(w, r, successURL+"?"+encodeRedirectParams(map[string]string{
			"paymentId":     resp.PaymentID,
			"orderId":       resp.OrderID,
			"status":        string(resp.Status),
			"transactionId": resp.TransactionID,
			"amount":        fmt.Sprintf("%d", resp.Amount),
			"currency":      resp.Currency,
		}), http.StatusFound)
		return
	}

	response.Success(w, http.StatusOK, "Payment completed successfully", resp)
}

func (h *PaymentHandler) redirectCallbackFailure(w http.ResponseWriter, r *http.Request, resp *provider.PaymentResponse) {
	if errorURL := r.URL.Query().Get("errorUrl"); errorURL != "" {
		http.Redirect(w, r, errorURL+"?"+encodeRedirectParams(map[string]string{
			"paymentId": resp.PaymentID,
			"orderId":   resp.OrderID,
			"status":    string(resp.Status),
			"error":     resp.Message,
			"errorCode": resp.ErrorCode,
		}), http.StatusFound)
		return
	}

	response.Success(w, http.StatusOK, "Payment failed", resp)
}

func (h *PaymentHandler) redirectCallbackError(w http.ResponseWriter, r *http.Request, err error) {
	if errorURL := r.URL.Query().Get("errorUrl"); errorURL != "" {
		http.Redirect(w, r, errorURL+"?"+encodeRedirectParams(map[string]string{
			"error":     err.Error(),
			"errorCode": "CALLBACK_ERROR",
		}), http.StatusFound)
		return
	}

	status, message := errorStatus(err)
	response.Error(w, status, message, err)
}

// GetPaymentStatus handles payment status requests
func (h *PaymentHandler) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	providerName := chi.URLParam(r, "provider")
	paymentID := chi.URLParam(r, "paymentID")
	if paymentID == "" {
		response.Error(w, http.StatusBadRequest, "Missing payment ID", nil)
		return
	}

	resp, err := h.paymentService.GetPaymentStatus(ctx,
		middle.GetTenantIDFromContext(r.Context()), providerName, environmentFromQuery(r),
		provider.GetPaymentStatusRequest{PaymentID: paymentID},
	)
	if err != nil {
		status, message := errorStatus(err)
		response.Error(w, status, message, err)
		return
	}

	response.Success(w, http.StatusOK, "Payment status retrieved", resp)
}

// CancelPayment handles payment void requests
func (h *PaymentHandler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	providerName := chi.URLParam(r, "provider")
	paymentID := chi.URLParam(r, "paymentID")
	if paymentID == "" {
		response.Error(w, http.StatusBadRequest, "Missing payment ID", nil)
		return
	}

	var req provider.CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	req.PaymentID = paymentID

	if fields := h.validator.ValidateStruct(req); fields != nil {
		response.Error(w, http.StatusBadRequest, "Validation error", fieldErrors(fields))
		return
	}

	resp, err := h.paymentService.CancelPayment(ctx,
		middle.GetTenantIDFromContext(r.Context()), providerName, environmentFromQuery(r), req,
	)
	if err != nil {
		status, message := errorStatus(err)
		response.Error(w, status, message, err)
		return
	}

	response.Success(w, http.StatusOK, "Payment cancelled", resp)
}

// RefundPayment handles payment refund requests
func (h *PaymentHandler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	providerName := chi.URLParam(r, "provider")

	var req provider.RefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	req.ClientIP = middle.GetClientIP(r)

	if fields := h.validator.ValidateStruct(req); fields != nil {
		response.Error(w, http.StatusBadRequest, "Validation error", fieldErrors(fields))
		return
	}

	resp, err := h.paymentService.RefundPayment(ctx,
		middle.GetTenantIDFromContext(r.Context()), providerName, environmentFromQuery(r), req,
	)
	if err != nil {
		status, message := errorStatus(err)
		response.Error(w, status, message, err)
		return
	}

	response.Success(w, http.StatusOK, "Payment refunded", resp)
}

// HandleWebhook receives provider webhook notifications
func (h *PaymentHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	providerName := chi.URLParam(r, "provider")
	if providerName == "" {
		response.Error(w, http.StatusBadRequest, "Provider parameter is required", nil)
		return
	}

	var webhookData map[string]string
	if strings.Contains(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid form data", err)
			return
		}
		webhookData = make(map[string]string)
		for key, values := range r.Form {
			if len(values) > 0 {
				webhookData[key] = values[0]
			}
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&webhookData); err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid JSON webhook data", err)
			return
		}
	}

	headers := make(map[string]string)
	for key, values := range r.Header {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	tenantID := middle.GetTenantIDFromContext(r.Context())
	isValid, paymentData, err := h.paymentService.ValidateWebhook(ctx,
		tenantID, providerName, environmentFromQuery(r), webhookData, headers,
	)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Webhook validation failed", err)
		return
	}
	if !isValid {
		response.Error(w, http.StatusBadRequest, "Invalid webhook signature", nil)
		return
	}

	logger.Info("Webhook received", logger.LogContext{
		Provider: providerName,
		Fields: map[string]any{
			"payment_id": paymentData["paymentId"],
			"status":     paymentData["status"],
		},
	})

	response.Success(w, http.StatusOK, "Webhook received", map[string]string{
		"status":    "accepted",
		"paymentId": paymentData["paymentId"],
	})
}

func environmentFromQuery(r *http.Request) string {
	if r.URL.Query().Get("environment") == "production" {
		return "production"
	}
	return "sandbox"
}

// errorStatus maps provider errors to HTTP status codes
func errorStatus(err error) (int, string) {
	var missing *provider.MissingFieldError
	if errors.As(err, &missing) {
		return http.StatusBadRequest, "Missing required field"
	}

	var unsupported *provider.UnsupportedCurrencyError
	if errors.As(err, &unsupported) {
		return http.StatusUnprocessableEntity, "Unsupported currency"
	}

	var transport *provider.TransportError
	if errors.As(err, &transport) {
		return http.StatusBadGateway, "Payment gateway unreachable"
	}

	return http.StatusInternalServerError, "Payment failed"
}

// fieldErrors flattens a validation error map into a deterministic error
func fieldErrors(fields map[string]string) error {
	parts := make([]string, 0, len(fields))
	for name, msg := range fields {
		parts = append(parts, fmt.Sprintf("%s %s", name, msg))
	}
	sort.Strings(parts)
	return errors.New(strings.Join(parts, "; "))
}

func encodeRedirectParams(params map[string]string) string {
	values := url.Values{}
	for k, v := range params {
		if v != "" {
			values.Set(k, v)
		}
	}
	return values.Encode()
}
