// Package garanti implements the Garanti Virtual POS (GVP) payment gateway.
//
// GVP has two transaction flows. The direct flow is a server-to-server
// exchange carrying an XML document whose root element is GVPSRequest; the
// 3D secure flow redirects the cardholder to the bank with a form-encoded
// initiation payload. Both flows authenticate with SHA-1 hash chains over
// fixed, delimiter-free field concatenations, so field order and terminal
// id padding must match the gateway byte for byte.
package garanti

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/mstgnz/gvpay/provider"
)

const (
	// API Endpoints
	apiSandboxURL    = "https://sanalposprovtest.garanti.com.tr/VPServlet"
	apiProductionURL = "https://sanalposprov.garanti.com.tr/VPServlet"

	// 3D Secure Engine
	api3DSandboxURL    = "https://sanalposprovtest.garanti.com.tr/servlet/gt3dengine"
	api3DProductionURL = "https://sanalposprov.garanti.com.tr/servlet/gt3dengine"

	// Transaction Types
	txnTypeSale    = "sales"
	txnTypePreAuth = "preauth"
	txnTypeVoid    = "void"
	txnTypeRefund  = "refund"

	// Terminal user ids the gateway expects per operation class
	provisioningUserID = "PROVAUT"
	refundUserID       = "PROVRFN"

	// Default version
	apiVersion = "v0.01"

	// Gateway approval code
	responseCodeApproved = "00"
)

// defaultCurrencyCodes maps textual currency codes to the gateway's numeric
// ISO 4217 codes. Injected into each provider instance at Initialize so
// tests can substitute the table.
var defaultCurrencyCodes = map[string]string{
	"TRY": "949",
	"YTL": "949",
	"TRL": "949",
	"TL":  "949",
	"USD": "840",
	"EUR": "978",
	"GBP": "826",
	"JPY": "392",
}

// GarantiProvider implements the provider.PaymentProvider interface for
// Garanti Virtual POS
type GarantiProvider struct {
	merchantID    string
	terminalID    string
	username      string
	password      string
	secureKey     string
	lang          string
	directURL     string
	threeDURL     string
	isProduction  bool
	currencyCodes map[string]string
	httpClient    *provider.ProviderHTTPClient
}

// NewProvider creates a new Garanti payment provider
func NewProvider() provider.PaymentProvider {
	return &GarantiProvider{}
}

// GetRequiredConfig returns the configuration fields required for Garanti
func (p *GarantiProvider) GetRequiredConfig(environment string) []provider.ConfigField {
	return []provider.ConfigField{
		{
			Key:         "merchantId",
			Required:    true,
			Type:        "string",
			Description: "Garanti Merchant ID (provided by Garanti)",
			Example:     "7000679",
			MinLength:   1,
			MaxLength:   20,
		},
		{
			Key:         "terminalId",
			Required:    true,
			Type:        "string",
			Description: "Garanti Terminal ID, at most 9 digits (provided by Garanti)",
			Example:     "30691297",
			MinLength:   1,
			MaxLength:   9,
		},
		{
			Key:         "username",
			Required:    true,
			Type:        "string",
			Description: "Garanti API username (PROVAUT user)",
			Example:     "PROVAUT",
			MinLength:   1,
			MaxLength:   30,
		},
		{
			Key:         "password",
			Required:    true,
			Type:        "string",
			Description: "Garanti terminal provisioning password",
			Example:     "123qweASD/",
			MinLength:   1,
			MaxLength:   50,
		},
		{
			Key:         "secureKey",
			Required:    true,
			Type:        "string",
			Description: "Garanti 3D secure store key (required for 3D payments)",
			Example:     "12345678",
			MinLength:   1,
			MaxLength:   50,
		},
		{
			Key:         "environment",
			Required:    true,
			Type:        "string",
			Description: "Environment setting (sandbox or production)",
			Example:     "sandbox",
			Pattern:     "^(sandbox|production)$",
		},
	}
}

// ValidateConfig validates the provided configuration against Garanti requirements
func (p *GarantiProvider) ValidateConfig(config map[string]string) error {
	requiredFields := p.GetRequiredConfig(config["environment"])
	return provider.ValidateConfigFields("garanti", config, requiredFields)
}

// Initialize sets up the Garanti payment provider with merchant credentials
func (p *GarantiProvider) Initialize(conf map[string]string) error {
	p.merchantID = conf["merchantId"]
	p.terminalID = conf["terminalId"]
	p.username = conf["username"]
	p.password = conf["password"]
	p.secureKey = conf["secureKey"]

	if p.merchantID == "" || p.terminalID == "" || p.username == "" || p.password == "" {
		return errors.New("garanti: merchantId, terminalId, username and password are required")
	}
	if len(p.terminalID) > 9 {
		return fmt.Errorf("garanti: terminalId must be at most 9 characters, got %d", len(p.terminalID))
	}

	p.lang = conf["lang"]
	if p.lang == "" {
		p.lang = "tr"
	}

	p.isProduction = conf["environment"] == "production"
	p.directURL = apiSandboxURL
	p.threeDURL = api3DSandboxURL
	if p.isProduction {
		p.directURL = apiProductionURL
		p.threeDURL = api3DProductionURL
	}

	p.currencyCodes = defaultCurrencyCodes

	p.httpClient = provider.NewProviderHTTPClient(provider.CreateHTTPClientConfig(p.directURL, p.isProduction))
	p.httpClient.SetProvider("garanti")

	return nil
}

func (p *GarantiProvider) isTest() bool {
	return !p.isProduction
}

// modeString renders the direct flow Mode element. The 3D flow renders its
// mode field from the boolean test flag instead; see build3DParams.
func (p *GarantiProvider) modeString() string {
	if p.isProduction {
		return "PROD"
	}
	return "TEST"
}

// CreatePayment makes a non-3D payment request. PreAuth on the request
// selects a pre-authorization instead of a sale.
func (p *GarantiProvider) CreatePayment(ctx context.Context, request provider.PaymentRequest) (*provider.PaymentResponse, error) {
	txnType := txnTypeSale
	if request.PreAuth {
		txnType = txnTypePreAuth
	}

	tree, err := p.buildDirectRequest(request, txnType)
	if err != nil {
		return nil, err
	}

	return p.sendDirectRequest(ctx, tree, request.OrderID, request.Amount, request.Currency)
}

// Create3DPayment starts a 3D secure payment. The returned response carries
// an auto-submitting HTML form that posts the cardholder to the bank's 3D
// engine, plus the engine URL and the form-urlencoded initiation body for
// integrators that render their own redirect; no server-to-server call
// happens at this stage.
func (p *GarantiProvider) Create3DPayment(_ context.Context, request provider.PaymentRequest) (*provider.PaymentResponse, error) {
	if request.SuccessURL == "" {
		return nil, &provider.MissingFieldError{Field: "successUrl"}
	}
	if request.ErrorURL == "" {
		return nil, &provider.MissingFieldError{Field: "errorUrl"}
	}

	fields, err := p.build3DParams(request, time.Now())
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &provider.PaymentResponse{
		Success:          true,
		Status:           provider.StatusPending,
		Message:          "redirect required for 3D secure authentication",
		OrderID:          request.OrderID,
		Amount:           request.Amount,
		Currency:         request.Currency,
		RedirectURL:      p.threeDURL,
		HTML:             p.autoSubmitForm(fields),
		SystemTime:       &now,
		ProviderResponse: encodeForm(fields),
	}, nil
}

// Complete3DPayment evaluates the bank's callback after cardholder
// authentication. mdstatus 1-4 means authentication passed; the provision
// result rides in procreturncode.
func (p *GarantiProvider) Complete3DPayment(_ context.Context, callbackState *provider.CallbackState, data map[string]string) (*provider.PaymentResponse, error) {
	if callbackState == nil {
		return nil, errors.New("garanti: callback state is required")
	}

	mdStatus := data["mdstatus"]
	procCode := data["procreturncode"]
	authenticated := mdStatus == "1" || mdStatus == "2" || mdStatus == "3" || mdStatus == "4"
	success := authenticated && procCode == responseCodeApproved

	now := time.Now()
	response := &provider.PaymentResponse{
		Success:          success,
		OrderID:          callbackState.OrderID,
		PaymentID:        data["oid"],
		TransactionID:    data["transid"],
		Amount:           callbackState.Amount,
		Currency:         callbackState.Currency,
		SystemTime:       &now,
		ProviderResponse: data,
	}

	switch {
	case success:
		response.Status = provider.StatusSuccessful
		response.Message = "3D payment completed successfully"
	case !authenticated:
		response.Status = provider.StatusFailed
		response.ErrorCode = mdStatus
		response.Message = fmt.Sprintf("3D authentication failed (mdstatus=%s)", mdStatus)
	default:
		response.Status = provider.StatusFailed
		response.ErrorCode = procCode
		if msg := data["errmsg"]; msg != "" {
			response.Message = msg
		} else {
			response.Message = "payment was not approved"
		}
	}

	return response, nil
}

// GetPaymentStatus retrieves the current status of a payment
func (p *GarantiProvider) GetPaymentStatus(_ context.Context, _ provider.GetPaymentStatusRequest) (*provider.PaymentResponse, error) {
	// GVP has no status inquiry on the provisioning servlet; inquiries go
	// through the separate reporting interface which needs its own
	// credentials.
	return nil, errors.New("garanti: payment status inquiry is not supported")
}

// CancelPayment voids a same-day payment before end-of-day settlement
func (p *GarantiProvider) CancelPayment(ctx context.Context, request provider.CancelRequest) (*provider.PaymentResponse, error) {
	currency := request.Currency
	if currency == "" {
		currency = "TRY"
	}

	tree, err := p.buildManagementRequest(request.PaymentID, request.Amount, currency, txnTypeVoid, "")
	if err != nil {
		return nil, err
	}

	return p.sendDirectRequest(ctx, tree, request.PaymentID, request.Amount, currency)
}

// RefundPayment refunds a settled payment, fully or partially
func (p *GarantiProvider) RefundPayment(ctx context.Context, request provider.RefundRequest) (*provider.RefundResponse, error) {
	currency := request.Currency
	if currency == "" {
		currency = "TRY"
	}

	tree, err := p.buildManagementRequest(request.PaymentID, request.RefundAmount, currency, txnTypeRefund, request.ClientIP)
	if err != nil {
		return nil, err
	}

	resp, err := p.sendDirectRequest(ctx, tree, request.PaymentID, request.RefundAmount, currency)
	if err != nil {
		return nil, err
	}

	return &provider.RefundResponse{
		Success:      resp.Success,
		RefundID:     resp.TransactionID,
		PaymentID:    request.PaymentID,
		Status:       string(resp.Status),
		RefundAmount: request.RefundAmount,
		Message:      resp.Message,
		ErrorCode:    resp.ErrorCode,
		SystemTime:   resp.SystemTime,
		RawResponse:  resp.ProviderResponse,
	}, nil
}

// ValidateWebhook validates an incoming webhook notification. GVP does not
// sign webhook payloads; callbacks are verified through Complete3DPayment.
func (p *GarantiProvider) ValidateWebhook(_ context.Context, data, _ map[string]string) (bool, map[string]string, error) {
	return true, data, nil
}

// sendDirectRequest serializes the tree, posts it and interprets the
// GVPSResponse document. The gateway requires form-urlencoded as the
// content type even though the body is XML.
func (p *GarantiProvider) sendDirectRequest(ctx context.Context, tree *Node, orderID string, amount int64, currency string) (*provider.PaymentResponse, error) {
	body, err := tree.MarshalXML("GVPSRequest")
	if err != nil {
		return nil, fmt.Errorf("garanti: failed to serialize request: %w", err)
	}

	respBody, _, err := p.httpClient.SendFormEncodedBody(ctx, p.directURL, body)
	if err != nil {
		return nil, err
	}

	return p.parseDirectResponse(respBody, orderID, amount, currency)
}

// gvpsResponse mirrors the fields of the gateway's GVPSResponse document
// that matter for interpreting a provisioning result
type gvpsResponse struct {
	XMLName xml.Name `xml:"GVPSResponse"`
	Order   struct {
		OrderID string `xml:"OrderID"`
		GroupID string `xml:"GroupID"`
	} `xml:"Order"`
	Transaction struct {
		Response struct {
			Source     string `xml:"Source"`
			Code       string `xml:"Code"`
			ReasonCode string `xml:"ReasonCode"`
			Message    string `xml:"Message"`
			ErrorMsg   string `xml:"ErrorMsg"`
			SysErrMsg  string `xml:"SysErrMsg"`
		} `xml:"Response"`
		RetrefNum        string `xml:"RetrefNum"`
		AuthCode         string `xml:"AuthCode"`
		ProvDate         string `xml:"ProvDate"`
		SequenceNum      string `xml:"SequenceNum"`
		CardNumberMasked string `xml:"CardNumberMasked"`
	} `xml:"Transaction"`
}

func (p *GarantiProvider) parseDirectResponse(body []byte, orderID string, amount int64, currency string) (*provider.PaymentResponse, error) {
	var parsed gvpsResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, &provider.TransportError{
			Provider: "garanti",
			Endpoint: p.directURL,
			Err:      fmt.Errorf("malformed gateway response: %w", err),
		}
	}

	success := parsed.Transaction.Response.Code == responseCodeApproved

	now := time.Now()
	response := &provider.PaymentResponse{
		Success:          success,
		OrderID:          orderID,
		PaymentID:        parsed.Order.OrderID,
		TransactionID:    parsed.Transaction.RetrefNum,
		Amount:           amount,
		Currency:         currency,
		SystemTime:       &now,
		ProviderResponse: string(body),
	}
	if response.PaymentID == "" {
		response.PaymentID = orderID
	}

	if success {
		response.Status = provider.StatusSuccessful
		response.Message = "payment approved"
		if parsed.Transaction.Response.Message != "" {
			response.Message = parsed.Transaction.Response.Message
		}
	} else {
		response.Status = provider.StatusFailed
		response.ErrorCode = parsed.Transaction.Response.ReasonCode
		if response.ErrorCode == "" {
			response.ErrorCode = parsed.Transaction.Response.Code
		}
		switch {
		case parsed.Transaction.Response.ErrorMsg != "":
			response.Message = parsed.Transaction.Response.ErrorMsg
		case parsed.Transaction.Response.SysErrMsg != "":
			response.Message = parsed.Transaction.Response.SysErrMsg
		default:
			response.Message = "payment was declined"
		}
	}

	return response, nil
}

// autoSubmitForm renders a self-posting HTML form carrying the 3D
// initiation fields to the bank's 3D engine
func (p *GarantiProvider) autoSubmitForm(fields []formField) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><meta charset=\"utf-8\"></head><body>")
	b.WriteString(`<form id="gvp3d" method="POST" action="` + html.EscapeString(p.threeDURL) + `">`)
	for _, f := range fields {
		b.WriteString(`<input type="hidden" name="` + html.EscapeString(f.key) + `" value="` + html.EscapeString(f.value) + `">`)
	}
	b.WriteString(`</form><script>document.getElementById("gvp3d").submit();</script></body></html>`)
	return b.String()
}
