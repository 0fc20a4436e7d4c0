package middle

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mstgnz/gvpay/infra/opensearch"
)

// responseWriter wraps http.ResponseWriter to capture response data
type responseWriter struct {
	http.ResponseWriter
	body       *bytes.Buffer
	statusCode int
	startTime  time.Time
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		body:           &bytes.Buffer{},
		statusCode:     http.StatusOK,
		startTime:      time.Now(),
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// PaymentLoggingMiddleware indexes payment API traffic in OpenSearch.
// Bodies are sanitized before indexing so card data never leaves the
// process.
func PaymentLoggingMiddleware(logger *opensearch.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isPaymentEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			requestID := uuid.New().String()
			r.Header.Set("X-Request-ID", requestID)

			provider := extractProviderFromURL(r.URL.Path)
			if provider == "" {
				provider = "garanti"
			}

			var requestBody []byte
			if r.Body != nil {
				requestBody, _ = io.ReadAll(r.Body)
				r.Body = io.NopCloser(bytes.NewBuffer(requestBody))
			}

			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)

			paymentLog := opensearch.PaymentLog{
				Timestamp: rw.startTime,
				TenantID:  strconv.Itoa(GetTenantIDFromContext(r.Context())),
				Provider:  provider,
				Method:    r.Method,
				Endpoint:  r.URL.Path,
				RequestID: requestID,
				ClientIP:  GetClientIP(r),
				Request: opensearch.RequestLog{
					Body: opensearch.SanitizeForLog(string(requestBody)),
				},
				Response: opensearch.ResponseLog{
					StatusCode:       rw.statusCode,
					Body:             opensearch.SanitizeForLog(rw.body.String()),
					ProcessingTimeMs: time.Since(rw.startTime).Milliseconds(),
				},
			}

			if info := extractPaymentInfo(requestBody, rw.body.Bytes()); info != nil {
				paymentLog.PaymentInfo = *info
			}
			if rw.statusCode >= 400 {
				if errInfo := extractErrorInfo(rw.body.Bytes()); errInfo != nil {
					paymentLog.Error = *errInfo
				}
			}

			// index asynchronously so a slow log sink never delays the response
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = logger.LogPaymentRequest(ctx, paymentLog)
			}()
		})
	}
}

// isPaymentEndpoint checks if the URL path is a payment-related endpoint
func isPaymentEndpoint(path string) bool {
	paymentPaths := []string{
		"/v1/payments",
		"/v1/callback",
		"/v1/webhooks",
	}

	for _, paymentPath := range paymentPaths {
		if strings.HasPrefix(path, paymentPath) {
			return true
		}
	}

	return false
}

// extractProviderFromURL extracts the provider name from paths like
// /v1/payments/{provider}
func extractProviderFromURL(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")

	if len(segments) >= 3 {
		switch segments[1] {
		case "payments", "callback", "webhooks":
			return segments[2]
		}
	}

	return ""
}

// extractPaymentInfo pulls payment attributes from the API request and
// response bodies. Amounts arrive as JSON numbers in minor units.
func extractPaymentInfo(requestBody, responseBody []byte) *opensearch.PaymentInfo {
	info := &opensearch.PaymentInfo{}

	if len(requestBody) > 0 {
		var requestData map[string]any
		if err := json.Unmarshal(requestBody, &requestData); err == nil {
			if amount, ok := requestData["amount"].(float64); ok {
				info.Amount = int64(amount)
			}
			if currency, ok := requestData["currency"].(string); ok {
				info.Currency = currency
			}
			if orderID, ok := requestData["orderId"].(string); ok {
				info.OrderID = orderID
			}
			if use3d, ok := requestData["use3D"].(bool); ok {
				info.Use3D = use3d
			}
		}
	}

	if len(responseBody) > 0 {
		var responseData map[string]any
		if err := json.Unmarshal(responseBody, &responseData); err == nil {
			if data, ok := responseData["data"].(map[string]any); ok {
				if paymentID, ok := data["paymentId"].(string); ok {
					info.PaymentID = paymentID
				}
				if status, ok := data["status"].(string); ok {
					info.Status = status
				}
			}
		}
	}

	if info.PaymentID == "" && info.OrderID == "" && info.Amount == 0 {
		return nil
	}
	return info
}

// extractErrorInfo extracts error information from a response body
func extractErrorInfo(responseBody []byte) *opensearch.ErrorInfo {
	if len(responseBody) == 0 {
		return nil
	}

	var responseData map[string]any
	if err := json.Unmarshal(responseBody, &responseData); err != nil {
		return nil
	}

	errInfo := &opensearch.ErrorInfo{}

	if msg, ok := responseData["error"].(string); ok {
		errInfo.Message = msg
	} else if msg, ok := responseData["message"].(string); ok {
		errInfo.Message = msg
	}

	if code, ok := responseData["errorCode"].(string); ok {
		errInfo.Code = code
	} else if code, ok := responseData["code"].(string); ok {
		errInfo.Code = code
	}

	if errInfo.Code == "" && errInfo.Message == "" {
		return nil
	}
	return errInfo
}
