package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// PaymentLog represents a structured payment log entry
type PaymentLog struct {
	Timestamp   time.Time   `json:"timestamp"`
	TenantID    string      `json:"tenant_id,omitempty"`
	Provider    string      `json:"provider"`
	Method      string      `json:"method"`
	Endpoint    string      `json:"endpoint,omitempty"`
	RequestID   string      `json:"request_id"`
	ClientIP    string      `json:"client_ip,omitempty"`
	Flow        string      `json:"flow,omitempty"` // "direct" or "3d"
	Request     RequestLog  `json:"request"`
	Response    ResponseLog `json:"response"`
	PaymentInfo PaymentInfo `json:"payment_info,omitempty"`
	Error       ErrorInfo   `json:"error,omitempty"`
}

// RequestLog represents request details
type RequestLog struct {
	Body string `json:"body,omitempty"`
}

// ResponseLog represents response details
type ResponseLog struct {
	StatusCode       int    `json:"status_code"`
	Body             string `json:"body,omitempty"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
}

// PaymentInfo represents payment-specific information. Amount is in minor
// currency units.
type PaymentInfo struct {
	OrderID   string `json:"order_id,omitempty"`
	PaymentID string `json:"payment_id,omitempty"`
	Amount    int64  `json:"amount,omitempty"`
	Currency  string `json:"currency,omitempty"`
	Status    string `json:"status,omitempty"`
	Use3D     bool   `json:"use_3d,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Logger handles OpenSearch logging operations
type Logger struct {
	client *Client
}

// NewLogger creates a new OpenSearch logger
func NewLogger(client *Client) *Logger {
	return &Logger{
		client: client,
	}
}

// IsEnabled reports whether the underlying client can reach OpenSearch.
func (l *Logger) IsEnabled() bool {
	return l != nil && l.client != nil && l.client.IsEnabled()
}

// LogPaymentRequest logs a payment request to OpenSearch
func (l *Logger) LogPaymentRequest(ctx context.Context, log PaymentLog) error {
	if !l.client.IsEnabled() {
		return nil
	}

	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now()
	}
	if log.RequestID == "" {
		log.RequestID = uuid.New().String()
	}

	indexName := l.client.GetLogIndexName(log.TenantID, log.Provider)

	logJSON, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("failed to marshal log: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index: indexName,
		Body:  bytes.NewReader(logJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return fmt.Errorf("failed to index log: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("opensearch error: %s", res.String())
	}

	return nil
}

// SearchLogs searches for payment logs based on criteria
func (l *Logger) SearchLogs(ctx context.Context, tenantID, provider string, query map[string]any) ([]PaymentLog, error) {
	if !l.client.IsEnabled() {
		return nil, fmt.Errorf("logging is disabled")
	}

	indexName := l.client.GetLogIndexName(tenantID, provider)

	searchQuery := map[string]any{
		"query": query,
		"sort": []map[string]any{
			{"timestamp": map[string]string{"order": "desc"}},
		},
		"size": 100,
	}

	queryJSON, err := json.Marshal(searchQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req := opensearchapi.SearchRequest{
		Index: []string{indexName},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("opensearch search error: %s", res.String())
	}

	var searchResult struct {
		Hits struct {
			Hits []struct {
				Source PaymentLog `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&searchResult); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}

	logs := make([]PaymentLog, len(searchResult.Hits.Hits))
	for i, hit := range searchResult.Hits.Hits {
		logs[i] = hit.Source
	}

	return logs, nil
}

// GetOrderLogs retrieves logs for a specific order id
func (l *Logger) GetOrderLogs(ctx context.Context, tenantID, provider, orderID string) ([]PaymentLog, error) {
	query := map[string]any{
		"match": map[string]any{
			"payment_info.order_id": orderID,
		},
	}

	return l.SearchLogs(ctx, tenantID, provider, query)
}

// GetRecentErrorLogs retrieves recent error logs for a provider
func (l *Logger) GetRecentErrorLogs(ctx context.Context, tenantID, provider string, hours int) ([]PaymentLog, error) {
	query := map[string]any{
		"bool": map[string]any{
			"must": []map[string]any{
				{
					"range": map[string]any{
						"timestamp": map[string]any{
							"gte": fmt.Sprintf("now-%dh", hours),
						},
					},
				},
				{
					"exists": map[string]any{
						"field": "error.code",
					},
				},
			},
		},
	}

	return l.SearchLogs(ctx, tenantID, provider, query)
}

// LogSystemEvent logs a system event to OpenSearch
func (l *Logger) LogSystemEvent(ctx context.Context, log any) error {
	if !l.client.IsEnabled() {
		return nil
	}

	logJSON, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("failed to marshal system log: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index: l.client.GetSystemIndexName(),
		Body:  bytes.NewReader(logJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return fmt.Errorf("failed to index system log: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("opensearch system log error: %s", res.String())
	}

	return nil
}

// sensitive request fields that must never reach a log index
var sensitiveFields = []string{
	"cardNumber", "card_number", "cardnumber", "cvv", "cvc", "cardcvv2",
	"cardHolderName", "card_holder_name", "password", "secretKey",
	"secret_key", "secureKey", "token", "authorization", "x-api-key",
}

// SanitizeForLog removes sensitive information from data before logging
func SanitizeForLog(data string) string {
	result := data
	for _, field := range sensitiveFields {
		patterns := []string{
			fmt.Sprintf(`"%s"\s*:\s*"[^"]*"`, field), // JSON field
			fmt.Sprintf(`%s=[^&\s]+`, field),         // form parameter
			fmt.Sprintf(`<%s>[^<]*</%s>`, field, field),
		}

		for _, pattern := range patterns {
			re := regexp.MustCompile(pattern)
			result = re.ReplaceAllString(result, fmt.Sprintf(`"%s":"***REDACTED***"`, field))
		}
	}

	return result
}
