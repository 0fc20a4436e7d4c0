package opensearch

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/mstgnz/gvpay/infra/config"
	"github.com/stretchr/testify/assert"
)

func testClient() *Client {
	return &Client{
		config: &config.AppConfig{EnableLogging: true},
	}
}

func TestGetLogIndexName(t *testing.T) {
	c := testClient()

	assert.Equal(t, "gvpay-garanti-logs", c.GetLogIndexName("", "garanti"))
	assert.Equal(t, "gvpay-42-garanti-logs", c.GetLogIndexName("42", "garanti"))
	assert.Equal(t, "gvpay-system-logs", c.GetSystemIndexName())
}

func TestIsEnabled(t *testing.T) {
	c := testClient()
	assert.True(t, c.IsEnabled())

	c.config.EnableLogging = false
	assert.False(t, c.IsEnabled())
}

func TestPaymentLogSerialization(t *testing.T) {
	log := PaymentLog{
		Timestamp: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		TenantID:  "1",
		Provider:  "garanti",
		Method:    "CreatePayment",
		Flow:      "direct",
		PaymentInfo: PaymentInfo{
			OrderID:  "ORD1",
			Amount:   1000,
			Currency: "TRY",
			Status:   "successful",
		},
	}

	data, err := json.Marshal(log)
	assert.NoError(t, err)
	assert.Contains(t, string(data), `"amount":1000`)
	assert.Contains(t, string(data), `"order_id":"ORD1"`)
	assert.Contains(t, string(data), `"flow":"direct"`)
}

func TestSanitizeForLog(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		leaked  string
	}{
		{
			name:   "json card number",
			input:  `{"cardNumber":"4242424242424242","amount":1000}`,
			leaked: "4242424242424242",
		},
		{
			name:   "form cvv",
			input:  "cardcvv2=123&orderid=ORD1",
			leaked: "cardcvv2=123",
		},
		{
			name:   "xml card number",
			input:  "<cardnumber>4242424242424242</cardnumber>",
			leaked: "4242424242424242",
		},
		{
			name:   "json password",
			input:  `{"password":"s3cret"}`,
			leaked: "s3cret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeForLog(tt.input)
			assert.NotContains(t, result, tt.leaked)
			assert.Contains(t, result, "***REDACTED***")
		})
	}
}

func TestSanitizeForLogPreservesSafeData(t *testing.T) {
	input := `{"orderId":"ORD1","amount":1000}`
	assert.Equal(t, input, SanitizeForLog(input))
}
