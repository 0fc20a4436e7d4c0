package provider

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// PaymentLogger records every provider request and response for audit
type PaymentLogger interface {
	LogRequest(tenantID int, providerName, method, endpoint string, request any) (int64, error)
	LogResponse(logID int64, response any, success bool, errorMsg string) error
	LogError(tenantID int, providerName, method string, err error) error
}

// DBPaymentLogger persists payment logs in SQLite. Card numbers are masked
// before the request ever reaches the logger, so full payloads are safe to
// store.
type DBPaymentLogger struct {
	db *sql.DB
}

// NewDBPaymentLogger creates the logger and its table if missing
func NewDBPaymentLogger(db *sql.DB) (*DBPaymentLogger, error) {
	schema := `CREATE TABLE IF NOT EXISTS payment_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tenant_id INTEGER NOT NULL,
		provider TEXT NOT NULL,
		method TEXT NOT NULL,
		endpoint TEXT,
		request TEXT,
		response TEXT,
		success INTEGER,
		error_message TEXT,
		requested_at DATETIME NOT NULL,
		responded_at DATETIME
	)`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create payment_logs table: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_payment_logs_tenant ON payment_logs(tenant_id, provider)`); err != nil {
		return nil, fmt.Errorf("failed to create payment_logs index: %w", err)
	}
	return &DBPaymentLogger{db: db}, nil
}

// LogRequest records an outgoing provider call and returns the log row id
func (l *DBPaymentLogger) LogRequest(tenantID int, providerName, method, endpoint string, request any) (int64, error) {
	data, err := json.Marshal(request)
	if err != nil {
		data = []byte(fmt.Sprintf("%q", fmt.Sprint(request)))
	}

	result, err := l.db.Exec(
		`INSERT INTO payment_logs (tenant_id, provider, method, endpoint, request, requested_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		tenantID, providerName, method, endpoint, string(data), time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert payment log: %w", err)
	}
	return result.LastInsertId()
}

// LogResponse attaches the provider response to an existing log row
func (l *DBPaymentLogger) LogResponse(logID int64, response any, success bool, errorMsg string) error {
	data, err := json.Marshal(response)
	if err != nil {
		data = []byte(fmt.Sprintf("%q", fmt.Sprint(response)))
	}

	_, err = l.db.Exec(
		`UPDATE payment_logs SET response = ?, success = ?, error_message = ?, responded_at = ? WHERE id = ?`,
		string(data), boolToInt(success), errorMsg, time.Now().UTC(), logID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment log %d: %w", logID, err)
	}
	return nil
}

// LogError records a failure that happened before any response arrived
func (l *DBPaymentLogger) LogError(tenantID int, providerName, method string, logErr error) error {
	_, err := l.db.Exec(
		`INSERT INTO payment_logs (tenant_id, provider, method, success, error_message, requested_at)
		 VALUES (?, ?, ?, 0, ?, ?)`,
		tenantID, providerName, method, logErr.Error(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment error log: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// MaskCardNumber keeps the first six and last four digits of a card number
func MaskCardNumber(number string) string {
	if len(number) < 11 {
		return "****"
	}
	masked := number[:6]
	for i := 6; i < len(number)-4; i++ {
		masked += "*"
	}
	return masked + number[len(number)-4:]
}
