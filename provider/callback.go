package provider

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// CallbackState carries the payment context across a 3D secure redirect.
// The gateway only echoes back what the bank form posts, so everything
// needed to finish the payment is serialized into the callback URL before
// the customer leaves for the bank page.
type CallbackState struct {
	TenantID    int       `json:"tenantId"`
	Provider    string    `json:"provider"`
	Environment string    `json:"environment"`
	OrderID     string    `json:"orderId"`
	PaymentID   string    `json:"paymentId,omitempty"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	LogID       int64     `json:"logId,omitempty"`
	OriginalURL string    `json:"originalUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CallbackEncryptor encrypts callback state with AES-GCM so the state can
// travel inside a URL query parameter without being readable or forgeable.
type CallbackEncryptor struct {
	key []byte
}

// NewCallbackEncryptor derives a 256-bit key from the given secret
func NewCallbackEncryptor(secret string) *CallbackEncryptor {
	sum := sha256.Sum256([]byte(secret))
	return &CallbackEncryptor{key: sum[:]}
}

// Encrypt serializes and encrypts the state into a URL-safe string
func (e *CallbackEncryptor) Encrypt(state *CallbackState) (string, error) {
	plaintext, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("failed to marshal callback state: %w", err)
	}

	block, err := aes.NewCipher(e.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt
func (e *CallbackEncryptor) Decrypt(encoded string) (*CallbackState, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid callback state encoding: %w", err)
	}

	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(sealed) < gcm.NonceSize() {
		return nil, fmt.Errorf("callback state too short")
	}

	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt callback state: %w", err)
	}

	var state CallbackState
	if err := json.Unmarshal(plaintext, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal callback state: %w", err)
	}
	return &state, nil
}

// CallbackStore persists callback state under a short opaque key. Some banks
// truncate or mangle long callback URLs, so the full state is stored
// server-side and only the key travels in the URL.
type CallbackStore struct {
	db  *sql.DB
	ttl time.Duration
}

// NewCallbackStore creates a store backed by the given database
func NewCallbackStore(db *sql.DB, ttl time.Duration) (*CallbackStore, error) {
	if ttl == 0 {
		ttl = 30 * time.Minute
	}

	schema := `CREATE TABLE IF NOT EXISTS callback_states (
		key TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		expires_at DATETIME NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create callback_states table: %w", err)
	}

	return &CallbackStore{db: db, ttl: ttl}, nil
}

// Save stores the state and returns its short key
func (s *CallbackStore) Save(state *CallbackState) (string, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return "", err
	}

	key := uuid.NewString()
	expires := time.Now().Add(s.ttl).UTC()

	_, err = s.db.Exec(
		`INSERT INTO callback_states (key, state, expires_at) VALUES (?, ?, ?)`,
		key, string(data), expires,
	)
	if err != nil {
		return "", fmt.Errorf("failed to save callback state: %w", err)
	}
	return key, nil
}

// Load retrieves and removes the state for a key. Each key is single use.
func (s *CallbackStore) Load(key string) (*CallbackState, error) {
	var data string
	var expires time.Time

	err := s.db.QueryRow(
		`SELECT state, expires_at FROM callback_states WHERE key = ?`, key,
	).Scan(&data, &expires)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("callback state not found: %s", key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load callback state: %w", err)
	}

	_, _ = s.db.Exec(`DELETE FROM callback_states WHERE key = ?`, key)

	if time.Now().After(expires) {
		return nil, fmt.Errorf("callback state expired: %s", key)
	}

	var state CallbackState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal callback state: %w", err)
	}
	return &state, nil
}

// Cleanup removes expired entries
func (s *CallbackStore) Cleanup() error {
	_, err := s.db.Exec(`DELETE FROM callback_states WHERE expires_at < ?`, time.Now().UTC())
	return err
}
