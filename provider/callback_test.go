package provider

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCallbackState() *CallbackState {
	return &CallbackState{
		TenantID:    1,
		Provider:    "garanti",
		Environment: "sandbox",
		OrderID:     "ORD1",
		Amount:      1000,
		Currency:    "TRY",
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
}

func TestCallbackEncryptorRoundTrip(t *testing.T) {
	enc := NewCallbackEncryptor("test-secret")

	state := testCallbackState()
	token, err := enc.Encrypt(state)
	require.NoError(t, err)
	assert.NotContains(t, token, "ORD1", "state must not be readable in the token")

	decrypted, err := enc.Decrypt(token)
	require.NoError(t, err)
	assert.Equal(t, state.OrderID, decrypted.OrderID)
	assert.Equal(t, state.Amount, decrypted.Amount)
	assert.Equal(t, state.Provider, decrypted.Provider)
}

func TestCallbackEncryptorWrongKey(t *testing.T) {
	token, err := NewCallbackEncryptor("secret-a").Encrypt(testCallbackState())
	require.NoError(t, err)

	_, err = NewCallbackEncryptor("secret-b").Decrypt(token)
	assert.Error(t, err)
}

func TestCallbackEncryptorTamperedToken(t *testing.T) {
	enc := NewCallbackEncryptor("test-secret")
	token, err := enc.Encrypt(testCallbackState())
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "AA"
	if tampered == token {
		tampered = token[:len(token)-2] + "BB"
	}
	_, err = enc.Decrypt(tampered)
	assert.Error(t, err)
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCallbackStoreSaveLoad(t *testing.T) {
	store, err := NewCallbackStore(openTestDB(t), time.Minute)
	require.NoError(t, err)

	key, err := store.Save(testCallbackState())
	require.NoError(t, err)
	assert.NotEmpty(t, key)

	loaded, err := store.Load(key)
	require.NoError(t, err)
	assert.Equal(t, "ORD1", loaded.OrderID)
	assert.Equal(t, int64(1000), loaded.Amount)

	// single use
	_, err = store.Load(key)
	assert.Error(t, err)
}

func TestCallbackStoreExpiry(t *testing.T) {
	store, err := NewCallbackStore(openTestDB(t), 10*time.Millisecond)
	require.NoError(t, err)

	key, err := store.Save(testCallbackState())
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	_, err = store.Load(key)
	assert.Error(t, err)
}
