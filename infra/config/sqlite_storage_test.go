package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	storage, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func TestSaveLoadTenantConfig(t *testing.T) {
	storage := newTestStorage(t)

	config := map[string]string{
		"merchantId":  "M1",
		"terminalId":  "12345",
		"username":    "apiuser",
		"password":    "pass123",
		"environment": "sandbox",
	}

	err := storage.SaveTenantConfig(1, "garanti", "sandbox", config)
	require.NoError(t, err)

	loaded, err := storage.LoadTenantConfig(1, "garanti", "sandbox")
	require.NoError(t, err)
	assert.Equal(t, config, loaded)
}

func TestLoadMissingConfig(t *testing.T) {
	storage := newTestStorage(t)

	_, err := storage.LoadTenantConfig(99, "garanti", "sandbox")
	assert.Error(t, err)
}

func TestEnvironmentsAreIsolated(t *testing.T) {
	storage := newTestStorage(t)

	sandbox := map[string]string{"merchantId": "TEST-M"}
	production := map[string]string{"merchantId": "PROD-M"}

	require.NoError(t, storage.SaveTenantConfig(1, "garanti", "sandbox", sandbox))
	require.NoError(t, storage.SaveTenantConfig(1, "garanti", "production", production))

	loaded, err := storage.LoadTenantConfig(1, "garanti", "sandbox")
	require.NoError(t, err)
	assert.Equal(t, "TEST-M", loaded["merchantId"])

	loaded, err = storage.LoadTenantConfig(1, "garanti", "production")
	require.NoError(t, err)
	assert.Equal(t, "PROD-M", loaded["merchantId"])
}

func TestUpsertOverwrites(t *testing.T) {
	storage := newTestStorage(t)

	require.NoError(t, storage.SaveTenantConfig(1, "garanti", "sandbox", map[string]string{"merchantId": "old"}))
	require.NoError(t, storage.SaveTenantConfig(1, "garanti", "sandbox", map[string]string{"merchantId": "new"}))

	loaded, err := storage.LoadTenantConfig(1, "garanti", "sandbox")
	require.NoError(t, err)
	assert.Equal(t, "new", loaded["merchantId"])
}

func TestDeleteTenantConfig(t *testing.T) {
	storage := newTestStorage(t)

	require.NoError(t, storage.SaveTenantConfig(1, "garanti", "sandbox", map[string]string{"merchantId": "M1"}))
	require.NoError(t, storage.DeleteTenantConfig(1, "garanti", "sandbox"))

	_, err := storage.LoadTenantConfig(1, "garanti", "sandbox")
	assert.Error(t, err)

	// deleting again reports missing
	assert.Error(t, storage.DeleteTenantConfig(1, "garanti", "sandbox"))
}

func TestGetTenantsByProvider(t *testing.T) {
	storage := newTestStorage(t)

	require.NoError(t, storage.SaveTenantConfig(2, "garanti", "sandbox", map[string]string{"merchantId": "M2"}))
	require.NoError(t, storage.SaveTenantConfig(1, "garanti", "sandbox", map[string]string{"merchantId": "M1"}))

	tenants, err := storage.GetTenantsByProvider("garanti")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, tenants)
}

func TestGetStats(t *testing.T) {
	storage := newTestStorage(t)

	require.NoError(t, storage.SaveTenantConfig(1, "garanti", "sandbox", map[string]string{"merchantId": "M1"}))

	stats, err := storage.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats["total_configs"])
	assert.Equal(t, 1, stats["unique_tenants"])
}
