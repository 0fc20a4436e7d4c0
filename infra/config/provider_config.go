package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// DefaultTenantID is the tenant used for configs bootstrapped from the
// process environment
const DefaultTenantID = 1

// ProviderConfig manages tenant provider configurations on top of SQLite
// with an in-memory read cache
type ProviderConfig struct {
	storage *SQLiteStorage
	mu      sync.RWMutex
	cache   map[string]map[string]string
}

// NewProviderConfig creates a new provider configuration manager
func NewProviderConfig(storage *SQLiteStorage) *ProviderConfig {
	return &ProviderConfig{
		storage: storage,
		cache:   make(map[string]map[string]string),
	}
}

func cacheKey(tenantID int, providerName, environment string) string {
	return fmt.Sprintf("%d:%s:%s", tenantID, providerName, environment)
}

// GetTenantConfig returns the stored configuration for a tenant's provider.
// Satisfies provider.ConfigStore.
func (pc *ProviderConfig) GetTenantConfig(tenantID int, providerName, environment string) (map[string]string, error) {
	if environment == "" {
		environment = "sandbox"
	}
	key := cacheKey(tenantID, providerName, environment)

	pc.mu.RLock()
	if cached, ok := pc.cache[key]; ok {
		pc.mu.RUnlock()
		return cached, nil
	}
	pc.mu.RUnlock()

	config, err := pc.storage.LoadTenantConfig(tenantID, providerName, environment)
	if err != nil {
		return nil, err
	}

	pc.mu.Lock()
	pc.cache[key] = config
	pc.mu.Unlock()

	return config, nil
}

// SetTenantConfig stores a tenant's provider configuration
func (pc *ProviderConfig) SetTenantConfig(tenantID int, providerName, environment string, config map[string]string) error {
	if environment == "" {
		environment = config["environment"]
	}
	if environment == "" {
		environment = "sandbox"
	}

	if err := pc.storage.SaveTenantConfig(tenantID, providerName, environment, config); err != nil {
		return err
	}

	pc.mu.Lock()
	pc.cache[cacheKey(tenantID, providerName, environment)] = config
	pc.mu.Unlock()

	return nil
}

// DeleteTenantConfig removes a tenant's provider configuration
func (pc *ProviderConfig) DeleteTenantConfig(tenantID int, providerName, environment string) error {
	if environment == "" {
		environment = "sandbox"
	}

	if err := pc.storage.DeleteTenantConfig(tenantID, providerName, environment); err != nil {
		return err
	}

	pc.mu.Lock()
	delete(pc.cache, cacheKey(tenantID, providerName, environment))
	pc.mu.Unlock()

	return nil
}

// GetStats returns storage statistics
func (pc *ProviderConfig) GetStats() (map[string]any, error) {
	return pc.storage.GetStats()
}

// envConfigKeys maps environment variable suffixes to provider config keys
var envConfigKeys = map[string]string{
	"MERCHANT_ID": "merchantId",
	"TERMINAL_ID": "terminalId",
	"USERNAME":    "username",
	"PASSWORD":    "password",
	"SECURE_KEY":  "secureKey",
	"ENVIRONMENT": "environment",
	"LANG":        "lang",
}

// LoadFromEnv bootstraps the default tenant's configuration for a provider
// from environment variables with the given prefix, e.g. GARANTI_MERCHANT_ID.
// Returns false when no variables with the prefix are present.
func (pc *ProviderConfig) LoadFromEnv(providerName, prefix string) (bool, error) {
	config := make(map[string]string)
	for suffix, key := range envConfigKeys {
		if value := os.Getenv(prefix + "_" + suffix); value != "" {
			config[key] = value
		}
	}
	if len(config) == 0 {
		return false, nil
	}

	if config["environment"] == "" {
		config["environment"] = "sandbox"
	}
	config["environment"] = strings.ToLower(config["environment"])

	if err := pc.SetTenantConfig(DefaultTenantID, providerName, config["environment"], config); err != nil {
		return false, fmt.Errorf("failed to store %s config from environment: %w", providerName, err)
	}
	return true, nil
}
