package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/gvpay/infra/config"
	"github.com/mstgnz/gvpay/infra/middle"
	"github.com/mstgnz/gvpay/infra/response"
	"github.com/mstgnz/gvpay/provider"
)

// ProviderInvalidator drops cached provider instances after a config change
type ProviderInvalidator interface {
	InvalidateProvider(tenantID int, providerName, environment string)
}

// ConfigHandler handles tenant provider configuration requests
type ConfigHandler struct {
	providerConfig *config.ProviderConfig
	invalidator    ProviderInvalidator
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(providerConfig *config.ProviderConfig, invalidator ProviderInvalidator) *ConfigHandler {
	return &ConfigHandler{
		providerConfig: providerConfig,
		invalidator:    invalidator,
	}
}

// GetRequiredConfig returns the configuration fields a provider needs
func (h *ConfigHandler) GetRequiredConfig(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")

	p, err := provider.Get(providerName)
	if err != nil {
		response.Error(w, http.StatusNotFound, "Unknown provider", err)
		return
	}

	environment := environmentFromQuery(r)
	response.Success(w, http.StatusOK, "Required configuration retrieved", map[string]any{
		"provider":    providerName,
		"environment": environment,
		"fields":      p.GetRequiredConfig(environment),
	})
}

// SetTenantConfig stores provider credentials for the tenant
func (h *ConfigHandler) SetTenantConfig(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")

	var cfg map[string]string
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if len(cfg) == 0 {
		response.Error(w, http.StatusBadRequest, "Empty configuration", nil)
		return
	}

	p, err := provider.Get(providerName)
	if err != nil {
		response.Error(w, http.StatusNotFound, "Unknown provider", err)
		return
	}
	if err := p.ValidateConfig(cfg); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid configuration", err)
		return
	}

	tenantID := middle.GetTenantIDFromContext(r.Context())
	environment := strings.ToLower(cfg["environment"])
	if environment == "" {
		environment = "sandbox"
	}

	if err := h.providerConfig.SetTenantConfig(tenantID, providerName, environment, cfg); err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to store configuration", err)
		return
	}
	h.invalidator.InvalidateProvider(tenantID, providerName, environment)

	response.Success(w, http.StatusOK, "Configuration updated", map[string]any{
		"tenantId":    tenantID,
		"provider":    providerName,
		"environment": environment,
	})
}

// GetTenantConfig returns the tenant's stored configuration with secrets masked
func (h *ConfigHandler) GetTenantConfig(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")
	tenantID := middle.GetTenantIDFromContext(r.Context())
	environment := environmentFromQuery(r)

	cfg, err := h.providerConfig.GetTenantConfig(tenantID, providerName, environment)
	if err != nil {
		response.Error(w, http.StatusNotFound, "Configuration not found", err)
		return
	}

	response.Success(w, http.StatusOK, "Configuration retrieved", map[string]any{
		"tenantId":    tenantID,
		"provider":    providerName,
		"environment": environment,
		"config":      maskSecrets(cfg),
	})
}

// DeleteTenantConfig removes the tenant's stored configuration
func (h *ConfigHandler) DeleteTenantConfig(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")
	tenantID := middle.GetTenantIDFromContext(r.Context())
	environment := environmentFromQuery(r)

	if err := h.providerConfig.DeleteTenantConfig(tenantID, providerName, environment); err != nil {
		response.Error(w, http.StatusNotFound, "Failed to delete configuration", err)
		return
	}
	h.invalidator.InvalidateProvider(tenantID, providerName, environment)

	response.Success(w, http.StatusOK, "Configuration deleted", map[string]any{
		"tenantId":    tenantID,
		"provider":    providerName,
		"environment": environment,
	})
}

// GetStats returns configuration storage statistics
func (h *ConfigHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.providerConfig.GetStats()
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to get statistics", err)
		return
	}

	response.Success(w, http.StatusOK, "Statistics retrieved", stats)
}

// maskSecrets hides credential values in config responses
func maskSecrets(cfg map[string]string) map[string]string {
	masked := make(map[string]string, len(cfg))
	for key, value := range cfg {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "key") ||
			strings.Contains(lower, "password") ||
			strings.Contains(lower, "secret") {
			if len(value) > 8 {
				masked[key] = value[:4] + "****" + value[len(value)-4:]
			} else {
				masked[key] = "****"
			}
		} else {
			masked[key] = value
		}
	}
	return masked
}
