package middle

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/mstgnz/gvpay/infra/config"
	"github.com/mstgnz/gvpay/infra/response"
)

type contextKey string

const tenantIDKey contextKey = "tenantID"

// AuthMiddleware validates API key authentication and resolves the tenant
// for the request. Tenants are identified by the X-Tenant-ID header; absent
// or malformed values fall back to the default tenant.
func AuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			expectedAPIKey := config.GetEnv("API_KEY", "")
			if expectedAPIKey == "" {
				response.Error(w, http.StatusInternalServerError, "API key not configured", nil)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Error(w, http.StatusUnauthorized, "Authorization header required", nil)
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				response.Error(w, http.StatusUnauthorized, "Invalid authorization format. Use: Bearer <api_key>", nil)
				return
			}

			apiKey := strings.TrimPrefix(authHeader, "Bearer ")
			if apiKey != expectedAPIKey {
				response.Error(w, http.StatusUnauthorized, "Invalid API key", nil)
				return
			}

			tenantID := config.DefaultTenantID
			if header := r.Header.Get("X-Tenant-ID"); header != "" {
				if id, err := strconv.Atoi(header); err == nil && id > 0 {
					tenantID = id
				}
			}

			ctx := context.WithValue(r.Context(), tenantIDKey, tenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetTenantIDFromContext returns the tenant resolved by AuthMiddleware,
// or the default tenant when the request skipped authentication
func GetTenantIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(tenantIDKey).(int); ok {
		return id
	}
	return config.DefaultTenantID
}
