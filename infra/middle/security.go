package middle

import (
	"net/http"
	"strings"

	"github.com/mstgnz/gvpay/infra/config"
	"github.com/mstgnz/gvpay/infra/response"
)

// SecurityHeadersMiddleware adds security headers to responses
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}

// IPWhitelistMiddleware restricts access to whitelisted IPs (optional)
func IPWhitelistMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			whitelist := config.GetEnv("IP_WHITELIST", "")
			if whitelist == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowedIPs := strings.Split(whitelist, ",")
			clientIP := GetClientIP(r)

			allowed := false
			for _, ip := range allowedIPs {
				if strings.TrimSpace(ip) == clientIP {
					allowed = true
					break
				}
			}

			if !allowed {
				response.Error(w, http.StatusForbidden, "IP not whitelisted", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestValidationMiddleware validates common request properties
func RequestValidationMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == "POST" || r.Method == "PUT" || r.Method == "PATCH" {
				contentType := r.Header.Get("Content-Type")

				// banks post form-urlencoded data to callback endpoints
				isCallbackEndpoint := strings.HasPrefix(r.URL.Path, "/v1/callback") ||
					strings.HasPrefix(r.URL.Path, "/v1/webhooks")

				if contentType != "" {
					if isCallbackEndpoint {
						if !strings.Contains(contentType, "application/json") &&
							!strings.Contains(contentType, "application/x-www-form-urlencoded") {
							response.Error(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json or application/x-www-form-urlencoded", nil)
							return
						}
					} else {
						if !strings.Contains(contentType, "application/json") {
							response.Error(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
							return
						}
					}
				} else if !isCallbackEndpoint {
					response.Error(w, http.StatusBadRequest, "Content-Type header is required", nil)
					return
				}
			}

			if r.ContentLength > 10*1024*1024 {
				response.Error(w, http.StatusRequestEntityTooLarge, "Request body too large", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
