package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/gvpay/infra/middle"
	"github.com/mstgnz/gvpay/infra/opensearch"
	"github.com/mstgnz/gvpay/infra/response"
)

// LogsHandler serves indexed payment logs from OpenSearch
type LogsHandler struct {
	logger *opensearch.Logger
}

// NewLogsHandler creates a new logs handler
func NewLogsHandler(logger *opensearch.Logger) *LogsHandler {
	return &LogsHandler{logger: logger}
}

// GetOrderLogs returns all indexed logs for an order
func (h *LogsHandler) GetOrderLogs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	providerName := chi.URLParam(r, "provider")
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		response.Error(w, http.StatusBadRequest, "Missing order ID", nil)
		return
	}

	tenantID := strconv.Itoa(middle.GetTenantIDFromContext(r.Context()))
	logs, err := h.logger.GetOrderLogs(ctx, tenantID, providerName, orderID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to fetch logs", err)
		return
	}

	response.Success(w, http.StatusOK, "Logs retrieved", map[string]any{
		"orderId": orderID,
		"count":   len(logs),
		"logs":    logs,
	})
}

// GetErrorLogs returns recent error logs for a provider
func (h *LogsHandler) GetErrorLogs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	providerName := chi.URLParam(r, "provider")

	hours := 24
	if param := r.URL.Query().Get("hours"); param != "" {
		if parsed, err := strconv.Atoi(param); err == nil && parsed > 0 && parsed <= 24*7 {
			hours = parsed
		}
	}

	tenantID := strconv.Itoa(middle.GetTenantIDFromContext(r.Context()))
	logs, err := h.logger.GetRecentErrorLogs(ctx, tenantID, providerName, hours)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to fetch error logs", err)
		return
	}

	response.Success(w, http.StatusOK, "Error logs retrieved", map[string]any{
		"hours": hours,
		"count": len(logs),
		"logs":  logs,
	})
}
