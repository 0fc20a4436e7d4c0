package handler

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"runtime"
	"syscall"
	"time"

	"github.com/mstgnz/gvpay/infra/config"
	"github.com/mstgnz/gvpay/infra/opensearch"
	"github.com/mstgnz/gvpay/infra/response"
	"github.com/mstgnz/gvpay/provider"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	db             *sql.DB
	searchLogger   *opensearch.Logger
	paymentService *provider.PaymentService
	providerConfig *config.ProviderConfig
	startTime      time.Time
}

// HealthStatus represents overall system health
type HealthStatus struct {
	Status      string                    `json:"status"`
	Version     string                    `json:"version"`
	Timestamp   time.Time                 `json:"timestamp"`
	Uptime      string                    `json:"uptime"`
	Environment string                    `json:"environment"`
	Database    *DatabaseHealth           `json:"database"`
	Providers   []string                  `json:"providers"`
	System      *SystemHealth             `json:"system"`
	Services    map[string]*ServiceHealth `json:"services"`
}

// DatabaseHealth represents SQLite health status
type DatabaseHealth struct {
	Status       string        `json:"status"`
	Connected    bool          `json:"connected"`
	ResponseTime time.Duration `json:"response_time_ms"`
	OpenConns    int           `json:"open_connections"`
	Error        string        `json:"error,omitempty"`
}

// SystemHealth represents system resource health
type SystemHealth struct {
	Memory     *MemoryHealth `json:"memory"`
	Disk       *DiskHealth   `json:"disk"`
	GoRoutines int           `json:"goroutines"`
}

// MemoryHealth represents memory usage
type MemoryHealth struct {
	Alloc        string  `json:"alloc"`
	TotalAlloc   string  `json:"total_alloc"`
	Sys          string  `json:"sys"`
	GCRuns       uint32  `json:"gc_runs"`
	UsagePercent float64 `json:"usage_percent"`
}

// DiskHealth represents disk usage
type DiskHealth struct {
	Available    string  `json:"available"`
	Used         string  `json:"used"`
	Total        string  `json:"total"`
	UsagePercent float64 `json:"usage_percent"`
	Status       string  `json:"status"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status      string `json:"status"`
	Healthy     bool   `json:"healthy"`
	Description string `json:"description,omitempty"`
	Error       string `json:"error,omitempty"`
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *sql.DB, searchLogger *opensearch.Logger, paymentService *provider.PaymentService, providerConfig *config.ProviderConfig) *HealthHandler {
	return &HealthHandler{
		db:             db,
		searchLogger:   searchLogger,
		paymentService: paymentService,
		providerConfig: providerConfig,
		startTime:      time.Now(),
	}
}

// CheckHealth performs health checks and reports overall status
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	health := &HealthStatus{
		Version:     "1.0.0",
		Timestamp:   time.Now().UTC(),
		Uptime:      time.Since(h.startTime).String(),
		Environment: config.GetEnv("ENVIRONMENT", "development"),
		Database:    h.checkDatabaseHealth(ctx),
		Providers:   provider.Names(),
		System:      h.checkSystemHealth(),
		Services:    h.checkServicesHealth(),
	}

	health.Status = h.determineOverallStatus(health)

	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	response.WriteJSON(w, statusCode, response.Response{
		Code:    statusCode,
		Success: health.Status != "unhealthy",
		Message: fmt.Sprintf("Service is %s", health.Status),
		Data:    health,
	})
}

func (h *HealthHandler) checkDatabaseHealth(ctx context.Context) *DatabaseHealth {
	dbHealth := &DatabaseHealth{
		Status:    "unknown",
		Connected: false,
	}

	if h.db == nil {
		dbHealth.Status = "not_configured"
		dbHealth.Error = "Database not configured"
		return dbHealth
	}

	start := time.Now()
	if err := h.db.PingContext(ctx); err != nil {
		dbHealth.Status = "unhealthy"
		dbHealth.Error = err.Error()
		dbHealth.ResponseTime = time.Since(start)
		return dbHealth
	}

	dbHealth.Connected = true
	dbHealth.ResponseTime = time.Since(start)
	dbHealth.OpenConns = h.db.Stats().OpenConnections

	if dbHealth.ResponseTime > time.Second {
		dbHealth.Status = "degraded"
	} else {
		dbHealth.Status = "healthy"
	}

	return dbHealth
}

func (h *HealthHandler) checkSystemHealth() *SystemHealth {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return &SystemHealth{
		Memory: &MemoryHealth{
			Alloc:        formatBytes(memStats.Alloc),
			TotalAlloc:   formatBytes(memStats.TotalAlloc),
			Sys:          formatBytes(memStats.Sys),
			GCRuns:       memStats.NumGC,
			UsagePercent: (float64(memStats.Alloc) / float64(memStats.Sys)) * 100,
		},
		Disk:       h.getDiskUsage(),
		GoRoutines: runtime.NumGoroutine(),
	}
}

func (h *HealthHandler) checkServicesHealth() map[string]*ServiceHealth {
	services := make(map[string]*ServiceHealth)

	if h.searchLogger != nil && h.searchLogger.IsEnabled() {
		services["opensearch_logger"] = &ServiceHealth{
			Status:      "healthy",
			Healthy:     true,
			Description: "Payment logging to OpenSearch",
		}
	} else {
		services["opensearch_logger"] = &ServiceHealth{
			Status:      "not_configured",
			Healthy:     false,
			Description: "OpenSearch logging not configured",
		}
	}

	if h.paymentService != nil {
		services["payment_service"] = &ServiceHealth{
			Status:      "healthy",
			Healthy:     true,
			Description: "Payment processing service",
		}
	} else {
		services["payment_service"] = &ServiceHealth{
			Status:  "unhealthy",
			Healthy: false,
			Error:   "Payment service not initialized",
		}
	}

	if h.providerConfig != nil {
		services["provider_config"] = &ServiceHealth{
			Status:      "healthy",
			Healthy:     true,
			Description: "Tenant provider configuration service",
		}
	} else {
		services["provider_config"] = &ServiceHealth{
			Status:  "unhealthy",
			Healthy: false,
			Error:   "Provider config service not initialized",
		}
	}

	return services
}

func (h *HealthHandler) determineOverallStatus(health *HealthStatus) string {
	if health.Database != nil && health.Database.Status == "unhealthy" {
		return "unhealthy"
	}

	for _, name := range []string{"payment_service", "provider_config"} {
		if service, exists := health.Services[name]; exists && !service.Healthy {
			return "unhealthy"
		}
	}

	if health.System != nil {
		if health.System.Memory.UsagePercent > 90 {
			return "degraded"
		}
		if health.System.Disk != nil && health.System.Disk.UsagePercent > 90 {
			return "degraded"
		}
	}

	if health.Database != nil && health.Database.Status == "degraded" {
		return "degraded"
	}

	return "healthy"
}

func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func (h *HealthHandler) getDiskUsage() *DiskHealth {
	var stat syscall.Statfs_t

	disk := &DiskHealth{
		Status: "unknown",
	}

	if err := syscall.Statfs("/", &stat); err != nil {
		disk.Status = "error"
		return disk
	}

	available := stat.Bavail * uint64(stat.Bsize)
	total := stat.Blocks * uint64(stat.Bsize)
	used := total - (stat.Bfree * uint64(stat.Bsize))

	disk.Available = formatBytes(available)
	disk.Total = formatBytes(total)
	disk.Used = formatBytes(used)
	disk.UsagePercent = (float64(used) / float64(total)) * 100

	switch {
	case disk.UsagePercent > 90:
		disk.Status = "critical"
	case disk.UsagePercent > 80:
		disk.Status = "warning"
	default:
		disk.Status = "healthy"
	}

	return disk
}
