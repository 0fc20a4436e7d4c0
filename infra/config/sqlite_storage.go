package config

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStorage handles persistent storage of tenant provider configurations
type SQLiteStorage struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// retryOperation executes a database operation with retry logic for SQLITE_BUSY errors
func (s *SQLiteStorage) retryOperation(operation func() error, maxRetries int) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		if strings.Contains(err.Error(), "SQLITE_BUSY") || strings.Contains(err.Error(), "database is locked") {
			lastErr = err
			if attempt < maxRetries {
				// Exponential backoff: 10ms, 20ms, 40ms, 80ms
				backoff := time.Duration(10*(1<<attempt)) * time.Millisecond
				time.Sleep(backoff)
				continue
			}
		} else {
			return err
		}
	}

	return fmt.Errorf("operation failed after %d retries, last error: %w", maxRetries+1, lastErr)
}

// NewSQLiteStorage creates a new SQLite storage instance optimized for multiple processes
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000&_timeout=20000&_txlock=immediate", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	storage := &SQLiteStorage{
		db:   db,
		path: dbPath,
	}

	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := storage.optimizeForMultiProcess(); err != nil {
		log.Printf("Warning: Failed to apply optimizations: %v", err)
	}

	return storage, nil
}

// DB exposes the underlying handle so other components (payment logs,
// callback states) can share the same database file
func (s *SQLiteStorage) DB() *sql.DB {
	return s.db
}

// initSchema creates the necessary tables. Configurations are scoped by
// environment so a tenant can hold sandbox and production credentials at
// the same time.
func (s *SQLiteStorage) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS tenant_configs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tenant_id INTEGER NOT NULL,
		provider_name TEXT NOT NULL,
		environment TEXT NOT NULL DEFAULT 'sandbox',
		config_data TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(tenant_id, provider_name, environment)
	);

	CREATE INDEX IF NOT EXISTS idx_tenant_provider ON tenant_configs(tenant_id, provider_name, environment);

	CREATE TRIGGER IF NOT EXISTS update_tenant_configs_updated_at
		AFTER UPDATE ON tenant_configs
	BEGIN
		UPDATE tenant_configs SET updated_at = CURRENT_TIMESTAMP WHERE id = NEW.id;
	END;
	`

	_, err := s.db.Exec(query)
	return err
}

// optimizeForMultiProcess applies SQLite optimizations for multi-process access
func (s *SQLiteStorage) optimizeForMultiProcess() error {
	optimizations := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA cache_size = 1000;",
		"PRAGMA busy_timeout = 30000;",
		"PRAGMA temp_store = memory;",
		"PRAGMA optimize;",
	}

	for _, pragma := range optimizations {
		if _, err := s.db.Exec(pragma); err != nil {
			log.Printf("Warning: Failed to execute %s: %v", pragma, err)
		}
	}

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to check journal mode: %w", err)
	}
	return nil
}

// SaveTenantConfig saves a tenant configuration
func (s *SQLiteStorage) SaveTenantConfig(tenantID int, providerName, environment string, config map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	configJSON, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return s.retryOperation(func() error {
		query := `
		INSERT INTO tenant_configs (tenant_id, provider_name, environment, config_data, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(tenant_id, provider_name, environment)
		DO UPDATE SET
			config_data = excluded.config_data,
			updated_at = CURRENT_TIMESTAMP
		`

		_, err := s.db.Exec(query, tenantID, providerName, environment, string(configJSON))
		if err != nil {
			return fmt.Errorf("failed to save tenant config: %w", err)
		}
		return nil
	}, 3)
}

// LoadTenantConfig loads a tenant configuration
func (s *SQLiteStorage) LoadTenantConfig(tenantID int, providerName, environment string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config map[string]string
	err := s.retryOperation(func() error {
		query := `
		SELECT config_data
		FROM tenant_configs
		WHERE tenant_id = ? AND provider_name = ? AND environment = ?
		`

		var configJSON string
		err := s.db.QueryRow(query, tenantID, providerName, environment).Scan(&configJSON)
		if err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("no configuration found for tenant %d, provider %s, environment %s", tenantID, providerName, environment)
			}
			return fmt.Errorf("failed to load tenant config: %w", err)
		}

		if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
			return fmt.Errorf("failed to unmarshal config: %w", err)
		}
		return nil
	}, 3)

	return config, err
}

// DeleteTenantConfig deletes a tenant configuration
func (s *SQLiteStorage) DeleteTenantConfig(tenantID int, providerName, environment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.retryOperation(func() error {
		result, err := s.db.Exec(
			`DELETE FROM tenant_configs WHERE tenant_id = ? AND provider_name = ? AND environment = ?`,
			tenantID, providerName, environment,
		)
		if err != nil {
			return fmt.Errorf("failed to delete tenant config: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return fmt.Errorf("no configuration found for tenant %d, provider %s, environment %s", tenantID, providerName, environment)
		}
		return nil
	}, 3)
}

// GetTenantsByProvider returns all tenant IDs that have configuration for a specific provider
func (s *SQLiteStorage) GetTenantsByProvider(providerName string) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT DISTINCT tenant_id FROM tenant_configs WHERE provider_name = ? ORDER BY tenant_id`,
		providerName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query tenants by provider: %w", err)
	}
	defer rows.Close()

	var tenants []int
	for rows.Next() {
		var tenantID int
		if err := rows.Scan(&tenantID); err != nil {
			return nil, fmt.Errorf("failed to scan tenant ID: %w", err)
		}
		tenants = append(tenants, tenantID)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tenant rows: %w", err)
	}

	return tenants, nil
}

// GetStats returns database statistics
func (s *SQLiteStorage) GetStats() (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := make(map[string]any)

	var totalConfigs int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM tenant_configs").Scan(&totalConfigs); err != nil {
		return nil, fmt.Errorf("failed to count total configs: %w", err)
	}
	stats["total_configs"] = totalConfigs

	var uniqueTenants int
	if err := s.db.QueryRow("SELECT COUNT(DISTINCT tenant_id) FROM tenant_configs").Scan(&uniqueTenants); err != nil {
		return nil, fmt.Errorf("failed to count unique tenants: %w", err)
	}
	stats["unique_tenants"] = uniqueTenants

	if fileInfo, err := os.Stat(s.path); err == nil {
		stats["db_size_bytes"] = fileInfo.Size()
	}
	stats["db_path"] = s.path

	return stats, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
