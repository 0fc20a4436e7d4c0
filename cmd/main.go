package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/mstgnz/gvpay/infra/config"
	"github.com/mstgnz/gvpay/infra/logger"
	"github.com/mstgnz/gvpay/infra/middle"
	"github.com/mstgnz/gvpay/infra/opensearch"
	"github.com/mstgnz/gvpay/infra/validate"
	"github.com/mstgnz/gvpay/provider"
	"github.com/mstgnz/gvpay/router"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}
	_ = config.App()
	cfg := config.GetAppConfig()

	// OpenSearch is optional, the service runs without indexing when it is
	// unreachable or disabled
	var searchLogger *opensearch.Logger
	if cfg.EnableLogging {
		osClient, err := opensearch.NewClient(cfg)
		if err != nil {
			log.Printf("Failed to initialize OpenSearch client: %v", err)
			log.Println("Continuing without OpenSearch logging...")
		} else {
			searchLogger = opensearch.NewLogger(osClient)
			log.Println("OpenSearch logging initialized")
		}
	}
	logger.InitGlobalLogger(searchLogger)

	storage, err := config.NewSQLiteStorage(cfg.SQLitePath)
	if err != nil {
		logger.Fatal("Failed to open SQLite storage", err)
	}
	defer storage.Close()

	providerConfig := config.NewProviderConfig(storage)
	if loaded, err := providerConfig.LoadFromEnv("garanti", "GARANTI"); err != nil {
		logger.Error("Failed to bootstrap garanti config from environment", err)
	} else if loaded {
		logger.Info("Loaded garanti configuration from environment")
	}

	paymentLogger, err := provider.NewDBPaymentLogger(storage.DB())
	if err != nil {
		logger.Fatal("Failed to initialize payment logger", err)
	}

	callbackStore, err := provider.NewCallbackStore(storage.DB(), 30*time.Minute)
	if err != nil {
		logger.Fatal("Failed to initialize callback store", err)
	}
	encryptor := provider.NewCallbackEncryptor(config.App().SecretKey)

	paymentService := provider.NewPaymentService(providerConfig, paymentLogger)

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(60 * time.Second))

	rateLimiter := middle.NewRateLimiter()
	r.Use(middle.PanicRecoveryMiddleware())
	r.Use(middle.SecurityHeadersMiddleware())
	r.Use(middle.IPWhitelistMiddleware())
	r.Use(middle.RateLimitMiddleware(rateLimiter))
	r.Use(middle.RequestValidationMiddleware())

	if searchLogger != nil {
		r.Use(middle.PaymentLoggingMiddleware(searchLogger))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Origin", "X-Requested-With", "X-Tenant-ID"},
		ExposedHeaders:   []string{"Link", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Routes(r, router.Deps{
		PaymentService: paymentService,
		ProviderConfig: providerConfig,
		CallbackStore:  callbackStore,
		Encryptor:      encryptor,
		SearchLogger:   searchLogger,
		Validator:      validate.New(),
		DB:             storage.DB(),
		BaseURL:        cfg.BaseURL,
	})

	// expired 3D states pile up when customers abandon the bank page
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			if err := callbackStore.Cleanup(); err != nil {
				logger.Warn("Callback state cleanup failed", logger.LogContext{
					Fields: map[string]any{"error": err.Error()},
				})
			}
		}
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("API is running", logger.LogContext{
			Fields: map[string]any{"port": cfg.Port},
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", err)
		}
	}()

	<-ctx.Done()

	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", err)
	}
}
