package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-catalog-service/internal/api"
	"storefront-catalog-service/internal/catalog"
	"storefront-catalog-service/internal/config"
	"storefront-catalog-service/internal/csvcodec"
	"storefront-catalog-service/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const defaultAppName = "StorefrontCatalogService"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: No .env file found or failed to load, relying on system environment")
	}
	logger := log.New(os.Stdout, fmt.Sprintf("[%s] ", defaultAppName), log.LstdFlags|log.Lshortfile|log.Lmicroseconds)
	logger.Println("INFO: Starting service...")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("FATAL: Error loading configuration: %v", err)
	}
	logger.Printf("INFO: Configuration loaded for APP_ENV: %s, snapshot backend: %s", cfg.AppEnv, cfg.Snapshot.Backend)

	snapshots, err := openSnapshotStore(logger, cfg)
	if err != nil {
		logger.Fatalf("FATAL: Failed to initialize snapshot backend: %v", err)
	}

	sources, err := loadSources(cfg)
	if err != nil {
		logger.Fatalf("FATAL: Failed to load catalog manifest: %v", err)
	}
	logger.Printf("INFO: %d catalog sources configured", len(sources))

	codec := csvcodec.New(logger)
	merger := catalog.NewMerger(nil, logger)
	catalogStore := store.NewCatalogStore(snapshots, codec, merger, sources, logger)
	if err := catalogStore.Load(context.Background()); err != nil {
		logger.Fatalf("FATAL: Failed to load catalog store: %v", err)
	}

	httpAPIHandler := api.NewHTTPHandler(catalogStore, catalogStore)

	httpRouter := chi.NewRouter()
	setupBaseMiddleware(httpRouter, logger)
	registerHealthCheck(httpRouter, logger, snapshots)
	httpAPIHandler.RegisterRoutes(httpRouter)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HttpServer.Port,
		Handler:      httpRouter,
		ReadTimeout:  cfg.HttpServer.TimeoutRead,
		WriteTimeout: cfg.HttpServer.TimeoutWrite,
		IdleTimeout:  cfg.HttpServer.TimeoutIdle,
	}

	go func() {
		logger.Printf("INFO: HTTP server listening on port %s", cfg.HttpServer.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("FATAL: HTTP server ListenAndServe error: %v", err)
		}
		logger.Println("INFO: HTTP server has stopped.")
	}()

	shutdownComplete := make(chan struct{})
	go waitForShutdown(logger, httpServer, catalogStore, shutdownComplete)

	<-shutdownComplete
	logger.Println("INFO: Service shutdown sequence finished.")
}

func openSnapshotStore(logger *log.Logger, cfg *config.Config) (store.SnapshotStore, error) {
	switch cfg.Snapshot.Backend {
	case "file":
		return store.NewFileSnapshotStore(cfg.Snapshot.Dir)
	case "sqlite":
		db, err := sql.Open("sqlite", cfg.Snapshot.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.Snapshot.SQLitePath, err)
		}
		return setupSQLStore(logger, db)
	case "postgres":
		db, err := sql.Open("postgres", cfg.Snapshot.Postgres.DSN())
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(context.Background()); err != nil {
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		return setupSQLStore(logger, db)
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Snapshot.Backend)
	}
}

func setupSQLStore(logger *log.Logger, db *sql.DB) (store.SnapshotStore, error) {
	s := store.NewSQLSnapshotStore(db)
	if err := s.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	logger.Println("INFO: Snapshot database ready.")
	return s, nil
}

func loadSources(cfg *config.Config) ([]catalog.Source, error) {
	if cfg.Catalog.ManifestPath != "" {
		manifest, err := catalog.LoadManifest(cfg.Catalog.ManifestPath)
		if err != nil {
			return nil, err
		}
		return manifest.Sources, nil
	}
	return catalog.DefaultManifest(cfg.Catalog.DataDir).Sources, nil
}

func setupBaseMiddleware(router *chi.Mux, logger *log.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
	logger.Println("INFO: Base HTTP middleware registered.")
}

func registerHealthCheck(router *chi.Mux, logger *log.Logger, snapshots store.SnapshotStore) {
	healthPath := "/api/v1/healthz"
	router.Get(healthPath, func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		snapshotStatus := "healthy"
		if _, err := snapshots.Load(ctx, store.SnapshotKeyProducts); err != nil && !errors.Is(err, store.ErrSnapshotNotFound) {
			snapshotStatus = "unhealthy"
			logger.Printf("WARN: Health check snapshot read failed: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "healthy",
			"serviceName": defaultAppName,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"snapshots":   snapshotStatus,
		})
	})
	logger.Printf("INFO: HTTP health check registered at %s", healthPath)
}

func waitForShutdown(
	logger *log.Logger,
	httpServer *http.Server,
	catalogStore *store.CatalogStore,
	shutdownComplete chan struct{},
) {
	defer close(shutdownComplete)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-sigChan
	logger.Printf("INFO: Received signal: %s. Starting graceful shutdown...", receivedSignal)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	logger.Println("INFO: Attempting to gracefully shut down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("WARN: HTTP server graceful shutdown failed: %v", err)
	} else {
		logger.Println("INFO: HTTP server gracefully shut down.")
	}

	if err := catalogStore.Close(); err != nil {
		logger.Printf("WARN: Error closing catalog store: %v", err)
	}

	logger.Println("INFO: Graceful shutdown sequence completed.")
}
