package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"github.com/containerhub/containerhub/internal/auth"
	"github.com/containerhub/containerhub/internal/catalog"
	"github.com/containerhub/containerhub/internal/config"
	"github.com/containerhub/containerhub/internal/database"
	"github.com/containerhub/containerhub/internal/entities"
	"github.com/containerhub/containerhub/internal/fetchproxy"
	http_controllers "github.com/containerhub/containerhub/internal/http"
	"github.com/containerhub/containerhub/internal/importer"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop the scheduler)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting ContainerHub v%s", version)

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	defaultOrgID, err := db.DefaultOrganizationID()
	if err != nil {
		log.Fatalf("Failed to resolve default organization: %v", err)
	}

	// Shared page fetcher for the fetch proxy and the local catalog
	fetcher := fetchproxy.NewFetcher(cfg.FetchProxy.Timeout, cfg.FetchProxy.MaxBodyBytes)

	// The import pipeline talks to the catalog through an interface.
	// Single-binary deployments use the in-process adapter; setting
	// IMPORT_CATALOG_BASE_URL points it at a remote catalog instead.
	var importCatalog importer.Catalog
	if cfg.Import.CatalogBaseURL != "" {
		log.Printf("Import pipeline targets remote catalog at %s", cfg.Import.CatalogBaseURL)
		importCatalog = importer.NewClient(importer.ClientConfig{
			BaseURL:    cfg.Import.CatalogBaseURL,
			Token:      cfg.Import.CatalogToken,
			Timeout:    cfg.Import.RequestTimeout,
			MaxRetries: cfg.Import.MaxRetries,
			RetryDelay: cfg.Import.RetryDelay,
		})
	} else {
		importCatalog = catalog.NewLocal(db, fetcher, defaultOrgID, auth.DefaultUserID)
	}

	runner := importer.NewRunner(importCatalog, importer.RunnerConfig{
		VoiceBatchSize:   cfg.Import.VoiceBatchSize,
		FileBatchSize:    cfg.Import.FileBatchSize,
		BulkURLBatchSize: cfg.Import.BulkURLBatchSize,
		URLPoolSize:      cfg.Import.URLPoolSize,
		GroupDelay:       cfg.Import.GroupDelay,
	})
	registry := importer.NewRegistry(cfg.Import.RunRetention)

	// Sweep finished runs past retention on a schedule
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Import.RetentionSchedule, registry.Sweep); err != nil {
		log.Fatalf("Failed to schedule run retention sweep: %v", err)
	}
	scheduler.Start()

	// Initialize authentication if enabled
	var authService *auth.Service
	var authMiddleware *auth.Middleware

	if cfg.Auth.Mode == config.AuthModeToken {
		log.Printf("Authentication mode: token")
		authService = auth.NewService(db, cfg.Auth)
		authMiddleware = auth.NewMiddleware(authService, cfg.Auth, defaultOrgID)

		hasUsers, _ := authService.HasUsers()
		if !hasUsers {
			if cfg.Auth.BootstrapPassword != "" {
				_, err := authService.CreateUser(defaultOrgID, cfg.Auth.BootstrapUsername, "", cfg.Auth.BootstrapPassword, entities.UserRoleAdmin)
				if err != nil {
					log.Fatalf("Failed to create bootstrap administrator: %v", err)
				}
				log.Printf("Created bootstrap administrator %q", cfg.Auth.BootstrapUsername)
			} else {
				log.Printf("No users found. Set AUTH_BOOTSTRAP_PASSWORD to create an initial administrator.")
			}
		}
	} else {
		log.Printf("Authentication mode: none (every request acts as an admin)")
	}

	// Build router configuration with all dependencies
	routerCfg := http_controllers.RouterConfig{
		Database:       db,
		ItemStore:      db,
		ImportRunner:   runner,
		ImportRegistry: registry,
		Fetcher:        fetcher,
		AuthService:    authService,
		AuthMiddleware: authMiddleware,
		DefaultOrgID:   defaultOrgID,
		Version:        version,
	}

	router := http_controllers.NewRouter(routerCfg)

	// Shutdown callback for graceful cleanup
	onShutdown := func(ctx context.Context) {
		stopped := scheduler.Stop()
		select {
		case <-stopped.Done():
		case <-ctx.Done():
		}
	}

	Serve(router, cfg, onShutdown)
}
