package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"showdex/api"
	"showdex/config"
	"showdex/handlers"
	"showdex/internal/database"
	"showdex/services/catalog"
	"showdex/services/eztv"
	"showdex/services/scheduler"
	"showdex/utils"

	"github.com/gorilla/mux"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {

	portOverride := flag.Int("port", 0, "override server port from config")
	refreshOnStart := flag.Bool("refresh-on-start", false, "refresh the show catalog immediately after startup")
	flag.Parse()

	fmt.Println("🚀 showdex starting...")

	// Determine config path (env or default)
	configPath := os.Getenv("SHOWDEX_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	// Init config manager and load settings (creates defaults if missing)
	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		// Ensure log directory exists
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			// Redirect standard log to both console and file
			multiWriter := io.MultiWriter(os.Stdout, fileWriter)
			log.SetOutput(multiWriter)
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	// Apply port override if specified
	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	// Handle PIN generation and legacy API key migration
	settings.Server.APIKey = strings.TrimSpace(settings.Server.APIKey)
	settings.Server.PIN = strings.TrimSpace(settings.Server.PIN)

	pinGenerated := false
	legacyKeyFound := false

	// Check if we have a legacy API key but no PIN
	if settings.Server.APIKey != "" && settings.Server.PIN == "" {
		legacyKeyFound = true
		fmt.Println("🔄 Legacy API key detected, generating new 6-digit PIN...")
	}

	// Generate PIN if missing
	if settings.Server.PIN == "" {
		pin, err := utils.GeneratePIN()
		if err != nil {
			log.Fatalf("failed to generate PIN: %v", err)
		}
		settings.Server.PIN = pin
		if err := cfgManager.Save(settings); err != nil {
			log.Fatalf("failed to persist generated PIN: %v", err)
		}
		pinGenerated = true
	}

	fmt.Printf("🔑 showdex PIN: %s\n", settings.Server.PIN)
	if pinGenerated {
		if legacyKeyFound {
			fmt.Println("✅ Legacy API key has been replaced with a 6-digit PIN.")
		}
		fmt.Println("📱 Use this PIN for the settings and scheduled-task endpoints.")
	}

	// Open the catalog store and run migrations
	db, err := database.Open(settings.Catalog.DatabasePath)
	if err != nil {
		log.Fatalf("failed to open catalog database: %v", err)
	}
	repo := database.NewShowRepository(db)

	// Tracker client
	timeout := time.Duration(settings.EZTV.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	eztvService := eztv.NewService(settings.EZTV.BaseURL, &http.Client{Timeout: timeout})
	eztvService.Fetcher().SetRetryAttempts(settings.EZTV.RetryAttempts)
	if settings.EZTV.UserAgent != "" {
		eztvService.Fetcher().SetUserAgent(settings.EZTV.UserAgent)
	}

	catalogService := catalog.NewService(eztvService, repo, catalog.Options{
		WarmShowLimit:   settings.Catalog.WarmShowLimit,
		WarmConcurrency: settings.Catalog.WarmConcurrency,
		SearchThreshold: settings.Catalog.SearchThreshold,
		SnapshotPath:    settings.Catalog.SnapshotPath,
	})

	// Background scheduler for catalog refreshes
	schedulerService := scheduler.NewService(cfgManager, catalogService)
	if err := schedulerService.Start(context.Background()); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}

	// Construct router
	var r *mux.Router = utils.NewRouter()

	// Register API routes
	settingsHandler := handlers.NewSettingsHandler(cfgManager)
	settingsHandler.SetCatalogService(catalogService)
	showsHandler := handlers.NewShowsHandler(catalogService)
	torrentsHandler := handlers.NewTorrentsHandler(eztvService)
	tasksHandler := handlers.NewScheduledTasksHandler(cfgManager, schedulerService)

	// Create PIN getter function for hot reload support
	getPIN := func() string {
		s, err := cfgManager.Load()
		if err != nil {
			return settings.Server.PIN // fallback to initial value on error
		}
		return s.Server.PIN
	}

	api.Register(
		r,
		showsHandler,
		torrentsHandler,
		settingsHandler,
		tasksHandler,
		getPIN,
	)

	// Optional catalog refresh right after startup
	if *refreshOnStart {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()

			log.Println("[main] startup catalog refresh begin")
			result, err := catalogService.Refresh(ctx)
			if err != nil {
				log.Printf("[main] startup catalog refresh failed: %v", err)
				return
			}
			log.Printf("[main] startup catalog refresh complete: %d shows, %d warmed", result.Shows, result.Warmed)
		}()
	}

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // Synchronous refreshes run long; upstream calls carry their own timeouts
		IdleTimeout:  120 * time.Second,
	}

	// Setup graceful shutdown
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-shutdownChan
	log.Println("🛑 Shutdown signal received, cleaning up...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop the scheduler first so no refresh is mid-flight when the store closes
	if err := schedulerService.Stop(shutdownCtx); err != nil {
		log.Printf("Scheduler shutdown error: %v", err)
	}

	// Shutdown HTTP server gracefully
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
