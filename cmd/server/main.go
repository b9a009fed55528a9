package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jobdeck/jobdeck/api"
	"github.com/jobdeck/jobdeck/internal/application"
	"github.com/jobdeck/jobdeck/internal/config"
	"github.com/jobdeck/jobdeck/internal/dashboard"
	"github.com/jobdeck/jobdeck/internal/profile"
	"github.com/jobdeck/jobdeck/internal/schema"
	"github.com/jobdeck/jobdeck/internal/session"
	storageimpl "github.com/jobdeck/jobdeck/internal/storage"
	"github.com/jobdeck/jobdeck/pkg/jobsfeed"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Starting jobdeck server version %s (built at %s)", version, buildTime)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	api.SetLogger(logger)
	jobsfeed.SetLogger(logger)

	ctx := context.Background()

	// Open key-value storage
	kv, err := storageimpl.NewSQLite(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}

	validator, err := schema.New(logger)
	if err != nil {
		log.Fatalf("Failed to compile schemas: %v", err)
	}

	// Build the state stores over the shared storage
	sessions := session.New(kv, cfg.TokenSecret, cfg.TokenDuration, cfg.RememberDuration, logger)
	apps := application.New(ctx, kv, validator, logger)
	profiles := profile.New(ctx, kv, validator, logger)
	dash := dashboard.New(sessions, apps)

	feed, err := jobsfeed.NewClient(cfg.JobsFeed, nil)
	if err != nil {
		log.Fatalf("Failed to create jobs feed client: %v", err)
	}

	refresher := application.NewRefresher(apps, cfg.RefreshInterval, logger)
	refresher.Start(ctx)

	handler := api.SetupRoutes(cfg.TokenSecret, version, buildTime, api.Stores{
		Sessions:     sessions,
		Applications: apps,
		Profiles:     profiles,
		Dashboard:    dash,
		Feed:         feed,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	refresher.Stop()
	feed.Close()

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// Close storage
	if err := kv.Close(); err != nil {
		log.Printf("Error closing storage: %v", err)
	}

	log.Println("Server exited")
}
