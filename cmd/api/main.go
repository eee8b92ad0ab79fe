package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tagwatch/tagwatchgo/internal/bus"
	"github.com/tagwatch/tagwatchgo/internal/config"
	"github.com/tagwatch/tagwatchgo/internal/database"
	"github.com/tagwatch/tagwatchgo/internal/handlers"
	"github.com/tagwatch/tagwatchgo/internal/ingest"
	"github.com/tagwatch/tagwatchgo/internal/models"
	"github.com/tagwatch/tagwatchgo/internal/registry"
	"github.com/tagwatch/tagwatchgo/internal/websocket"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize database (Detects Embedded vs External automatically)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// Note: db.Close() is called manually in shutdown handler below

	// 3. Auto-Migrate Schema
	log.Println("🚀 Synchronizing database schema...")
	err = db.AutoMigrate(
		&models.Device{},
		&models.Reader{},
		&models.DeviceLocation{},
	)
	if err != nil {
		log.Printf("⚠️ Migration warning: %v\n", err)
	} else {
		log.Println("✅ Schema synchronized successfully")
	}

	// 4. Wire the presence core: one change bus per process, ingest
	// publishing into it, live sessions subscribing off it.
	reg := registry.New(db)
	changeBus := bus.New()
	ingestSvc := ingest.NewService(reg, changeBus)

	hub := websocket.NewHub()
	go hub.Run()

	// 5. Set up HTTP router
	router := handlers.NewRouter(reg, ingestSvc, changeBus, hub, cfg.Presence)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on port %s (presence window %v, recompute every %v)\n",
			cfg.Port, cfg.Presence.Window, cfg.Presence.RecomputeInterval)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sig := <-shutdown
	log.Printf("\n⚠️  Received signal: %v. Shutting down gracefully...\n", sig)

	// Create context with timeout for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server (open websockets end when their peers see
	// the close; their sessions unsubscribe on the way out)
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// Close database (this also stops embedded PostgreSQL)
	log.Println("🛑 Closing database connection...")
	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
