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

	"github.com/sadmanHT/porakhela-sync/internal/api"
	"github.com/sadmanHT/porakhela-sync/internal/cache"
	"github.com/sadmanHT/porakhela-sync/internal/core"
	"github.com/sadmanHT/porakhela-sync/internal/downloader"
	"github.com/sadmanHT/porakhela-sync/internal/jobs"
	"github.com/sadmanHT/porakhela-sync/internal/packs"
	"github.com/sadmanHT/porakhela-sync/internal/store"
	"github.com/sadmanHT/porakhela-sync/internal/syncer"
	"github.com/sadmanHT/porakhela-sync/internal/util"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize the core application components
	app, err := core.New(version)
	if err != nil {
		log.Fatalf("Fatal error during application setup: %v", err)
	}
	defer app.Close()

	// The content directory must exist and be writable before any download
	// or eviction touches it.
	if err := util.ValidateContentDir(app.Config().Content.Path); err != nil {
		log.Fatalf("Content directory check failed: %v", err)
	}

	st := store.New(app.DB())
	manifestClient := packs.NewClient(app.Config().Manifest.Endpoint, st)
	registry := packs.NewRegistry(st, manifestClient)
	sweeper := cache.NewSweeper(st)
	syncService := syncer.New(st, app.Config().Sync.Endpoint)

	// Register the recurring background jobs with the job manager, then hand
	// them to the scheduler. Each job can also be triggered over the API.
	app.JobManager().Register("outbox-sync", "Outbox Sync", func(ctx jobs.JobContext) {
		summary, err := syncService.Drain(context.Background())
		if err != nil {
			log.Printf("Outbox sync failed: %v", err)
			return
		}
		log.Printf("Outbox sync finished: %d progress and %d result records acknowledged.",
			summary.ProgressAcked, summary.ResultsAcked)
	})
	app.JobManager().Register("cache-sweep", "Cache Sweep", func(ctx jobs.JobContext) {
		evicted, err := sweeper.SweepExpired(time.Now())
		if err != nil {
			log.Printf("Cache sweep failed: %v", err)
			return
		}
		invalidated, err := sweeper.VerifyAssets()
		if err != nil {
			log.Printf("Asset verification failed: %v", err)
			return
		}
		log.Printf("Cache sweep finished: %d assets evicted, %d invalidated.", evicted, invalidated)
	})
	app.JobManager().Register("manifest-check", "Manifest Check", func(ctx jobs.JobContext) {
		if err := registry.CheckAllGrades(context.Background()); err != nil {
			log.Printf("Manifest check failed: %v", err)
		}
	})

	scheduler := jobs.StartScheduler(app)
	defer scheduler.Stop()

	// Start the download worker pool
	manager := downloader.NewManager(st)
	pool := downloader.NewPool(app, manager, manifestClient, downloader.NewHTTPExecutor(), registry)
	pool.Start()

	// Watch the content directory so externally deleted asset files are
	// invalidated instead of being served as ghosts.
	watcher := cache.NewWatcherService(st, app.Config().Content.Path)
	if err := watcher.Start(); err != nil {
		log.Printf("Warning: could not start content watcher: %v", err)
	} else {
		defer watcher.Stop()
	}

	// Setup the API server
	server := api.NewServer(app)
	server.AttachPool(pool)
	addr := fmt.Sprintf(":%d", app.Config().Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Router(),
	}
	// --- Graceful Shutdown ---
	// Start the server in a goroutine so it doesn't block.
	go func() {
		log.Printf("Starting web server on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %v", err)
		}
	}()

	// Wait for an interrupt signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Create a context with a timeout to allow existing connections to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Attempt a graceful shutdown.
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
