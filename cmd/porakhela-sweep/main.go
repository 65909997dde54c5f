// A standalone maintenance command: runs one cache sweep and integrity
// verification pass against the configured database and exits. Useful for
// cron-style cleanup on devices where the main server is not running.
package main

import (
	"log"
	"time"

	"github.com/sadmanHT/porakhela-sync/internal/cache"
	"github.com/sadmanHT/porakhela-sync/internal/config"
	"github.com/sadmanHT/porakhela-sync/internal/db"
	"github.com/sadmanHT/porakhela-sync/internal/store"
)

func main() {
	// Load configuration from config.yml
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize the database connection
	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Run database migrations
	if err := db.RunMigrations(database); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	sweeper := cache.NewSweeper(store.New(database))

	log.Printf("Sweeping expired assets under: %s", cfg.Content.Path)
	evicted, err := sweeper.SweepExpired(time.Now())
	if err != nil {
		log.Fatalf("Cache sweep failed: %v", err)
	}

	invalidated, err := sweeper.VerifyAssets()
	if err != nil {
		log.Fatalf("Asset verification failed: %v", err)
	}

	log.Printf("Sweep complete: %d assets evicted, %d invalidated.", evicted, invalidated)
}
