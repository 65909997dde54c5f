package core

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/sadmanHT/porakhela-sync/internal/config"
	"github.com/sadmanHT/porakhela-sync/internal/db"
	"github.com/sadmanHT/porakhela-sync/internal/jobs"
	"github.com/sadmanHT/porakhela-sync/internal/websocket"
)

// App holds the core components of the application shared between the
// server, the background jobs and the download workers.
type App struct {
	cfg        *config.Config
	db         *sql.DB
	wsHub      *websocket.Hub
	jobManager *jobs.JobManager
	version    string
}

// New sets up and returns a new App instance. It handles loading the
// configuration, initializing the database connection, and running migrations.
func New(version string) (*App, error) {
	// Load configuration from config.yml
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize the database connection
	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	if err := db.RunMigrations(database); err != nil {
		// We can't proceed without a valid database schema.
		// Close the DB connection before failing.
		database.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	app := NewApp(cfg, database, version)
	log.Println("Core application setup complete.")
	return app, nil
}

// NewApp wires an App from already-initialized components. Tests use this
// directly with an in-memory database.
func NewApp(cfg *config.Config, database *sql.DB, version string) *App {
	hub := websocket.NewHub()
	go hub.Run()

	app := &App{
		cfg:     cfg,
		db:      database,
		wsHub:   hub,
		version: version,
	}
	app.jobManager = jobs.NewManager(app)
	return app
}

func (a *App) Config() *config.Config       { return a.cfg }
func (a *App) DB() *sql.DB                  { return a.db }
func (a *App) WsHub() *websocket.Hub        { return a.wsHub }
func (a *App) JobManager() *jobs.JobManager { return a.jobManager }
func (a *App) Version() string              { return a.version }

// Close gracefully closes the application's resources, like the DB connection.
func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
