// It defines the API server, sets up the routes (endpoints)
// using chi, and links them to the handler functions.

package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sadmanHT/porakhela-sync/internal/core"
	"github.com/sadmanHT/porakhela-sync/internal/downloader"
	"github.com/sadmanHT/porakhela-sync/internal/packs"
	"github.com/sadmanHT/porakhela-sync/internal/store"
	"github.com/sadmanHT/porakhela-sync/internal/syncer"
)

// Server holds the dependencies for our API.
type Server struct {
	app      *core.App
	db       *sql.DB
	store    *store.Store
	manager  *downloader.Manager
	pool     *downloader.Pool
	registry *packs.Registry
	syncSvc  *syncer.Service
}

// Store returns the store instance.
func (s *Server) Store() *store.Store {
	return s.store
}

// AttachPool hands the server the running worker pool so queue-wide pause
// and resume also gate the pool's polling loop, not just the job rows.
func (s *Server) AttachPool(pool *downloader.Pool) {
	s.pool = pool
}

// NewServer creates a new Server instance.
func NewServer(app *core.App) *Server {
	st := store.New(app.DB())
	client := packs.NewClient(app.Config().Manifest.Endpoint, st)
	return &Server{
		app:      app,
		db:       app.DB(),
		store:    st,
		manager:  downloader.NewManager(st),
		registry: packs.NewRegistry(st, client),
		syncSvc:  syncer.New(st, app.Config().Sync.Endpoint),
	}
}

// Router sets up and returns the main router for the application.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)    // Logs requests to the console
	r.Use(middleware.Recoverer) // Recovers from panics
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/api/version", s.handleGetVersion)

	r.Route("/api", func(r chi.Router) {
		// Download queue
		r.Post("/downloads/queue", s.handleEnqueueDownload)
		r.Get("/downloads/queue", s.handleGetDownloadQueue)
		r.Get("/downloads/queue/{jobID}", s.handleGetDownloadJob)
		r.Post("/downloads/queue/{jobID}/action", s.handleJobAction)
		r.Post("/downloads/action", s.handleQueueAction)

		// Lesson packs
		r.Get("/packs", s.handleListPacks)
		r.Get("/packs/{grade}", s.handleGetPack)
		r.Post("/packs/{grade}/check", s.handleCheckPack)
		r.Post("/packs/{grade}/download", s.handleDownloadPack)

		// Lessons and cached assets
		r.Get("/lessons", s.handleListLessons)
		r.Get("/lessons/{lessonID}/assets", s.handleListLessonAssets)
		r.Get("/lessons/{lessonID}/assets/{assetID}/file", s.handleServeAsset)
		r.Delete("/lessons/{lessonID}", s.handleDeleteLesson)
		r.Get("/cache/stats", s.handleCacheStats)

		// Child profiles
		r.Post("/profiles", s.handleCreateProfile)
		r.Get("/profiles", s.handleListProfiles)
		r.Post("/profiles/{profileID}/verify-pin", s.handleVerifyPin)

		// Progress and answer outbox
		r.Post("/progress", s.handleRecordProgress)
		r.Get("/progress", s.handleGetProgress)
		r.Post("/results", s.handleRecordResult)
		r.Get("/sync/status", s.handleSyncStatus)
		r.Post("/sync/run", s.handleRunSync)

		// Background job control
		r.Get("/jobs/status", s.handleGetJobsStatus)
		r.Post("/jobs/run", s.handleRunJob)
	})

	// WebSocket route for download progress updates
	r.Get("/ws/progress", func(w http.ResponseWriter, r *http.Request) {
		s.app.WsHub().ServeWs(w, r)
	})

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if err := s.db.Ping(); err != nil {
			RespondWithError(w, http.StatusServiceUnavailable, "Database connection failed")
			return
		}
		RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"version": s.app.Version()})
}
