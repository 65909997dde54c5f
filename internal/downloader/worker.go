package downloader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/sadmanHT/porakhela-sync/internal/cache"
	"github.com/sadmanHT/porakhela-sync/internal/core"
	"github.com/sadmanHT/porakhela-sync/internal/models"
	"github.com/sadmanHT/porakhela-sync/internal/packs"
	"github.com/sadmanHT/porakhela-sync/internal/store"
	"github.com/sadmanHT/porakhela-sync/internal/util"
)

var (
	ErrDownloadPaused    = errors.New("download paused by user")
	ErrDownloadCancelled = errors.New("download cancelled by user")
)

// Pool runs the download workers. Each worker pulls one job at a time,
// claims it through the manager and transfers its assets to the content
// directory, reporting byte progress to the store and the websocket hub.
type Pool struct {
	app      *core.App
	st       *store.Store
	mgr      *Manager
	source   ContentSource
	exec     Executor
	registry *packs.Registry

	mu       sync.Mutex
	isPaused bool
	jobQueue chan *models.DownloadJob
}

func NewPool(app *core.App, mgr *Manager, source ContentSource, exec Executor, registry *packs.Registry) *Pool {
	return &Pool{
		app:      app,
		st:       store.New(app.DB()),
		mgr:      mgr,
		source:   source,
		exec:     exec,
		registry: registry,
	}
}

// Start launches the workers and the polling goroutine. Any jobs stuck in
// 'in_progress' from a previous run are re-queued first; a crash mid-
// transfer must never strand a job.
func (p *Pool) Start() {
	numWorkers := p.app.Config().Download.Workers
	if numWorkers < 1 {
		numWorkers = 1
	}
	p.jobQueue = make(chan *models.DownloadJob, numWorkers)

	if err := p.st.ResetInProgressJobs(); err != nil {
		log.Printf("Error re-queueing interrupted jobs: %v", err)
	}

	for i := 1; i <= numWorkers; i++ {
		go p.worker(i)
	}
	go p.pollLoop(numWorkers)
}

func (p *Pool) pollLoop(numWorkers int) {
	interval := time.Duration(p.app.Config().Download.PollInterval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	for {
		p.mu.Lock()
		paused := p.isPaused
		p.mu.Unlock()

		// Only refill when the buffer drained, so priorities are re-read
		// from the database often and a freshly enqueued urgent job does
		// not sit behind a long backlog snapshot.
		if !paused && len(p.jobQueue) == 0 {
			jobs, err := p.st.GetQueuedJobs(numWorkers)
			if err != nil {
				log.Printf("Error fetching queued jobs: %v", err)
			} else {
				for _, job := range jobs {
					p.jobQueue <- job
				}
			}
		}
		time.Sleep(interval)
	}
}

func (p *Pool) worker(id int) {
	log.Printf("Starting download worker %d", id)
	for job := range p.jobQueue {
		claimed, err := p.mgr.Claim(job.ID)
		if err != nil {
			log.Printf("Worker %d could not claim job %d: %v", id, job.ID, err)
			continue
		}
		if !claimed {
			// Another worker took it, or it was paused or cancelled while
			// sitting in the channel.
			continue
		}

		err = p.processDownload(job)
		switch {
		case err == nil:
			p.broadcast(job.ID, "Download finished successfully.", models.StatusCompleted, 100, true)
			if p.registry != nil {
				if regErr := p.registry.MarkLessonMaterialized(job.LessonID); regErr != nil {
					log.Printf("Error updating pack state for lesson %s: %v", job.LessonID, regErr)
				}
			}
		case errors.Is(err, ErrDownloadPaused):
			log.Printf("Download paused for job %d", job.ID)
		case errors.Is(err, ErrDownloadCancelled):
			log.Printf("Download cancelled for job %d", job.ID)
		default:
			errMsg := fmt.Sprintf("Download failed: %v", err)
			log.Println(errMsg)
			p.mgr.Fail(job.ID, errMsg)
			p.broadcast(job.ID, errMsg, models.StatusFailed, 0, false)
		}
	}
}

func (p *Pool) processDownload(job *models.DownloadJob) error {
	ctx := context.Background()

	specs, err := p.source.AssetsForJob(ctx, job)
	if err != nil {
		return fmt.Errorf("could not resolve assets: %w", err)
	}
	if len(specs) == 0 {
		return fmt.Errorf("no assets found for lesson %s", job.LessonID)
	}

	var total int64
	for _, spec := range specs {
		total += spec.SizeBytes
	}

	contentRoot := p.app.Config().Content.Path
	ttl := time.Duration(p.app.Config().Cache.AssetTTLDays) * 24 * time.Hour
	now := time.Now()

	var assets []*models.CachedAsset
	var done int64
	for i, spec := range specs {
		// Re-read the job between transfers so a pause or cancel lands at
		// the next asset boundary instead of being ignored until the end.
		current, err := p.mgr.Job(job.ID)
		if err != nil {
			return err
		}
		switch current.Status {
		case models.StatusPaused:
			return ErrDownloadPaused
		case models.StatusCancelled:
			return ErrDownloadCancelled
		}

		destPath := util.AssetPath(contentRoot, job.LessonID, fileNameFor(spec))
		res, err := p.exec.Fetch(ctx, spec.URL, destPath, func(written int64) {
			p.mgr.ReportProgress(job.ID, done+written, total)
		})
		if err != nil {
			return fmt.Errorf("asset %s: %w", spec.ID, err)
		}

		if spec.Checksum != "" && res.Checksum != spec.Checksum {
			os.Remove(destPath)
			return fmt.Errorf("asset %s: checksum mismatch (expected %s, got %s)", spec.ID, spec.Checksum, res.Checksum)
		}

		if spec.Type == "pack_archive" {
			extracted, err := p.unpackArchive(ctx, job.LessonID, spec, destPath, now, ttl)
			if err != nil {
				return err
			}
			assets = append(assets, extracted...)
		} else {
			assets = append(assets, p.buildAsset(job.LessonID, spec, destPath, res, now, ttl))
		}

		done += res.BytesWritten
		p.mgr.ReportProgress(job.ID, done, total)
		p.broadcast(job.ID, fmt.Sprintf("Downloaded asset %d of %d", i+1, len(specs)),
			models.StatusInProgress, percentOf(done, total), false)
	}

	return p.mgr.Complete(job.ID, assets)
}

// unpackArchive extracts a lesson archive in place and registers every
// extracted file as its own cached asset. The archive itself is removed
// afterwards; only its contents stay on disk.
func (p *Pool) unpackArchive(ctx context.Context, lessonID string, spec models.AssetSpec, archivePath string, now time.Time, ttl time.Duration) ([]*models.CachedAsset, error) {
	files, err := packs.ExtractArchive(ctx, archivePath, filepath.Dir(archivePath))
	if err != nil {
		return nil, fmt.Errorf("asset %s: failed to extract archive: %w", spec.ID, err)
	}
	if err := os.Remove(archivePath); err != nil {
		log.Printf("Could not remove extracted archive %s: %v", archivePath, err)
	}

	var assets []*models.CachedAsset
	for _, f := range files {
		checksum, err := util.FileChecksum(f.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to checksum extracted file %s: %w", f.Path, err)
		}
		assets = append(assets, &models.CachedAsset{
			LessonID:       lessonID,
			AssetID:        spec.ID + "/" + f.Name,
			AssetType:      assetTypeForFile(f.Name),
			OriginalURL:    spec.URL + "#" + f.Name,
			LocalPath:      f.Path,
			SizeBytes:      f.Size,
			Checksum:       checksum,
			IsValid:        true,
			CachedAt:       now,
			LastAccessedAt: now,
			ExpiresAt:      now.Add(ttl),
		})
	}
	return assets, nil
}

func (p *Pool) buildAsset(lessonID string, spec models.AssetSpec, destPath string, res *TransferResult, now time.Time, ttl time.Duration) *models.CachedAsset {
	asset := &models.CachedAsset{
		LessonID:       lessonID,
		AssetID:        spec.ID,
		AssetType:      spec.Type,
		OriginalURL:    spec.URL,
		LocalPath:      destPath,
		SizeBytes:      res.BytesWritten,
		Checksum:       res.Checksum,
		IsValid:        true,
		CachedAt:       now,
		LastAccessedAt: now,
		ExpiresAt:      now.Add(ttl),
	}
	if spec.Type == "image" {
		data, err := os.ReadFile(destPath)
		if err == nil {
			if thumb, err := cache.GenerateThumbnail(data); err == nil {
				asset.Thumbnail = thumb
			}
		}
	}
	return asset
}

func (p *Pool) broadcast(jobID int64, message, status string, progress float64, done bool) {
	p.app.WsHub().BroadcastJSON(models.ProgressUpdate{
		JobID:    "downloader",
		Message:  message,
		Progress: progress,
		ItemID:   jobID,
		Status:   status,
		Done:     done,
	})
}

// PauseAll stops the polling loop from handing out new jobs and pauses
// every queued or running job in the store.
func (p *Pool) PauseAll() error {
	p.mu.Lock()
	p.isPaused = true
	p.mu.Unlock()
	log.Println("Download queue paused.")
	return p.st.PauseAllJobs()
}

// ResumeAll reverses PauseAll.
func (p *Pool) ResumeAll() error {
	p.mu.Lock()
	p.isPaused = false
	p.mu.Unlock()
	log.Println("Download queue resumed.")
	return p.st.ResumeAllJobs()
}

func (p *Pool) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isPaused
}

func fileNameFor(spec models.AssetSpec) string {
	ext := path.Ext(path.Base(spec.URL))
	return util.SanitizeFileName(spec.ID) + ext
}

func assetTypeForFile(name string) string {
	switch path.Ext(name) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return "image"
	case ".mp3", ".ogg", ".wav", ".m4a":
		return "audio"
	case ".mp4", ".webm", ".mkv":
		return "video"
	default:
		return "file"
	}
}

func percentOf(done, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(done) / float64(total) * 100
}
