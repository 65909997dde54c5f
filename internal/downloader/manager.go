// Package downloader owns the download job state machine and the worker
// pool that executes transfers. All durable state lives in the store; the
// manager layers per-content-key serialization and transition rules on top
// so that two callers can never race the same lesson into an inconsistent
// state.
package downloader

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/sadmanHT/porakhela-sync/internal/models"
	"github.com/sadmanHT/porakhela-sync/internal/store"
)

var (
	// ErrJobNotFound is returned when an operation references a job ID that
	// does not exist. Progress reports for unknown jobs are a caller bug,
	// not a condition to swallow.
	ErrJobNotFound = errors.New("download job not found")

	// ErrInvalidTransition is returned when a requested state change is not
	// allowed from the job's current state.
	ErrInvalidTransition = errors.New("invalid job state transition")
)

// Manager coordinates mutations of download jobs. Mutations for the same
// content key (lesson_id, content_type) are serialized through a per-key
// mutex; the store's guarded UPDATEs provide a second line of defense.
type Manager struct {
	st *store.Store

	mu       sync.Mutex
	keyLocks map[string]*sync.Mutex
}

func NewManager(st *store.Store) *Manager {
	return &Manager{
		st:       st,
		keyLocks: make(map[string]*sync.Mutex),
	}
}

// lockKey acquires the mutex for one content key and returns its unlock
// function. Key mutexes are never removed; the key space is small (one per
// lesson/content-type pair ever touched).
func (m *Manager) lockKey(key string) func() {
	m.mu.Lock()
	l, ok := m.keyLocks[key]
	if !ok {
		l = &sync.Mutex{}
		m.keyLocks[key] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Enqueue requests a download for a content key. At most one job exists per
// key: if a non-terminal job is already present it is returned unchanged,
// so double-taps in the UI cannot duplicate work. A terminal job (failed,
// cancelled or completed) is superseded in place and re-queued fresh.
func (m *Manager) Enqueue(lessonID, contentType string, priority int) (*models.DownloadJob, error) {
	if lessonID == "" {
		return nil, fmt.Errorf("lesson id is required")
	}
	if contentType != "lesson" && contentType != "pack" {
		return nil, fmt.Errorf("unknown content type %q", contentType)
	}

	unlock := m.lockKey(lessonID + "/" + contentType)
	defer unlock()

	job, err := m.st.GetJobByKey(lessonID, contentType)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return m.st.InsertJob(lessonID, contentType, priority)
	}
	if !models.IsTerminalStatus(job.Status) {
		return job, nil
	}

	if err := m.st.RequeueJob(job.ID, priority, "Re-queued"); err != nil {
		return nil, err
	}
	return m.st.GetJob(job.ID)
}

// ReportProgress applies a byte-count report from a transfer. Reports
// against a job that is not in progress, or that would move the counter
// backwards or past the total, are dropped without error; only a report
// against a job ID that does not exist at all is an error.
func (m *Manager) ReportProgress(jobID, bytesDownloaded, bytesTotal int64) error {
	if _, err := m.requireJob(jobID); err != nil {
		return err
	}
	_, err := m.st.UpdateJobProgress(jobID, bytesDownloaded, bytesTotal)
	return err
}

// Complete registers the job's downloaded assets and marks it completed in
// a single transaction. On any failure the job is marked failed instead:
// the lesson is either fully registered or not registered at all.
func (m *Manager) Complete(jobID int64, assets []*models.CachedAsset) error {
	job, err := m.requireJob(jobID)
	if err != nil {
		return err
	}

	unlock := m.lockKey(job.ContentKey())
	defer unlock()

	if err := m.st.CompleteJob(jobID, assets); err != nil {
		m.st.UpdateJobStatus(jobID, models.StatusFailed, fmt.Sprintf("Failed to register assets: %v", err))
		return err
	}
	return nil
}

// Fail marks a job failed with a reason. Terminal jobs are left alone.
func (m *Manager) Fail(jobID int64, reason string) error {
	return m.transition(jobID,
		[]string{models.StatusQueued, models.StatusInProgress, models.StatusPaused},
		models.StatusFailed, reason)
}

// Cancel transitions any non-terminal job to cancelled. A cancelled job
// keeps whatever bytes were written; retry starts it over.
func (m *Manager) Cancel(jobID int64) error {
	return m.transition(jobID,
		[]string{models.StatusQueued, models.StatusInProgress, models.StatusPaused},
		models.StatusCancelled, "Cancelled by user")
}

// Pause stops a queued or running job. The worker observes the status flip
// between asset transfers and abandons the job without losing its state.
func (m *Manager) Pause(jobID int64) error {
	return m.transition(jobID,
		[]string{models.StatusQueued, models.StatusInProgress},
		models.StatusPaused, "Paused by user")
}

// Resume puts a paused job back in the queue.
func (m *Manager) Resume(jobID int64) error {
	return m.transition(jobID,
		[]string{models.StatusPaused},
		models.StatusQueued, "Resumed by user")
}

// Retry re-queues a failed or cancelled job with its byte counts reset.
func (m *Manager) Retry(jobID int64) error {
	job, err := m.requireJob(jobID)
	if err != nil {
		return err
	}

	unlock := m.lockKey(job.ContentKey())
	defer unlock()

	applied, err := m.st.RetryJob(jobID)
	if err != nil {
		return err
	}
	if !applied {
		return ErrInvalidTransition
	}
	return nil
}

// Claim moves a queued job to in_progress on behalf of a worker. Returns
// false when another worker got there first or the job was paused or
// cancelled in the meantime.
func (m *Manager) Claim(jobID int64) (bool, error) {
	return m.st.TransitionJobStatus(jobID,
		[]string{models.StatusQueued},
		models.StatusInProgress, "Starting download...")
}

// Job returns the current state of a job.
func (m *Manager) Job(jobID int64) (*models.DownloadJob, error) {
	return m.requireJob(jobID)
}

func (m *Manager) transition(jobID int64, from []string, to, message string) error {
	job, err := m.requireJob(jobID)
	if err != nil {
		return err
	}

	unlock := m.lockKey(job.ContentKey())
	defer unlock()

	applied, err := m.st.TransitionJobStatus(jobID, from, to, message)
	if err != nil {
		return err
	}
	if !applied {
		return ErrInvalidTransition
	}
	return nil
}

func (m *Manager) requireJob(jobID int64) (*models.DownloadJob, error) {
	job, err := m.st.GetJob(jobID)
	if err == sql.ErrNoRows {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}
