package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sadmanHT/porakhela-sync/internal/models"
)

const jobColumns = `id, lesson_id, content_type, status, priority, bytes_total, bytes_downloaded, progress, message, created_at, updated_at`

func scanJob(row interface{ Scan(...interface{}) error }) (*models.DownloadJob, error) {
	var job models.DownloadJob
	var msg sql.NullString
	err := row.Scan(&job.ID, &job.LessonID, &job.ContentType, &job.Status, &job.Priority,
		&job.BytesTotal, &job.BytesDownloaded, &job.Progress, &msg, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, err
	}
	job.Message = msg.String
	return &job, nil
}

// GetJobByKey retrieves the single job for a content key, if any.
func (s *Store) GetJobByKey(lessonID, contentType string) (*models.DownloadJob, error) {
	row := s.db.QueryRow(`SELECT `+jobColumns+` FROM download_jobs WHERE lesson_id = ? AND content_type = ?`,
		lessonID, contentType)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return job, err
}

// GetJob retrieves a single download job by ID.
func (s *Store) GetJob(id int64) (*models.DownloadJob, error) {
	row := s.db.QueryRow(`SELECT `+jobColumns+` FROM download_jobs WHERE id = ?`, id)
	return scanJob(row)
}

// InsertJob creates a new queued job for a content key.
func (s *Store) InsertJob(lessonID, contentType string, priority int) (*models.DownloadJob, error) {
	now := time.Now()
	res, err := s.db.Exec(`
        INSERT INTO download_jobs (lesson_id, content_type, status, priority, message, created_at, updated_at)
        VALUES (?, ?, 'queued', ?, 'Waiting to start', ?, ?)`,
		lessonID, contentType, priority, now, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetJob(id)
}

// RequeueJob resets an existing job to queued with progress cleared. Used
// both when a terminal job is superseded by a fresh enqueue and for retry.
func (s *Store) RequeueJob(id int64, priority int, message string) error {
	_, err := s.db.Exec(`
        UPDATE download_jobs
        SET status = 'queued', priority = ?, bytes_downloaded = 0, progress = 0, message = ?, updated_at = ?
        WHERE id = ?`, priority, message, time.Now(), id)
	return err
}

// GetDownloadQueue returns every job, newest first.
func (s *Store) GetDownloadQueue() ([]*models.DownloadJob, error) {
	rows, err := s.db.Query(`SELECT ` + jobColumns + ` FROM download_jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.DownloadJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// GetQueuedJobs retrieves a limited number of queued jobs, lowest priority
// value first, then oldest first.
func (s *Store) GetQueuedJobs(limit int) ([]*models.DownloadJob, error) {
	rows, err := s.db.Query(`
        SELECT `+jobColumns+` FROM download_jobs
        WHERE status = 'queued' ORDER BY priority ASC, created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.DownloadJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// UpdateJobStatus changes a job's status and message.
func (s *Store) UpdateJobStatus(id int64, status, message string) error {
	_, err := s.db.Exec(`UPDATE download_jobs SET status = ?, message = ?, updated_at = ? WHERE id = ?`,
		status, message, time.Now(), id)
	return err
}

// TransitionJobStatus changes a job's status only if it is currently in one
// of the given states. Returns true when the transition was applied. The
// guard runs inside the UPDATE so concurrent transitions cannot race.
func (s *Store) TransitionJobStatus(id int64, from []string, to, message string) (bool, error) {
	if len(from) == 0 {
		return false, fmt.Errorf("no source states given")
	}
	query := `UPDATE download_jobs SET status = ?, message = ?, updated_at = ? WHERE id = ? AND status IN (?` +
		repeatPlaceholder(len(from)-1) + `)`
	args := []interface{}{to, message, time.Now(), id}
	for _, st := range from {
		args = append(args, st)
	}
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func repeatPlaceholder(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ", ?"
	}
	return out
}

// UpdateJobProgress applies a byte-count report to an in-progress job. The
// WHERE clause enforces the ordering rules: the job must be in_progress, the
// new count must not go backwards and must not overshoot the total. A total
// of zero means the size is not known yet; byte counts are then accepted
// without an upper bound and progress stays at zero. A stale or overshooting
// report simply affects zero rows.
func (s *Store) UpdateJobProgress(id int64, bytesDownloaded, bytesTotal int64) (bool, error) {
	var progress float64
	if bytesTotal > 0 {
		progress = float64(bytesDownloaded) / float64(bytesTotal)
	}
	res, err := s.db.Exec(`
        UPDATE download_jobs
        SET bytes_downloaded = ?, bytes_total = ?, progress = ?, updated_at = ?
        WHERE id = ? AND status = 'in_progress' AND bytes_downloaded <= ? AND (? = 0 OR ? <= ?)`,
		bytesDownloaded, bytesTotal, progress, time.Now(),
		id, bytesDownloaded, bytesTotal, bytesDownloaded, bytesTotal)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// RetryJob resets a failed or cancelled job back to 'queued' with its byte
// counts cleared. Returns false when the job is in any other state.
func (s *Store) RetryJob(id int64) (bool, error) {
	res, err := s.db.Exec(`
        UPDATE download_jobs
        SET status = 'queued', bytes_downloaded = 0, progress = 0, message = 'Re-queued for retry', updated_at = ?
        WHERE id = ? AND status IN ('failed', 'cancelled')`, time.Now(), id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// CompleteJob registers every asset produced by a job and marks the job
// completed, all inside one transaction. If any single asset write fails the
// transaction rolls back and the caller marks the job failed instead: a
// partially registered lesson is never exposed as downloaded.
func (s *Store) CompleteJob(id int64, assets []*models.CachedAsset) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, a := range assets {
		if _, err := putAsset(tx, a); err != nil {
			return fmt.Errorf("failed to register asset %s: %w", a.AssetID, err)
		}
	}

	res, err := tx.Exec(`
        UPDATE download_jobs
        SET status = 'completed', progress = 1, bytes_downloaded = bytes_total, message = 'Download finished successfully.', updated_at = ?
        WHERE id = ? AND status = 'in_progress'`, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("job %d is not in progress", id)
	}

	return tx.Commit()
}

// ResetInProgressJobs sets jobs from 'in_progress' back to 'queued' on startup.
func (s *Store) ResetInProgressJobs() error {
	_, err := s.db.Exec(`
        UPDATE download_jobs
        SET status = 'queued', bytes_downloaded = 0, progress = 0, message = 'Re-queued after restart', updated_at = ?
        WHERE status = 'in_progress'`, time.Now())
	return err
}

// PauseAllJobs sets all queued or in-progress jobs to 'paused'.
func (s *Store) PauseAllJobs() error {
	_, err := s.db.Exec(`
        UPDATE download_jobs SET status = 'paused', message = 'Paused by user', updated_at = ?
        WHERE status IN ('in_progress', 'queued')`, time.Now())
	return err
}

// ResumeAllJobs sets all paused jobs back to 'queued'.
func (s *Store) ResumeAllJobs() error {
	_, err := s.db.Exec(`
        UPDATE download_jobs SET status = 'queued', message = 'Resumed by user', updated_at = ?
        WHERE status = 'paused'`, time.Now())
	return err
}

// RetryFailedJobs sets all failed jobs back to 'queued' with progress reset.
func (s *Store) RetryFailedJobs() error {
	_, err := s.db.Exec(`
        UPDATE download_jobs
        SET status = 'queued', bytes_downloaded = 0, progress = 0, message = 'Re-queued by user', updated_at = ?
        WHERE status = 'failed'`, time.Now())
	return err
}

// DeleteCompletedJobs removes successfully completed jobs from the history.
func (s *Store) DeleteCompletedJobs() error {
	_, err := s.db.Exec(`DELETE FROM download_jobs WHERE status = 'completed'`)
	return err
}

// ClearQueue removes all jobs that are not completed or in progress.
func (s *Store) ClearQueue() error {
	_, err := s.db.Exec(`DELETE FROM download_jobs WHERE status IN ('queued', 'failed', 'paused', 'cancelled')`)
	return err
}
