package models

import "time"

// Download job statuses. A job is terminal in StatusCompleted, StatusFailed
// or StatusCancelled; completed stays terminal until an explicit cache clear.
const (
	StatusQueued     = "queued"
	StatusInProgress = "in_progress"
	StatusPaused     = "paused"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

// IsTerminalStatus reports whether a job status permits no further transfer work.
func IsTerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusFailed || status == StatusCancelled
}

// DownloadJob tracks one downloadable content unit, identified by its
// content key (lesson_id, content_type). Lower priority values are
// processed first. Progress is always bytes_downloaded/bytes_total.
type DownloadJob struct {
	ID              int64     `json:"id"`
	LessonID        string    `json:"lesson_id"`
	ContentType     string    `json:"content_type"` // "lesson" or "pack"
	Status          string    `json:"status"`
	Priority        int       `json:"priority"`
	BytesTotal      int64     `json:"bytes_total"`
	BytesDownloaded int64     `json:"bytes_downloaded"`
	Progress        float64   `json:"progress"` // Fraction in [0,1]
	Message         string    `json:"message"`  // Optional message for status updates
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ContentKey returns the job's content key in "lessonID/contentType" form,
// used to serialize mutations per downloadable unit.
func (j *DownloadJob) ContentKey() string {
	return j.LessonID + "/" + j.ContentType
}
