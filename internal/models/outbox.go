package models

import "time"

// ProgressRecord is a child's completion state for one lesson. There is at
// most one row per (child_profile_id, lesson_id); local writes replace it and
// clear IsSynced. Record ids are client-generated UUIDs so the remote service
// can upsert idempotently by id.
type ProgressRecord struct {
	ID              string     `json:"id"`
	ChildProfileID  string     `json:"child_profile_id"`
	LessonID        string     `json:"lesson_id"`
	Completed       bool       `json:"completed"`
	ProgressPercent int        `json:"progress_percent"`
	Score           float64    `json:"score"`
	IsSynced        bool       `json:"is_synced"`
	SyncedAt        *time.Time `json:"synced_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// QuestionResult is one answer given to one question. Rows are append-only:
// a retry of the same question produces a new row, preserving answer history.
type QuestionResult struct {
	ID             string     `json:"id"`
	ChildProfileID string     `json:"child_profile_id"`
	LessonID       string     `json:"lesson_id"`
	QuestionID     string     `json:"question_id"`
	SelectedAnswer string     `json:"selected_answer"`
	IsCorrect      bool       `json:"is_correct"`
	TimeTakenMs    int64      `json:"time_taken_ms"`
	IsSynced       bool       `json:"is_synced"`
	SyncedAt       *time.Time `json:"synced_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
