package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sadmanHT/porakhela-sync/internal/models"
)

// Outbox operations: locally generated progress and answer records waiting
// for the remote sync endpoint to acknowledge them.

const progressColumns = `id, child_profile_id, lesson_id, completed, progress_percent, score, is_synced, synced_at, created_at, updated_at`
const resultColumns = `id, child_profile_id, lesson_id, question_id, selected_answer, is_correct, time_taken_ms, is_synced, synced_at, created_at`

func scanProgress(row interface{ Scan(...interface{}) error }) (*models.ProgressRecord, error) {
	var p models.ProgressRecord
	var syncedAt sql.NullTime
	err := row.Scan(&p.ID, &p.ChildProfileID, &p.LessonID, &p.Completed, &p.ProgressPercent,
		&p.Score, &p.IsSynced, &syncedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if syncedAt.Valid {
		p.SyncedAt = &syncedAt.Time
	}
	return &p, nil
}

func scanResult(row interface{ Scan(...interface{}) error }) (*models.QuestionResult, error) {
	var r models.QuestionResult
	var syncedAt sql.NullTime
	err := row.Scan(&r.ID, &r.ChildProfileID, &r.LessonID, &r.QuestionID, &r.SelectedAnswer,
		&r.IsCorrect, &r.TimeTakenMs, &r.IsSynced, &syncedAt, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	if syncedAt.Valid {
		r.SyncedAt = &syncedAt.Time
	}
	return &r, nil
}

// UpsertProgress writes or replaces the single progress row for a
// (child, lesson) key. Any local mutation clears is_synced: an edited record
// must be sent to the server again, whatever its previous sync state.
func (s *Store) UpsertProgress(childProfileID, lessonID string, completed bool, progressPercent int, score float64) (*models.ProgressRecord, error) {
	now := time.Now()
	_, err := s.db.Exec(`
        INSERT INTO progress_records (id, child_profile_id, lesson_id, completed, progress_percent, score, is_synced, synced_at, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, 0, NULL, ?, ?)
        ON CONFLICT(child_profile_id, lesson_id) DO UPDATE SET
            completed = excluded.completed,
            progress_percent = excluded.progress_percent,
            score = excluded.score,
            is_synced = 0,
            synced_at = NULL,
            updated_at = excluded.updated_at`,
		uuid.NewString(), childProfileID, lessonID, completed, progressPercent, score, now, now)
	if err != nil {
		return nil, err
	}
	return s.GetProgress(childProfileID, lessonID)
}

// GetProgress retrieves the progress row for a (child, lesson) key.
func (s *Store) GetProgress(childProfileID, lessonID string) (*models.ProgressRecord, error) {
	row := s.db.QueryRow(`SELECT `+progressColumns+` FROM progress_records WHERE child_profile_id = ? AND lesson_id = ?`,
		childProfileID, lessonID)
	return scanProgress(row)
}

// AppendResult records one answer to one question. Results are append-only;
// a retry of the same question gets a fresh row so answer history survives.
func (s *Store) AppendResult(childProfileID, lessonID, questionID, selectedAnswer string, isCorrect bool, timeTakenMs int64) (*models.QuestionResult, error) {
	id := uuid.NewString()
	now := time.Now()
	_, err := s.db.Exec(`
        INSERT INTO question_results (id, child_profile_id, lesson_id, question_id, selected_answer, is_correct, time_taken_ms, is_synced, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		id, childProfileID, lessonID, questionID, selectedAnswer, isCorrect, timeTakenMs, now)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRow(`SELECT `+resultColumns+` FROM question_results WHERE id = ?`, id)
	return scanResult(row)
}

// PendingSyncProgress returns unsynced progress records ordered by child
// profile, then creation time. Creation order is guaranteed per profile;
// profiles themselves may drain in any relative order.
func (s *Store) PendingSyncProgress(limit int) ([]*models.ProgressRecord, error) {
	rows, err := s.db.Query(`
        SELECT `+progressColumns+` FROM progress_records
        WHERE is_synced = 0 ORDER BY child_profile_id ASC, created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.ProgressRecord
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, p)
	}
	return records, rows.Err()
}

// PendingSyncResults returns unsynced question results, same ordering rules
// as PendingSyncProgress.
func (s *Store) PendingSyncResults(limit int) ([]*models.QuestionResult, error) {
	rows, err := s.db.Query(`
        SELECT `+resultColumns+` FROM question_results
        WHERE is_synced = 0 ORDER BY child_profile_id ASC, created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.QuestionResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// AcknowledgeProgressSync flips is_synced for a progress record. Idempotent:
// acknowledging an already-synced record changes nothing and is not an error.
func (s *Store) AcknowledgeProgressSync(recordID string, syncedAt time.Time) error {
	_, err := s.db.Exec(`UPDATE progress_records SET is_synced = 1, synced_at = ? WHERE id = ? AND is_synced = 0`,
		syncedAt, recordID)
	return err
}

// AcknowledgeResultSync flips is_synced for a question result. Idempotent.
func (s *Store) AcknowledgeResultSync(recordID string, syncedAt time.Time) error {
	_, err := s.db.Exec(`UPDATE question_results SET is_synced = 1, synced_at = ? WHERE id = ? AND is_synced = 0`,
		syncedAt, recordID)
	return err
}

// PendingSyncCounts reports how many records of each kind are waiting.
func (s *Store) PendingSyncCounts() (progress int, results int, err error) {
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM progress_records WHERE is_synced = 0`).Scan(&progress); err != nil {
		return 0, 0, err
	}
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM question_results WHERE is_synced = 0`).Scan(&results); err != nil {
		return 0, 0, err
	}
	return progress, results, nil
}
