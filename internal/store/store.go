// To handle all database interactions. This is our
// data access layer, keeping SQL queries separate from business logic.

package store

import (
	"database/sql"
	"fmt"
	"log"
)

// Store provides all functions to interact with the database.
type Store struct {
	db *sql.DB
}

// New creates a new Store instance.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DeleteLessonData removes a lesson and everything that depends on it: its
// cached assets, its download jobs and its row in the lessons table. The
// deletion is one transaction so a crash can never leave half a lesson
// behind. Progress records are kept: they are an append-only audit trail and
// may still be waiting for sync.
func (s *Store) DeleteLessonData(lessonID string) ([]string, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Collect file paths first so the caller can remove the files after the
	// ledger rows are gone.
	rows, err := tx.Query("SELECT local_path FROM cached_assets WHERE lesson_id = ?", lessonID)
	if err != nil {
		return nil, err
	}
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return nil, err
		}
		paths = append(paths, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := tx.Exec("DELETE FROM cached_assets WHERE lesson_id = ?", lessonID); err != nil {
		return nil, fmt.Errorf("failed to delete cached assets: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM download_jobs WHERE lesson_id = ?", lessonID); err != nil {
		return nil, fmt.Errorf("failed to delete download jobs: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM lessons WHERE id = ?", lessonID); err != nil {
		return nil, fmt.Errorf("failed to delete lesson: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	log.Printf("Deleted lesson %s and %d cached asset(s)", lessonID, len(paths))
	return paths, nil
}
