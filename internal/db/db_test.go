package db_test

import (
	"testing"

	"github.com/sadmanHT/porakhela-sync/internal/testutil"
)

func TestMigrationsCreateSchema(t *testing.T) {
	// Setup test database with migrations already applied
	db := testutil.SetupTestDB(t)

	tables := []string{
		"child_profiles",
		"download_jobs",
		"cached_assets",
		"lesson_packs",
		"lessons",
		"progress_records",
		"question_results",
	}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("Expected table %s to exist after migrations: %v", table, err)
		}
	}
}

func TestContentKeyUniqueness(t *testing.T) {
	db := testutil.SetupTestDB(t)

	_, err := db.Exec("INSERT INTO download_jobs (lesson_id, content_type) VALUES (?, ?)", "bn-3-001", "lesson")
	if err != nil {
		t.Fatalf("Failed to insert download job: %v", err)
	}

	// A second job for the same (lesson_id, content_type) must be rejected.
	_, err = db.Exec("INSERT INTO download_jobs (lesson_id, content_type) VALUES (?, ?)", "bn-3-001", "lesson")
	if err == nil {
		t.Error("Expected unique constraint violation for duplicate content key")
	}

	// The same lesson with a different content type is a different unit.
	_, err = db.Exec("INSERT INTO download_jobs (lesson_id, content_type) VALUES (?, ?)", "bn-3-001", "pack")
	if err != nil {
		t.Errorf("Failed to insert pack job for same lesson: %v", err)
	}
}

func TestAssetURLUniqueness(t *testing.T) {
	db := testutil.SetupTestDB(t)

	_, err := db.Exec(`
        INSERT INTO cached_assets (lesson_id, asset_id, original_url, local_path, expires_at)
        VALUES (?, ?, ?, ?, datetime('now', '+30 days'))`,
		"bn-3-001", "img-1", "https://cdn.example/a.png", "/content/a.png")
	if err != nil {
		t.Fatalf("Failed to insert asset: %v", err)
	}

	// The same URL can never be registered twice, even for another lesson.
	_, err = db.Exec(`
        INSERT INTO cached_assets (lesson_id, asset_id, original_url, local_path, expires_at)
        VALUES (?, ?, ?, ?, datetime('now', '+30 days'))`,
		"bn-3-002", "img-1", "https://cdn.example/a.png", "/content/b.png")
	if err == nil {
		t.Error("Expected unique constraint violation for duplicate original_url")
	}
}
