package store_test

import (
	"testing"
	"time"

	"github.com/sadmanHT/porakhela-sync/internal/models"
	"github.com/sadmanHT/porakhela-sync/internal/store"
	"github.com/sadmanHT/porakhela-sync/internal/testutil"
)

func TestRecordManifestCheck(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	now := time.Now()

	if err := s.RecordManifestCheck(3, "1.2.0", 12, 50_000_000, true, now); err != nil {
		t.Fatalf("RecordManifestCheck failed: %v", err)
	}

	pack, err := s.GetPack(3)
	if err != nil {
		t.Fatalf("GetPack failed: %v", err)
	}
	if pack.CurrentVersion != "1.2.0" {
		t.Errorf("Expected current version 1.2.0, got %q", pack.CurrentVersion)
	}
	if !pack.IsUpdateAvailable {
		t.Error("Expected update available")
	}
	if pack.DownloadedVersion != "" {
		t.Errorf("Expected no downloaded version yet, got %q", pack.DownloadedVersion)
	}
	if pack.LastCheckedAt == nil {
		t.Error("Expected last_checked_at to be stamped")
	}

	// A second check overwrites the server-side fields.
	if err := s.RecordManifestCheck(3, "1.3.0", 13, 55_000_000, true, now.Add(time.Hour)); err != nil {
		t.Fatalf("second RecordManifestCheck failed: %v", err)
	}
	pack, _ = s.GetPack(3)
	if pack.CurrentVersion != "1.3.0" || pack.TotalLessons != 13 {
		t.Errorf("Expected updated manifest fields, got %q / %d lessons", pack.CurrentVersion, pack.TotalLessons)
	}
}

func TestRecordPackDownloadComplete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)

	s.RecordManifestCheck(3, "1.2.0", 12, 50_000_000, true, time.Now())

	if err := s.RecordPackDownloadComplete(3, "1.2.0", 12, 50_000_000); err != nil {
		t.Fatalf("RecordPackDownloadComplete failed: %v", err)
	}

	pack, _ := s.GetPack(3)
	if pack.DownloadedVersion != "1.2.0" {
		t.Errorf("Expected downloaded version 1.2.0, got %q", pack.DownloadedVersion)
	}
	if pack.IsUpdateAvailable {
		t.Error("Expected no update available once the current version is downloaded")
	}
	if pack.DownloadedLessons != 12 {
		t.Errorf("Expected 12 downloaded lessons, got %d", pack.DownloadedLessons)
	}
}

func TestRecordPackDownloadCompleteOlderVersion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)

	// Server has moved on to 1.3.0 while the device was still downloading 1.2.0.
	s.RecordManifestCheck(3, "1.3.0", 13, 55_000_000, true, time.Now())

	if err := s.RecordPackDownloadComplete(3, "1.2.0", 12, 50_000_000); err != nil {
		t.Fatalf("RecordPackDownloadComplete failed: %v", err)
	}

	pack, _ := s.GetPack(3)
	if !pack.IsUpdateAvailable {
		t.Error("Expected update still available when downloaded version lags the server")
	}
}

func TestUpsertLessonAndLessonsForGrade(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)

	lesson := &models.Lesson{ID: "bn-3-015", Grade: 3, PackVersion: "1.2.0", Title: "বর্ণমালা", Subject: "bangla"}
	if err := s.UpsertLesson(lesson); err != nil {
		t.Fatalf("UpsertLesson failed: %v", err)
	}

	s.MarkLessonDownloaded("bn-3-015", "1.2.0")

	// Upsert with a new pack version updates in place.
	lesson.PackVersion = "1.3.0"
	lesson.Title = "বর্ণমালা (সংশোধিত)"
	if err := s.UpsertLesson(lesson); err != nil {
		t.Fatalf("UpsertLesson (update) failed: %v", err)
	}

	got, err := s.GetLesson("bn-3-015")
	if err != nil {
		t.Fatalf("GetLesson failed: %v", err)
	}
	if got.PackVersion != "1.3.0" {
		t.Errorf("Expected pack version 1.3.0, got %q", got.PackVersion)
	}
	// A manifest bump must not erase which version is actually on disk.
	if got.DownloadedVersion != "1.2.0" {
		t.Errorf("Expected downloaded version 1.2.0 preserved, got %q", got.DownloadedVersion)
	}

	lessons, err := s.LessonsForGrade(3)
	if err != nil {
		t.Fatalf("LessonsForGrade failed: %v", err)
	}
	if len(lessons) != 1 {
		t.Errorf("Expected 1 lesson for grade 3, got %d", len(lessons))
	}
}

func TestCountLessonsDownloadedAt(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)

	s.UpsertLesson(&models.Lesson{ID: "l-1", Grade: 3, PackVersion: "1.1.0", Title: "A", Subject: "math"})
	s.UpsertLesson(&models.Lesson{ID: "l-2", Grade: 3, PackVersion: "1.1.0", Title: "B", Subject: "math"})

	count, err := s.CountLessonsDownloadedAt(3, "1.1.0")
	if err != nil {
		t.Fatalf("CountLessonsDownloadedAt failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 downloaded lessons, got %d", count)
	}

	// Marking the same lesson twice is still one lesson.
	s.MarkLessonDownloaded("l-1", "1.1.0")
	s.MarkLessonDownloaded("l-1", "1.1.0")
	count, _ = s.CountLessonsDownloadedAt(3, "1.1.0")
	if count != 1 {
		t.Errorf("Expected 1 downloaded lesson, got %d", count)
	}

	// A lesson holding an older version's assets does not count toward
	// the new version.
	s.MarkLessonDownloaded("l-2", "1.0.0")
	count, _ = s.CountLessonsDownloadedAt(3, "1.1.0")
	if count != 1 {
		t.Errorf("Expected old-version lesson excluded, got %d", count)
	}
}

func TestPruneLessonsForGrade(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)

	s.UpsertLesson(&models.Lesson{ID: "l-1", Grade: 3, PackVersion: "1.0.0", Title: "A", Subject: "math"})
	s.UpsertLesson(&models.Lesson{ID: "l-2", Grade: 3, PackVersion: "1.0.0", Title: "B", Subject: "math"})
	s.UpsertLesson(&models.Lesson{ID: "l-9", Grade: 4, PackVersion: "2.0.0", Title: "C", Subject: "math"})

	if err := s.PruneLessonsForGrade(3, []string{"l-1"}); err != nil {
		t.Fatalf("PruneLessonsForGrade failed: %v", err)
	}

	lessons, _ := s.LessonsForGrade(3)
	if len(lessons) != 1 || lessons[0].ID != "l-1" {
		t.Errorf("Expected only l-1 to survive, got %+v", lessons)
	}
	// Other grades are untouched.
	if _, err := s.GetLesson("l-9"); err != nil {
		t.Errorf("Expected grade 4 lesson untouched: %v", err)
	}
}

func TestKnownGrades(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)

	s.RecordManifestCheck(3, "1.0.0", 1, 100, false, time.Now())
	s.CreateProfile("Ayesha", 5, "")
	s.CreateProfile("Rafi", 3, "")

	grades, err := s.KnownGrades()
	if err != nil {
		t.Fatalf("KnownGrades failed: %v", err)
	}
	if len(grades) != 2 || grades[0] != 3 || grades[1] != 5 {
		t.Errorf("Expected grades [3 5], got %v", grades)
	}
}
