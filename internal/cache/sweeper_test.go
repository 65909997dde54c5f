package cache_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sadmanHT/porakhela-sync/internal/cache"
	"github.com/sadmanHT/porakhela-sync/internal/models"
	"github.com/sadmanHT/porakhela-sync/internal/store"
	"github.com/sadmanHT/porakhela-sync/internal/testutil"
	"github.com/sadmanHT/porakhela-sync/internal/util"
)

func writeAssetFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write asset file: %v", err)
	}
	return path
}

func putFileAsset(t *testing.T, s *store.Store, lessonID, assetID, path string, expiresAt time.Time) *models.CachedAsset {
	t.Helper()
	checksum, err := util.FileChecksum(path)
	if err != nil {
		t.Fatalf("FileChecksum failed: %v", err)
	}
	stored, err := s.PutAsset(&models.CachedAsset{
		LessonID:    lessonID,
		AssetID:     assetID,
		AssetType:   "image",
		OriginalURL: "https://cdn.example/" + lessonID + "/" + assetID,
		LocalPath:   path,
		SizeBytes:   int64(len(assetID)),
		Checksum:    checksum,
		ExpiresAt:   expiresAt,
	})
	if err != nil {
		t.Fatalf("PutAsset failed: %v", err)
	}
	return stored
}

func TestSweepExpiredRemovesLedgerRowAndFile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	dir := t.TempDir()
	now := time.Now()

	oldPath := writeAssetFile(t, dir, "old.png", "old bytes")
	newPath := writeAssetFile(t, dir, "new.png", "new bytes")
	putFileAsset(t, s, "lesson-old", "img-1", oldPath, now.AddDate(0, 0, -1))
	putFileAsset(t, s, "lesson-new", "img-1", newPath, now.AddDate(0, 0, 1))

	sweeper := cache.NewSweeper(s)
	evicted, err := sweeper.SweepExpired(now)
	if err != nil {
		t.Fatalf("SweepExpired failed: %v", err)
	}
	if evicted != 1 {
		t.Errorf("Expected 1 eviction, got %d", evicted)
	}

	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Error("Expected expired asset file removed")
	}
	if _, err := os.Stat(newPath); err != nil {
		t.Error("Expected unexpired asset file kept")
	}
	if _, err := s.GetAsset("lesson-old", "img-1"); err == nil {
		t.Error("Expected expired ledger row gone")
	}
	if _, err := s.GetAsset("lesson-new", "img-1"); err != nil {
		t.Error("Expected unexpired ledger row kept")
	}
}

func TestSweepExpiredSurvivesMissingFile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	dir := t.TempDir()
	now := time.Now()

	path := writeAssetFile(t, dir, "gone.png", "bytes")
	putFileAsset(t, s, "lesson-001", "img-1", path, now.AddDate(0, 0, -1))
	os.Remove(path)

	sweeper := cache.NewSweeper(s)
	evicted, err := sweeper.SweepExpired(now)
	if err != nil {
		t.Fatalf("SweepExpired failed: %v", err)
	}
	if evicted != 1 {
		t.Errorf("Expected ledger eviction despite missing file, got %d", evicted)
	}
}

func TestVerifyAssetsInvalidatesCorruptedFiles(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	dir := t.TempDir()
	future := time.Now().AddDate(0, 0, 30)

	goodPath := writeAssetFile(t, dir, "good.png", "good bytes")
	badPath := writeAssetFile(t, dir, "bad.png", "original bytes")
	missingPath := writeAssetFile(t, dir, "missing.png", "soon gone")

	good := putFileAsset(t, s, "lesson-001", "good", goodPath, future)
	putFileAsset(t, s, "lesson-001", "bad", badPath, future)
	putFileAsset(t, s, "lesson-001", "missing", missingPath, future)

	// Corrupt one file and remove another after registration.
	os.WriteFile(badPath, []byte("tampered bytes"), 0644)
	os.Remove(missingPath)

	sweeper := cache.NewSweeper(s)
	invalidated, err := sweeper.VerifyAssets()
	if err != nil {
		t.Fatalf("VerifyAssets failed: %v", err)
	}
	if invalidated != 2 {
		t.Errorf("Expected 2 invalidations, got %d", invalidated)
	}

	kept, _ := s.GetAsset("lesson-001", "good")
	if !kept.IsValid || kept.ID != good.ID {
		t.Error("Expected intact asset to stay valid")
	}
	corrupt, _ := s.GetAsset("lesson-001", "bad")
	if corrupt.IsValid {
		t.Error("Expected tampered asset invalidated")
	}
	gone, _ := s.GetAsset("lesson-001", "missing")
	if gone.IsValid {
		t.Error("Expected asset with missing file invalidated")
	}
}
