package store_test

import (
	"testing"
	"time"

	"github.com/sadmanHT/porakhela-sync/internal/models"
	"github.com/sadmanHT/porakhela-sync/internal/store"
	"github.com/sadmanHT/porakhela-sync/internal/testutil"
)

func putAssetExpiringAt(t *testing.T, s *store.Store, lessonID, assetID string, expiresAt time.Time) *models.CachedAsset {
	t.Helper()
	a := newTestAsset(lessonID, assetID, "https://cdn.example/"+lessonID+"/"+assetID, "/c/"+lessonID+"/"+assetID, 100)
	a.ExpiresAt = expiresAt
	stored, err := s.PutAsset(a)
	if err != nil {
		t.Fatalf("PutAsset failed: %v", err)
	}
	return stored
}

func TestExpiredAsOf(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	now := time.Now()

	putAssetExpiringAt(t, s, "lesson-old", "img-1", now.AddDate(0, 0, -1))
	putAssetExpiringAt(t, s, "lesson-new", "img-1", now.AddDate(0, 0, 1))

	expired, err := s.ExpiredAsOf(now)
	if err != nil {
		t.Fatalf("ExpiredAsOf failed: %v", err)
	}
	if len(expired) != 1 {
		t.Fatalf("Expected exactly 1 expired asset, got %d", len(expired))
	}
	if expired[0].LessonID != "lesson-old" {
		t.Errorf("Expected lesson-old to be expired, got %s", expired[0].LessonID)
	}
}

func TestExpiredAsOfIsStrict(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	now := time.Now().Truncate(time.Second)

	// An asset expiring exactly now is not yet expired.
	putAssetExpiringAt(t, s, "lesson-edge", "img-1", now)

	expired, err := s.ExpiredAsOf(now)
	if err != nil {
		t.Fatalf("ExpiredAsOf failed: %v", err)
	}
	if len(expired) != 0 {
		t.Errorf("Expected asset expiring exactly now to survive, got %d expired", len(expired))
	}
}

func TestRecordAccess(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)

	a := newTestAsset("lesson-001", "img-1", "https://cdn.example/a.png", "/c/a.png", 100)
	a.LastAccessedAt = time.Now().AddDate(0, 0, -10)
	s.PutAsset(a)

	before, _ := s.GetAsset("lesson-001", "img-1")
	if err := s.RecordAccess("lesson-001", "img-1"); err != nil {
		t.Fatalf("RecordAccess failed: %v", err)
	}
	after, _ := s.GetAsset("lesson-001", "img-1")
	if !after.LastAccessedAt.After(before.LastAccessedAt) {
		t.Error("Expected last_accessed_at to move forward")
	}
}

func TestEvictAsset(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.New(db)

	putAssetExpiringAt(t, s, "lesson-001", "img-1", time.Now().AddDate(0, 0, -1))

	path, err := s.EvictAsset("lesson-001", "img-1")
	if err != nil {
		t.Fatalf("EvictAsset failed: %v", err)
	}
	if path != "/c/lesson-001/img-1" {
		t.Errorf("EvictAsset returned wrong path: %q", path)
	}

	if _, err := s.GetAsset("lesson-001", "img-1"); err == nil {
		t.Error("Expected evicted asset to be gone from the ledger")
	}

	// Evicting an absent asset is a silent no-op.
	path, err = s.EvictAsset("lesson-001", "img-1")
	if err != nil {
		t.Fatalf("EvictAsset of absent asset failed: %v", err)
	}
	if path != "" {
		t.Errorf("Expected empty path for absent asset, got %q", path)
	}
}
