// A test file for the cached asset and cache management endpoints.

package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sadmanHT/porakhela-sync/internal/models"
	"github.com/sadmanHT/porakhela-sync/internal/store"
	"github.com/sadmanHT/porakhela-sync/internal/testutil"
)

func seedAsset(t *testing.T, st *store.Store, dir, lessonID, assetID, content string) *models.CachedAsset {
	t.Helper()
	path := filepath.Join(dir, assetID+".bin")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write asset file: %v", err)
	}
	asset, err := st.PutAsset(&models.CachedAsset{
		LessonID:    lessonID,
		AssetID:     assetID,
		AssetType:   "image",
		OriginalURL: "https://cdn.example/" + lessonID + "/" + assetID,
		LocalPath:   path,
		SizeBytes:   int64(len(content)),
		Checksum:    "unverified",
		ExpiresAt:   time.Now().AddDate(0, 0, 30),
	})
	if err != nil {
		t.Fatalf("PutAsset failed: %v", err)
	}
	return asset
}

func TestAssetHandlers(t *testing.T) {
	server, _ := testutil.SetupTestServer(t)
	router := server.Router()
	st := server.Store()
	dir := t.TempDir()

	asset := seedAsset(t, st, dir, "bn-3-001", "img-1", "image bytes")

	t.Run("List Lesson Assets", func(t *testing.T) {
		var assets []models.CachedAsset
		rr := getJSON(t, router, "/api/lessons/bn-3-001/assets", &assets)
		if rr.Code != http.StatusOK {
			t.Fatalf("handler returned wrong status code: got %v", rr.Code)
		}
		if len(assets) != 1 || assets[0].ID != asset.ID {
			t.Errorf("handler returned incorrect asset list: %+v", assets)
		}
	})

	t.Run("Serve Asset File", func(t *testing.T) {
		rr := getJSON(t, router, "/api/lessons/bn-3-001/assets/img-1/file", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("handler returned wrong status code: got %v", rr.Code)
		}
		if rr.Body.String() != "image bytes" {
			t.Errorf("handler returned wrong file content: %q", rr.Body.String())
		}
	})

	t.Run("Serve Unknown Asset", func(t *testing.T) {
		rr := getJSON(t, router, "/api/lessons/bn-3-001/assets/nope/file", nil)
		if rr.Code != http.StatusNotFound {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusNotFound)
		}
	})

	t.Run("Serve Invalidated Asset", func(t *testing.T) {
		bad := seedAsset(t, st, dir, "bn-3-002", "img-1", "corrupt bytes")
		st.InvalidateAsset(bad.ID)

		rr := getJSON(t, router, "/api/lessons/bn-3-002/assets/img-1/file", nil)
		if rr.Code != http.StatusGone {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusGone)
		}
	})

	t.Run("Serve Asset With Missing File", func(t *testing.T) {
		ghost := seedAsset(t, st, dir, "bn-3-003", "img-1", "soon gone")
		os.Remove(ghost.LocalPath)

		rr := getJSON(t, router, "/api/lessons/bn-3-003/assets/img-1/file", nil)
		if rr.Code != http.StatusGone {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusGone)
		}

		// The dangling entry is invalidated so the lesson reads as not cached.
		stored, err := st.GetAsset("bn-3-003", "img-1")
		if err != nil {
			t.Fatalf("GetAsset failed: %v", err)
		}
		if stored.IsValid {
			t.Error("Expected asset with missing file to be invalidated")
		}
	})

	t.Run("Cache Stats", func(t *testing.T) {
		var stats map[string]interface{}
		rr := getJSON(t, router, "/api/cache/stats", &stats)
		if rr.Code != http.StatusOK {
			t.Fatalf("handler returned wrong status code: got %v", rr.Code)
		}
		if _, ok := stats["total_asset_bytes"]; !ok {
			t.Errorf("Expected total_asset_bytes in stats, got %+v", stats)
		}
	})
}

func TestDeleteLessonKeepsProgress(t *testing.T) {
	server, _ := testutil.SetupTestServer(t)
	router := server.Router()
	st := server.Store()
	dir := t.TempDir()

	asset := seedAsset(t, st, dir, "bn-3-001", "img-1", "image bytes")
	st.InsertJob("bn-3-001", "lesson", 0)
	st.UpsertProgress("child-1", "bn-3-001", true, 100, 95)

	req, _ := http.NewRequest("DELETE", "/api/lessons/bn-3-001", nil)
	rr := newRecorder(router, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v, body %s", rr.Code, rr.Body.String())
	}
	var resp map[string]int
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp["files_removed"] != 1 {
		t.Errorf("Expected 1 file removed, got %d", resp["files_removed"])
	}

	if _, err := os.Stat(asset.LocalPath); !os.IsNotExist(err) {
		t.Error("Expected asset file removed from disk")
	}
	if _, err := st.GetAsset("bn-3-001", "img-1"); err == nil {
		t.Error("Expected asset row removed")
	}
	if job, _ := st.GetJobByKey("bn-3-001", "lesson"); job != nil {
		t.Error("Expected download job removed")
	}

	// Learning history survives a cache clear.
	record, err := st.GetProgress("child-1", "bn-3-001")
	if err != nil {
		t.Fatalf("GetProgress failed: %v", err)
	}
	if !record.Completed {
		t.Errorf("Expected progress record kept intact, got %+v", record)
	}
}

func newRecorder(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}
