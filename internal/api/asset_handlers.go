// A handler file for cached asset and cache management endpoints.

package api

import (
	"database/sql"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListLessonAssets(w http.ResponseWriter, r *http.Request) {
	lessonID := chi.URLParam(r, "lessonID")
	assets, err := s.store.AssetsForLesson(lessonID)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve assets")
		return
	}
	RespondWithJSON(w, http.StatusOK, assets)
}

// handleServeAsset streams one cached asset file. Every successful serve
// counts as an access and bumps last_accessed_at in the ledger.
func (s *Server) handleServeAsset(w http.ResponseWriter, r *http.Request) {
	lessonID := chi.URLParam(r, "lessonID")
	assetID := chi.URLParam(r, "assetID")

	asset, err := s.store.GetAsset(lessonID, assetID)
	if err == sql.ErrNoRows {
		RespondWithError(w, http.StatusNotFound, "Asset not found")
		return
	}
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve asset")
		return
	}
	if !asset.IsValid {
		RespondWithError(w, http.StatusGone, "Asset is no longer valid, re-download the lesson")
		return
	}

	if _, err := os.Stat(asset.LocalPath); err != nil {
		// The file vanished behind our back. Invalidate the entry so the
		// lesson shows as not-downloaded instead of erroring forever.
		if _, invErr := s.store.InvalidateAssetByPath(asset.LocalPath); invErr != nil {
			log.Printf("Error invalidating asset with missing file %s: %v", asset.LocalPath, invErr)
		}
		RespondWithError(w, http.StatusGone, "Asset file is missing from disk")
		return
	}

	if err := s.store.RecordAccess(lessonID, assetID); err != nil {
		log.Printf("Error recording access for asset %s/%s: %v", lessonID, assetID, err)
	}
	http.ServeFile(w, r, asset.LocalPath)
}

// handleDeleteLesson removes a lesson's cached content: asset rows, the
// download job and the lesson row go in one transaction, then the files are
// removed from disk. Progress records are kept; learning history must
// survive a cache clear.
func (s *Server) handleDeleteLesson(w http.ResponseWriter, r *http.Request) {
	lessonID := chi.URLParam(r, "lessonID")

	paths, err := s.store.DeleteLessonData(lessonID)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to delete lesson data")
		return
	}

	removed := 0
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("Deleted lesson %s but could not remove file %s: %v", lessonID, path, err)
			continue
		}
		removed++
	}
	RespondWithJSON(w, http.StatusOK, map[string]int{"files_removed": removed})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	totalSize, err := s.store.TotalAssetSize()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to compute cache size")
		return
	}
	progress, results, err := s.store.PendingSyncCounts()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to compute pending sync counts")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"total_asset_bytes":        totalSize,
		"pending_progress_records": progress,
		"pending_question_results": results,
	})
}
