// A handler file for lesson pack and lesson API endpoints.

package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListPacks(w http.ResponseWriter, r *http.Request) {
	packs, err := s.store.GetAllPacks()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve packs")
		return
	}
	RespondWithJSON(w, http.StatusOK, packs)
}

func (s *Server) handleGetPack(w http.ResponseWriter, r *http.Request) {
	grade, err := strconv.Atoi(chi.URLParam(r, "grade"))
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid grade")
		return
	}

	pack, err := s.store.GetPack(grade)
	if err == sql.ErrNoRows {
		RespondWithError(w, http.StatusNotFound, "No pack known for this grade")
		return
	}
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve pack")
		return
	}
	RespondWithJSON(w, http.StatusOK, pack)
}

// handleCheckPack fetches the manifest for a grade right now, outside the
// scheduled manifest check.
func (s *Server) handleCheckPack(w http.ResponseWriter, r *http.Request) {
	grade, err := strconv.Atoi(chi.URLParam(r, "grade"))
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid grade")
		return
	}

	if _, err := s.registry.CheckGrade(r.Context(), grade); err != nil {
		RespondWithError(w, http.StatusBadGateway, "Manifest check failed: "+err.Error())
		return
	}

	pack, err := s.store.GetPack(grade)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve pack")
		return
	}
	RespondWithJSON(w, http.StatusOK, pack)
}

// handleDownloadPack enqueues a download job for every lesson of a grade.
// Jobs that already exist are returned as-is, so hitting this twice is safe.
func (s *Server) handleDownloadPack(w http.ResponseWriter, r *http.Request) {
	grade, err := strconv.Atoi(chi.URLParam(r, "grade"))
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid grade")
		return
	}

	lessons, err := s.store.LessonsForGrade(grade)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve lessons")
		return
	}
	if len(lessons) == 0 {
		RespondWithError(w, http.StatusNotFound, "No lessons known for this grade, run a manifest check first")
		return
	}

	queued := 0
	for _, lesson := range lessons {
		if _, err := s.manager.Enqueue(lesson.ID, "lesson", 0); err != nil {
			RespondWithError(w, http.StatusInternalServerError, "Failed to enqueue lesson "+lesson.ID)
			return
		}
		queued++
	}
	RespondWithJSON(w, http.StatusAccepted, map[string]int{"queued": queued})
}

func (s *Server) handleListLessons(w http.ResponseWriter, r *http.Request) {
	gradeParam := r.URL.Query().Get("grade")
	if gradeParam == "" {
		RespondWithError(w, http.StatusBadRequest, "grade query parameter is required")
		return
	}
	grade, err := strconv.Atoi(gradeParam)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid grade")
		return
	}

	lessons, err := s.store.LessonsForGrade(grade)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve lessons")
		return
	}
	RespondWithJSON(w, http.StatusOK, lessons)
}
