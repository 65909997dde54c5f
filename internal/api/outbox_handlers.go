// A handler file for progress recording, answer recording and sync control.

package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
)

// ProgressPayload is the expected structure for recording lesson progress.
type ProgressPayload struct {
	ChildProfileID  string  `json:"child_profile_id"`
	LessonID        string  `json:"lesson_id"`
	Completed       bool    `json:"completed"`
	ProgressPercent int     `json:"progress_percent"`
	Score           float64 `json:"score"`
}

func (s *Server) handleRecordProgress(w http.ResponseWriter, r *http.Request) {
	var payload ProgressPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if payload.ChildProfileID == "" || payload.LessonID == "" {
		RespondWithError(w, http.StatusBadRequest, "child_profile_id and lesson_id are required")
		return
	}
	if payload.ProgressPercent < 0 || payload.ProgressPercent > 100 {
		RespondWithError(w, http.StatusBadRequest, "progress_percent must be between 0 and 100")
		return
	}

	record, err := s.store.UpsertProgress(payload.ChildProfileID, payload.LessonID,
		payload.Completed, payload.ProgressPercent, payload.Score)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to record progress")
		return
	}
	RespondWithJSON(w, http.StatusOK, record)
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	profileID := r.URL.Query().Get("child_profile_id")
	lessonID := r.URL.Query().Get("lesson_id")
	if profileID == "" || lessonID == "" {
		RespondWithError(w, http.StatusBadRequest, "child_profile_id and lesson_id query parameters are required")
		return
	}

	record, err := s.store.GetProgress(profileID, lessonID)
	if err == sql.ErrNoRows {
		RespondWithError(w, http.StatusNotFound, "No progress recorded")
		return
	}
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve progress")
		return
	}
	RespondWithJSON(w, http.StatusOK, record)
}

// ResultPayload is the expected structure for recording one answered question.
type ResultPayload struct {
	ChildProfileID string `json:"child_profile_id"`
	LessonID       string `json:"lesson_id"`
	QuestionID     string `json:"question_id"`
	SelectedAnswer string `json:"selected_answer"`
	IsCorrect      bool   `json:"is_correct"`
	TimeTakenMs    int64  `json:"time_taken_ms"`
}

func (s *Server) handleRecordResult(w http.ResponseWriter, r *http.Request) {
	var payload ResultPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if payload.ChildProfileID == "" || payload.LessonID == "" || payload.QuestionID == "" {
		RespondWithError(w, http.StatusBadRequest, "child_profile_id, lesson_id and question_id are required")
		return
	}

	result, err := s.store.AppendResult(payload.ChildProfileID, payload.LessonID,
		payload.QuestionID, payload.SelectedAnswer, payload.IsCorrect, payload.TimeTakenMs)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to record result")
		return
	}
	RespondWithJSON(w, http.StatusCreated, result)
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	progress, results, err := s.store.PendingSyncCounts()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to compute pending sync counts")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]int{
		"pending_progress": progress,
		"pending_results":  results,
	})
}

// handleRunSync triggers an outbox drain through the job manager so a
// manual sync and the scheduled one can never run concurrently.
func (s *Server) handleRunSync(w http.ResponseWriter, r *http.Request) {
	if err := s.app.JobManager().RunJob("outbox-sync", s.app); err != nil {
		RespondWithError(w, http.StatusConflict, err.Error())
		return
	}
	RespondWithJSON(w, http.StatusAccepted, map[string]string{"status": "sync started"})
}
