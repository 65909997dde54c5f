// A handler file for all download-queue API endpoints.

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sadmanHT/porakhela-sync/internal/downloader"
)

// EnqueuePayload is the expected structure for queueing a download.
type EnqueuePayload struct {
	LessonID    string `json:"lesson_id"`
	ContentType string `json:"content_type"`
	Priority    int    `json:"priority"`
}

func (s *Server) handleEnqueueDownload(w http.ResponseWriter, r *http.Request) {
	var payload EnqueuePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if payload.ContentType == "" {
		payload.ContentType = "lesson"
	}

	job, err := s.manager.Enqueue(payload.LessonID, payload.ContentType, payload.Priority)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	RespondWithJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleGetDownloadQueue(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.store.GetDownloadQueue()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve download queue")
		return
	}
	RespondWithJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleGetDownloadJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := strconv.ParseInt(chi.URLParam(r, "jobID"), 10, 64)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid job ID")
		return
	}

	job, err := s.manager.Job(jobID)
	if errors.Is(err, downloader.ErrJobNotFound) {
		RespondWithError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve job")
		return
	}
	RespondWithJSON(w, http.StatusOK, job)
}

// handleJobAction applies a state change to one job.
func (s *Server) handleJobAction(w http.ResponseWriter, r *http.Request) {
	jobID, err := strconv.ParseInt(chi.URLParam(r, "jobID"), 10, 64)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid job ID")
		return
	}

	var payload struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	switch payload.Action {
	case "pause":
		err = s.manager.Pause(jobID)
	case "resume":
		err = s.manager.Resume(jobID)
	case "cancel":
		err = s.manager.Cancel(jobID)
	case "retry":
		err = s.manager.Retry(jobID)
	default:
		RespondWithError(w, http.StatusBadRequest, "Unknown action")
		return
	}

	switch {
	case errors.Is(err, downloader.ErrJobNotFound):
		RespondWithError(w, http.StatusNotFound, "Job not found")
	case errors.Is(err, downloader.ErrInvalidTransition):
		RespondWithError(w, http.StatusConflict, "Job is not in a state that allows this action")
	case err != nil:
		RespondWithError(w, http.StatusInternalServerError, "Failed to apply action")
	default:
		job, _ := s.manager.Job(jobID)
		RespondWithJSON(w, http.StatusOK, job)
	}
}

// handleQueueAction applies a bulk action to the whole queue.
func (s *Server) handleQueueAction(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	var err error
	switch payload.Action {
	case "pause_all":
		if s.pool != nil {
			err = s.pool.PauseAll()
		} else {
			err = s.store.PauseAllJobs()
		}
	case "resume_all":
		if s.pool != nil {
			err = s.pool.ResumeAll()
		} else {
			err = s.store.ResumeAllJobs()
		}
	case "retry_failed":
		err = s.store.RetryFailedJobs()
	case "clear_completed":
		err = s.store.DeleteCompletedJobs()
	case "clear_queue":
		err = s.store.ClearQueue()
	default:
		RespondWithError(w, http.StatusBadRequest, "Unknown action")
		return
	}

	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to apply queue action")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
