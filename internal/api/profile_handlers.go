// A handler file for child profile endpoints.

package api

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sadmanHT/porakhela-sync/internal/auth"
)

// ProfilePayload is the expected structure for creating a child profile.
type ProfilePayload struct {
	Name  string `json:"name"`
	Grade int    `json:"grade"`
	Pin   string `json:"pin,omitempty"`
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var payload ProfilePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if payload.Name == "" {
		RespondWithError(w, http.StatusBadRequest, "Profile name is required")
		return
	}
	if payload.Grade < 1 {
		RespondWithError(w, http.StatusBadRequest, "Grade must be a positive number")
		return
	}

	var pinHash string
	if payload.Pin != "" {
		var err error
		pinHash, err = auth.HashPin(payload.Pin)
		if err != nil {
			RespondWithError(w, http.StatusInternalServerError, "Failed to hash PIN")
			return
		}
	}

	profile, err := s.store.CreateProfile(payload.Name, payload.Grade, pinHash)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to create profile")
		return
	}
	RespondWithJSON(w, http.StatusCreated, profile)
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.store.ListProfiles()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve profiles")
		return
	}
	RespondWithJSON(w, http.StatusOK, profiles)
}

// handleVerifyPin checks a parent-gate PIN. A profile without a PIN always
// verifies; the gate is opt-in per profile.
func (s *Server) handleVerifyPin(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "profileID")

	var payload struct {
		Pin string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	profile, err := s.store.GetProfile(profileID)
	if err == sql.ErrNoRows {
		RespondWithError(w, http.StatusNotFound, "Profile not found")
		return
	}
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve profile")
		return
	}

	valid := profile.PinHash == "" || auth.CheckPin(payload.Pin, profile.PinHash)
	RespondWithJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}
