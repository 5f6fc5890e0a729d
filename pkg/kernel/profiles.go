package kernel

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hireloop/hireloop/internal/core/domain"
)

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var profile domain.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeError(w, http.StatusBadRequest, "malformed profile: "+err.Error())
		return
	}

	if profile.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if len(profile.Preferences.TargetTitles) == 0 {
		writeError(w, http.StatusBadRequest, "at least one target title is required")
		return
	}

	if err := s.repo.SaveProfile(r.Context(), profile); err != nil {
		s.logger.Error("save profile failed", "user_id", profile.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not save profile")
		return
	}

	writeJSON(w, http.StatusCreated, profile)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id := domain.UserID(r.PathValue("id"))

	profile, err := s.repo.GetProfile(r.Context(), id)
	if errors.Is(err, domain.ErrProfileNotFound) {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		s.logger.Error("get profile failed", "user_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load profile")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
