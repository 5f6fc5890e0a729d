package kernel

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/oapi-codegen/runtime"

	"github.com/hireloop/hireloop/internal/core/domain"
)

func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	userID := domain.UserID(r.PathValue("id"))

	var minScore int
	if r.URL.Query().Has("min_score") {
		if err := runtime.BindQueryParameter("form", true, false, "min_score", r.URL.Query(), &minScore); err != nil {
			writeError(w, http.StatusBadRequest, "invalid min_score: "+err.Error())
			return
		}
	}

	matches, err := s.repo.ListMatches(r.Context(), userID, minScore)
	if err != nil {
		s.logger.Error("list matches failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load matches")
		return
	}
	if matches == nil {
		matches = []domain.MatchResult{}
	}

	writeJSON(w, http.StatusOK, matches)
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	userID := domain.UserID(r.PathValue("id"))

	apps, err := s.repo.ListApplications(r.Context(), userID)
	if err != nil {
		s.logger.Error("list applications failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load applications")
		return
	}
	if apps == nil {
		apps = []domain.Application{}
	}

	writeJSON(w, http.StatusOK, apps)
}

type transitionRequest struct {
	To   string `json:"to"`
	Note string `json:"note,omitempty"`
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	id := domain.AppID(r.PathValue("id"))

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed transition: "+err.Error())
		return
	}

	app, err := s.repo.GetApplication(r.Context(), id)
	if errors.Is(err, domain.ErrApplicationNotFound) {
		writeError(w, http.StatusNotFound, "application not found")
		return
	}
	if err != nil {
		s.logger.Error("get application failed", "app_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load application")
		return
	}

	to := domain.ApplicationStatus(req.To)
	if err := app.Transition(to, req.Note); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.repo.SaveApplication(r.Context(), app); err != nil {
		s.logger.Error("save application failed", "app_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not save application")
		return
	}

	// a submitted application means the job is no longer just matched
	if to == domain.AppStatusSubmitted {
		if err := s.repo.UpdateJobStatus(r.Context(), app.JobID, domain.JobStatusApplied); err != nil &&
			!errors.Is(err, domain.ErrJobNotFound) {
			s.logger.Warn("job status flip failed", "job_id", app.JobID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, app)
}

type noteRequest struct {
	Note string `json:"note"`
}

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	id := domain.AppID(r.PathValue("id"))

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed note: "+err.Error())
		return
	}
	if req.Note == "" {
		writeError(w, http.StatusBadRequest, "note is required")
		return
	}

	app, err := s.repo.GetApplication(r.Context(), id)
	if errors.Is(err, domain.ErrApplicationNotFound) {
		writeError(w, http.StatusNotFound, "application not found")
		return
	}
	if err != nil {
		s.logger.Error("get application failed", "app_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load application")
		return
	}

	app.AddNote(req.Note)

	if err := s.repo.SaveApplication(r.Context(), app); err != nil {
		s.logger.Error("save application failed", "app_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not save application")
		return
	}

	writeJSON(w, http.StatusOK, app)
}
