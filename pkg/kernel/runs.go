package kernel

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/hireloop/hireloop/internal/core/domain"
	"github.com/hireloop/hireloop/internal/core/services"
)

type startRunRequest struct {
	UserID   string         `json:"user_id"`
	Pipeline string         `json:"pipeline"`
	Action   string         `json:"action,omitempty"`
	Payload  map[string]any `json:"payload,omitempty"`
	Async    bool           `json:"async,omitempty"`
}

// handleStartRun triggers a predefined pipeline. Synchronous by default; an
// async run is queued on the pool and polled via GET /v1/runs/{id}.
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var req startRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed run request: "+err.Error())
		return
	}

	initial, err := domain.NewPipelineEnvelope(domain.PipelineName(req.Pipeline), req.Action, req.Payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID := domain.UserID(req.UserID)

	if req.Async {
		runID := uuid.New().String()
		submit := services.RunRequest{RunID: runID, UserID: userID, Initial: initial}
		if err := s.pool.Submit(r.Context(), submit); err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID})
		return
	}

	result, err := s.orch.Run(r.Context(), userID, initial)
	if err != nil {
		// the partial result still carries the hop log and error detail
		s.logger.Warn("run failed", "user_id", userID, "pipeline", req.Pipeline, "error", err)
	}

	s.mu.Lock()
	s.runs[result.RunID] = result
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.RLock()
	result, ok := s.runs[id]
	s.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, "run not found or still in progress")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetDigest runs the daily-digest chain synchronously and returns the
// report from its final hop.
func (s *Server) handleGetDigest(w http.ResponseWriter, r *http.Request) {
	userID := domain.UserID(r.PathValue("id"))

	initial, err := domain.NewPipelineEnvelope(domain.PipelineDailyDigest, "", nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := s.orch.Run(r.Context(), userID, initial)
	if err != nil {
		s.logger.Error("digest run failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "digest pipeline failed: "+result.Error)
		return
	}

	for i := len(result.Hops) - 1; i >= 0; i-- {
		if result.Hops[i].Output.Digest != nil {
			writeJSON(w, http.StatusOK, result.Hops[i].Output.Digest)
			return
		}
	}
	writeError(w, http.StatusInternalServerError, "digest pipeline produced no report")
}
