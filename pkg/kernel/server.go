package kernel

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/rs/cors"

	"github.com/hireloop/hireloop/internal/core/ports"
	"github.com/hireloop/hireloop/internal/core/services"
)

// Server is the HTTP surface over the pipeline core: profile CRUD, run
// triggers, match/application reads, and run event streaming.
type Server struct {
	logger      *slog.Logger
	repo        ports.Repository
	orch        *services.Orchestrator
	pool        *services.RunPool
	bus         *services.EventBus
	corsOrigins []string

	mu   sync.RWMutex
	runs map[string]*services.RunResult // finished async runs, by run ID
}

func NewServer(
	logger *slog.Logger,
	repo ports.Repository,
	orch *services.Orchestrator,
	pool *services.RunPool,
	bus *services.EventBus,
	corsOrigins []string,
) *Server {
	return &Server{
		logger:      logger,
		repo:        repo,
		orch:        orch,
		pool:        pool,
		bus:         bus,
		corsOrigins: corsOrigins,
		runs:        make(map[string]*services.RunResult),
	}
}

// Handler assembles the mux, contract validation, and CORS.
func (s *Server) Handler() (http.Handler, error) {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", s.handleHealth)

	mux.HandleFunc("POST /v1/profiles", s.handleCreateProfile)
	mux.HandleFunc("GET /v1/profiles/{id}", s.handleGetProfile)

	mux.HandleFunc("POST /v1/runs", s.handleStartRun)
	mux.HandleFunc("GET /v1/runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /v1/runs/{id}/events", s.handleRunEvents)

	mux.HandleFunc("GET /v1/users/{id}/matches", s.handleListMatches)
	mux.HandleFunc("GET /v1/users/{id}/applications", s.handleListApplications)
	mux.HandleFunc("GET /v1/users/{id}/digest", s.handleGetDigest)

	mux.HandleFunc("POST /v1/applications/{id}/transition", s.handleTransition)
	mux.HandleFunc("POST /v1/applications/{id}/notes", s.handleAddNote)

	router, err := newAPIRouter()
	if err != nil {
		return nil, err
	}

	origins := s.corsOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	})

	return c.Handler(validateRequests(router, mux)), nil
}

// ExecuteRun is the run-pool handler: it drives one queued pipeline run and
// keeps the result for later polling.
func (s *Server) ExecuteRun(ctx context.Context, req services.RunRequest) {
	result, err := s.orch.RunWithID(ctx, req.RunID, req.UserID, req.Initial)
	if err != nil {
		s.logger.Warn("queued run failed", "run_id", req.RunID, "error", err)
	}
	if result != nil {
		s.mu.Lock()
		s.runs[req.RunID] = result
		s.mu.Unlock()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
