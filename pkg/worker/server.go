// Package worker is the in-container agent the kernel spawns per form
// submission. It serves a health probe and a single submit endpoint that
// posts the prepared answers to the application form.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hireloop/hireloop/internal/core/domain"
)

// Config holds the server configuration.
type Config struct {
	Port       int
	SocketPath string // If set, listen on this Unix socket instead of TCP
}

// Server is the worker's HTTP control surface.
type Server struct {
	server *http.Server
	logger *slog.Logger
	cfg    Config
	hc     *http.Client
}

// NewServer creates a new worker server.
func NewServer(cfg Config) *Server {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	s := &Server{
		logger: logger,
		cfg:    cfg,
		hc:     &http.Client{Timeout: 90 * time.Second},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /submit", s.handleSubmit)

	s.server = &http.Server{
		Handler: mux,
	}

	if cfg.SocketPath == "" {
		s.server.Addr = fmt.Sprintf(":%d", cfg.Port)
	}

	return s
}

// Start runs the server.
func (s *Server) Start() error {
	s.logger.Info("starting form worker")

	if s.cfg.SocketPath != "" {
		// Clean up old socket
		_ = os.Remove(s.cfg.SocketPath)

		listener, err := net.Listen("unix", s.cfg.SocketPath)
		if err != nil {
			return fmt.Errorf("failed to listen on socket %s: %w", s.cfg.SocketPath, err)
		}

		if err := os.Chmod(s.cfg.SocketPath, 0777); err != nil {
			s.logger.Warn("failed to chmod socket", "error", err)
		}

		s.logger.Info("listening on unix socket", "path", s.cfg.SocketPath)
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("worker server error: %w", err)
		}
		return nil
	}

	s.logger.Info("listening on tcp", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("worker server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// handleSubmit fills one application form. The kernel sends the answers
// and rendered documents; the worker turns them into a form POST against
// the board and reports whether the board confirmed it.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.FormURL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "form_url is required"})
		return
	}

	result, err := s.submitForm(r.Context(), req)
	if err != nil {
		s.logger.Error("form submission failed", "app_id", req.AppID, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// submitForm posts the answers as form fields. The resume and cover letter
// travel as fields too; boards that need multipart uploads get a dedicated
// worker image.
func (s *Server) submitForm(ctx context.Context, req domain.SubmissionRequest) (domain.SubmissionResult, error) {
	form := url.Values{}
	for k, v := range req.Answers {
		form.Set(k, v)
	}
	if req.Resume != "" {
		form.Set("resume_text", req.Resume)
	}
	if req.Cover != "" {
		form.Set("cover_letter", req.Cover)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.FormURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("build form request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := s.hc.Do(httpReq)
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("post form: %w", err)
	}
	defer res.Body.Close()

	confirmed := res.StatusCode >= 200 && res.StatusCode < 300
	result := domain.SubmissionResult{
		AppID:       req.AppID,
		Confirmed:   confirmed,
		SubmittedAt: time.Now().UTC(),
	}
	if confirmed {
		result.Receipt = extractReceipt(res)
	} else {
		s.logger.Warn("board rejected submission", "app_id", req.AppID, "status", res.StatusCode)
	}
	return result, nil
}

// extractReceipt pulls a confirmation token from the board's response:
// a Location header when the board redirects to a confirmation page,
// otherwise the first line of the body.
func extractReceipt(res *http.Response) string {
	if loc := res.Header.Get("Location"); loc != "" {
		return loc
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, 4096))
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(body)), "\n")
	return strings.TrimSpace(line)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
