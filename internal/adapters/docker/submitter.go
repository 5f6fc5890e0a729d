package docker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hireloop/hireloop/internal/core/domain"
	"github.com/hireloop/hireloop/internal/core/ports"
)

const (
	workerPort      = 8080
	workerReadyWait = 500 * time.Millisecond
	workerReadyMax  = 20
)

// SubmitterConfig selects the browser-worker image and resource caps.
type SubmitterConfig struct {
	Image       string  `yaml:"image"`
	ResourceCPU float64 `yaml:"resource_cpu"`
	ResourceMem int64   `yaml:"resource_mem"`
}

func DefaultSubmitterConfig() SubmitterConfig {
	return SubmitterConfig{
		Image:       "hireloop/form-worker:latest",
		ResourceCPU: 0.5,
		ResourceMem: 512 << 20,
	}
}

// Submitter fills application forms by spawning a one-shot browser worker
// per submission. The worker exposes a small HTTP control surface; the
// container is removed whether or not the submission succeeds.
type Submitter struct {
	cfg     SubmitterConfig
	logger  *slog.Logger
	workers ports.WorkerManager
	hc      *http.Client
}

var _ ports.FormSubmitter = (*Submitter)(nil)

func NewSubmitter(cfg SubmitterConfig, workers ports.WorkerManager, logger *slog.Logger) *Submitter {
	if cfg.Image == "" {
		cfg = DefaultSubmitterConfig()
	}
	return &Submitter{
		cfg:     cfg,
		logger:  logger,
		workers: workers,
		hc:      &http.Client{Timeout: 2 * time.Minute},
	}
}

func (s *Submitter) Submit(ctx context.Context, req domain.SubmissionRequest) (domain.SubmissionResult, error) {
	id, err := s.workers.Spawn(ctx, domain.WorkerSpec{
		Image:       s.cfg.Image,
		ResourceCPU: s.cfg.ResourceCPU,
		ResourceMem: s.cfg.ResourceMem,
		Tags:        map[string]string{"hireloop.app_id": string(req.AppID)},
	})
	if err != nil {
		return domain.SubmissionResult{}, domain.Transient("spawn submission worker", err)
	}
	defer func() {
		if killErr := s.workers.Kill(context.WithoutCancel(ctx), id); killErr != nil {
			s.logger.Warn("worker cleanup failed", "worker_id", id, "error", killErr)
		}
	}()

	ip, err := s.waitReady(ctx, id)
	if err != nil {
		return domain.SubmissionResult{}, domain.Transient("submission worker never became ready", err)
	}

	s.logger.Info("submitting form", "app_id", req.AppID, "worker_id", id, "url", req.FormURL)

	result, err := s.post(ctx, ip, req)
	if err != nil {
		return domain.SubmissionResult{}, domain.Transient("submission worker call failed", err)
	}
	result.AppID = req.AppID
	if result.SubmittedAt.IsZero() {
		result.SubmittedAt = time.Now().UTC()
	}
	return result, nil
}

// waitReady polls the worker's health endpoint until it answers.
func (s *Submitter) waitReady(ctx context.Context, id domain.WorkerID) (string, error) {
	var lastErr error
	for i := 0; i < workerReadyMax; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(workerReadyWait):
		}

		ip, err := s.workers.GetWorkerIP(ctx, id)
		if err != nil {
			lastErr = err
			continue
		}

		probe, err := http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("http://%s:%d/health", ip, workerPort), nil)
		if err != nil {
			return "", err
		}
		res, err := s.hc.Do(probe)
		if err != nil {
			lastErr = err
			continue
		}
		res.Body.Close()
		if res.StatusCode == http.StatusOK {
			return ip, nil
		}
		lastErr = fmt.Errorf("health returned %d", res.StatusCode)
	}
	return "", fmt.Errorf("worker %s not ready: %w", id, lastErr)
}

func (s *Submitter) post(ctx context.Context, ip string, req domain.SubmissionRequest) (domain.SubmissionResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("marshal submission request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("http://%s:%d/submit", ip, workerPort), bytes.NewReader(body))
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := s.hc.Do(httpReq)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return domain.SubmissionResult{}, fmt.Errorf("worker returned %d", res.StatusCode)
	}

	var result domain.SubmissionResult
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("decode submission result: %w", err)
	}
	return result, nil
}
