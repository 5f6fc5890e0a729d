package domain

import (
	"errors"
	"time"
)

// ID types to prevent stringly-typed confusion
type WorkerID string

// HealthStatus represents the current state of a worker
type HealthStatus string

const (
	HealthStatusUnknown   HealthStatus = "UNKNOWN"
	HealthStatusStarting  HealthStatus = "STARTING"
	HealthStatusHealthy   HealthStatus = "HEALTHY"
	HealthStatusUnhealthy HealthStatus = "UNHEALTHY"
	HealthStatusExited    HealthStatus = "EXITED"
)

// WorkerSpec defines how a submission worker should be spawned
type WorkerSpec struct {
	Image       string            `json:"image"`
	Command     []string          `json:"command"`
	Env         map[string]string `json:"env"`
	ResourceCPU float64           `json:"resource_cpu"` // 0.5 = 50% core
	ResourceMem int64             `json:"resource_mem"` // in bytes
	Tags        map[string]string `json:"tags"`
	BindMounts  map[string]string `json:"bind_mounts"` // HostPath -> ContainerPath
}

// Worker represents a running browser-worker instance
type Worker struct {
	ID        WorkerID          `json:"id"`
	Spec      WorkerSpec        `json:"spec"`
	Status    HealthStatus      `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Metadata  map[string]string `json:"metadata"`
}

var (
	ErrWorkerNotFound = errors.New("worker not found")
)

// JobQuery parameterizes one fetch against an external board.
type JobQuery struct {
	Titles    []string `json:"titles"`
	Locations []string `json:"locations"`
	Limit     int      `json:"limit"`
}

// SubmissionRequest carries everything a worker needs to fill one form.
type SubmissionRequest struct {
	AppID   AppID             `json:"app_id"`
	FormURL string            `json:"form_url"`
	Answers map[string]string `json:"answers"`
	Resume  string            `json:"resume"`
	Cover   string            `json:"cover,omitempty"`
}

// SubmissionResult is the worker's verdict on one form submission.
type SubmissionResult struct {
	AppID       AppID     `json:"app_id"`
	Confirmed   bool      `json:"confirmed"`
	Receipt     string    `json:"receipt,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}
