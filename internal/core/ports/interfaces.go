package ports

import (
	"context"
	"io"

	"github.com/hireloop/hireloop/internal/core/domain"
)

// CapabilityContext is the full input handed to a capability for one hop:
// the triggering request, the forwarded pass data, and a read-only snapshot
// of the user's shared memory.
type CapabilityContext struct {
	UserID  domain.UserID
	Action  string
	Payload map[string]any
	Pass    domain.Pass
	Memory  map[string]any
}

// Capability is one pipeline stage. Process must be deterministic with
// respect to its inputs and collaborator responses; routing decisions go in
// the returned envelope, never in side channels.
type Capability interface {
	Name() domain.AgentName
	Process(ctx context.Context, cc CapabilityContext) (domain.Envelope, error)
}

// Repository abstracts the persistent storage (DuckDB)
type Repository interface {
	// Profiles
	SaveProfile(ctx context.Context, profile domain.UserProfile) error
	GetProfile(ctx context.Context, id domain.UserID) (domain.UserProfile, error)
	ListProfiles(ctx context.Context) ([]domain.UserProfile, error)
	DeleteProfile(ctx context.Context, id domain.UserID) error

	// Jobs
	SaveJob(ctx context.Context, job domain.Job) error
	GetJob(ctx context.Context, id domain.JobID) (domain.Job, error)
	ListJobs(ctx context.Context, status domain.JobStatus) ([]domain.Job, error)
	UpdateJobStatus(ctx context.Context, id domain.JobID, status domain.JobStatus) error

	// Applications
	SaveApplication(ctx context.Context, app domain.Application) error
	GetApplication(ctx context.Context, id domain.AppID) (domain.Application, error)
	GetApplicationByJob(ctx context.Context, userID domain.UserID, jobID domain.JobID) (domain.Application, error)
	ListApplications(ctx context.Context, userID domain.UserID) ([]domain.Application, error)

	// Matches
	SaveMatches(ctx context.Context, matches []domain.MatchResult) error
	ListMatches(ctx context.Context, userID domain.UserID, minScore int) ([]domain.MatchResult, error)

	// Settings
	GetSetting(ctx context.Context, key string) (string, error)
	SaveSetting(ctx context.Context, key string, value string) error
}

// MemoryBackend persists shared-memory documents per user. The store layers
// key validation and atomic merges on top; the backend only loads and saves
// whole documents.
type MemoryBackend interface {
	LoadMemory(ctx context.Context, userID domain.UserID) (map[string]any, error)
	SaveMemory(ctx context.Context, userID domain.UserID, doc map[string]any) error
}

// JobSource fetches postings from one external board.
type JobSource interface {
	// FetchJobs returns postings matching the query. Implementations tag
	// network failures as transient so runs can retry.
	FetchJobs(ctx context.Context, query domain.JobQuery) ([]domain.Job, error)
}

// ResumeParser extracts structured fields from raw resume text.
type ResumeParser interface {
	Parse(ctx context.Context, raw string) (domain.ParsedResume, error)
}

// ArtifactGenerator produces tailored application text (resume bullets,
// cover letters, digest prose) from a prompt.
type ArtifactGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// FormSubmitter drives an application form to completion, typically inside
// a sandboxed browser worker.
type FormSubmitter interface {
	Submit(ctx context.Context, req domain.SubmissionRequest) (domain.SubmissionResult, error)
}

// WorkerManager abstracts the container runtime backing form submission.
type WorkerManager interface {
	Spawn(ctx context.Context, spec domain.WorkerSpec) (domain.WorkerID, error)
	Kill(ctx context.Context, id domain.WorkerID) error
	List(ctx context.Context) ([]domain.Worker, error)
	GetLogs(ctx context.Context, id domain.WorkerID) (io.ReadCloser, error)
	GetWorkerIP(ctx context.Context, id domain.WorkerID) (string, error)
}
