package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

type JobID string

// RemoteStatus is the work mode advertised by the posting.
type RemoteStatus string

const (
	RemoteStatusRemote RemoteStatus = "remote"
	RemoteStatusHybrid RemoteStatus = "hybrid"
	RemoteStatusOnsite RemoteStatus = "onsite"
)

// JobStatus tracks a posting through the pipeline.
type JobStatus string

const (
	JobStatusNew      JobStatus = "new"
	JobStatusMatched  JobStatus = "matched"
	JobStatusApplied  JobStatus = "applied"
	JobStatusRejected JobStatus = "rejected"
	JobStatusExpired  JobStatus = "expired"
)

// SalaryRange may be half-open; postings often publish only one bound.
type SalaryRange struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

// Job is created by the scraping collaborator and mutated by the core only
// through status transitions on match/apply events.
type Job struct {
	ID             JobID        `json:"job_id"`
	Title          string       `json:"title"`
	Company        string       `json:"company"`
	Location       string       `json:"location"`
	RemoteStatus   RemoteStatus `json:"remote_status"`
	SalaryRange    SalaryRange  `json:"salary_range"`
	Description    string       `json:"description"`
	Requirements   []string     `json:"requirements,omitempty"`
	PostedAt       *time.Time   `json:"posted_at,omitempty"`
	ApplicationURL string       `json:"application_url,omitempty"`
	SourceURL      string       `json:"source_url,omitempty"`
	ScrapedAt      *time.Time   `json:"scraped_at,omitempty"`
	Status         JobStatus    `json:"status"`
}

var ErrJobNotFound = errors.New("job not found")

// DeriveJobID produces a stable ID from the posting identity so repeated
// scrapes of the same posting dedupe to one record.
func DeriveJobID(company, title, location string) JobID {
	content := fmt.Sprintf("%s|%s|%s",
		strings.ToLower(strings.TrimSpace(company)),
		strings.ToLower(strings.TrimSpace(title)),
		strings.ToLower(strings.TrimSpace(location)),
	)
	sum := sha256.Sum256([]byte(content))
	return JobID(hex.EncodeToString(sum[:])[:16])
}

// SearchText is the haystack used by keyword filters and affinity scoring.
func (j *Job) SearchText() string {
	parts := make([]string, 0, 2+len(j.Requirements))
	parts = append(parts, j.Title, j.Description)
	parts = append(parts, j.Requirements...)
	return strings.ToLower(strings.Join(parts, " "))
}
