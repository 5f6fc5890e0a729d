package domain

import "time"

// MatchResult is the scored, explained compatibility of one profile/job pair.
// It is a projection, not authoritative state: recomputing from the same
// profile and job must yield the same score and highlights.
type MatchResult struct {
	UserID     UserID    `json:"user_id"`
	JobID      JobID     `json:"job_id"`
	Score      int       `json:"score"`
	Highlights []string  `json:"highlights"`
	ComputedAt time.Time `json:"computed_at"`
}
