package duckdb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hireloop/hireloop/internal/core/domain"
)

// SaveMatches upserts the batch; rescoring the same pair replaces the
// cached projection.
func (r *Repository) SaveMatches(ctx context.Context, matches []domain.MatchResult) error {
	query := `
	INSERT INTO matches (user_id, job_id, score, highlights, computed_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (user_id, job_id) DO UPDATE SET
		score       = excluded.score,
		highlights  = excluded.highlights,
		computed_at = excluded.computed_at;
	`
	for _, m := range matches {
		highlights, err := json.Marshal(m.Highlights)
		if err != nil {
			return fmt.Errorf("marshal highlights: %w", err)
		}
		if _, err := r.db.ExecContext(ctx, query,
			m.UserID, m.JobID, m.Score, string(highlights), m.ComputedAt); err != nil {
			return fmt.Errorf("save match %s/%s: %w", m.UserID, m.JobID, err)
		}
	}
	return nil
}

// ListMatches returns the cached results at or above minScore, best first,
// ties by most recent posting then job ID for a stable order.
func (r *Repository) ListMatches(ctx context.Context, userID domain.UserID, minScore int) ([]domain.MatchResult, error) {
	query := `
	SELECT m.user_id, m.job_id, m.score, m.highlights, m.computed_at
	FROM matches m
	LEFT JOIN jobs j ON j.id = m.job_id
	WHERE m.user_id = ? AND m.score >= ?
	ORDER BY m.score DESC, j.posted_at DESC NULLS LAST, m.job_id`
	rows, err := r.db.QueryContext(ctx, query, userID, minScore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []domain.MatchResult
	for rows.Next() {
		var m domain.MatchResult
		var userStr, jobStr, highlights string
		if err := rows.Scan(&userStr, &jobStr, &m.Score, &highlights, &m.ComputedAt); err != nil {
			return nil, err
		}
		m.UserID = domain.UserID(userStr)
		m.JobID = domain.JobID(jobStr)
		if err := json.Unmarshal([]byte(highlights), &m.Highlights); err != nil {
			return nil, fmt.Errorf("unmarshal highlights for %s: %w", jobStr, err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
