package duckdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hireloop/hireloop/internal/core/domain"
)

const appColumns = `id, user_id, job_id, status, match_score, tailored_resume,
	cover_letter, form_answers, created_at, updated_at, submitted_at, timeline`

func (r *Repository) SaveApplication(ctx context.Context, app domain.Application) error {
	timeline, err := json.Marshal(app.Timeline)
	if err != nil {
		return fmt.Errorf("marshal timeline: %w", err)
	}
	answers, err := json.Marshal(app.FormAnswers)
	if err != nil {
		return fmt.Errorf("marshal form answers: %w", err)
	}

	query := `
	INSERT INTO applications (` + appColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		status          = excluded.status,
		tailored_resume = excluded.tailored_resume,
		cover_letter    = excluded.cover_letter,
		form_answers    = excluded.form_answers,
		updated_at      = excluded.updated_at,
		submitted_at    = excluded.submitted_at,
		timeline        = excluded.timeline;
	`
	_, err = r.db.ExecContext(ctx, query,
		app.ID, app.UserID, app.JobID, app.Status, app.MatchScore,
		app.TailoredResume, app.CoverLetter, string(answers),
		app.CreatedAt, app.UpdatedAt, app.SubmittedAt, string(timeline),
	)
	return err
}

func (r *Repository) GetApplication(ctx context.Context, id domain.AppID) (domain.Application, error) {
	query := `SELECT ` + appColumns + ` FROM applications WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	app, err := scanApplication(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Application{}, fmt.Errorf("%w: %s", domain.ErrApplicationNotFound, id)
	}
	return app, err
}

// GetApplicationByJob returns the most recent application for the pair; at
// most one of them can be non-terminal.
func (r *Repository) GetApplicationByJob(ctx context.Context, userID domain.UserID, jobID domain.JobID) (domain.Application, error) {
	query := `SELECT ` + appColumns + ` FROM applications
	WHERE user_id = ? AND job_id = ? ORDER BY created_at DESC LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, userID, jobID)

	app, err := scanApplication(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Application{}, fmt.Errorf("%w: user %s job %s", domain.ErrApplicationNotFound, userID, jobID)
	}
	return app, err
}

func (r *Repository) ListApplications(ctx context.Context, userID domain.UserID) ([]domain.Application, error) {
	query := `SELECT ` + appColumns + ` FROM applications WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []domain.Application
	for rows.Next() {
		app, err := scanApplication(rows.Scan)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

func scanApplication(scan func(dest ...any) error) (domain.Application, error) {
	var app domain.Application
	var idStr, userStr, jobStr, statusStr string
	var answers, timeline string

	if err := scan(&idStr, &userStr, &jobStr, &statusStr, &app.MatchScore,
		&app.TailoredResume, &app.CoverLetter, &answers,
		&app.CreatedAt, &app.UpdatedAt, &app.SubmittedAt, &timeline); err != nil {
		return domain.Application{}, err
	}

	app.ID = domain.AppID(idStr)
	app.UserID = domain.UserID(userStr)
	app.JobID = domain.JobID(jobStr)
	app.Status = domain.ApplicationStatus(statusStr)
	if err := json.Unmarshal([]byte(answers), &app.FormAnswers); err != nil {
		return domain.Application{}, fmt.Errorf("unmarshal form answers for %s: %w", idStr, err)
	}
	if err := json.Unmarshal([]byte(timeline), &app.Timeline); err != nil {
		return domain.Application{}, fmt.Errorf("unmarshal timeline for %s: %w", idStr, err)
	}
	return app, nil
}
