package duckdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hireloop/hireloop/internal/core/domain"
)

const jobColumns = `id, title, company, location, remote_status, salary_min, salary_max,
	description, requirements, posted_at, application_url, source_url, scraped_at, status`

func (r *Repository) SaveJob(ctx context.Context, job domain.Job) error {
	requirements, err := json.Marshal(job.Requirements)
	if err != nil {
		return fmt.Errorf("marshal requirements: %w", err)
	}

	query := `
	INSERT INTO jobs (` + jobColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		title           = excluded.title,
		company         = excluded.company,
		location        = excluded.location,
		remote_status   = excluded.remote_status,
		salary_min      = excluded.salary_min,
		salary_max      = excluded.salary_max,
		description     = excluded.description,
		requirements    = excluded.requirements,
		posted_at       = excluded.posted_at,
		application_url = excluded.application_url,
		source_url      = excluded.source_url,
		scraped_at      = excluded.scraped_at,
		status          = excluded.status;
	`
	_, err = r.db.ExecContext(ctx, query,
		job.ID, job.Title, job.Company, job.Location, job.RemoteStatus,
		job.SalaryRange.Min, job.SalaryRange.Max, job.Description, string(requirements),
		job.PostedAt, job.ApplicationURL, job.SourceURL, job.ScrapedAt, job.Status,
	)
	return err
}

func (r *Repository) GetJob(ctx context.Context, id domain.JobID) (domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	job, err := scanJob(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Job{}, fmt.Errorf("%w: %s", domain.ErrJobNotFound, id)
	}
	return job, err
}

// ListJobs returns jobs with the given status, or every job when status is
// empty, newest postings first.
func (r *Repository) ListJobs(ctx context.Context, status domain.JobStatus) ([]domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs ORDER BY posted_at DESC NULLS LAST, id`
	args := []any{}
	if status != "" {
		query = `SELECT ` + jobColumns + ` FROM jobs WHERE status = ? ORDER BY posted_at DESC NULLS LAST, id`
		args = append(args, status)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows.Scan)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (r *Repository) UpdateJobStatus(ctx context.Context, id domain.JobID, status domain.JobStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE jobs SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrJobNotFound, id)
	}
	return nil
}

func scanJob(scan func(dest ...any) error) (domain.Job, error) {
	var job domain.Job
	var idStr, remoteStr, statusStr string
	var requirements string

	if err := scan(&idStr, &job.Title, &job.Company, &job.Location, &remoteStr,
		&job.SalaryRange.Min, &job.SalaryRange.Max, &job.Description, &requirements,
		&job.PostedAt, &job.ApplicationURL, &job.SourceURL, &job.ScrapedAt, &statusStr); err != nil {
		return domain.Job{}, err
	}

	job.ID = domain.JobID(idStr)
	job.RemoteStatus = domain.RemoteStatus(remoteStr)
	job.Status = domain.JobStatus(statusStr)
	if err := json.Unmarshal([]byte(requirements), &job.Requirements); err != nil {
		return domain.Job{}, fmt.Errorf("unmarshal requirements for %s: %w", idStr, err)
	}
	return job, nil
}
