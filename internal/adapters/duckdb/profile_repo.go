package duckdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hireloop/hireloop/internal/core/domain"
)

func (r *Repository) SaveProfile(ctx context.Context, p domain.UserProfile) error {
	personal, err := json.Marshal(p.Personal)
	if err != nil {
		return fmt.Errorf("marshal personal: %w", err)
	}
	preferences, err := json.Marshal(p.Preferences)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	filters, err := json.Marshal(p.Filters)
	if err != nil {
		return fmt.Errorf("marshal filters: %w", err)
	}
	var resume *string
	if p.Resume != nil {
		raw, err := json.Marshal(p.Resume)
		if err != nil {
			return fmt.Errorf("marshal resume: %w", err)
		}
		s := string(raw)
		resume = &s
	}

	query := `
	INSERT INTO profiles (user_id, personal, preferences, filters, resume, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (user_id) DO UPDATE SET
		personal    = excluded.personal,
		preferences = excluded.preferences,
		filters     = excluded.filters,
		resume      = excluded.resume,
		updated_at  = excluded.updated_at;
	`
	_, err = r.db.ExecContext(ctx, query,
		p.UserID, string(personal), string(preferences), string(filters), resume, time.Now().UTC(),
	)
	return err
}

func (r *Repository) GetProfile(ctx context.Context, id domain.UserID) (domain.UserProfile, error) {
	query := `SELECT user_id, personal, preferences, filters, resume FROM profiles WHERE user_id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	p, err := scanProfile(row.Scan)
	if err == sql.ErrNoRows {
		return domain.UserProfile{}, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, id)
	}
	return p, err
}

func (r *Repository) ListProfiles(ctx context.Context) ([]domain.UserProfile, error) {
	query := `SELECT user_id, personal, preferences, filters, resume FROM profiles ORDER BY user_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []domain.UserProfile
	for rows.Next() {
		p, err := scanProfile(rows.Scan)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (r *Repository) DeleteProfile(ctx context.Context, id domain.UserID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = ?`, id)
	return err
}

func scanProfile(scan func(dest ...any) error) (domain.UserProfile, error) {
	var p domain.UserProfile
	var idStr, personal, preferences, filters string
	var resume *string

	if err := scan(&idStr, &personal, &preferences, &filters, &resume); err != nil {
		return domain.UserProfile{}, err
	}

	p.UserID = domain.UserID(idStr)
	if err := json.Unmarshal([]byte(personal), &p.Personal); err != nil {
		return domain.UserProfile{}, fmt.Errorf("unmarshal personal for %s: %w", idStr, err)
	}
	if err := json.Unmarshal([]byte(preferences), &p.Preferences); err != nil {
		return domain.UserProfile{}, fmt.Errorf("unmarshal preferences for %s: %w", idStr, err)
	}
	if err := json.Unmarshal([]byte(filters), &p.Filters); err != nil {
		return domain.UserProfile{}, fmt.Errorf("unmarshal filters for %s: %w", idStr, err)
	}
	if resume != nil {
		p.Resume = &domain.Resume{}
		if err := json.Unmarshal([]byte(*resume), p.Resume); err != nil {
			return domain.UserProfile{}, fmt.Errorf("unmarshal resume for %s: %w", idStr, err)
		}
	}
	return p, nil
}
