package duckdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hireloop/hireloop/internal/core/domain"
)

// LoadMemory returns the user's persisted shared-memory document, or an
// empty map when none exists yet.
func (r *Repository) LoadMemory(ctx context.Context, userID domain.UserID) (map[string]any, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT doc FROM memory WHERE user_id = ?`, userID).Scan(&raw)
	if err == sql.ErrNoRows {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}

	doc := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal memory doc for %s: %w", userID, err)
	}
	return doc, nil
}

func (r *Repository) SaveMemory(ctx context.Context, userID domain.UserID, doc map[string]any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal memory doc: %w", err)
	}

	query := `
	INSERT INTO memory (user_id, doc, updated_at) VALUES (?, ?, ?)
	ON CONFLICT (user_id) DO UPDATE SET
		doc        = excluded.doc,
		updated_at = excluded.updated_at;
	`
	_, err = r.db.ExecContext(ctx, query, userID, string(raw), time.Now().UTC())
	return err
}
