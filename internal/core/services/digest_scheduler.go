package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hireloop/hireloop/internal/core/domain"
)

// DigestScheduler queues a daily_digest run for every stored profile
// whenever the configured cron expression fires.
type DigestScheduler struct {
	logger  *slog.Logger
	repo    ProfileLister
	pool    *RunPool
	expr    string
	tick    time.Duration
	nextRun time.Time
	now     func() time.Time
}

// ProfileLister is the slice of the repository the scheduler needs.
type ProfileLister interface {
	ListProfiles(ctx context.Context) ([]domain.UserProfile, error)
}

func NewDigestScheduler(logger *slog.Logger, repo ProfileLister, pool *RunPool, cronExpr string) (*DigestScheduler, error) {
	s := &DigestScheduler{
		logger: logger,
		repo:   repo,
		pool:   pool,
		expr:   cronExpr,
		tick:   time.Minute,
		now:    time.Now,
	}

	next, err := nextCronRun(cronExpr, s.now())
	if err != nil {
		return nil, fmt.Errorf("digest schedule: %w", err)
	}
	s.nextRun = next
	return s, nil
}

// Run blocks until ctx is cancelled, checking the schedule once a minute.
func (s *DigestScheduler) Run(ctx context.Context) error {
	s.logger.Info("digest scheduler started", "cron", s.expr, "next_run", s.nextRun)
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("digest scheduler stopped")
			return nil
		case <-ticker.C:
			now := s.now()
			if now.Before(s.nextRun) {
				continue
			}
			s.dispatch(ctx)

			next, err := nextCronRun(s.expr, now)
			if err != nil {
				return fmt.Errorf("digest schedule: %w", err)
			}
			s.nextRun = next
		}
	}
}

// dispatch queues one digest run per profile. A full queue skips the user
// until the next firing rather than blocking the scheduler.
func (s *DigestScheduler) dispatch(ctx context.Context) {
	profiles, err := s.repo.ListProfiles(ctx)
	if err != nil {
		s.logger.Error("digest dispatch failed to list profiles", "error", err)
		return
	}
	if len(profiles) == 0 {
		return
	}

	s.logger.Info("dispatching digest runs", "users", len(profiles))
	for _, p := range profiles {
		initial, err := domain.NewPipelineEnvelope(domain.PipelineDailyDigest, "", nil)
		if err != nil {
			s.logger.Error("digest envelope build failed", "error", err)
			return
		}
		req := RunRequest{RunID: uuid.New().String(), UserID: p.UserID, Initial: initial}
		if err := s.pool.Submit(ctx, req); err != nil {
			s.logger.Warn("digest run skipped", "user_id", p.UserID, "error", err)
		}
	}
}

// nextCronRun parses a standard 5-field cron expression and returns the
// next firing after from. Scans forward minute by minute, which is plenty
// for daily schedules and keeps the parser trivial.
func nextCronRun(expr string, from time.Time) (time.Time, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return time.Time{}, fmt.Errorf("expected 5 fields (min hour day month weekday), got %d", len(fields))
	}

	candidate := from.Truncate(time.Minute).Add(time.Minute)
	limit := from.Add(48 * time.Hour)

	for candidate.Before(limit) {
		if matchesCronField(fields[0], candidate.Minute()) &&
			matchesCronField(fields[1], candidate.Hour()) &&
			matchesCronField(fields[2], candidate.Day()) &&
			matchesCronField(fields[3], int(candidate.Month())) &&
			matchesCronField(fields[4], int(candidate.Weekday())) {
			return candidate, nil
		}
		candidate = candidate.Add(time.Minute)
	}

	return time.Time{}, fmt.Errorf("no matching time found within 48 hours for expression: %s", expr)
}

// matchesCronField checks one value against a cron field pattern.
// Supports *, */N, comma lists, and plain numbers.
func matchesCronField(pattern string, value int) bool {
	if pattern == "*" {
		return true
	}

	if strings.HasPrefix(pattern, "*/") {
		n := 0
		if _, err := fmt.Sscanf(pattern, "*/%d", &n); err == nil && n > 0 {
			return value%n == 0
		}
		return false
	}

	// comma list before single number
	if strings.Contains(pattern, ",") {
		for _, part := range strings.Split(pattern, ",") {
			pn := 0
			if _, err := fmt.Sscanf(strings.TrimSpace(part), "%d", &pn); err == nil && pn == value {
				return true
			}
		}
		return false
	}

	n := 0
	if _, err := fmt.Sscanf(pattern, "%d", &n); err == nil {
		return value == n
	}

	return false
}
