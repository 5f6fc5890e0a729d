package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hireloop/hireloop/internal/core/domain"
	"github.com/hireloop/hireloop/internal/core/ports"
	"github.com/hireloop/hireloop/internal/matching"
)

// MatcherCapability scores candidate jobs against the profile, caches the
// results, and forwards the qualifying job IDs down the chain.
type MatcherCapability struct {
	logger    *slog.Logger
	repo      ports.Repository
	engine    *matching.Engine
	threshold int
}

func NewMatcherCapability(logger *slog.Logger, repo ports.Repository, engine *matching.Engine, threshold int) *MatcherCapability {
	if threshold <= 0 {
		threshold = 70
	}
	return &MatcherCapability{logger: logger, repo: repo, engine: engine, threshold: threshold}
}

func (c *MatcherCapability) Name() domain.AgentName { return domain.AgentMatcher }

func (c *MatcherCapability) Process(ctx context.Context, cc ports.CapabilityContext) (domain.Envelope, error) {
	profile, err := c.repo.GetProfile(ctx, cc.UserID)
	if err != nil {
		return domain.Envelope{}, domain.Permanent("profile not found", err)
	}

	jobs, err := c.candidates(ctx, cc.Pass.JobIDs)
	if err != nil {
		return domain.Envelope{}, err
	}

	ranked := c.engine.Rank(&profile, jobs)
	if err := c.repo.SaveMatches(ctx, ranked); err != nil {
		return domain.Envelope{}, fmt.Errorf("save matches: %w", err)
	}

	var qualified []domain.JobID
	for _, m := range ranked {
		if m.Score < c.threshold {
			continue
		}
		qualified = append(qualified, m.JobID)
		if err := c.repo.UpdateJobStatus(ctx, m.JobID, domain.JobStatusMatched); err != nil {
			return domain.Envelope{}, fmt.Errorf("mark job %s matched: %w", m.JobID, err)
		}
	}
	c.logger.Info("matching complete", "user_id", cc.UserID,
		"candidates", len(jobs), "ranked", len(ranked), "qualified", len(qualified))

	next := domain.NextStage(cc.Pass, domain.AgentMatcher)
	if len(qualified) == 0 {
		// nothing cleared the bar; no point tailoring artifacts
		next = ""
	}

	return domain.Envelope{
		Agent:     domain.AgentMatcher,
		Action:    "jobs_matched",
		Output:    domain.Output{Matches: ranked},
		NextAgent: next,
		Pass:      forwardPass(cc.Pass, domain.Pass{JobIDs: qualified}),
		SaveToMemory: map[string]any{
			"matches.latest_count":    len(ranked),
			"matches.qualified_count": len(qualified),
			"matches.score_threshold": c.threshold,
		},
	}, nil
}

// candidates loads the batch handed over by the scraper, or falls back to
// every unprocessed posting when invoked standalone.
func (c *MatcherCapability) candidates(ctx context.Context, ids []domain.JobID) ([]domain.Job, error) {
	if len(ids) == 0 {
		jobs, err := c.repo.ListJobs(ctx, domain.JobStatusNew)
		if err != nil {
			return nil, fmt.Errorf("list new jobs: %w", err)
		}
		return jobs, nil
	}

	jobs := make([]domain.Job, 0, len(ids))
	for _, id := range ids {
		job, err := c.repo.GetJob(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load job %s: %w", id, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
