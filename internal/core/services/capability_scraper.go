package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hireloop/hireloop/internal/core/domain"
	"github.com/hireloop/hireloop/internal/core/ports"
)

// ScraperCapability fans a profile-derived query out to the configured job
// boards, dedupes postings by derived ID, and persists the new ones.
type ScraperCapability struct {
	logger  *slog.Logger
	repo    ports.Repository
	sources []ports.JobSource
	limit   int
}

func NewScraperCapability(logger *slog.Logger, repo ports.Repository, sources []ports.JobSource, limit int) *ScraperCapability {
	if limit <= 0 {
		limit = 50
	}
	return &ScraperCapability{logger: logger, repo: repo, sources: sources, limit: limit}
}

func (c *ScraperCapability) Name() domain.AgentName { return domain.AgentScraper }

func (c *ScraperCapability) Process(ctx context.Context, cc ports.CapabilityContext) (domain.Envelope, error) {
	profile, err := c.repo.GetProfile(ctx, cc.UserID)
	if err != nil {
		return domain.Envelope{}, domain.Permanent("profile not found", err)
	}

	query := domain.JobQuery{
		Titles:    profile.Preferences.TargetTitles,
		Locations: profile.Preferences.Locations,
		Limit:     c.limit,
	}

	fetched, err := c.fetchAll(ctx, query)
	if err != nil {
		return domain.Envelope{}, domain.Transient("job boards unreachable", err)
	}

	newJobs, err := c.ingest(ctx, fetched)
	if err != nil {
		return domain.Envelope{}, err
	}
	c.logger.Info("scrape complete", "user_id", cc.UserID, "fetched", len(fetched), "new", len(newJobs))

	jobIDs := make([]domain.JobID, len(newJobs))
	for i, j := range newJobs {
		jobIDs[i] = j.ID
	}

	return domain.Envelope{
		Agent:     domain.AgentScraper,
		Action:    "jobs_scraped",
		Output:    domain.Output{Jobs: newJobs},
		NextAgent: domain.NextStage(cc.Pass, domain.AgentScraper),
		Pass:      forwardPass(cc.Pass, domain.Pass{JobIDs: jobIDs}),
		SaveToMemory: map[string]any{
			"scraper.last_fetch_count": len(fetched),
			"scraper.last_new_count":   len(newJobs),
		},
	}, nil
}

// fetchAll queries every board concurrently and pools the results. One
// failing board fails the fetch; the retry belongs to the run loop.
func (c *ScraperCapability) fetchAll(ctx context.Context, query domain.JobQuery) ([]domain.Job, error) {
	var (
		mu  sync.Mutex
		all []domain.Job
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, src := range c.sources {
		g.Go(func() error {
			jobs, err := src.FetchJobs(gctx, query)
			if err != nil {
				return err
			}
			mu.Lock()
			all = append(all, jobs...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return all, nil
}

// ingest derives stable IDs, drops postings already on record, and
// persists the remainder with status new.
func (c *ScraperCapability) ingest(ctx context.Context, fetched []domain.Job) ([]domain.Job, error) {
	seen := make(map[domain.JobID]bool, len(fetched))
	var newJobs []domain.Job

	for _, job := range fetched {
		if job.ID == "" {
			job.ID = domain.DeriveJobID(job.Company, job.Title, job.Location)
		}
		if seen[job.ID] {
			continue
		}
		seen[job.ID] = true

		_, err := c.repo.GetJob(ctx, job.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrJobNotFound) {
			return nil, fmt.Errorf("check job %s: %w", job.ID, err)
		}

		job.Status = domain.JobStatusNew
		if err := c.repo.SaveJob(ctx, job); err != nil {
			return nil, fmt.Errorf("save job %s: %w", job.ID, err)
		}
		newJobs = append(newJobs, job)
	}
	return newJobs, nil
}
