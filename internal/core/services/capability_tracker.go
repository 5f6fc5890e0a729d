package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hireloop/hireloop/internal/core/domain"
	"github.com/hireloop/hireloop/internal/core/ports"
)

// staleAfter is how long a submitted application may sit without movement
// before the digest flags it for follow-up.
const staleAfter = 30 * 24 * time.Hour

// TrackerCapability owns applications: creation, lifecycle transitions,
// notes, and the stale-application sweep feeding the digest.
type TrackerCapability struct {
	logger *slog.Logger
	repo   ports.Repository
	now    func() time.Time
}

func NewTrackerCapability(logger *slog.Logger, repo ports.Repository) *TrackerCapability {
	return &TrackerCapability{logger: logger, repo: repo, now: time.Now}
}

func (c *TrackerCapability) Name() domain.AgentName { return domain.AgentTracker }

func (c *TrackerCapability) Process(ctx context.Context, cc ports.CapabilityContext) (domain.Envelope, error) {
	switch cc.Action {
	case "create":
		return c.create(ctx, cc)
	case "transition":
		return c.transition(ctx, cc)
	case "add_note":
		return c.addNote(ctx, cc)
	case "list":
		return c.list(ctx, cc)
	default:
		// pipeline position: batch-create applications for the qualified
		// jobs, or just refresh staleness for the digest chain
		if len(cc.Pass.JobIDs) > 0 {
			return c.trackBatch(ctx, cc)
		}
		return c.refresh(ctx, cc)
	}
}

// create makes a single application on explicit request. A live application
// for the same job is a permanent error, not a second record.
func (c *TrackerCapability) create(ctx context.Context, cc ports.CapabilityContext) (domain.Envelope, error) {
	var req struct {
		JobID      domain.JobID `json:"job_id"`
		MatchScore int          `json:"match_score"`
	}
	if err := decodePayload(cc.Payload, &req); err != nil {
		return domain.Envelope{}, err
	}
	if req.JobID == "" {
		return domain.Envelope{}, domain.Permanent("application requires a job_id", nil)
	}

	app, err := c.createOne(ctx, cc, req.JobID, req.MatchScore, false)
	if err != nil {
		return domain.Envelope{}, err
	}

	return domain.Envelope{
		Agent:  domain.AgentTracker,
		Action: "application_created",
		Output: domain.Output{Application: app},
	}, nil
}

// createOne enforces the one-live-application-per-job rule. In batch mode an
// existing live application is skipped (nil, nil); in single mode it is a
// permanent error.
func (c *TrackerCapability) createOne(ctx context.Context, cc ports.CapabilityContext, jobID domain.JobID, score int, batch bool) (*domain.Application, error) {
	existing, err := c.repo.GetApplicationByJob(ctx, cc.UserID, jobID)
	switch {
	case err == nil && !existing.Status.IsTerminal():
		if batch {
			return nil, nil
		}
		return nil, domain.Permanent(fmt.Sprintf("live application %s already exists for job %s", existing.ID, jobID), nil)
	case err != nil && !errors.Is(err, domain.ErrApplicationNotFound):
		return nil, fmt.Errorf("check existing application: %w", err)
	}

	app := domain.NewApplication(cc.UserID, jobID, score)
	if resume, ok := memoryString(cc, draftResumeKey(jobID)); ok {
		app.TailoredResume = resume
	}
	if cover, ok := memoryString(cc, draftCoverKey(jobID)); ok {
		app.CoverLetter = cover
	}
	if app.TailoredResume != "" {
		if err := app.Transition(domain.AppStatusReady, "artifacts attached"); err != nil {
			return nil, fmt.Errorf("mark ready: %w", err)
		}
	}

	if err := c.repo.SaveApplication(ctx, *app); err != nil {
		return nil, fmt.Errorf("save application: %w", err)
	}
	c.logger.Info("application created", "user_id", cc.UserID, "app_id", app.ID, "job_id", jobID, "status", app.Status)
	return app, nil
}

func (c *TrackerCapability) trackBatch(ctx context.Context, cc ports.CapabilityContext) (domain.Envelope, error) {
	scores := map[domain.JobID]int{}
	matches, err := c.repo.ListMatches(ctx, cc.UserID, 0)
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("load match scores: %w", err)
	}
	for _, m := range matches {
		scores[m.JobID] = m.Score
	}

	var created []domain.Application
	var appIDs []domain.AppID
	for _, jobID := range cc.Pass.JobIDs {
		app, err := c.createOne(ctx, cc, jobID, scores[jobID], true)
		if err != nil {
			return domain.Envelope{}, err
		}
		if app == nil {
			continue
		}
		created = append(created, *app)
		appIDs = append(appIDs, app.ID)
	}

	return domain.Envelope{
		Agent:     domain.AgentTracker,
		Action:    "applications_tracked",
		Output:    domain.Output{Applications: created},
		NextAgent: domain.NextStage(cc.Pass, domain.AgentTracker),
		Pass:      forwardPass(cc.Pass, domain.Pass{AppIDs: appIDs}),
		SaveToMemory: map[string]any{
			"tracker.created_count": len(created),
		},
	}, nil
}

// refresh recomputes status stats and the stale set without mutating
// anything; the digest stage reads the results from memory.
func (c *TrackerCapability) refresh(ctx context.Context, cc ports.CapabilityContext) (domain.Envelope, error) {
	apps, err := c.repo.ListApplications(ctx, cc.UserID)
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("list applications: %w", err)
	}

	stats := map[string]int{}
	var stale []string
	cutoff := c.now().UTC().Add(-staleAfter)
	for _, app := range apps {
		stats[string(app.Status)]++
		if app.Status == domain.AppStatusSubmitted && app.SubmittedAt != nil && app.SubmittedAt.Before(cutoff) {
			stale = append(stale, string(app.ID))
		}
	}
	c.logger.Info("tracker refresh", "user_id", cc.UserID, "applications", len(apps), "stale", len(stale))

	return domain.Envelope{
		Agent:     domain.AgentTracker,
		Action:    "applications_refreshed",
		Output:    domain.Output{Applications: apps},
		NextAgent: domain.NextStage(cc.Pass, domain.AgentTracker),
		Pass:      forwardPass(cc.Pass, domain.Pass{}),
		SaveToMemory: map[string]any{
			"tracker.stats":         stats,
			"tracker.stale_app_ids": stale,
		},
	}, nil
}

func (c *TrackerCapability) transition(ctx context.Context, cc ports.CapabilityContext) (domain.Envelope, error) {
	var req struct {
		AppID  domain.AppID             `json:"app_id"`
		Status domain.ApplicationStatus `json:"status"`
		Note   string                   `json:"note"`
	}
	if err := decodePayload(cc.Payload, &req); err != nil {
		return domain.Envelope{}, err
	}

	app, err := c.repo.GetApplication(ctx, req.AppID)
	if err != nil {
		return domain.Envelope{}, domain.Permanent("application not found", err)
	}
	if err := app.Transition(req.Status, req.Note); err != nil {
		return domain.Envelope{}, domain.Permanent("illegal transition", err)
	}
	if err := c.repo.SaveApplication(ctx, app); err != nil {
		return domain.Envelope{}, fmt.Errorf("save application: %w", err)
	}

	// keep the job record in step with major application milestones
	if req.Status == domain.AppStatusSubmitted {
		if err := c.repo.UpdateJobStatus(ctx, app.JobID, domain.JobStatusApplied); err != nil {
			return domain.Envelope{}, fmt.Errorf("mark job applied: %w", err)
		}
	}
	c.logger.Info("application transitioned", "app_id", app.ID, "status", req.Status)

	return domain.Envelope{
		Agent:  domain.AgentTracker,
		Action: "application_transitioned",
		Output: domain.Output{Application: &app},
	}, nil
}

func (c *TrackerCapability) addNote(ctx context.Context, cc ports.CapabilityContext) (domain.Envelope, error) {
	var req struct {
		AppID domain.AppID `json:"app_id"`
		Note  string       `json:"note"`
	}
	if err := decodePayload(cc.Payload, &req); err != nil {
		return domain.Envelope{}, err
	}
	if req.Note == "" {
		return domain.Envelope{}, domain.Permanent("note must not be empty", nil)
	}

	app, err := c.repo.GetApplication(ctx, req.AppID)
	if err != nil {
		return domain.Envelope{}, domain.Permanent("application not found", err)
	}
	app.AddNote(req.Note)
	if err := c.repo.SaveApplication(ctx, app); err != nil {
		return domain.Envelope{}, fmt.Errorf("save application: %w", err)
	}

	return domain.Envelope{
		Agent:  domain.AgentTracker,
		Action: "note_added",
		Output: domain.Output{Application: &app},
	}, nil
}

func (c *TrackerCapability) list(ctx context.Context, cc ports.CapabilityContext) (domain.Envelope, error) {
	apps, err := c.repo.ListApplications(ctx, cc.UserID)
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("list applications: %w", err)
	}
	return domain.Envelope{
		Agent:  domain.AgentTracker,
		Action: "applications_listed",
		Output: domain.Output{Applications: apps},
	}, nil
}
