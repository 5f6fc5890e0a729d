package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hireloop/hireloop/internal/core/domain"
	"github.com/hireloop/hireloop/internal/core/ports"
)

// standardFormFields are the questions most application forms ask; answers
// come from the same profile logic the qa stage uses.
var standardFormFields = []string{
	"Full name",
	"Email address",
	"Phone number",
	"Are you authorized to work in this country?",
	"What are your salary expectations?",
	"Are you open to remote or on-site work?",
}

// FormFillerCapability submits ready applications through a sandboxed
// browser worker. Worker infrastructure failures are transient; the run
// loop retries them.
type FormFillerCapability struct {
	logger    *slog.Logger
	repo      ports.Repository
	submitter ports.FormSubmitter
}

func NewFormFillerCapability(logger *slog.Logger, repo ports.Repository, submitter ports.FormSubmitter) *FormFillerCapability {
	return &FormFillerCapability{logger: logger, repo: repo, submitter: submitter}
}

func (c *FormFillerCapability) Name() domain.AgentName { return domain.AgentFormFiller }

func (c *FormFillerCapability) Process(ctx context.Context, cc ports.CapabilityContext) (domain.Envelope, error) {
	if c.submitter == nil {
		return domain.Envelope{}, domain.Permanent("form submission not configured", nil)
	}
	appIDs, err := c.appIDs(cc)
	if err != nil {
		return domain.Envelope{}, err
	}
	profile, err := c.repo.GetProfile(ctx, cc.UserID)
	if err != nil {
		return domain.Envelope{}, domain.Permanent("profile not found", err)
	}

	var submitted []domain.Application
	for _, appID := range appIDs {
		app, err := c.submitOne(ctx, &profile, appID)
		if err != nil {
			return domain.Envelope{}, err
		}
		if app != nil {
			submitted = append(submitted, *app)
		}
	}
	c.logger.Info("forms submitted", "user_id", cc.UserID, "submitted", len(submitted))

	return domain.Envelope{
		Agent:     domain.AgentFormFiller,
		Action:    "forms_submitted",
		Output:    domain.Output{Applications: submitted},
		NextAgent: domain.NextStage(cc.Pass, domain.AgentFormFiller),
		Pass:      forwardPass(cc.Pass, domain.Pass{AppIDs: appIDs}),
		SaveToMemory: map[string]any{
			"form_filler.submitted_count": len(submitted),
		},
	}, nil
}

// appIDs takes the pass data from an upstream tracker hop, or the request
// payload when form_filler is the first stage of an apply run.
func (c *FormFillerCapability) appIDs(cc ports.CapabilityContext) ([]domain.AppID, error) {
	if len(cc.Pass.AppIDs) > 0 {
		return cc.Pass.AppIDs, nil
	}
	var req struct {
		AppIDs []domain.AppID `json:"app_ids"`
	}
	if err := decodePayload(cc.Payload, &req); err != nil {
		return nil, err
	}
	if len(req.AppIDs) == 0 {
		return nil, domain.Permanent("no applications to submit", nil)
	}
	return req.AppIDs, nil
}

// submitOne drives a single ready application through its form. Returns
// (nil, nil) for applications that are not in a submittable state.
func (c *FormFillerCapability) submitOne(ctx context.Context, profile *domain.UserProfile, appID domain.AppID) (*domain.Application, error) {
	app, err := c.repo.GetApplication(ctx, appID)
	if err != nil {
		return nil, domain.Permanent("application not found", err)
	}
	if app.Status != domain.AppStatusReady {
		c.logger.Debug("skipping application not ready", "app_id", appID, "status", app.Status)
		return nil, nil
	}

	job, err := c.repo.GetJob(ctx, app.JobID)
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", app.JobID, err)
	}
	if job.ApplicationURL == "" {
		return nil, domain.Permanent(fmt.Sprintf("job %s has no application URL", job.ID), nil)
	}

	answers := make(map[string]string, len(standardFormFields))
	for _, field := range standardFormFields {
		if a, ok := answerFromProfile(profile, field); ok {
			answers[field] = a
		}
	}

	result, err := c.submitter.Submit(ctx, domain.SubmissionRequest{
		AppID:   app.ID,
		FormURL: job.ApplicationURL,
		Answers: answers,
		Resume:  app.TailoredResume,
		Cover:   app.CoverLetter,
	})
	if err != nil {
		// the submitter tags infrastructure failures transient itself;
		// anything untyped is treated as retryable too
		if domain.IsTransient(err) {
			return nil, err
		}
		return nil, domain.Transient("form submission failed", err)
	}
	if !result.Confirmed {
		return nil, domain.Permanent(fmt.Sprintf("submission for %s not confirmed", app.ID), nil)
	}

	app.FormAnswers = answers
	if err := app.Transition(domain.AppStatusSubmitted, "form submitted: "+result.Receipt); err != nil {
		return nil, fmt.Errorf("mark submitted: %w", err)
	}
	if err := c.repo.SaveApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("save application: %w", err)
	}
	if err := c.repo.UpdateJobStatus(ctx, job.ID, domain.JobStatusApplied); err != nil {
		return nil, fmt.Errorf("mark job applied: %w", err)
	}
	return &app, nil
}
