package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hireloop/hireloop/internal/core/domain"
	"github.com/hireloop/hireloop/internal/core/ports"
)

// ResumeTailorCapability produces a job-specific resume draft for each
// qualified posting. The text itself is opaque; generation is delegated.
type ResumeTailorCapability struct {
	logger    *slog.Logger
	repo      ports.Repository
	generator ports.ArtifactGenerator
}

func NewResumeTailorCapability(logger *slog.Logger, repo ports.Repository, generator ports.ArtifactGenerator) *ResumeTailorCapability {
	return &ResumeTailorCapability{logger: logger, repo: repo, generator: generator}
}

func (c *ResumeTailorCapability) Name() domain.AgentName { return domain.AgentResumeTailor }

func (c *ResumeTailorCapability) Process(ctx context.Context, cc ports.CapabilityContext) (domain.Envelope, error) {
	if c.generator == nil {
		return domain.Envelope{}, domain.Permanent("artifact generation not configured", nil)
	}
	if len(cc.Pass.JobIDs) == 0 {
		return domain.Envelope{}, domain.Permanent("no qualified jobs to tailor for", nil)
	}
	profile, err := c.repo.GetProfile(ctx, cc.UserID)
	if err != nil {
		return domain.Envelope{}, domain.Permanent("profile not found", err)
	}

	writes := map[string]any{}
	var lastDraft string
	for _, jobID := range cc.Pass.JobIDs {
		job, err := c.repo.GetJob(ctx, jobID)
		if err != nil {
			return domain.Envelope{}, fmt.Errorf("load job %s: %w", jobID, err)
		}

		draft, err := c.generator.Generate(ctx, tailorPrompt(&profile, &job))
		if err != nil {
			return domain.Envelope{}, fmt.Errorf("tailor resume for %s: %w", jobID, err)
		}
		writes[draftResumeKey(jobID)] = draft
		lastDraft = draft
	}
	c.logger.Info("resume drafts generated", "user_id", cc.UserID, "jobs", len(cc.Pass.JobIDs))

	return domain.Envelope{
		Agent:        domain.AgentResumeTailor,
		Action:       "resumes_tailored",
		Output:       domain.Output{Artifact: lastDraft},
		NextAgent:    domain.NextStage(cc.Pass, domain.AgentResumeTailor),
		Pass:         forwardPass(cc.Pass, domain.Pass{JobIDs: cc.Pass.JobIDs}),
		SaveToMemory: writes,
	}, nil
}

func tailorPrompt(profile *domain.UserProfile, job *domain.Job) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rewrite this candidate's resume emphasis for the role below.\n\n")
	fmt.Fprintf(&b, "Role: %s at %s (%s)\n", job.Title, job.Company, job.Location)
	if len(job.Requirements) > 0 {
		fmt.Fprintf(&b, "Requirements: %s\n", strings.Join(job.Requirements, "; "))
	}
	fmt.Fprintf(&b, "\nCandidate: %s\n", profile.Personal.Name)
	fmt.Fprintf(&b, "Target titles: %s\n", strings.Join(profile.Preferences.TargetTitles, ", "))
	if profile.Resume != nil && profile.Resume.Parsed != nil {
		p := profile.Resume.Parsed
		fmt.Fprintf(&b, "Summary: %s\n", p.Summary)
		fmt.Fprintf(&b, "Skills: %s\n", strings.Join(p.Skills.Technical, ", "))
	}
	return b.String()
}
