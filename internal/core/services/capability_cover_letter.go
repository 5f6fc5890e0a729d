package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hireloop/hireloop/internal/core/domain"
	"github.com/hireloop/hireloop/internal/core/ports"
)

// CoverLetterCapability drafts a cover letter per qualified job, reusing
// the tailored resume from shared memory as grounding when present.
type CoverLetterCapability struct {
	logger    *slog.Logger
	repo      ports.Repository
	generator ports.ArtifactGenerator
}

func NewCoverLetterCapability(logger *slog.Logger, repo ports.Repository, generator ports.ArtifactGenerator) *CoverLetterCapability {
	return &CoverLetterCapability{logger: logger, repo: repo, generator: generator}
}

func (c *CoverLetterCapability) Name() domain.AgentName { return domain.AgentCoverLetter }

func (c *CoverLetterCapability) Process(ctx context.Context, cc ports.CapabilityContext) (domain.Envelope, error) {
	if c.generator == nil {
		return domain.Envelope{}, domain.Permanent("artifact generation not configured", nil)
	}
	if len(cc.Pass.JobIDs) == 0 {
		return domain.Envelope{}, domain.Permanent("no qualified jobs for cover letters", nil)
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

		resumeDraft, _ := memoryString(cc, draftResumeKey(jobID))
		letter, err := c.generator.Generate(ctx, coverPrompt(&profile, &job, resumeDraft))
		if err != nil {
			return domain.Envelope{}, fmt.Errorf("cover letter for %s: %w", jobID, err)
		}
		writes[draftCoverKey(jobID)] = letter
		lastDraft = letter
	}
	c.logger.Info("cover letters generated", "user_id", cc.UserID, "jobs", len(cc.Pass.JobIDs))

	return domain.Envelope{
		Agent:        domain.AgentCoverLetter,
		Action:       "cover_letters_written",
		Output:       domain.Output{Artifact: lastDraft},
		NextAgent:    domain.NextStage(cc.Pass, domain.AgentCoverLetter),
		Pass:         forwardPass(cc.Pass, domain.Pass{JobIDs: cc.Pass.JobIDs}),
		SaveToMemory: writes,
	}, nil
}

func coverPrompt(profile *domain.UserProfile, job *domain.Job, resumeDraft string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a short cover letter for %s applying to %s at %s.\n",
		profile.Personal.Name, job.Title, job.Company)
	if job.Description != "" {
		fmt.Fprintf(&b, "\nRole description:\n%s\n", job.Description)
	}
	if resumeDraft != "" {
		fmt.Fprintf(&b, "\nTailored resume for context:\n%s\n", resumeDraft)
	}
	return b.String()
}
