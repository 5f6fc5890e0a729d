package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hireloop/hireloop/internal/core/domain"
	"github.com/hireloop/hireloop/internal/core/ports"
)

// ResumeParserCapability turns raw resume text into structured fields on
// the profile. The parsing itself is delegated to a collaborator.
type ResumeParserCapability struct {
	logger *slog.Logger
	repo   ports.Repository
	parser ports.ResumeParser
}

func NewResumeParserCapability(logger *slog.Logger, repo ports.Repository, parser ports.ResumeParser) *ResumeParserCapability {
	return &ResumeParserCapability{logger: logger, repo: repo, parser: parser}
}

func (c *ResumeParserCapability) Name() domain.AgentName { return domain.AgentResumeParser }

func (c *ResumeParserCapability) Process(ctx context.Context, cc ports.CapabilityContext) (domain.Envelope, error) {
	if c.parser == nil {
		return domain.Envelope{}, domain.Permanent("resume parsing not configured", nil)
	}
	profile, err := c.repo.GetProfile(ctx, cc.UserID)
	if err != nil {
		return domain.Envelope{}, domain.Permanent("profile not found", err)
	}

	raw := c.rawText(cc, &profile)
	if raw == "" {
		return domain.Envelope{}, domain.Permanent("no resume text to parse", nil)
	}

	parsed, err := c.parser.Parse(ctx, raw)
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("parse resume: %w", err)
	}

	if profile.Resume == nil {
		profile.Resume = &domain.Resume{}
	}
	profile.Resume.RawText = raw
	profile.Resume.Parsed = &parsed
	if err := c.repo.SaveProfile(ctx, profile); err != nil {
		return domain.Envelope{}, fmt.Errorf("save parsed resume: %w", err)
	}
	c.logger.Info("resume parsed", "user_id", cc.UserID, "keywords", len(parsed.ExtractedKeywords))

	return domain.Envelope{
		Agent:     domain.AgentResumeParser,
		Action:    "resume_parsed",
		Output:    domain.Output{Profile: &profile},
		NextAgent: domain.NextStage(cc.Pass, domain.AgentResumeParser),
		Pass:      forwardPass(cc.Pass, domain.Pass{}),
		SaveToMemory: map[string]any{
			"resume.keywords": parsed.ExtractedKeywords,
			"resume.summary":  parsed.Summary,
		},
	}, nil
}

// rawText prefers text supplied with the request over what the profile
// already carries.
func (c *ResumeParserCapability) rawText(cc ports.CapabilityContext, profile *domain.UserProfile) string {
	if v, ok := cc.Payload["resume_text"].(string); ok && v != "" {
		return v
	}
	if profile.Resume != nil {
		return profile.Resume.RawText
	}
	return ""
}
