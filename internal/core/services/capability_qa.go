package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hireloop/hireloop/internal/core/domain"
	"github.com/hireloop/hireloop/internal/core/ports"
)

// QACapability answers screening questions from the profile. Questions it
// cannot pattern-match fall back to the artifact generator when one is
// configured; otherwise they come back empty for a human to fill.
type QACapability struct {
	logger    *slog.Logger
	repo      ports.Repository
	generator ports.ArtifactGenerator // optional
}

func NewQACapability(logger *slog.Logger, repo ports.Repository, generator ports.ArtifactGenerator) *QACapability {
	return &QACapability{logger: logger, repo: repo, generator: generator}
}

func (c *QACapability) Name() domain.AgentName { return domain.AgentQA }

func (c *QACapability) Process(ctx context.Context, cc ports.CapabilityContext) (domain.Envelope, error) {
	profile, err := c.repo.GetProfile(ctx, cc.UserID)
	if err != nil {
		return domain.Envelope{}, domain.Permanent("profile not found", err)
	}

	questions := c.questions(cc)
	if len(questions) == 0 {
		return domain.Envelope{}, domain.Permanent("no questions to answer", nil)
	}

	answers := make(map[string]string, len(questions))
	unanswered := 0
	for _, q := range questions {
		answer, ok := answerFromProfile(&profile, q)
		if !ok && c.generator != nil {
			answer, err = c.generator.Generate(ctx, qaPrompt(&profile, q))
			if err != nil {
				return domain.Envelope{}, fmt.Errorf("answer %q: %w", q, err)
			}
			ok = true
		}
		if !ok {
			unanswered++
		}
		answers[q] = answer
	}
	c.logger.Info("questions answered", "user_id", cc.UserID,
		"questions", len(questions), "unanswered", unanswered)

	return domain.Envelope{
		Agent:     domain.AgentQA,
		Action:    "questions_answered",
		Output:    domain.Output{Answers: answers},
		NextAgent: domain.NextStage(cc.Pass, domain.AgentQA),
		Pass:      forwardPass(cc.Pass, cc.Pass),
	}, nil
}

func (c *QACapability) questions(cc ports.CapabilityContext) []string {
	if cc.Pass.Question != "" {
		return []string{cc.Pass.Question}
	}
	raw, ok := cc.Payload["questions"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, q := range raw {
		if s, ok := q.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// answerFromProfile handles the recurring screening questions every
// application form asks. Matching is keyword-based on the question text.
func answerFromProfile(p *domain.UserProfile, question string) (string, bool) {
	q := strings.ToLower(question)

	switch {
	case containsAny(q, "authorized", "authorization", "visa", "sponsor"):
		return "I am authorized to work and do not require sponsorship.", true

	case containsAny(q, "relocat"):
		if len(p.Preferences.Locations) > 0 {
			return fmt.Sprintf("Open to roles in %s.", strings.Join(p.Preferences.Locations, ", ")), true
		}
		return "Not looking to relocate at this time.", true

	case containsAny(q, "start date", "when can you start", "notice period"):
		return "Available to start within two weeks of an offer.", true

	case containsAny(q, "salary", "compensation", "pay expectation"):
		if p.Preferences.SalaryMin != nil {
			return fmt.Sprintf("Targeting a base of at least %d, flexible for the right role.", *p.Preferences.SalaryMin), true
		}
		return "Open to discussing compensation for the right role.", true

	case containsAny(q, "remote", "work from home", "on-site", "onsite", "hybrid"):
		switch p.Preferences.RemotePreference {
		case domain.RemoteOnly:
			return "I am looking for fully remote roles.", true
		case domain.HybridOK:
			return "Remote preferred; open to a hybrid arrangement.", true
		case domain.OnsiteOK, domain.RemoteAny:
			return "Flexible on remote, hybrid, or on-site.", true
		}
		return "Flexible on work arrangement.", true

	case containsAny(q, "years of experience", "how many years"):
		if p.Resume != nil && p.Resume.Parsed != nil && len(p.Resume.Parsed.Experience) > 0 {
			return fmt.Sprintf("%d relevant roles; details in the attached resume.", len(p.Resume.Parsed.Experience)), true
		}
		return "", false

	case containsAny(q, "email"):
		if p.Personal.Email != "" {
			return p.Personal.Email, true
		}
	case containsAny(q, "phone"):
		if p.Personal.Phone != "" {
			return p.Personal.Phone, true
		}
	case containsAny(q, "name"):
		if p.Personal.Name != "" {
			return p.Personal.Name, true
		}
	case containsAny(q, "linkedin"):
		if p.Personal.LinkedIn != "" {
			return p.Personal.LinkedIn, true
		}
	}
	return "", false
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func qaPrompt(p *domain.UserProfile, question string) string {
	return fmt.Sprintf(
		"Answer this job application question in one or two sentences, as the candidate %s (%s): %s",
		p.Personal.Name, strings.Join(p.Preferences.TargetTitles, ", "), question)
}
