package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hireloop/hireloop/internal/core/domain"
	"github.com/hireloop/hireloop/internal/core/ports"
)

// recentWindow bounds what the digest counts as recent activity.
const recentWindow = 7 * 24 * time.Hour

// DigestCapability summarizes a user's pipeline state: application counts
// by status, recent movement, stale follow-ups, and fresh matches. The
// digest terminates every chain it appears in.
type DigestCapability struct {
	logger    *slog.Logger
	repo      ports.Repository
	generator ports.ArtifactGenerator // optional, polishes the prose
	threshold int
	now       func() time.Time
}

func NewDigestCapability(logger *slog.Logger, repo ports.Repository, generator ports.ArtifactGenerator, threshold int) *DigestCapability {
	if threshold <= 0 {
		threshold = 70
	}
	return &DigestCapability{logger: logger, repo: repo, generator: generator, threshold: threshold, now: time.Now}
}

func (c *DigestCapability) Name() domain.AgentName { return domain.AgentDigest }

func (c *DigestCapability) Process(ctx context.Context, cc ports.CapabilityContext) (domain.Envelope, error) {
	apps, err := c.repo.ListApplications(ctx, cc.UserID)
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("list applications: %w", err)
	}
	matches, err := c.repo.ListMatches(ctx, cc.UserID, c.threshold)
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("list matches: %w", err)
	}

	now := c.now().UTC()
	report := &domain.DigestReport{
		UserID:        cc.UserID,
		GeneratedAt:   now.Format(time.RFC3339),
		StatsByStatus: map[string]int{},
		NewMatches:    len(matches),
	}

	cutoff := now.Add(-recentWindow)
	staleCutoff := now.Add(-staleAfter)
	for _, app := range apps {
		report.StatsByStatus[string(app.Status)]++
		if app.UpdatedAt.After(cutoff) {
			report.RecentActivity++
		}
		if app.Status == domain.AppStatusSubmitted && app.SubmittedAt != nil && app.SubmittedAt.Before(staleCutoff) {
			report.StaleFollowUps = append(report.StaleFollowUps, app.ID)
		}
	}

	report.Text = c.render(ctx, report)
	c.logger.Info("digest generated", "user_id", cc.UserID,
		"applications", len(apps), "new_matches", report.NewMatches, "stale", len(report.StaleFollowUps))

	return domain.Envelope{
		Agent:  domain.AgentDigest,
		Action: "digest_generated",
		Output: domain.Output{Digest: report},
		SaveToMemory: map[string]any{
			"digest.last_generated": report.GeneratedAt,
		},
	}, nil
}

// render produces the digest prose, preferring the generator when one is
// wired; the plain template is always the fallback.
func (c *DigestCapability) render(ctx context.Context, report *domain.DigestReport) string {
	plain := plainDigest(report)
	if c.generator == nil {
		return plain
	}
	polished, err := c.generator.Generate(ctx,
		"Rewrite this job-search status digest as a short friendly update, keeping every number:\n\n"+plain)
	if err != nil {
		c.logger.Warn("digest polish failed, using plain text", "error", err)
		return plain
	}
	return polished
}

func plainDigest(r *domain.DigestReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily digest for %s\n", r.UserID)
	fmt.Fprintf(&b, "New qualified matches: %d\n", r.NewMatches)
	fmt.Fprintf(&b, "Applications updated this week: %d\n", r.RecentActivity)

	if len(r.StatsByStatus) > 0 {
		b.WriteString("Pipeline: ")
		first := true
		for _, status := range []domain.ApplicationStatus{
			domain.AppStatusPreparing, domain.AppStatusReady, domain.AppStatusSubmitted,
			domain.AppStatusInterview, domain.AppStatusOffer, domain.AppStatusRejected,
		} {
			if n := r.StatsByStatus[string(status)]; n > 0 {
				if !first {
					b.WriteString(", ")
				}
				fmt.Fprintf(&b, "%d %s", n, status)
				first = false
			}
		}
		b.WriteString("\n")
	}
	if len(r.StaleFollowUps) > 0 {
		fmt.Fprintf(&b, "Needs follow-up (30+ days since submission): %d application(s)\n", len(r.StaleFollowUps))
	}
	return b.String()
}
