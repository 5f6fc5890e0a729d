package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hireloop/hireloop/internal/core/domain"
	"github.com/hireloop/hireloop/internal/core/ports"
)

// ProfileCapability owns user profiles: creation, updates, and the profile
// summary other stages read from shared memory.
type ProfileCapability struct {
	logger *slog.Logger
	repo   ports.Repository
}

func NewProfileCapability(logger *slog.Logger, repo ports.Repository) *ProfileCapability {
	return &ProfileCapability{logger: logger, repo: repo}
}

func (c *ProfileCapability) Name() domain.AgentName { return domain.AgentProfile }

func (c *ProfileCapability) Process(ctx context.Context, cc ports.CapabilityContext) (domain.Envelope, error) {
	switch cc.Action {
	case "create", "update", "setup", "":
		return c.save(ctx, cc)
	case "get":
		return c.load(ctx, cc)
	default:
		return domain.Envelope{}, domain.Permanent(fmt.Sprintf("unsupported profile action %q", cc.Action), nil)
	}
}

func (c *ProfileCapability) save(ctx context.Context, cc ports.CapabilityContext) (domain.Envelope, error) {
	var profile domain.UserProfile
	if err := decodePayload(cc.Payload, &profile); err != nil {
		return domain.Envelope{}, err
	}
	if profile.UserID == "" {
		profile.UserID = cc.UserID
	}
	if profile.UserID == "" {
		return domain.Envelope{}, domain.Permanent("profile requires a user_id", nil)
	}
	if len(profile.Preferences.TargetTitles) == 0 {
		return domain.Envelope{}, domain.Permanent("profile requires at least one target title", nil)
	}

	if err := c.repo.SaveProfile(ctx, profile); err != nil {
		return domain.Envelope{}, fmt.Errorf("save profile: %w", err)
	}
	c.logger.Info("profile saved", "user_id", profile.UserID, "titles", len(profile.Preferences.TargetTitles))

	return domain.Envelope{
		Agent:     domain.AgentProfile,
		Action:    "profile_saved",
		Output:    domain.Output{Profile: &profile},
		NextAgent: domain.NextStage(cc.Pass, domain.AgentProfile),
		Pass:      forwardPass(cc.Pass, domain.Pass{}),
		SaveToMemory: map[string]any{
			"profile.summary": summarize(&profile),
		},
	}, nil
}

func (c *ProfileCapability) load(ctx context.Context, cc ports.CapabilityContext) (domain.Envelope, error) {
	profile, err := c.repo.GetProfile(ctx, cc.UserID)
	if err != nil {
		return domain.Envelope{}, domain.Permanent("profile not found", err)
	}
	return domain.Envelope{
		Agent:  domain.AgentProfile,
		Action: "profile_loaded",
		Output: domain.Output{Profile: &profile},
	}, nil
}

func summarize(p *domain.UserProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s seeks %s", p.Personal.Name, strings.Join(p.Preferences.TargetTitles, ", "))
	if len(p.Preferences.Locations) > 0 {
		fmt.Fprintf(&b, " in %s", strings.Join(p.Preferences.Locations, ", "))
	}
	if p.Preferences.RemotePreference != "" {
		fmt.Fprintf(&b, " (%s)", p.Preferences.RemotePreference)
	}
	return b.String()
}
