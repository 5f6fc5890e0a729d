package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/hireloop/internal/core/domain"
	"github.com/hireloop/hireloop/internal/core/ports"
)

func TestDigestSummarizesPipeline(t *testing.T) {
	repo := newFakeRepo()
	seedProfile(t, repo, "user-1")
	require.NoError(t, repo.SaveMatches(context.Background(), []domain.MatchResult{
		{UserID: "user-1", JobID: "job-1", Score: 92},
		{UserID: "user-1", JobID: "job-2", Score: 40}, // below threshold
	}))

	submitted := domain.NewApplication("user-1", "job-1", 92)
	require.NoError(t, submitted.Transition(domain.AppStatusReady, ""))
	require.NoError(t, submitted.Transition(domain.AppStatusSubmitted, ""))
	old := time.Now().UTC().Add(-40 * 24 * time.Hour)
	submitted.SubmittedAt = &old
	submitted.UpdatedAt = old
	require.NoError(t, repo.SaveApplication(context.Background(), *submitted))

	preparing := domain.NewApplication("user-1", "job-3", 77)
	require.NoError(t, repo.SaveApplication(context.Background(), *preparing))

	digest := NewDigestCapability(testLogger(), repo, nil, 70)
	env, err := digest.Process(context.Background(), ports.CapabilityContext{UserID: "user-1"})

	require.NoError(t, err)
	report := env.Output.Digest
	require.NotNil(t, report)

	assert.Equal(t, 1, report.NewMatches, "only matches above threshold count")
	assert.Equal(t, 1, report.StatsByStatus["submitted"])
	assert.Equal(t, 1, report.StatsByStatus["preparing"])
	assert.Equal(t, 1, report.RecentActivity, "only the fresh application moved this week")
	assert.Equal(t, []domain.AppID{submitted.ID}, report.StaleFollowUps)

	assert.Contains(t, report.Text, "New qualified matches: 1")
	assert.Contains(t, report.Text, "follow-up")
	assert.Empty(t, env.NextAgent, "digest terminates the chain")
}

func TestDigestUsesGeneratorWhenAvailable(t *testing.T) {
	repo := newFakeRepo()
	seedProfile(t, repo, "user-1")
	gen := &fakeGenerator{response: "Friendly summary."}

	digest := NewDigestCapability(testLogger(), repo, gen, 70)
	env, err := digest.Process(context.Background(), ports.CapabilityContext{UserID: "user-1"})

	require.NoError(t, err)
	assert.Equal(t, "Friendly summary.", env.Output.Digest.Text)
}

func TestDigestFallsBackWhenGeneratorFails(t *testing.T) {
	repo := newFakeRepo()
	seedProfile(t, repo, "user-1")
	gen := &fakeGenerator{err: errors.New("quota exceeded")}

	digest := NewDigestCapability(testLogger(), repo, gen, 70)
	env, err := digest.Process(context.Background(), ports.CapabilityContext{UserID: "user-1"})

	require.NoError(t, err)
	assert.Contains(t, env.Output.Digest.Text, "Daily digest")
}
