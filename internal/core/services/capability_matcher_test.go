package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/hireloop/internal/core/domain"
	"github.com/hireloop/hireloop/internal/core/ports"
	"github.com/hireloop/hireloop/internal/matching"
)

func TestMatcherScoresAndForwardsQualified(t *testing.T) {
	repo := newFakeRepo()
	posted := time.Now().UTC().Add(-24 * time.Hour)
	require.NoError(t, repo.SaveProfile(context.Background(), domain.UserProfile{
		UserID: "user-1",
		Preferences: domain.JobPreferences{
			TargetTitles:     []string{"Go"},
			RemotePreference: domain.RemoteAny,
		},
	}))
	require.NoError(t, repo.SaveJob(context.Background(), domain.Job{
		ID: "strong", Title: "Go Engineer", Company: "Acme",
		Description: "Go services", PostedAt: &posted, Status: domain.JobStatusNew,
	}))
	stalePosted := time.Now().UTC().Add(-59 * 24 * time.Hour)
	require.NoError(t, repo.SaveJob(context.Background(), domain.Job{
		ID: "weak", Title: "Accountant", Company: "Ledger Inc",
		Description: "Bookkeeping", PostedAt: &stalePosted, Status: domain.JobStatusNew,
	}))

	matcher := NewMatcherCapability(testLogger(), repo, matching.NewEngine(matching.DefaultConfig()), 70)
	env, err := matcher.Process(context.Background(), ports.CapabilityContext{
		UserID: "user-1",
		Pass: domain.Pass{
			JobIDs: []domain.JobID{"strong", "weak"},
			Extra:  map[string]any{domain.PassKeyPipeline: string(domain.PipelineFullApplication)},
		},
	})

	require.NoError(t, err)
	assert.Len(t, env.Output.Matches, 2)
	assert.Equal(t, []domain.JobID{"strong"}, env.Pass.JobIDs)
	assert.Equal(t, domain.AgentResumeTailor, env.NextAgent)

	// qualifying job flipped to matched, the other untouched
	strong, err := repo.GetJob(context.Background(), "strong")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusMatched, strong.Status)
	weak, err := repo.GetJob(context.Background(), "weak")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusNew, weak.Status)

	// results cached
	cached, err := repo.ListMatches(context.Background(), "user-1", 0)
	require.NoError(t, err)
	assert.Len(t, cached, 2)
}

func TestMatcherStopsChainWhenNothingQualifies(t *testing.T) {
	repo := newFakeRepo()
	require.NoError(t, repo.SaveProfile(context.Background(), domain.UserProfile{
		UserID: "user-1",
		Preferences: domain.JobPreferences{
			TargetTitles:     []string{"Go"},
			RemotePreference: domain.RemoteAny,
		},
		Filters: domain.Filters{RequiredKeywords: []string{"kubernetes"}},
	}))
	require.NoError(t, repo.SaveJob(context.Background(), domain.Job{
		ID: "job-1", Title: "Chef", Company: "Bistro", Status: domain.JobStatusNew,
	}))

	matcher := NewMatcherCapability(testLogger(), repo, matching.NewEngine(matching.DefaultConfig()), 70)
	env, err := matcher.Process(context.Background(), ports.CapabilityContext{
		UserID: "user-1",
		Pass: domain.Pass{
			JobIDs: []domain.JobID{"job-1"},
			Extra:  map[string]any{domain.PassKeyPipeline: string(domain.PipelineFullApplication)},
		},
	})

	require.NoError(t, err)
	assert.Empty(t, env.NextAgent, "no qualified jobs means the chain ends here")
	assert.Empty(t, env.Pass.JobIDs)
}

func TestMatcherFallsBackToNewJobsWhenStandalone(t *testing.T) {
	repo := newFakeRepo()
	posted := time.Now().UTC()
	require.NoError(t, repo.SaveProfile(context.Background(), domain.UserProfile{
		UserID: "user-1",
		Preferences: domain.JobPreferences{
			TargetTitles:     []string{"Engineer"},
			RemotePreference: domain.RemoteAny,
		},
	}))
	require.NoError(t, repo.SaveJob(context.Background(), domain.Job{
		ID: "job-1", Title: "Engineer", Company: "Acme",
		PostedAt: &posted, Status: domain.JobStatusNew,
	}))
	require.NoError(t, repo.SaveJob(context.Background(), domain.Job{
		ID: "job-2", Title: "Engineer", Company: "Globex",
		PostedAt: &posted, Status: domain.JobStatusApplied,
	}))

	matcher := NewMatcherCapability(testLogger(), repo, matching.NewEngine(matching.DefaultConfig()), 70)
	env, err := matcher.Process(context.Background(), ports.CapabilityContext{UserID: "user-1"})

	require.NoError(t, err)
	require.Len(t, env.Output.Matches, 1)
	assert.Equal(t, domain.JobID("job-1"), env.Output.Matches[0].JobID)
}

func TestMatcherMissingProfileIsPermanent(t *testing.T) {
	matcher := NewMatcherCapability(testLogger(), newFakeRepo(), matching.NewEngine(matching.DefaultConfig()), 70)

	_, err := matcher.Process(context.Background(), ports.CapabilityContext{UserID: "ghost"})

	var perm *domain.PermanentError
	assert.ErrorAs(t, err, &perm)
}
