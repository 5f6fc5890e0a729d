package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/hireloop/internal/core/domain"
	"github.com/hireloop/hireloop/internal/core/ports"
)

func TestCoverLetterGroundsOnResumeDraft(t *testing.T) {
	repo := newFakeRepo()
	seedProfile(t, repo, "user-1")
	seedJob(t, repo, "job-1")

	gen := &fakeGenerator{response: "dear hiring team"}
	cover := NewCoverLetterCapability(testLogger(), repo, gen)

	env, err := cover.Process(context.Background(), ports.CapabilityContext{
		UserID: "user-1",
		Pass:   domain.Pass{JobIDs: []domain.JobID{"job-1"}},
		Memory: map[string]any{draftResumeKey("job-1"): "tailored resume"},
	})

	require.NoError(t, err)
	assert.Equal(t, "dear hiring team", env.SaveToMemory[draftCoverKey("job-1")])

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "tailored resume")
}

func TestCoverLetterWithoutGenerator(t *testing.T) {
	repo := newFakeRepo()
	seedProfile(t, repo, "user-1")

	cover := NewCoverLetterCapability(testLogger(), repo, nil)

	_, err := cover.Process(context.Background(), ports.CapabilityContext{
		UserID: "user-1",
		Pass:   domain.Pass{JobIDs: []domain.JobID{"job-1"}},
	})

	require.Error(t, err)
	assert.False(t, domain.IsTransient(err))
	assert.Contains(t, err.Error(), "not configured")
}
