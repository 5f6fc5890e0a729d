package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/hireloop/internal/core/domain"
	"github.com/hireloop/hireloop/internal/core/ports"
)

type fakeResumeParser struct {
	parsed domain.ParsedResume
	err    error
}

func (p *fakeResumeParser) Parse(_ context.Context, _ string) (domain.ParsedResume, error) {
	return p.parsed, p.err
}

func TestResumeParserStoresParsedResume(t *testing.T) {
	repo := newFakeRepo()
	seedProfile(t, repo, "user-1")

	parser := &fakeResumeParser{parsed: domain.ParsedResume{
		Summary:           "backend engineer, 6 years",
		ExtractedKeywords: []string{"go", "postgres"},
	}}
	stage := NewResumeParserCapability(testLogger(), repo, parser)

	env, err := stage.Process(context.Background(), ports.CapabilityContext{
		UserID:  "user-1",
		Payload: map[string]any{"resume_text": "raw resume text"},
	})

	require.NoError(t, err)
	assert.Equal(t, "backend engineer, 6 years", env.SaveToMemory["resume.summary"])

	saved, err := repo.GetProfile(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, saved.Resume)
	assert.Equal(t, "raw resume text", saved.Resume.RawText)
	require.NotNil(t, saved.Resume.Parsed)
	assert.Equal(t, []string{"go", "postgres"}, saved.Resume.Parsed.ExtractedKeywords)
}

// A kernel without an API key still registers this stage; the run must fail
// with a permanent error, not crash.
func TestResumeParserWithoutParser(t *testing.T) {
	repo := newFakeRepo()
	seedProfile(t, repo, "user-1")

	stage := NewResumeParserCapability(testLogger(), repo, nil)

	_, err := stage.Process(context.Background(), ports.CapabilityContext{
		UserID:  "user-1",
		Payload: map[string]any{"resume_text": "raw resume text"},
	})

	require.Error(t, err)
	assert.False(t, domain.IsTransient(err))
	assert.Contains(t, err.Error(), "not configured")
}
