package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/hireloop/internal/core/domain"
	"github.com/hireloop/hireloop/internal/core/ports"
)

// fakeCapability is a scriptable stage used across the service tests.
type fakeCapability struct {
	name    domain.AgentName
	process func(ctx context.Context, cc ports.CapabilityContext) (domain.Envelope, error)
}

func (f *fakeCapability) Name() domain.AgentName { return f.name }

func (f *fakeCapability) Process(ctx context.Context, cc ports.CapabilityContext) (domain.Envelope, error) {
	return f.process(ctx, cc)
}

func staticStage(name domain.AgentName, next domain.AgentName) *fakeCapability {
	return &fakeCapability{
		name: name,
		process: func(context.Context, ports.CapabilityContext) (domain.Envelope, error) {
			return domain.Envelope{Agent: name, Action: "done", NextAgent: next}, nil
		},
	}
}

func TestRegistryRegisterAndResolve(t *testing.T) {
	r := NewRegistry(testLogger())

	require.NoError(t, r.Register(staticStage(domain.AgentMatcher, "")))

	c, err := r.Resolve(domain.AgentMatcher)
	require.NoError(t, err)
	assert.Equal(t, domain.AgentMatcher, c.Name())
}

func TestRegistryUnknownName(t *testing.T) {
	r := NewRegistry(testLogger())

	_, err := r.Resolve("nonsense")
	assert.ErrorIs(t, err, domain.ErrUnknownCapability)

	err = r.Register(staticStage("nonsense", ""))
	assert.ErrorIs(t, err, domain.ErrUnknownCapability)
}

func TestRegistryReplaceAndNames(t *testing.T) {
	r := NewRegistry(testLogger())

	require.NoError(t, r.Register(staticStage(domain.AgentQA, "")))
	require.NoError(t, r.Register(staticStage(domain.AgentDigest, "")))

	replacement := staticStage(domain.AgentQA, domain.AgentDigest)
	require.NoError(t, r.Register(replacement))

	c, err := r.Resolve(domain.AgentQA)
	require.NoError(t, err)
	assert.Same(t, ports.Capability(replacement), c)

	assert.Equal(t, []domain.AgentName{domain.AgentDigest, domain.AgentQA}, r.Names())
}
