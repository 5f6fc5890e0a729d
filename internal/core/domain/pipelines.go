package domain

import (
	"errors"
	"fmt"
)

// PipelineName identifies one of the predefined stage chains.
type PipelineName string

const (
	PipelineFullApplication PipelineName = "full_application"
	PipelineDailyDigest     PipelineName = "daily_digest"
	PipelineProfileSetup    PipelineName = "profile_setup"
	PipelineApply           PipelineName = "apply"
	PipelineScreeningQA     PipelineName = "screening_qa"
)

// PassKeyPipeline carries the active chain name through pass data so each
// stage can name its successor.
const PassKeyPipeline = "pipeline"

// PipelineChains maps each predefined pipeline to its stage order.
var PipelineChains = map[PipelineName][]AgentName{
	PipelineFullApplication: {
		AgentScraper, AgentMatcher, AgentResumeTailor,
		AgentCoverLetter, AgentTracker, AgentDigest,
	},
	PipelineDailyDigest:  {AgentTracker, AgentDigest},
	PipelineProfileSetup: {AgentProfile, AgentResumeParser},

	// apply submits already-tracked applications (app_ids in the payload),
	// then refreshes tracker stats.
	PipelineApply: {AgentFormFiller, AgentTracker},

	// screening_qa answers ad-hoc screening questions from the payload.
	PipelineScreeningQA: {AgentQA},
}

var ErrUnknownPipeline = errors.New("unknown pipeline")

// NewPipelineEnvelope builds the initial envelope for a predefined chain.
// The payload travels with the run and is visible to every stage.
func NewPipelineEnvelope(name PipelineName, action string, payload map[string]any) (Envelope, error) {
	chain, ok := PipelineChains[name]
	if !ok {
		return Envelope{}, fmt.Errorf("%w: %q", ErrUnknownPipeline, name)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	payload[PassKeyPipeline] = string(name)
	return Envelope{
		Action:    action,
		NextAgent: chain[0],
		Pass:      Pass{Extra: payload},
	}, nil
}

// NextStage returns the successor of current within the chain named in
// pass data, or "" when current is the last stage or no chain is active.
func NextStage(pass Pass, current AgentName) AgentName {
	raw, ok := pass.Extra[PassKeyPipeline]
	if !ok {
		return ""
	}
	name, ok := raw.(string)
	if !ok {
		return ""
	}
	chain := PipelineChains[PipelineName(name)]
	for i, stage := range chain {
		if stage == current && i+1 < len(chain) {
			return chain[i+1]
		}
	}
	return ""
}
