package services

import (
	"encoding/json"
	"fmt"

	"github.com/hireloop/hireloop/internal/core/domain"
	"github.com/hireloop/hireloop/internal/core/ports"
)

// forwardPass builds the pass data for the next hop, always carrying the
// active pipeline name so downstream stages can keep chaining.
func forwardPass(in domain.Pass, out domain.Pass) domain.Pass {
	if raw, ok := in.Extra[domain.PassKeyPipeline]; ok {
		if out.Extra == nil {
			out.Extra = map[string]any{}
		}
		out.Extra[domain.PassKeyPipeline] = raw
	}
	return out
}

// decodePayload maps the loosely-typed request payload onto a struct via a
// JSON round trip. Capabilities use it at their boundary only; everything
// past that point is typed.
func decodePayload(payload map[string]any, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return domain.Permanent("malformed payload", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return domain.Permanent("payload does not match expected shape", err)
	}
	return nil
}

// memoryString reads a string value from the memory snapshot.
func memoryString(cc ports.CapabilityContext, key string) (string, bool) {
	v, ok := cc.Memory[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func draftResumeKey(jobID domain.JobID) string {
	return fmt.Sprintf("drafts.resume.%s", jobID)
}

func draftCoverKey(jobID domain.JobID) string {
	return fmt.Sprintf("drafts.cover.%s", jobID)
}
