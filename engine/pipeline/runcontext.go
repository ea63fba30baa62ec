// Package pipeline orchestrates discovery, filtering, deduplication,
// autonomy gating, and execution for batches of targets, producing a
// Report that accounts for every discovered target.
package pipeline

import (
	"github.com/google/uuid"

	"github.com/teranos/ladder/engine"
	"github.com/teranos/ladder/engine/autonomy"
)

// RunContext is the immutable context of one pipeline invocation.
// Mode and criteria never change mid-run; global mutable state is
// deliberately absent.
type RunContext struct {
	RunID    string
	Mode     autonomy.Mode
	Criteria engine.Criteria

	// Confirmed is the set of target IDs the caller approved between
	// discovery and execution. Only consulted in semi-automatic mode.
	Confirmed map[string]struct{}

	// Profile feeds drafting templates: skills, current role, etc.
	Profile map[string]string
}

// NewRunContext creates a run context with a fresh run ID.
func NewRunContext(mode autonomy.Mode, criteria engine.Criteria) RunContext {
	return RunContext{
		RunID:    uuid.NewString(),
		Mode:     mode,
		Criteria: criteria,
	}
}

// WithConfirmed returns a copy carrying the confirmed target-ID set.
func (rc RunContext) WithConfirmed(ids []string) RunContext {
	confirmed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		confirmed[id] = struct{}{}
	}
	rc.Confirmed = confirmed
	return rc
}

// WithProfile returns a copy carrying the drafting profile.
func (rc RunContext) WithProfile(profile map[string]string) RunContext {
	rc.Profile = profile
	return rc
}
