// Package autonomy implements the mode gate that decides whether
// pipelines may invoke mutating actions without confirmation.
package autonomy

import "github.com/teranos/ladder/errors"

// Mode is the autonomy level of a pipeline run. Transitions are
// externally driven; a run's mode never changes mid-run.
type Mode string

const (
	// Observation permits no mutating calls; pipelines only discover and report.
	Observation Mode = "observation"
	// SemiAutomatic permits mutating calls only for explicitly confirmed targets.
	SemiAutomatic Mode = "semi-automatic"
	// FullAutomatic permits mutating calls without per-target confirmation,
	// still subject to dedup and rate limiting.
	FullAutomatic Mode = "full-automatic"
)

// Parse converts a string to a Mode, failing on unknown values.
func Parse(s string) (Mode, error) {
	m := Mode(s)
	if !m.IsValid() {
		return "", errors.Newf("unknown autonomy mode %q (want observation, semi-automatic, or full-automatic)", s)
	}
	return m, nil
}

// IsValid checks if the mode is a known value
func (m Mode) IsValid() bool {
	switch m {
	case Observation, SemiAutomatic, FullAutomatic:
		return true
	}
	return false
}

func (m Mode) String() string {
	return string(m)
}

// Decision is the gate's answer for one target.
type Decision int

const (
	// Execute means the mutating call may proceed.
	Execute Decision = iota
	// Stage means the target must be reported pending-confirmation.
	Stage
	// Observe means the target is reported without any mutating call.
	Observe
)

// Gate decides whether a mutating call may execute for the given
// target. confirmed is the run's confirmed target-ID set, only
// consulted in semi-automatic mode.
func (m Mode) Gate(targetID string, confirmed map[string]struct{}) Decision {
	switch m {
	case FullAutomatic:
		return Execute
	case SemiAutomatic:
		if _, ok := confirmed[targetID]; ok {
			return Execute
		}
		return Stage
	default:
		return Observe
	}
}
