package engine

import "time"

// Status is the terminal status of a target within a run.
type Status string

const (
	// Terminal executor outcomes
	StatusSucceeded       Status = "succeeded"
	StatusAlreadyDone     Status = "already-done"
	StatusFailedTransient Status = "failed-transient"
	StatusFailedPermanent Status = "failed-permanent"

	// Pipeline-level statuses (target never reached the action port)
	StatusPendingConfirmation Status = "pending-confirmation"
	StatusObserved            Status = "observed"
	StatusDraftingFailed      Status = "drafting-failed"
	StatusNotAttempted        Status = "not-attempted"
	StatusFiltered            Status = "filtered"
)

// IsValid checks if the status is a known value
func (s Status) IsValid() bool {
	switch s {
	case StatusSucceeded, StatusAlreadyDone, StatusFailedTransient,
		StatusFailedPermanent, StatusPendingConfirmation, StatusObserved,
		StatusDraftingFailed, StatusNotAttempted, StatusFiltered:
		return true
	}
	return false
}

// Terminal reports whether the status is a terminal executor outcome
// that belongs in the ledger.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailedTransient, StatusFailedPermanent:
		return true
	}
	return false
}

// Result is the outcome of executing one action against one target.
type Result struct {
	TargetID  string
	Kind      Kind
	Status    Status
	Reason    string // failure reason or skip reason, empty on success
	Attempts  int
	Timestamp time.Time
}
