// Package ledger is the append-only record of completed actions and
// the storage-enforced at-most-once guarantee: a second succeeded
// entry for the same (target, kind) is rejected by a partial unique
// index, not by application convention.
package ledger

import (
	"time"

	"github.com/teranos/ladder/engine"
)

// Action is one attempted mutation against a target, as recorded in
// the ledger.
type Action struct {
	TargetID string
	Kind     engine.Kind
	Outcome  engine.Status
	Reason   string
	Attempts int
	RunID    string
}

// Entry is a persisted projection of an Action. Entries are never
// mutated after the terminal outcome is written.
type Entry struct {
	ID        int64
	TargetID  string
	Kind      engine.Kind
	Outcome   engine.Status
	Reason    string
	Attempts  int
	RunID     string
	CreatedAt time.Time
}
