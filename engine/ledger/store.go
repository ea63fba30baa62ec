package ledger

import (
	"database/sql"
	"strings"

	"github.com/teranos/ladder/engine"
	"github.com/teranos/ladder/errors"
)

// Store persists ledger entries in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a ledger store over an open database
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// HasSucceeded reports whether a succeeded entry exists for the
// (target, kind) pair. Used by the executor pre-check and the
// pipeline dedup re-check.
func (s *Store) HasSucceeded(targetID string, kind engine.Kind) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM ledger_entries
			WHERE target_id = ? AND kind = ? AND outcome = ?
		)
	`

	var exists bool
	err := s.db.QueryRow(query, targetID, kind, engine.StatusSucceeded).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check ledger")
	}

	return exists, nil
}

// Record appends one terminal action to the ledger. A duplicate
// succeeded entry is rejected by the unique index and surfaced as
// ErrConflict; racing writers treat that as already-done.
func (s *Store) Record(action Action) error {
	if !action.Outcome.Terminal() {
		return errors.Wrapf(errors.ErrValidation,
			"outcome %q is not terminal", action.Outcome)
	}

	query := `
		INSERT INTO ledger_entries (target_id, kind, outcome, reason, attempts, run_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	reason := sql.NullString{String: action.Reason, Valid: action.Reason != ""}
	runID := sql.NullString{String: action.RunID, Valid: action.RunID != ""}

	_, err := s.db.Exec(query,
		action.TargetID,
		action.Kind,
		action.Outcome,
		reason,
		action.Attempts,
		runID,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return errors.Wrapf(errors.ErrConflict,
				"action already succeeded for target %s kind %s", action.TargetID, action.Kind)
		}
		return errors.Wrap(err, "failed to record action")
	}

	return nil
}

// List returns entries most recent first, bounded by limit (0 = all).
func (s *Store) List(limit int) ([]Entry, error) {
	query := `
		SELECT id, target_id, kind, outcome, reason, attempts, run_id, created_at
		FROM ledger_entries
		ORDER BY created_at DESC, id DESC
	`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list ledger entries")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var reason, runID sql.NullString
		if err := rows.Scan(&e.ID, &e.TargetID, &e.Kind, &e.Outcome,
			&reason, &e.Attempts, &runID, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan ledger entry")
		}
		e.Reason = reason.String
		e.RunID = runID.String
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// ListByRun returns all entries written during one pipeline run.
func (s *Store) ListByRun(runID string) ([]Entry, error) {
	query := `
		SELECT id, target_id, kind, outcome, reason, attempts, run_id, created_at
		FROM ledger_entries
		WHERE run_id = ?
		ORDER BY id ASC
	`

	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list run entries")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var reason, rid sql.NullString
		if err := rows.Scan(&e.ID, &e.TargetID, &e.Kind, &e.Outcome,
			&reason, &e.Attempts, &rid, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan ledger entry")
		}
		e.Reason = reason.String
		e.RunID = rid.String
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// isUniqueViolation matches sqlite's unique-constraint error without
// depending on driver error codes across versions.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "constraint failed")
}
