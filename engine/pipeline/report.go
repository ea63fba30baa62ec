package pipeline

import (
	"fmt"
	"time"

	"github.com/teranos/ladder/engine"
)

// Row is the per-target outcome of a run. Every discovered target
// lands in exactly one row; nothing is silently dropped.
type Row struct {
	TargetID  string
	Name      string // job title or recruiter name
	Company   string
	Status    engine.Status
	Reason    string
	Score     float64 // compatibility score, 0 when unscored
	Attempts  int
	Timestamp time.Time
}

// Report is the outcome of one pipeline run.
type Report struct {
	RunID       string
	Mode        string
	StartedAt   time.Time
	CompletedAt time.Time
	Entries     []Row
}

// Counts returns how many rows carry each status.
func (r *Report) Counts() map[engine.Status]int {
	counts := make(map[engine.Status]int)
	for _, row := range r.Entries {
		counts[row.Status]++
	}
	return counts
}

// Header returns the column names matching Rows().
func (r *Report) Header() []string {
	return []string{"Target", "Name", "Company", "Status", "Reason", "Score", "When"}
}

// Rows exports the report as tabular strings for the CLI or front end.
func (r *Report) Rows() [][]string {
	rows := make([][]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		score := ""
		if e.Score > 0 {
			score = fmt.Sprintf("%.0f%%", e.Score*100)
		}
		rows = append(rows, []string{
			e.TargetID,
			e.Name,
			e.Company,
			string(e.Status),
			e.Reason,
			score,
			e.Timestamp.Format(time.RFC3339),
		})
	}
	return rows
}
