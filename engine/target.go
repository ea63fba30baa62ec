// Package engine defines the core types and collaborator ports of the
// automation orchestration engine. Subpackages implement the session
// manager, backoff policy, ledger, executor, and pipelines on top of
// these types.
package engine

import (
	"strings"
	"time"
)

// Kind is the action kind recorded against a target.
type Kind string

const (
	KindApply   Kind = "apply"
	KindMessage Kind = "message"
)

// IsValid checks if the kind is a known value
func (k Kind) IsValid() bool {
	switch k {
	case KindApply, KindMessage:
		return true
	}
	return false
}

// Target is a discovered job posting or recruiter contact eligible for
// an action. Targets are immutable once discovered within a run.
type Target interface {
	// TargetID returns the service-assigned external identifier
	TargetID() string
	// Display returns the human-readable title or name
	Display() string
	// CompanyName returns the associated company, if any
	CompanyName() string
}

// JobPosting is a discovered job opening.
type JobPosting struct {
	ID           string
	Title        string
	Company      string
	Location     string
	EasyApply    bool // applicable through the API without leaving the service
	DiscoveredAt time.Time
}

func (j JobPosting) TargetID() string    { return j.ID }
func (j JobPosting) Display() string     { return j.Title }
func (j JobPosting) CompanyName() string { return j.Company }

// RecruiterContact is a discovered recruiter or talent professional.
type RecruiterContact struct {
	ID           string
	Name         string
	Title        string
	Company      string
	DiscoveredAt time.Time
}

func (r RecruiterContact) TargetID() string    { return r.ID }
func (r RecruiterContact) Display() string     { return r.Name }
func (r RecruiterContact) CompanyName() string { return r.Company }

// IsRecruiter reports whether the contact's title matches any of the
// given keywords, case-insensitively.
func (r RecruiterContact) IsRecruiter(titleKeywords []string) bool {
	title := strings.ToLower(r.Title)
	for _, kw := range titleKeywords {
		if strings.Contains(title, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Criteria describes what the discovery step should look for and how
// candidates are filtered before execution.
type Criteria struct {
	Keywords               []string
	Location               string
	EasyApplyOnly          bool
	CompatibilityThreshold float64  // 0 disables description scoring
	ExcludeCompany         string   // skipped in recruiter outreach
	RecruiterTitles        []string // title keywords identifying recruiters
	MaxTargets             int      // 0 = no bound
}

// CompatibilityScore returns the fraction of criteria keywords present
// in the given job description, in [0, 1]. An empty keyword list scores 1.
func (c Criteria) CompatibilityScore(description string) float64 {
	if len(c.Keywords) == 0 {
		return 1
	}
	desc := strings.ToLower(description)
	matched := 0
	for _, kw := range c.Keywords {
		if strings.Contains(desc, strings.ToLower(kw)) {
			matched++
		}
	}
	return float64(matched) / float64(len(c.Keywords))
}
