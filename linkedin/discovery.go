package linkedin

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/teranos/ladder/engine"
	"github.com/teranos/ladder/errors"
)

// jobElement is one search result from the job-search endpoint.
type jobElement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	CompanyName string `json:"companyName"`
	Location    string `json:"location"`
	EasyApply   bool   `json:"easyApply"`
	ListedAt    int64  `json:"listedAt"` // unix millis
}

type jobSearchResponse struct {
	Elements []jobElement `json:"elements"`
}

// FindJobs searches job postings matching the run's criteria. The
// server-side filters (keywords, location, easy-apply) are advisory;
// the pipeline re-applies them locally.
func (c *Client) FindJobs(ctx context.Context, session *engine.Session, criteria engine.Criteria) ([]engine.JobPosting, error) {
	if session == nil {
		return nil, errors.Wrap(errors.ErrAuthExpired, "no session")
	}

	query := url.Values{}
	if len(criteria.Keywords) > 0 {
		query.Set("keywords", strings.Join(criteria.Keywords, " "))
	}
	if criteria.Location != "" {
		query.Set("location", criteria.Location)
	}
	if criteria.EasyApplyOnly {
		query.Set("easyApply", "true")
	}
	if criteria.MaxTargets > 0 {
		query.Set("count", strconv.Itoa(criteria.MaxTargets))
	}

	var resp jobSearchResponse
	if err := c.doJSON(ctx, session.Token, http.MethodGet, "/v2/job-search", query, nil, &resp); err != nil {
		return nil, err
	}

	jobs := make([]engine.JobPosting, 0, len(resp.Elements))
	for _, el := range resp.Elements {
		if el.ID == "" {
			continue
		}
		discovered := time.Now()
		if el.ListedAt > 0 {
			discovered = time.UnixMilli(el.ListedAt)
		}
		jobs = append(jobs, engine.JobPosting{
			ID:           el.ID,
			Title:        el.Title,
			Company:      el.CompanyName,
			Location:     el.Location,
			EasyApply:    el.EasyApply,
			DiscoveredAt: discovered,
		})
	}

	c.logger.Debugw("Job search returned", "count", len(jobs))
	return jobs, nil
}

type contactElement struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Headline    string `json:"headline"`
	CompanyName string `json:"companyName"`
}

type contactSearchResponse struct {
	Elements []contactElement `json:"elements"`
}

// FindContacts searches people whose headline suggests a hiring role.
func (c *Client) FindContacts(ctx context.Context, session *engine.Session, criteria engine.Criteria) ([]engine.RecruiterContact, error) {
	if session == nil {
		return nil, errors.Wrap(errors.ErrAuthExpired, "no session")
	}

	query := url.Values{}
	if len(criteria.RecruiterTitles) > 0 {
		query.Set("keywords", strings.Join(criteria.RecruiterTitles, " "))
	}
	if criteria.Location != "" {
		query.Set("location", criteria.Location)
	}
	if criteria.MaxTargets > 0 {
		query.Set("count", strconv.Itoa(criteria.MaxTargets))
	}

	var resp contactSearchResponse
	if err := c.doJSON(ctx, session.Token, http.MethodGet, "/v2/people-search", query, nil, &resp); err != nil {
		return nil, err
	}

	contacts := make([]engine.RecruiterContact, 0, len(resp.Elements))
	for _, el := range resp.Elements {
		if el.ID == "" {
			continue
		}
		contacts = append(contacts, engine.RecruiterContact{
			ID:           el.ID,
			Name:         strings.TrimSpace(el.FirstName + " " + el.LastName),
			Title:        el.Headline,
			Company:      el.CompanyName,
			DiscoveredAt: time.Now(),
		})
	}

	c.logger.Debugw("People search returned", "count", len(contacts))
	return contacts, nil
}

type jobDetailResponse struct {
	Description string `json:"description"`
}

// JobDescription fetches the full posting text for compatibility
// scoring.
func (c *Client) JobDescription(ctx context.Context, session *engine.Session, jobID string) (string, error) {
	if session == nil {
		return "", errors.Wrap(errors.ErrAuthExpired, "no session")
	}
	var resp jobDetailResponse
	if err := c.doJSON(ctx, session.Token, http.MethodGet, "/v2/jobs/"+url.PathEscape(jobID), nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.Description, nil
}
