package linkedin

import (
	"context"
	"net/http"
	"net/url"

	"github.com/teranos/ladder/engine"
	"github.com/teranos/ladder/errors"
)

type applicationRequest struct {
	CoverLetter string `json:"coverLetter,omitempty"`
}

// Apply submits a job application. The server enforces its own
// duplicate check; the ledger's at-most-once guard runs before this
// call is ever made.
func (c *Client) Apply(ctx context.Context, session *engine.Session, job engine.JobPosting, coverLetter string) error {
	if session == nil {
		return errors.Wrap(errors.ErrAuthExpired, "no session")
	}
	path := "/v2/jobs/" + url.PathEscape(job.ID) + "/applications"
	if err := c.doJSON(ctx, session.Token, http.MethodPost, path, nil,
		applicationRequest{CoverLetter: coverLetter}, nil); err != nil {
		return errors.Wrapf(err, "application to job %s failed", job.ID)
	}
	c.logger.Infow("Submitted application", "job_id", job.ID, "company", job.Company)
	return nil
}

type messageRequest struct {
	RecipientID string `json:"recipientId"`
	Body        string `json:"body"`
}

// SendMessage delivers one outreach message to a contact.
func (c *Client) SendMessage(ctx context.Context, session *engine.Session, contact engine.RecruiterContact, text string) error {
	if session == nil {
		return errors.Wrap(errors.ErrAuthExpired, "no session")
	}
	if text == "" {
		return errors.Wrap(errors.ErrValidation, "refusing to send an empty message")
	}
	if err := c.doJSON(ctx, session.Token, http.MethodPost, "/v2/messages", nil,
		messageRequest{RecipientID: contact.ID, Body: text}, nil); err != nil {
		return errors.Wrapf(err, "message to contact %s failed", contact.ID)
	}
	c.logger.Infow("Sent message", "contact_id", contact.ID, "company", contact.Company)
	return nil
}
