package model

import "time"

// DocumentRef points at an uploaded document in the document store.
type DocumentRef struct {
	Key         string `json:"key"`
	Name        string `json:"name,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size"`
	SHA256      string `json:"sha256,omitempty"`
}

// Documents holds the two references an audit needs.
type Documents struct {
	Bill   *DocumentRef `json:"bill,omitempty"`
	Policy *DocumentRef `json:"policy,omitempty"`
}

// Complete reports whether both documents are attached.
func (d Documents) Complete() bool {
	return d.Bill != nil && d.Policy != nil
}

// Session is a point-in-time view of an audit session.
type Session struct {
	ID              string       `json:"audit_id"`
	Status          Status       `json:"status"`
	Documents       Documents    `json:"documents"`
	ProgressStep    string       `json:"progress_step,omitempty"`
	ProgressMessage string       `json:"progress_message,omitempty"`
	Error           string       `json:"error,omitempty"`
	Result          *AuditResult `json:"-"`
	CreatedAt       time.Time    `json:"created_at"`
	FinishedAt      *time.Time   `json:"finished_at,omitempty"`
}
