package model

import "time"

// Status is the lifecycle state of an audit session and its result.
type Status string

const (
	StatusCreated    Status = "created"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no transition can leave s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Citation links a flag (by index into AuditResult.Flags) to explanatory text.
type Citation struct {
	FlagIndex int    `json:"flag_index"`
	ClauseID  string `json:"clause_id,omitempty"`
	Text      string `json:"text"`
}

// AuditResult is the outcome of one audit run. It is computed once and
// cached on the session.
type AuditResult struct {
	AuditID              string      `json:"audit_id"`
	Bill                 Bill        `json:"bill"`
	Policy               Policy      `json:"policy"`
	Flags                []AuditFlag `json:"flags"`
	Citations            []Citation  `json:"citations,omitempty"`
	TotalBilled          float64     `json:"total_billed"`
	AmountUnderReview    float64     `json:"amount_under_review"`
	FullyCoveredAmount   float64     `json:"fully_covered_amount"`
	DisputeLetterContent string      `json:"dispute_letter_content,omitempty"`
	Error                string      `json:"error,omitempty"`
	CreatedAt            time.Time   `json:"created_at"`
	Status               Status      `json:"status"`
}
