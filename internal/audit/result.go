package audit

import (
	"time"

	"github.com/gyeh/claimaudit/internal/ingest"
	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/reconcile"
	"github.com/gyeh/claimaudit/internal/rules"
)

// FailedLetter is the letter text of a failed audit.
const FailedLetter = "Audit failed due to technical error."

// PlaceholderLetter replaces the letter when the letter writer fails.
const PlaceholderLetter = "Dispute letter could not be generated. Please refer to the audit findings."

// Evaluate runs the rules and the reconciler on already-structured documents.
// Integrity flags from ingest.Validate are appended after the rule flags.
// Citations and the letter are left empty.
func Evaluate(engine *rules.Engine, auditID string, bill *model.Bill, policy *model.Policy, now time.Time) *model.AuditResult {
	if engine == nil {
		engine = rules.NewEngine(rules.Options{})
	}
	flags := engine.Run(bill, policy)
	flags = append(flags, ingest.Validate(bill, policy)...)
	return assemble(auditID, bill, policy, flags, reconcile.Reconcile(bill, flags), now)
}

func assemble(auditID string, bill *model.Bill, policy *model.Policy, flags []model.AuditFlag, sum reconcile.Summary, now time.Time) *model.AuditResult {
	r := &model.AuditResult{
		AuditID:            auditID,
		Flags:              flags,
		TotalBilled:        sum.TotalBilled,
		AmountUnderReview:  sum.AmountUnderReview,
		FullyCoveredAmount: sum.FullyCoveredAmount,
		CreatedAt:          now.UTC(),
		Status:             model.StatusCompleted,
	}
	if bill != nil {
		r.Bill = *bill
	}
	if policy != nil {
		r.Policy = *policy
	}
	return r
}

// FailedResult is the well-formed stub stored on a failed session: zero
// totals and a single misc error flag carrying the cause.
func FailedResult(auditID, message string, now time.Time) *model.AuditResult {
	return &model.AuditResult{
		AuditID: auditID,
		Bill: model.Bill{
			ID:           "ERROR",
			HospitalName: "Unknown",
			PatientName:  "Unknown",
			Diagnosis:    []string{},
			Charges:      []model.LineItem{},
			Currency:     "INR",
		},
		Policy: model.Policy{
			ID:               "ERROR",
			PolicyHolderName: "Unknown",
			InsurerName:      "Unknown",
			PEDList:          []string{},
		},
		Flags: []model.AuditFlag{{
			FlagType:     model.FlagMisc,
			Severity:     model.SeverityError,
			Scope:        model.ScopeInformational,
			Reason:       message,
			PolicyClause: "System Error",
		}},
		DisputeLetterContent: FailedLetter,
		Error:                message,
		CreatedAt:            now.UTC(),
		Status:               model.StatusFailed,
	}
}
