package rules

import (
	"fmt"

	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/normalize"
)

// WaitingPeriod checks the general waiting period. Without both the policy
// inception date and the admission date it can only ask for verification;
// missing proof is never reported as a violation.
type WaitingPeriod struct{}

func (WaitingPeriod) Name() string { return "waiting_period" }

func (WaitingPeriod) Evaluate(bill *model.Bill, policy *model.Policy) []model.AuditFlag {
	if bill == nil || policy == nil || policy.GeneralWaitingPeriodMonths == nil {
		return nil
	}
	months := *policy.GeneralWaitingPeriodMonths
	if months <= 0 {
		return nil
	}

	inception := normalize.ParseDate(policy.InceptionDate)
	admission := normalize.ParseDate(bill.AdmissionDate)
	if inception == nil || admission == nil {
		missing := "policy inception date"
		if inception != nil {
			missing = "admission date"
		}
		return []model.AuditFlag{{
			FlagType:     model.FlagWaitingPeriod,
			Severity:     model.SeverityInfo,
			Scope:        model.ScopeEligibility,
			Reason:       fmt.Sprintf("Unable to verify %d-month waiting period (%s missing).", months, missing),
			PolicyClause: "General waiting period clause",
		}}
	}

	eligibleFrom := inception.AddDate(0, months, 0)
	if !admission.Before(eligibleFrom) {
		return nil
	}
	return []model.AuditFlag{{
		FlagType:       model.FlagWaitingPeriod,
		Severity:       model.SeverityError,
		Scope:          model.ScopeEligibility,
		AmountAffected: money(chargeTotal(bill.Charges)),
		Reason: fmt.Sprintf("Admission on %s falls within the %d-month waiting period (cover starts %s).",
			admission.Format("2006-01-02"), months, eligibleFrom.Format("2006-01-02")),
		PolicyClause: "General waiting period clause",
	}}
}
