package rules

import (
	"fmt"
	"strings"

	"github.com/gyeh/claimaudit/internal/match"
	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/normalize"
)

// PED flags the whole claim when a diagnosis matches a declared
// pre-existing disease. The flag disputes the full bill.
type PED struct {
	Matcher match.Matcher
}

func (PED) Name() string { return "ped" }

func (r PED) Evaluate(bill *model.Bill, policy *model.Policy) []model.AuditFlag {
	if bill == nil || policy == nil || len(bill.Diagnosis) == 0 || len(policy.PEDList) == 0 {
		return nil
	}
	m := r.Matcher
	if m == nil {
		m = match.Default().Condition
	}

	peds := normalize.Names(policy.PEDList)
	var matched []string
	for _, diagnosis := range bill.Diagnosis {
		d := normalize.Name(diagnosis)
		for _, ped := range peds {
			if m.Match(d, ped) {
				matched = append(matched, strings.TrimSpace(diagnosis))
				break
			}
		}
	}
	if len(matched) == 0 {
		return nil
	}

	reason := fmt.Sprintf("Pre-existing conditions detected: %s. Waiting period verification required.",
		strings.Join(matched, ", "))
	if policy.PEDWaitingPeriodMonths != nil && *policy.PEDWaitingPeriodMonths > 0 {
		reason += fmt.Sprintf(" PED waiting period is %d months.", *policy.PEDWaitingPeriodMonths)
	}

	return []model.AuditFlag{{
		FlagType:       model.FlagPED,
		Severity:       model.SeverityError,
		Scope:          model.ScopeEligibility,
		AmountAffected: money(chargeTotal(bill.Charges)),
		Reason:         reason,
		PolicyClause:   "PED waiting period clause",
	}}
}
