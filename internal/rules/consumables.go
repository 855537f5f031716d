package rules

import (
	"fmt"

	"github.com/gyeh/claimaudit/internal/match"
	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/normalize"
)

// Consumables treats consumables as covered unless the policy declares a
// zero-amount consumables sub-limit, in which case the full consumables
// total is non-payable.
type Consumables struct {
	Matcher match.Matcher
}

func (Consumables) Name() string { return "consumables" }

func (r Consumables) Evaluate(bill *model.Bill, policy *model.Policy) []model.AuditFlag {
	if bill == nil || policy == nil || !r.excluded(policy) {
		return nil
	}
	charges := bill.ChargesIn(model.CategoryConsumables)
	total := chargeTotal(charges)
	if !total.IsPositive() {
		return nil
	}
	anchor, _ := largest(charges)

	return []model.AuditFlag{{
		FlagType:       model.FlagConsumables,
		Severity:       model.SeverityError,
		Scope:          model.ScopeCharge,
		LineItemID:     anchor.ID,
		AmountAffected: money(total),
		Reason: fmt.Sprintf("Policy excludes consumables; %s across %d consumables charge(s) is non-payable.",
			inr(total), len(charges)),
		PolicyClause: "Consumables exclusion clause",
	}}
}

func (r Consumables) excluded(policy *model.Policy) bool {
	m := r.Matcher
	if m == nil {
		m = match.Default().Category
	}
	for _, sl := range policy.SubLimits {
		if sl.LimitAmount == nil || *sl.LimitAmount != 0 {
			continue
		}
		if m.Match(string(model.CategoryConsumables), normalize.CategoryKey(sl.Category)) {
			return true
		}
	}
	return false
}
