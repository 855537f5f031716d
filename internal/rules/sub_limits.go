package rules

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gyeh/claimaudit/internal/match"
	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/normalize"
)

// SubLimits flags the excess over each category sub-limit, anchored to the
// largest charge in the matched category.
type SubLimits struct {
	Matcher match.Matcher
}

func (SubLimits) Name() string { return "sub_limits" }

func (r SubLimits) Evaluate(bill *model.Bill, policy *model.Policy) []model.AuditFlag {
	if bill == nil || policy == nil || len(policy.SubLimits) == 0 {
		return nil
	}
	m := r.Matcher
	if m == nil {
		m = match.Default().Category
	}

	var flags []model.AuditFlag
	for _, sl := range policy.SubLimits {
		key := normalize.CategoryKey(sl.Category)
		if key == "" {
			continue
		}

		var matching []model.LineItem
		for _, charge := range bill.Charges {
			if m.Match(string(charge.Category), key) {
				matching = append(matching, charge)
			}
		}
		total := chargeTotal(matching)
		if !total.IsPositive() {
			continue
		}

		limit, ok := resolveLimit(sl, policy.CoverageAmount)
		if !ok || !total.GreaterThan(limit) {
			continue
		}

		anchor, _ := largest(matching)
		flags = append(flags, model.AuditFlag{
			FlagType:       model.FlagSubLimit,
			Severity:       model.SeverityWarning,
			Scope:          model.ScopeCharge,
			LineItemID:     anchor.ID,
			AmountAffected: money(total.Sub(limit)),
			Reason: fmt.Sprintf("Sub-limit exceeded for %s. Charged: %s, Limit: %s.",
				sl.Category, inr(total), inr(limit)),
			PolicyClause: fmt.Sprintf("%s sub-limit clause", sl.Category),
		})
	}
	return flags
}

// resolveLimit reads a fixed amount first, then a percentage of coverage. A
// zero amount resolves nothing; zero-amount consumables limits belong to the
// consumables rule.
func resolveLimit(sl model.SubLimit, coverage float64) (decimal.Decimal, bool) {
	if sl.LimitAmount != nil && *sl.LimitAmount > 0 {
		return normalize.Dec(*sl.LimitAmount), true
	}
	if sl.LimitPercentage != nil && *sl.LimitPercentage > 0 && coverage > 0 {
		return normalize.Percent(coverage, *sl.LimitPercentage), true
	}
	return decimal.Zero, false
}
