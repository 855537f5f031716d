// Package reconcile turns a flag list into the three claim totals without
// double-counting. Rules are free to flag the same money more than once; only
// this package decides which amounts are summed.
package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/normalize"
)

// Summary is the reconciled outcome of a claim.
type Summary struct {
	TotalBilled        float64
	AmountUnderReview  float64
	FullyCoveredAmount float64
	// Dominant is set when a flag disputes the entire claim.
	Dominant bool
}

// Reconcile computes the claim totals.
//
// TotalBilled is always the sum of the bill's charges; the hospital's stated
// total is never used. If any flag is dominant the whole bill is under
// review. Otherwise overlapping charge-level amounts are counted once (see
// summable), claim-level amounts are added, informational flags are skipped,
// and the result is capped at TotalBilled.
func Reconcile(bill *model.Bill, flags []model.AuditFlag) Summary {
	total := decimal.Zero
	if bill != nil {
		for _, c := range bill.Charges {
			total = total.Add(normalize.Dec(c.Amount))
		}
	}
	total = total.Round(2)

	dominant := false
	for _, f := range flags {
		if f.Dominant() {
			dominant = true
			break
		}
	}

	var review decimal.Decimal
	if dominant {
		review = total
	} else {
		review = decimal.Min(summable(bill, flags), total).Round(2)
	}
	if review.IsNegative() {
		review = decimal.Zero
	}

	covered := total.Sub(review)
	if covered.IsNegative() {
		covered = decimal.Zero
	}

	return Summary{
		TotalBilled:        total.InexactFloat64(),
		AmountUnderReview:  review.InexactFloat64(),
		FullyCoveredAmount: covered.InexactFloat64(),
		Dominant:           dominant,
	}
}

// summable adds the amounts that count towards the under-review figure in the
// standard regime.
//
// Per-item flags count once per line item, at their largest amount.
// Consumables and sub-limit flags carry a category-wide amount anchored on one
// charge; each category counts the larger of its category-wide amount and
// the sum of its per-item amounts. Flags without a line item are summed.
func summable(bill *model.Bill, flags []model.AuditFlag) decimal.Decimal {
	category := make(map[string]model.ChargeCategory)
	if bill != nil {
		for _, c := range bill.Charges {
			category[c.ID] = c.Category
		}
	}

	perItem := make(map[string]decimal.Decimal)
	perCategory := make(map[model.ChargeCategory]decimal.Decimal)
	claimLevel := decimal.Zero

	for _, f := range flags {
		if !counts(f) {
			continue
		}
		amt := normalize.Dec(*f.AmountAffected)
		if f.LineItemID == "" {
			claimLevel = claimLevel.Add(amt)
			continue
		}
		if cat, ok := category[f.LineItemID]; ok && categoryWide(f) {
			perCategory[cat] = maxDec(perCategory[cat], amt)
			continue
		}
		if cur, ok := perItem[f.LineItemID]; !ok || amt.GreaterThan(cur) {
			perItem[f.LineItemID] = amt
		}
	}

	itemsIn := make(map[model.ChargeCategory]decimal.Decimal)
	sum := claimLevel
	for id, amt := range perItem {
		cat, ok := category[id]
		if _, wide := perCategory[cat]; ok && wide {
			itemsIn[cat] = itemsIn[cat].Add(amt)
			continue
		}
		sum = sum.Add(amt)
	}
	for cat, amt := range perCategory {
		sum = sum.Add(maxDec(amt, itemsIn[cat]))
	}
	return sum
}

// categoryWide reports whether the flag's amount covers a whole charge
// category rather than the line item it names.
func categoryWide(f model.AuditFlag) bool {
	return f.FlagType == model.FlagConsumables || f.FlagType == model.FlagSubLimit
}

func maxDec(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

func counts(f model.AuditFlag) bool {
	if f.AmountAffected == nil || *f.AmountAffected <= 0 {
		return false
	}
	return f.Scope != model.ScopeInformational && f.FlagType != model.FlagCopay
}
