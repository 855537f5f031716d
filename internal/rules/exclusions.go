package rules

import (
	"strings"
	"unicode"

	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/normalize"
)

const nonPayableCircular = "IRDAI/HLT/REG/CIR/003/01/2013"

// exclusionFamily is one group of label keywords from the non-payable lists.
type exclusionFamily struct {
	matches   func(label string, words map[string]bool) bool
	reason    string
	clause    string
	reference string
}

var exclusionFamilies = []exclusionFamily{
	{
		matches: func(label string, _ map[string]bool) bool {
			return containsAny(label, "admin", "admission", "registration") &&
				!containsAny(label, "drug", "medicine")
		},
		reason:    "Administrative charges are non-payable (Annexure A, List IV).",
		clause:    "Annexure A List IV (Non-Payable)",
		reference: nonPayableCircular,
	},
	{
		matches: func(label string, _ map[string]bool) bool {
			return containsAny(label, "waste", "bio-medical", "biomedical", "disposal")
		},
		reason:    "Bio-medical waste disposal is non-payable (Annexure A, List I).",
		clause:    "Annexure A List I (Optional Items)",
		reference: nonPayableCircular,
	},
	{
		matches: func(label string, words map[string]bool) bool {
			theatre := words["ot"] || containsAny(label, "operation theatre", "operation theater")
			return theatre && containsAny(label, "consumable", "gloves", "gauze")
		},
		reason:    "OT consumables are non-payable (Annexure A, List III).",
		clause:    "Annexure A List III (Non-Payable)",
		reference: "IRDAI Guidelines 2016",
	},
}

// Exclusions scans line item labels for non-payable items. It runs
// independently of the consumables and sub-limit rules and may flag the same
// charge under a different justification; reconciliation resolves overlap.
type Exclusions struct{}

func (Exclusions) Name() string { return "exclusions" }

func (Exclusions) Evaluate(bill *model.Bill, policy *model.Policy) []model.AuditFlag {
	if bill == nil || policy == nil {
		return nil
	}
	var flags []model.AuditFlag
	for _, charge := range bill.Charges {
		label := normalize.Name(charge.Label)
		if label == "" {
			continue
		}
		words := wordSet(label)
		for _, fam := range exclusionFamilies {
			if !fam.matches(label, words) {
				continue
			}
			flags = append(flags, model.AuditFlag{
				FlagType:       model.FlagExclusion,
				Severity:       model.SeverityError,
				Scope:          model.ScopeCharge,
				LineItemID:     charge.ID,
				AmountAffected: model.Amount(charge.Amount),
				Reason:         fam.reason,
				PolicyClause:   fam.clause,
				IRDAIReference: fam.reference,
			})
		}
	}
	return flags
}

func wordSet(label string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(label, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		words[w] = true
	}
	return words
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
