package rules

import (
	"fmt"
	"strconv"

	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/normalize"
)

// Copay reports the patient's co-payment share. It is patient liability, not
// an insurer deduction, so the flag is informational.
type Copay struct{}

func (Copay) Name() string { return "copay" }

func (Copay) Evaluate(bill *model.Bill, policy *model.Policy) []model.AuditFlag {
	if bill == nil || policy == nil || policy.CopayPercentage == nil || *policy.CopayPercentage <= 0 {
		return nil
	}
	pct := *policy.CopayPercentage
	total := chargeTotal(bill.Charges)
	copay := total.Mul(normalize.Dec(pct)).Div(normalize.Dec(100))

	return []model.AuditFlag{{
		FlagType:       model.FlagCopay,
		Severity:       model.SeverityInfo,
		Scope:          model.ScopeInformational,
		AmountAffected: money(copay),
		Reason: fmt.Sprintf("Policy has %s%% co-payment clause. Patient pays %s.",
			strconv.FormatFloat(pct, 'f', -1, 64), inr(copay)),
		PolicyClause: "Co-payment terms",
	}}
}
