package ingest

import (
	"fmt"
	"math"

	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/normalize"
)

const integrityClause = "Data Integrity"

// statedTotalTolerance absorbs rounding on printed bills.
const statedTotalTolerance = 1.0

// Validate checks the structural integrity of the structured documents. The
// flags it returns are informational and carry no amount.
func Validate(bill *model.Bill, policy *model.Policy) []model.AuditFlag {
	var flags []model.AuditFlag
	add := func(sev model.Severity, reason string) {
		flags = append(flags, model.AuditFlag{
			FlagType:     model.FlagMisc,
			Severity:     sev,
			Scope:        model.ScopeInformational,
			Reason:       reason,
			PolicyClause: integrityClause,
		})
	}

	if bill != nil {
		if len(bill.Charges) == 0 {
			add(model.SeverityError, "Bill contains no charge items.")
		}
		if bill.StatedTotalAmount <= 0 {
			add(model.SeverityError, "Bill total amount is zero or negative.")
		} else if len(bill.Charges) > 0 {
			sum := 0.0
			for _, c := range bill.Charges {
				sum += c.Amount
			}
			if math.Abs(sum-bill.StatedTotalAmount) > statedTotalTolerance {
				add(model.SeverityWarning, fmt.Sprintf(
					"Stated bill total of INR %s differs from the sum of line items (INR %s).",
					normalize.FormatAmount(bill.StatedTotalAmount), normalize.FormatAmount(sum)))
			}
		}
	}

	if policy != nil && policy.ID == "" {
		add(model.SeverityError, "Policy ID is missing.")
	}
	return flags
}
