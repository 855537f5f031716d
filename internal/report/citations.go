// Package report turns audit findings into text for humans: clause citations
// for each flag and the dispute letter.
package report

import (
	"context"
	"strings"

	"github.com/gyeh/claimaudit/internal/model"
)

// clauseTypes maps a flag type to the policy clause type that explains it.
var clauseTypes = map[model.FlagType]string{
	model.FlagPED:           "PED",
	model.FlagWaitingPeriod: "WAITING_PERIOD",
	model.FlagRoomRent:      "ROOM_RENT",
	model.FlagConsumables:   "EXCLUSION",
	model.FlagExclusion:     "EXCLUSION",
	model.FlagSubLimit:      "SUB_LIMIT",
	model.FlagCopay:         "COPAY",
}

// Used when the policy carries no matching clause.
var defaultExplanations = map[model.FlagType]string{
	model.FlagPED:           "PED waiting periods are typically 2-4 years as per policy.",
	model.FlagWaitingPeriod: "Claims within the initial waiting period are not payable except for accidents.",
	model.FlagRoomRent:      "Room rent limits are defined in the policy terms.",
	model.FlagConsumables:   "Consumables are typically excluded per policy terms.",
	model.FlagExclusion:     "Items on the IRDAI list of non-payable items are excluded from reimbursement.",
	model.FlagSubLimit:      "Sub-limits apply to specific diseases as defined in the policy schedule.",
	model.FlagCopay:         "Co-payment is the percentage of claim amount borne by the insured.",
}

// ClauseCitator cites the first policy clause whose type corresponds to each
// flag, falling back to a generic explanation. Flags with no known clause
// type (misc) get no citation.
type ClauseCitator struct{}

func (ClauseCitator) Cite(_ context.Context, result *model.AuditResult) ([]model.Citation, error) {
	if result == nil {
		return nil, nil
	}
	var out []model.Citation
	for i, f := range result.Flags {
		want, ok := clauseTypes[f.FlagType]
		if !ok {
			continue
		}
		if c, found := findClause(result.Policy.Clauses, want); found {
			out = append(out, model.Citation{FlagIndex: i, ClauseID: c.ClauseID, Text: c.Text})
			continue
		}
		out = append(out, model.Citation{FlagIndex: i, Text: defaultExplanations[f.FlagType]})
	}
	return out, nil
}

func findClause(clauses []model.PolicyClause, clauseType string) (model.PolicyClause, bool) {
	for _, c := range clauses {
		if strings.EqualFold(strings.TrimSpace(c.ClauseType), clauseType) {
			return c, true
		}
	}
	return model.PolicyClause{}, false
}
