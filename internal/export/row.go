// Package export writes audit flags as Parquet for downstream analytics and
// reads them back.
package export

import "github.com/gyeh/claimaudit/internal/model"

// FlagRow mirrors the Parquet schema for a single audit flag. Claim-level
// flags have no line_item_id; flags without a monetary claim have no amount.
type FlagRow struct {
	AuditID        string   `parquet:"audit_id"`
	Index          int32    `parquet:"flag_index"`
	FlagType       string   `parquet:"flag_type"`
	Severity       string   `parquet:"severity"`
	Scope          string   `parquet:"scope"`
	LineItemID     *string  `parquet:"line_item_id,optional"`
	AmountAffected *float64 `parquet:"amount_affected,optional"`
	Reason         string   `parquet:"reason"`
	PolicyClause   *string  `parquet:"policy_clause,optional"`
	IRDAIReference *string  `parquet:"irdai_reference,optional"`
	Status         string   `parquet:"status"`
}

// Rows flattens a result's flags in order.
func Rows(result *model.AuditResult) []FlagRow {
	if result == nil {
		return nil
	}
	rows := make([]FlagRow, len(result.Flags))
	for i, f := range result.Flags {
		rows[i] = FlagRow{
			AuditID:        result.AuditID,
			Index:          int32(i),
			FlagType:       string(f.FlagType),
			Severity:       string(f.Severity),
			Scope:          string(f.Scope),
			LineItemID:     optional(f.LineItemID),
			AmountAffected: f.AmountAffected,
			Reason:         f.Reason,
			PolicyClause:   optional(f.PolicyClause),
			IRDAIReference: optional(f.IRDAIReference),
			Status:         string(result.Status),
		}
	}
	return rows
}

// Flag converts a row back to an AuditFlag.
func (r FlagRow) Flag() model.AuditFlag {
	return model.AuditFlag{
		FlagType:       model.FlagType(r.FlagType),
		Severity:       model.Severity(r.Severity),
		Scope:          model.Scope(r.Scope),
		LineItemID:     deref(r.LineItemID),
		AmountAffected: r.AmountAffected,
		Reason:         r.Reason,
		PolicyClause:   deref(r.PolicyClause),
		IRDAIReference: deref(r.IRDAIReference),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
