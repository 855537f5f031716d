package model

// FlagType names the rule family that produced a flag.
type FlagType string

const (
	FlagPED           FlagType = "ped"
	FlagWaitingPeriod FlagType = "waiting_period"
	FlagConsumables   FlagType = "consumables"
	FlagRoomRent      FlagType = "room_rent"
	FlagSubLimit      FlagType = "sub_limit"
	FlagCopay         FlagType = "copay"
	FlagExclusion     FlagType = "exclusion"
	FlagMisc          FlagType = "misc"
)

// Severity is the impact of a flag on the claim.
type Severity string

const (
	SeverityError   Severity = "error"   // claim or charge likely rejected
	SeverityWarning Severity = "warning" // needs review
	SeverityInfo    Severity = "info"
)

// Scope classifies what a flag applies to.
type Scope string

const (
	ScopeEligibility   Scope = "eligibility"
	ScopeCharge        Scope = "charge"
	ScopeInformational Scope = "informational"
)

// AuditFlag is one justified finding. Flags are produced once per audit run
// and never modified afterwards.
//
// LineItemID is empty when the flag applies to the whole claim. A nil
// AmountAffected means the flag makes no monetary claim.
type AuditFlag struct {
	FlagType       FlagType `json:"flag_type"`
	Severity       Severity `json:"severity"`
	Scope          Scope    `json:"scope"`
	LineItemID     string   `json:"line_item_id,omitempty"`
	AmountAffected *float64 `json:"amount_affected"`
	Reason         string   `json:"reason"`
	PolicyClause   string   `json:"policy_clause,omitempty"`
	IRDAIReference string   `json:"irdai_reference,omitempty"`
}

// Amount returns a pointer to v, for populating AmountAffected.
func Amount(v float64) *float64 {
	return &v
}

// Dominant reports whether the flag disputes the entire claim.
func (f AuditFlag) Dominant() bool {
	return (f.FlagType == FlagPED || f.FlagType == FlagWaitingPeriod) && f.Severity == SeverityError
}
