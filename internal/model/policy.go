package model

// RoomLimitType tells how Policy.RoomLimitValue should be read.
type RoomLimitType string

const (
	RoomLimitNone     RoomLimitType = ""
	RoomLimitAmount   RoomLimitType = "amount"   // value is a per-day currency amount
	RoomLimitCategory RoomLimitType = "category" // value is a room class, e.g. "single private"
)

// SubLimit caps the payable amount for a charge category, either as a fixed
// amount or as a percentage of the policy coverage.
type SubLimit struct {
	Category        string   `json:"category"`
	LimitAmount     *float64 `json:"limit_amount,omitempty"`
	LimitPercentage *float64 `json:"limit_percentage,omitempty"`
}

// PolicyClause is reference text lifted from the policy document. Rules never
// evaluate clauses; they are only used for citations.
type PolicyClause struct {
	ClauseID   string `json:"clause_id"`
	ClauseType string `json:"clause_type"`
	Text       string `json:"text"`
	PageNumber *int   `json:"page_number,omitempty"`
}

// Policy is a structured insurance policy.
type Policy struct {
	ID                         string         `json:"policy_id"`
	PolicyHolderName           string         `json:"policy_holder_name"`
	InsurerName                string         `json:"insurer_name"`
	CoverageAmount             float64        `json:"coverage_amount"`
	InceptionDate              string         `json:"inception_date,omitempty"`
	PEDList                    []string       `json:"ped_list"`
	GeneralWaitingPeriodMonths *int           `json:"general_waiting_period_months,omitempty"`
	PEDWaitingPeriodMonths     *int           `json:"ped_waiting_period_months,omitempty"`
	RoomLimitType              RoomLimitType  `json:"room_limit_type,omitempty"`
	RoomLimitValue             string         `json:"room_limit_value,omitempty"`
	CopayPercentage            *float64       `json:"copay_percentage,omitempty"`
	SubLimits                  []SubLimit     `json:"sub_limits,omitempty"`
	Clauses                    []PolicyClause `json:"clauses,omitempty"`
}
