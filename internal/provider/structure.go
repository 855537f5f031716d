package provider

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/normalize"
)

//go:embed schema/*.json
var schemaFS embed.FS

const schemaBaseURL = "https://claimaudit.local/schema/"

// JSONStructurer accepts structuring output that is already JSON, optionally
// wrapped in a markdown code fence. Anything that fails to parse or to
// validate against the embedded schemas is reported as "could not structure".
type JSONStructurer struct {
	bill   *jsonschema.Schema
	policy *jsonschema.Schema
}

// NewJSONStructurer compiles the embedded schemas.
func NewJSONStructurer() (*JSONStructurer, error) {
	bill, err := compileSchema("bill.schema.json")
	if err != nil {
		return nil, err
	}
	policy, err := compileSchema("policy.schema.json")
	if err != nil {
		return nil, err
	}
	return &JSONStructurer{bill: bill, policy: policy}, nil
}

func compileSchema(name string) (*jsonschema.Schema, error) {
	data, err := schemaFS.ReadFile("schema/" + name)
	if err != nil {
		return nil, fmt.Errorf("reading schema %s: %w", name, err)
	}
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	url := schemaBaseURL + name
	if err := c.AddResource(url, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("schema %s load failed: %w", name, err)
	}
	s, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("schema %s compile failed: %w", name, err)
	}
	return s, nil
}

// StripCodeFence removes a surrounding ``` or ```json fence and any prose
// outside the outermost JSON object.
func StripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.TrimSpace(s)

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

// decode parses text and validates it, returning nil when either step fails.
func decode(schema *jsonschema.Schema, text string) []byte {
	raw := StripCodeFence(text)
	if raw == "" {
		return nil
	}
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil
	}
	if err := schema.Validate(doc); err != nil {
		return nil
	}
	return []byte(raw)
}

// amount is a currency value written either as a number or as text such as
// "₹1,500".
type amount struct {
	value float64
	set   bool
}

func (a *amount) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*a = amount{value: f, set: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, ok := normalize.ParseAmount(s)
	if !ok {
		return fmt.Errorf("invalid amount %q", s)
	}
	*a = amount{value: v, set: true}
	return nil
}

type chargeDoc struct {
	LineItemID  string   `json:"line_item_id"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Amount      amount   `json:"amount"`
	Quantity    *int     `json:"quantity"`
	UnitPrice   *float64 `json:"unit_price"`
}

type billDoc struct {
	BillID            string      `json:"bill_id"`
	HospitalName      string      `json:"hospital_name"`
	PatientName       string      `json:"patient_name"`
	AdmissionDate     string      `json:"admission_date"`
	DischargeDate     string      `json:"discharge_date"`
	Diagnosis         []string    `json:"diagnosis"`
	Charges           []chargeDoc `json:"charges"`
	Items             []chargeDoc `json:"items"`
	StatedTotalAmount amount      `json:"stated_total_amount"`
	TotalClaimed      amount      `json:"total_claimed"`
	Currency          string      `json:"currency"`
}

func (s *JSONStructurer) StructureBill(_ context.Context, text string) (*model.Bill, error) {
	raw := decode(s.bill, text)
	if raw == nil {
		return nil, nil
	}
	var doc billDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil
	}

	docs := doc.Charges
	if len(docs) == 0 {
		docs = doc.Items
	}

	charges := make([]model.LineItem, 0, len(docs))
	seen := make(map[string]bool, len(docs))
	next := 1
	for _, c := range docs {
		if c.Amount.value < 0 {
			return nil, nil
		}
		label := strings.TrimSpace(c.Label)
		if label == "" {
			label = strings.TrimSpace(c.Description)
		}
		id := strings.TrimSpace(c.LineItemID)
		if id == "" || seen[id] {
			for {
				id = fmt.Sprintf("LI-%03d", next)
				next++
				if !seen[id] {
					break
				}
			}
		}
		seen[id] = true

		rawText := c.Description
		if rawText == "" {
			rawText = c.Label
		}
		charges = append(charges, model.LineItem{
			ID:        id,
			Label:     label,
			Category:  Classify(label, c.Category),
			Amount:    c.Amount.value,
			RawText:   rawText,
			Quantity:  c.Quantity,
			UnitPrice: c.UnitPrice,
		})
	}

	bill := &model.Bill{
		ID:            strings.TrimSpace(doc.BillID),
		HospitalName:  strings.TrimSpace(doc.HospitalName),
		PatientName:   strings.TrimSpace(doc.PatientName),
		AdmissionDate: doc.AdmissionDate,
		DischargeDate: doc.DischargeDate,
		Diagnosis:     doc.Diagnosis,
		Charges:       charges,
		Currency:      doc.Currency,
	}
	switch {
	case doc.StatedTotalAmount.set:
		bill.StatedTotalAmount = doc.StatedTotalAmount.value
	case doc.TotalClaimed.set:
		bill.StatedTotalAmount = doc.TotalClaimed.value
	}
	if bill.ID == "" {
		bill.ID = "BILL-" + strings.ToUpper(normalize.BytesHash([]byte(text))[:8])
	}
	if bill.Diagnosis == nil {
		bill.Diagnosis = []string{}
	}
	if bill.Currency == "" {
		bill.Currency = "INR"
	}
	return bill, nil
}

// Classify picks the charge category for a line item. A few label keywords
// override whatever category structuring proposed.
func Classify(label, category string) model.ChargeCategory {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "waste") || strings.Contains(l, "bio-medical"):
		return model.CategoryMisc
	case (strings.Contains(l, "admin") || strings.Contains(l, "admission") || strings.Contains(l, "registration")) &&
		!strings.Contains(l, "drug"):
		return model.CategoryMisc
	case strings.Contains(l, "consumable") || strings.Contains(l, "gloves") || strings.Contains(l, "syringe"):
		return model.CategoryConsumables
	}
	if category == "" {
		return normalize.MapCategory(label)
	}
	return normalize.MapCategory(category)
}

type policyDoc struct {
	ID                         string               `json:"policy_id"`
	PolicyHolderName           string               `json:"policy_holder_name"`
	InsurerName                string               `json:"insurer_name"`
	CoverageAmount             float64              `json:"coverage_amount"`
	InceptionDate              string               `json:"inception_date"`
	PEDList                    []string             `json:"ped_list"`
	GeneralWaitingPeriodMonths *int                 `json:"general_waiting_period_months"`
	PEDWaitingPeriodMonths     *int                 `json:"ped_waiting_period_months"`
	RoomLimitType              string               `json:"room_limit_type"`
	RoomLimitValue             json.RawMessage      `json:"room_limit_value"`
	CopayPercentage            *float64             `json:"copay_percentage"`
	SubLimits                  []model.SubLimit     `json:"sub_limits"`
	Clauses                    []model.PolicyClause `json:"clauses"`
}

func (s *JSONStructurer) StructurePolicy(_ context.Context, text string) (*model.Policy, error) {
	raw := decode(s.policy, text)
	if raw == nil {
		return nil, nil
	}
	var doc policyDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil
	}

	p := &model.Policy{
		ID:                         strings.TrimSpace(doc.ID),
		PolicyHolderName:           doc.PolicyHolderName,
		InsurerName:                doc.InsurerName,
		CoverageAmount:             doc.CoverageAmount,
		InceptionDate:              doc.InceptionDate,
		PEDList:                    doc.PEDList,
		GeneralWaitingPeriodMonths: doc.GeneralWaitingPeriodMonths,
		PEDWaitingPeriodMonths:     doc.PEDWaitingPeriodMonths,
		RoomLimitValue:             rawScalar(doc.RoomLimitValue),
		CopayPercentage:            doc.CopayPercentage,
		SubLimits:                  doc.SubLimits,
		Clauses:                    doc.Clauses,
	}
	switch model.RoomLimitType(normalize.Name(doc.RoomLimitType)) {
	case model.RoomLimitAmount:
		p.RoomLimitType = model.RoomLimitAmount
	case model.RoomLimitCategory:
		p.RoomLimitType = model.RoomLimitCategory
	}
	if p.PEDList == nil {
		p.PEDList = []string{}
	}
	for i := range p.Clauses {
		if p.Clauses[i].ClauseID == "" {
			p.Clauses[i].ClauseID = "clause-" + strconv.Itoa(i+1)
		}
	}
	return p, nil
}

func rawScalar(b json.RawMessage) string {
	if len(b) == 0 || string(b) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return string(b)
}
