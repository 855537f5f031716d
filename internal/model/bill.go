package model

// LineItem is a single charge on a hospital bill. Quantity and UnitPrice are
// optional; when present they describe a per-unit (usually per-day) charge.
type LineItem struct {
	ID        string         `json:"line_item_id"`
	Label     string         `json:"label"`
	Category  ChargeCategory `json:"category"`
	Amount    float64        `json:"amount"`
	RawText   string         `json:"raw_text,omitempty"`
	Quantity  *int           `json:"quantity,omitempty"`
	UnitPrice *float64       `json:"unit_price,omitempty"`
}

// Bill is a structured hospital bill.
//
// StatedTotalAmount is whatever the hospital printed; it is kept for display
// and integrity checks only. Totals are always recomputed from Charges.
type Bill struct {
	ID                string     `json:"bill_id"`
	HospitalName      string     `json:"hospital_name"`
	PatientName       string     `json:"patient_name"`
	AdmissionDate     string     `json:"admission_date,omitempty"`
	DischargeDate     string     `json:"discharge_date,omitempty"`
	Diagnosis         []string   `json:"diagnosis"`
	Charges           []LineItem `json:"charges"`
	StatedTotalAmount float64    `json:"stated_total_amount"`
	Currency          string     `json:"currency,omitempty"`
}

// ChargesIn returns the charges of the given category, in bill order.
func (b *Bill) ChargesIn(category ChargeCategory) []LineItem {
	if b == nil {
		return nil
	}
	var out []LineItem
	for _, c := range b.Charges {
		if c.Category == category {
			out = append(out, c)
		}
	}
	return out
}
