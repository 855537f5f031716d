package normalize

import (
	"testing"

	"github.com/gyeh/claimaudit/internal/model"
)

func TestName(t *testing.T) {
	cases := map[string]string{
		"  Type 2   Diabetes ": "type 2 diabetes",
		"HYPERTENSION":         "hypertension",
		"   ":                  "",
	}
	for in, want := range cases {
		if got := Name(in); got != want {
			t.Errorf("Name(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMapCategory(t *testing.T) {
	cases := map[string]model.ChargeCategory{
		"Room Rent":         model.CategoryRoomRent,
		"ICU":               model.CategoryICU,
		"ICU Charges":       model.CategoryICU,
		"Doctor Fees":       model.CategoryProfessionalFees,
		"Lab Tests":         model.CategoryDiagnostics,
		"Medicines":         model.CategoryPharmacy,
		"Implants":          model.CategorySurgery,
		"Registration":      model.CategoryMisc,
		"Particulars":       model.CategoryMisc,
		"something else":    model.CategoryMisc,
		"consumables":       model.CategoryConsumables,
		"professional_fees": model.CategoryProfessionalFees,
	}
	for in, want := range cases {
		if got := MapCategory(in); got != want {
			t.Errorf("MapCategory(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"₹1,50,000", 150000, true},
		{"Rs. 3000", 3000, true},
		{"3000/-", 3000, true},
		{"₹3,000/day", 3000, true},
		{"3000 per day", 3000, true},
		{"Rs. 2,500/- Per Day", 2500, true},
		{"/day", 0, false},
		{"4500.50", 4500.5, true},
		{"single private", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseAmount(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseAmount(%q) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestSumIsExact(t *testing.T) {
	// 0.1 + 0.2 drifts as float64.
	if got := ToFloat(Sum(0.1, 0.2)); got != 0.3 {
		t.Errorf("Sum(0.1, 0.2) = %v, want 0.3", got)
	}
	if got := ToFloat(Percent(100000, 10)); got != 10000 {
		t.Errorf("Percent(100000, 10) = %v, want 10000", got)
	}
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2024-03-15", "15-Mar-2024", "15/03/2024", "Mar 15, 2024"} {
		d := ParseDate(s)
		if d == nil {
			t.Fatalf("ParseDate(%q) = nil", s)
		}
		if d.Year() != 2024 || d.Month() != 3 || d.Day() != 15 {
			t.Errorf("ParseDate(%q) = %v", s, d)
		}
	}
	if ParseDate("not a date") != nil {
		t.Error("expected nil for garbage input")
	}
}

func TestBytesHash(t *testing.T) {
	got := BytesHash([]byte("abc"))
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("BytesHash(abc) = %s, want %s", got, want)
	}
}
