package normalize

import (
	"strings"

	"github.com/gyeh/claimaudit/internal/model"
)

// MapCategory maps a free-form category label coming out of structuring onto
// the fixed charge categories. Unknown labels fall back to misc.
func MapCategory(raw string) model.ChargeCategory {
	val := CategoryKey(raw)
	if c, ok := model.CategoryByName(val); ok {
		return c
	}

	switch {
	case containsAny(val, "doctor", "consultation", "fee"):
		return model.CategoryProfessionalFees
	case containsAny(val, "admin", "registration", "admission"):
		return model.CategoryMisc
	case containsAny(val, "lab", "scan", "x-ray", "xray", "radiology", "investigation", "pathology"):
		return model.CategoryDiagnostics
	case containsAny(val, "medicine", "drug", "pharma"):
		return model.CategoryPharmacy
	case containsAny(val, "implant", "surgery", "operation"):
		return model.CategorySurgery
	case containsAny(val, "room", "bed", "ward"):
		return model.CategoryRoomRent
	case containsAny(val, "consumable"):
		return model.CategoryConsumables
	case strings.Contains(val, "intensive") || hasToken(val, "icu", "iccu", "nicu", "picu"):
		return model.CategoryICU
	}
	return model.CategoryMisc
}

func hasToken(s string, tokens ...string) bool {
	for _, part := range strings.Split(s, "_") {
		for _, t := range tokens {
			if part == t {
				return true
			}
		}
	}
	return false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
