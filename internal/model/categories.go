package model

// ChargeCategory is the controlled vocabulary for bill line items.
type ChargeCategory string

const (
	CategoryRoomRent         ChargeCategory = "room_rent"
	CategoryConsumables      ChargeCategory = "consumables"
	CategoryPharmacy         ChargeCategory = "pharmacy"
	CategoryDiagnostics      ChargeCategory = "diagnostics"
	CategoryProfessionalFees ChargeCategory = "professional_fees"
	CategoryICU              ChargeCategory = "icu"
	CategorySurgery          ChargeCategory = "surgery"
	CategoryMisc             ChargeCategory = "misc"
)

// AllCategories lists the supported charge categories in canonical order.
var AllCategories = []ChargeCategory{
	CategoryRoomRent,
	CategoryConsumables,
	CategoryPharmacy,
	CategoryDiagnostics,
	CategoryProfessionalFees,
	CategoryICU,
	CategorySurgery,
	CategoryMisc,
}

// CategoryByName returns the ChargeCategory with the given wire name, or ok=false.
func CategoryByName(name string) (ChargeCategory, bool) {
	for _, c := range AllCategories {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

// Valid reports whether c is one of AllCategories.
func (c ChargeCategory) Valid() bool {
	_, ok := CategoryByName(string(c))
	return ok
}
