package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/claimaudit/internal/match"
	"github.com/gyeh/claimaudit/internal/model"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func bill(charges ...model.LineItem) *model.Bill {
	return &model.Bill{
		ID:                "BILL-1",
		HospitalName:      "City Hospital",
		PatientName:       "A. Patient",
		Charges:           charges,
		StatedTotalAmount: 0,
	}
}

func charge(id string, cat model.ChargeCategory, label string, amount float64) model.LineItem {
	return model.LineItem{ID: id, Label: label, Category: cat, Amount: amount}
}

func flagsOfType(flags []model.AuditFlag, ft model.FlagType) []model.AuditFlag {
	var out []model.AuditFlag
	for _, f := range flags {
		if f.FlagType == ft {
			out = append(out, f)
		}
	}
	return out
}

func TestRoomRentAmountLimit(t *testing.T) {
	room := charge("LI-001", model.CategoryRoomRent, "Room Rent - Private", 25000)
	room.UnitPrice = floatPtr(5000)
	room.Quantity = intPtr(5)
	policy := &model.Policy{RoomLimitType: model.RoomLimitAmount, RoomLimitValue: "3000"}

	flags := RoomRent{}.Evaluate(bill(room), policy)

	require.Len(t, flags, 1)
	f := flags[0]
	assert.Equal(t, model.FlagRoomRent, f.FlagType)
	assert.Equal(t, model.SeverityWarning, f.Severity)
	assert.Equal(t, model.ScopeCharge, f.Scope)
	assert.Equal(t, "LI-001", f.LineItemID)
	require.NotNil(t, f.AmountAffected)
	assert.Equal(t, 10000.0, *f.AmountAffected)
}

func TestRoomRentDerivesDailyRate(t *testing.T) {
	room := charge("LI-001", model.CategoryRoomRent, "Room", 12000)
	room.Quantity = intPtr(3)
	policy := &model.Policy{RoomLimitType: model.RoomLimitAmount, RoomLimitValue: "₹3,000"}

	flags := RoomRent{}.Evaluate(bill(room), policy)

	require.Len(t, flags, 1)
	assert.Equal(t, 3000.0, *flags[0].AmountAffected)
}

func TestRoomRentWithinLimitOrNoQuantity(t *testing.T) {
	within := charge("LI-001", model.CategoryRoomRent, "Room", 6000)
	within.Quantity = intPtr(3)
	noDays := charge("LI-002", model.CategoryRoomRent, "Room", 90000)
	policy := &model.Policy{RoomLimitType: model.RoomLimitAmount, RoomLimitValue: "3000"}

	assert.Empty(t, RoomRent{}.Evaluate(bill(within, noDays), policy))
}

func TestRoomRentCategoryLimit(t *testing.T) {
	policy := &model.Policy{RoomLimitType: model.RoomLimitCategory, RoomLimitValue: "single private"}
	b := bill(
		charge("LI-001", model.CategoryRoomRent, "Room", 5000),
		charge("LI-002", model.CategoryPharmacy, "Drugs", 500),
		charge("LI-003", model.CategoryRoomRent, "Room (step-down)", 3000),
	)

	flags := RoomRent{}.Evaluate(b, policy)

	require.Len(t, flags, 2)
	for _, f := range flags {
		assert.Equal(t, model.SeverityInfo, f.Severity)
		assert.Nil(t, f.AmountAffected)
		assert.Contains(t, f.Reason, "single private")
	}
	assert.Equal(t, "LI-001", flags[0].LineItemID)
	assert.Equal(t, "LI-003", flags[1].LineItemID)
}

func TestCopay(t *testing.T) {
	b := bill(
		charge("LI-001", model.CategorySurgery, "Surgery", 60000),
		charge("LI-002", model.CategoryPharmacy, "Pharmacy", 40000),
	)
	policy := &model.Policy{CopayPercentage: floatPtr(10)}

	flags := Copay{}.Evaluate(b, policy)

	require.Len(t, flags, 1)
	f := flags[0]
	assert.Equal(t, model.FlagCopay, f.FlagType)
	assert.Equal(t, model.SeverityInfo, f.Severity)
	assert.Equal(t, model.ScopeInformational, f.Scope)
	assert.Empty(t, f.LineItemID)
	assert.Equal(t, 10000.0, *f.AmountAffected)

	assert.Empty(t, Copay{}.Evaluate(b, &model.Policy{CopayPercentage: floatPtr(0)}))
	assert.Empty(t, Copay{}.Evaluate(b, &model.Policy{}))
}

func TestPEDSubstringMatch(t *testing.T) {
	b := bill(
		charge("LI-001", model.CategorySurgery, "Surgery", 100000),
		charge("LI-002", model.CategoryPharmacy, "Pharmacy", 50000),
	)
	b.Diagnosis = []string{"Type 2 Diabetes Mellitus"}
	policy := &model.Policy{PEDList: []string{"Diabetes"}}

	flags := PED{Matcher: match.Default().Condition}.Evaluate(b, policy)

	require.Len(t, flags, 1)
	f := flags[0]
	assert.Equal(t, model.FlagPED, f.FlagType)
	assert.Equal(t, model.SeverityError, f.Severity)
	assert.Empty(t, f.LineItemID)
	assert.Equal(t, 150000.0, *f.AmountAffected)
	assert.True(t, f.Dominant())
	assert.Contains(t, f.Reason, "Type 2 Diabetes Mellitus")
}

func TestPEDIgnoresShortTerms(t *testing.T) {
	b := bill(charge("LI-001", model.CategorySurgery, "Surgery", 1000))
	b.Diagnosis = []string{"Diabetes"}

	assert.Empty(t, PED{}.Evaluate(b, &model.Policy{PEDList: []string{"dia"}}))
	assert.Len(t, PED{}.Evaluate(b, &model.Policy{PEDList: []string{"  DIABETES "}}), 1)
	assert.Empty(t, PED{}.Evaluate(b, &model.Policy{}))
}

func TestWaitingPeriodWithoutInceptionIsInfo(t *testing.T) {
	b := bill(charge("LI-001", model.CategorySurgery, "Surgery", 1000))
	b.AdmissionDate = "2024-06-01"
	policy := &model.Policy{GeneralWaitingPeriodMonths: intPtr(30)}

	flags := WaitingPeriod{}.Evaluate(b, policy)

	require.Len(t, flags, 1)
	assert.Equal(t, model.SeverityInfo, flags[0].Severity)
	assert.Nil(t, flags[0].AmountAffected)
	assert.False(t, flags[0].Dominant())
	assert.Contains(t, flags[0].Reason, "30-month")
}

func TestWaitingPeriodVerified(t *testing.T) {
	b := bill(charge("LI-001", model.CategorySurgery, "Surgery", 80000))
	policy := &model.Policy{GeneralWaitingPeriodMonths: intPtr(24), InceptionDate: "2023-01-01"}

	b.AdmissionDate = "2024-03-10"
	flags := WaitingPeriod{}.Evaluate(b, policy)
	require.Len(t, flags, 1)
	assert.Equal(t, model.SeverityError, flags[0].Severity)
	assert.Equal(t, 80000.0, *flags[0].AmountAffected)
	assert.True(t, flags[0].Dominant())

	b.AdmissionDate = "2025-02-01"
	assert.Empty(t, WaitingPeriod{}.Evaluate(b, policy))
}

func TestConsumablesPresumedCovered(t *testing.T) {
	b := bill(
		charge("LI-001", model.CategoryConsumables, "Syringes", 1500),
		charge("LI-002", model.CategoryConsumables, "Dressings", 2500),
	)
	assert.Empty(t, Consumables{}.Evaluate(b, &model.Policy{}))
	assert.Empty(t, Consumables{}.Evaluate(b, &model.Policy{
		SubLimits: []model.SubLimit{{Category: "consumables", LimitAmount: floatPtr(5000)}},
	}))
}

func TestConsumablesExcluded(t *testing.T) {
	b := bill(
		charge("LI-001", model.CategoryConsumables, "Syringes", 1500),
		charge("LI-002", model.CategoryConsumables, "Dressings", 2500),
		charge("LI-003", model.CategoryPharmacy, "Drugs", 9000),
	)
	policy := &model.Policy{SubLimits: []model.SubLimit{{Category: "Consumables", LimitAmount: floatPtr(0)}}}

	flags := Consumables{}.Evaluate(b, policy)

	require.Len(t, flags, 1)
	assert.Equal(t, model.SeverityError, flags[0].Severity)
	assert.Equal(t, 4000.0, *flags[0].AmountAffected)
	assert.Equal(t, "LI-002", flags[0].LineItemID)
}

func TestExclusions(t *testing.T) {
	b := bill(
		charge("LI-001", model.CategoryMisc, "Admission Charges", 1000),
		charge("LI-002", model.CategoryPharmacy, "Drug Administration", 700),
		charge("LI-003", model.CategoryMisc, "Bio-Medical Waste Disposal", 300),
		charge("LI-004", model.CategoryConsumables, "OT Consumables", 2200),
		charge("LI-005", model.CategoryConsumables, "Cotton gauze", 150),
		charge("LI-006", model.CategorySurgery, "Surgeon Fee", 50000),
	)

	flags := Exclusions{}.Evaluate(b, &model.Policy{})

	require.Len(t, flags, 3)
	ids := []string{flags[0].LineItemID, flags[1].LineItemID, flags[2].LineItemID}
	assert.Equal(t, []string{"LI-001", "LI-003", "LI-004"}, ids)
	for _, f := range flags {
		assert.Equal(t, model.FlagExclusion, f.FlagType)
		assert.Equal(t, model.SeverityError, f.Severity)
		assert.NotEmpty(t, f.IRDAIReference)
	}
	assert.Equal(t, 2200.0, *flags[2].AmountAffected)
}

func TestSubLimitAmount(t *testing.T) {
	b := bill(
		charge("LI-001", model.CategoryICU, "ICU Day 1-3", 50000),
		charge("LI-002", model.CategoryICU, "ICU Day 4", 30000),
		charge("LI-003", model.CategoryPharmacy, "Drugs", 9000),
	)
	policy := &model.Policy{SubLimits: []model.SubLimit{{Category: "ICU", LimitAmount: floatPtr(50000)}}}

	flags := SubLimits{}.Evaluate(b, policy)

	require.Len(t, flags, 1)
	f := flags[0]
	assert.Equal(t, model.FlagSubLimit, f.FlagType)
	assert.Equal(t, model.SeverityWarning, f.Severity)
	assert.Equal(t, 30000.0, *f.AmountAffected)
	assert.Equal(t, "LI-001", f.LineItemID)
}

func TestSubLimitPercentage(t *testing.T) {
	b := bill(charge("LI-001", model.CategoryPharmacy, "Drugs", 30000))
	policy := &model.Policy{
		CoverageAmount: 500000,
		SubLimits:      []model.SubLimit{{Category: "Pharmacy", LimitPercentage: floatPtr(5)}},
	}

	flags := SubLimits{}.Evaluate(b, policy)

	require.Len(t, flags, 1)
	assert.Equal(t, 5000.0, *flags[0].AmountAffected)
}

func TestSubLimitZeroAmountLeftToConsumables(t *testing.T) {
	b := bill(charge("LI-001", model.CategoryConsumables, "Gloves", 4000))
	policy := &model.Policy{SubLimits: []model.SubLimit{{Category: "consumables", LimitAmount: floatPtr(0)}}}

	assert.Empty(t, SubLimits{}.Evaluate(b, policy))
}

func TestEngineOrderAndNilInputs(t *testing.T) {
	e := NewEngine(Options{})
	assert.Equal(t,
		[]string{"ped", "waiting_period", "room_rent", "consumables", "exclusions", "sub_limits", "copay"},
		e.Names())

	assert.NotNil(t, e.Run(nil, nil))
	assert.Empty(t, e.Run(nil, &model.Policy{}))
	assert.Empty(t, e.Run(&model.Bill{}, &model.Policy{}))
}

func TestEngineConcatenatesInRuleOrder(t *testing.T) {
	room := charge("LI-001", model.CategoryRoomRent, "Room", 25000)
	room.UnitPrice = floatPtr(5000)
	room.Quantity = intPtr(5)
	b := bill(room, charge("LI-002", model.CategoryMisc, "Registration", 500))
	b.Diagnosis = []string{"Hypertension"}
	policy := &model.Policy{
		PEDList:                    []string{"Hypertension"},
		GeneralWaitingPeriodMonths: intPtr(30),
		RoomLimitType:              model.RoomLimitAmount,
		RoomLimitValue:             "3000",
		CopayPercentage:            floatPtr(20),
	}

	flags := RunAuditRules(b, policy)

	var types []model.FlagType
	for _, f := range flags {
		types = append(types, f.FlagType)
	}
	assert.Equal(t, []model.FlagType{
		model.FlagPED, model.FlagWaitingPeriod, model.FlagRoomRent, model.FlagExclusion, model.FlagCopay,
	}, types)
	assert.Len(t, flagsOfType(flags, model.FlagCopay), 1)
}
