package rules

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/normalize"
)

const roomRentReference = "IRDAI/HLT/MISC/039/03/2020"

// RoomRent compares room charges against the policy room limit. Amount
// limits flag only the per-day excess; category limits can only be verified
// by hand, so they produce informational flags without an amount.
type RoomRent struct{}

func (RoomRent) Name() string { return "room_rent" }

func (RoomRent) Evaluate(bill *model.Bill, policy *model.Policy) []model.AuditFlag {
	if bill == nil || policy == nil || policy.RoomLimitValue == "" {
		return nil
	}
	rooms := bill.ChargesIn(model.CategoryRoomRent)
	if len(rooms) == 0 {
		return nil
	}

	switch policy.RoomLimitType {
	case model.RoomLimitAmount:
		return amountLimit(rooms, policy.RoomLimitValue)
	case model.RoomLimitCategory:
		flags := make([]model.AuditFlag, 0, len(rooms))
		for _, charge := range rooms {
			flags = append(flags, model.AuditFlag{
				FlagType:     model.FlagRoomRent,
				Severity:     model.SeverityInfo,
				Scope:        model.ScopeCharge,
				LineItemID:   charge.ID,
				Reason:       fmt.Sprintf("Room category verification needed. Policy limit: %s.", policy.RoomLimitValue),
				PolicyClause: "Room rent limit clause",
			})
		}
		return flags
	}
	return nil
}

func amountLimit(rooms []model.LineItem, value string) []model.AuditFlag {
	perDay, ok := normalize.ParseAmount(value)
	if !ok || perDay <= 0 {
		return nil
	}
	limit := normalize.Dec(perDay)

	var flags []model.AuditFlag
	for _, charge := range rooms {
		// Without a day count there is no daily rate to compare.
		if charge.Quantity == nil || *charge.Quantity <= 0 {
			continue
		}
		days := decimal.NewFromInt(int64(*charge.Quantity))

		var daily decimal.Decimal
		if charge.UnitPrice != nil && *charge.UnitPrice > 0 {
			daily = normalize.Dec(*charge.UnitPrice)
		} else {
			daily = normalize.Dec(charge.Amount).Div(days)
		}
		if !daily.GreaterThan(limit) {
			continue
		}

		excess := daily.Sub(limit).Mul(days)
		flags = append(flags, model.AuditFlag{
			FlagType:       model.FlagRoomRent,
			Severity:       model.SeverityWarning,
			Scope:          model.ScopeCharge,
			LineItemID:     charge.ID,
			AmountAffected: money(excess),
			Reason: fmt.Sprintf("Room rent exceeds policy limit. Charged: %s/day, Limit: %s/day.",
				inr(daily), inr(limit)),
			PolicyClause:   "Room rent limit clause",
			IRDAIReference: roomRentReference,
		})
	}
	return flags
}
