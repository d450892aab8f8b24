/*
vehicle.go - Passenger-automobile year-1 cap enforcer

PURPOSE:
  Passenger automobiles carry a statutory first-year dollar ceiling across
  the COMBINED expensing + bonus + ordinary deduction. Qualifying heavy
  vehicles are exempt from this cap (they take the expensing sub-limit
  instead, see expensing.go).

TRIM PRIORITY:
  The statute does not fix which component the cap trims first, and the two
  orders produce different but individually cap-compliant splits. The order
  is therefore an engine option:

    TrimBonusFirst (default): expensing is kept preferentially, then bonus,
      then ordinary. Expensing is an explicit taxpayer election; bonus is
      automatic, so it yields first.
    TrimExpensingFirst: bonus is kept preferentially, then expensing,
      then ordinary.

  Ordinary depreciation is trimmed before either elective component under
  both orders. Both orders are covered by explicit tests.
*/
package macrs

import (
	"github.com/shopspring/decimal"
)

// vehicleCapApplies reports whether the year-1 automobile ceiling governs
// this asset. Heavy vehicles are exempt.
func vehicleCapApplies(a AssetRecord) bool {
	return a.PassengerAutomobile && !a.HeavyVehicle
}

// vehicleYear1Limit selects the ceiling row for the asset: the limits table
// is keyed by whether bonus depreciation applies to the vehicle.
func vehicleYear1Limit(tc TaxYearContext, bonusApplied bool) decimal.Decimal {
	if bonusApplied {
		return tc.VehicleLimits.WithBonus
	}
	return tc.VehicleLimits.WithoutBonus
}

// applyVehicleCap reconciles the three tentative components against the
// ceiling. Components are kept in priority order until the ceiling is
// exhausted; the total of the returned triple never exceeds limit, and
// equals it exactly whenever the tentative total was at or above it.
func applyVehicleCap(expensing, bonus, ordinary, limit decimal.Decimal, order TrimOrder) (e, b, o decimal.Decimal) {
	total := expensing.Add(bonus).Add(ordinary)
	if total.LessThanOrEqual(limit) {
		return expensing, bonus, ordinary
	}

	remaining := limit
	keep := func(amount decimal.Decimal) decimal.Decimal {
		kept := minDecimal(amount, remaining)
		remaining = remaining.Sub(kept)
		return kept
	}

	switch order {
	case TrimExpensingFirst:
		b = keep(bonus)
		e = keep(expensing)
	default: // TrimBonusFirst
		e = keep(expensing)
		b = keep(bonus)
	}
	o = keep(ordinary)
	return e, b, o
}
