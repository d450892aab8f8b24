/*
bonus.go - Bonus depreciation calculator

PURPOSE:
  Pure function of the asset's dates and the statutory percentage schedule.
  The applicable percentage comes from the date-based schedule (later rows
  take over from earlier ones), with a 100% override for property acquired
  on or after the statutory cutoff. The percentage applies to the basis
  remaining after first-year expensing.

RETURNS ZERO WHEN:
  - the asset is not bonus-eligible per its classification
  - the asset is not new-use property under the governing rule
  - business use is at or below the 50% listed-property threshold
*/
package macrs

import (
	"github.com/shopspring/decimal"
)

// bonusPercentFor looks up the applicable bonus percentage for an asset.
// The schedule is keyed by in-service date; the 100% override is keyed by
// acquisition date (falling back to the in-service date when the ledger has
// no separate acquisition date).
func bonusPercentFor(a AssetRecord, tc TaxYearContext) decimal.Decimal {
	if !a.BonusEligible || a.UsedProperty {
		return decimal.Zero
	}
	// Listed-property threshold. A zero business-use percentage means the
	// ledger left the column unset, which is treated as full business use.
	if a.BusinessUsePercent.IsPositive() && a.BusinessUsePercent.LessThanOrEqual(fifty) {
		return decimal.Zero
	}

	if tc.BonusOverrideCutoff != nil {
		acquired := a.AcquisitionDate
		if acquired.IsZero() {
			acquired = a.InServiceDate
		}
		if !acquired.Before(*tc.BonusOverrideCutoff) {
			return hundred
		}
	}

	percent := decimal.Zero
	for _, row := range tc.BonusSchedule {
		if !a.InServiceDate.Before(row.From) {
			percent = row.Percent
		}
	}
	return percent
}

// computeBonus applies the schedule percentage to the post-expensing basis.
// Returns the bonus amount and the percentage applied.
func computeBonus(a AssetRecord, expensing decimal.Decimal, tc TaxYearContext) (decimal.Decimal, decimal.Decimal) {
	percent := bonusPercentFor(a, tc)
	if !percent.IsPositive() {
		return decimal.Zero, decimal.Zero
	}
	base := a.Cost.Sub(expensing)
	if !base.IsPositive() {
		return decimal.Zero, percent
	}
	return roundCents(base.Mul(percent).Div(hundred)), percent
}

// sortBonusSchedule normalizes a schedule to ascending From order so lookup
// can take the last matching row. Used by configuration loaders.
func sortBonusSchedule(rows []BonusRate) []BonusRate {
	out := make([]BonusRate, len(rows))
	copy(out, rows)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].From.Before(out[j-1].From); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// SortedBonusSchedule is the exported form used by tax-year table loaders.
func SortedBonusSchedule(rows []BonusRate) []BonusRate { return sortBonusSchedule(rows) }
