/*
recapture.go - Disposal gain/loss and depreciation recapture

PURPOSE:
  On disposal, characterizes the proceeds against adjusted basis:

    gainOrLoss = proceeds - (cost - depreciation claimed, incl. current year)

  Personal property: ordinary-income recapture is the LESSER of the total
  gain and the total depreciation actually claimed; any remainder is capital
  gain. Losses are capital losses with no recapture.

  Real property: depreciation here is straight line, so the
  excess-over-straight-line ordinary component is zero; the depreciation-
  attributable portion of the gain is instead "unrecaptured" gain taxed at a
  reduced rate, and the remainder is capital gain.

DOUBLE COUNTING:
  First-year expensing and bonus are part of depreciation claimed. They are
  added here exactly once - the caller passes the current-year components
  separately from prior accumulated depreciation, which never includes them.
*/
package macrs

import (
	"github.com/shopspring/decimal"
)

// recaptureOutcome carries the disposal characterization for one asset.
type recaptureOutcome struct {
	ordinaryIncome    decimal.Decimal
	unrecapturedGain  decimal.Decimal // Real property, reduced-rate portion
	capitalGainOrLoss decimal.Decimal
	totalClaimed      decimal.Decimal // Depreciation claimed over the asset's life
}

// computeRecapture characterizes a disposal. currentExpensing/currentBonus/
// currentOrdinary are THIS year's deductions on the asset (normally zero for
// expensing/bonus on a prior-year asset); prior accumulated depreciation
// comes off the record.
func computeRecapture(a AssetRecord, currentExpensing, currentBonus, currentOrdinary decimal.Decimal) recaptureOutcome {
	claimed := a.PriorAccumulatedDepreciation.
		Add(currentExpensing).
		Add(currentBonus).
		Add(currentOrdinary)
	claimed = minDecimal(claimed, a.Cost)

	adjustedBasis := a.Cost.Sub(claimed)
	gain := roundCents(a.DisposalProceeds.Sub(adjustedBasis))

	out := recaptureOutcome{totalClaimed: claimed}

	if !gain.IsPositive() {
		out.capitalGainOrLoss = gain
		return out
	}

	if a.IsRealProperty() {
		// Straight-line real property: no excess-over-SL ordinary income.
		// The depreciation-attributable slice is taxed at the reduced rate.
		out.unrecapturedGain = minDecimal(gain, claimed)
		out.capitalGainOrLoss = gain.Sub(out.unrecapturedGain)
		return out
	}

	out.ordinaryIncome = minDecimal(gain, claimed)
	out.capitalGainOrLoss = gain.Sub(out.ordinaryIncome)
	return out
}
