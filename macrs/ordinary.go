/*
ordinary.go - Ordinary (table-based) depreciation calculator

PURPOSE:
  Applies the statutory rate schedule to the remaining depreciable basis.
  Additions take their year-1 rate under the batch-resolved convention.
  Existing assets take the rate for their current recovery year, capped so
  accumulated depreciation never exceeds cost. Assets disposed during the
  tax year take a partial-year allowance:

    half-year:   half the computed table-year amount
    mid-quarter: (disposal quarter - 0.5) / 4 of it
    mid-month:   (disposal month - 0.5) / 12 of it

  A disposed asset must NEVER receive zero solely because it is flagged as
  a disposal - the partial-year calculation always executes.
*/
package macrs

import (
	"github.com/shopspring/decimal"
)

// computeOrdinary returns the current-year ordinary depreciation for one
// asset. basis is the depreciable basis the rate applies to: for additions,
// cost net of expensing and bonus; for existing/disposal assets, cost.
func computeOrdinary(a AssetRecord, basis decimal.Decimal, conv Convention, quarter int, taxYear int) (decimal.Decimal, error) {
	if a.Land || !basis.IsPositive() {
		return decimal.Zero, nil
	}

	yearIndex := recoveryYearIndex(taxYear, a.InServiceDate.Year())
	if yearIndex < 1 {
		// In service after the computation year: nothing accrues yet.
		return decimal.Zero, nil
	}
	if yearIndex == 1 && a.DisposedInYear(taxYear) {
		// Placed in service and disposed in the same year: no recovery
		// deduction. Distinct from the disposal partial-year rule below,
		// which always runs for prior-year property.
		return decimal.Zero, nil
	}

	rate, err := RateFor(a.RecoveryPeriodYears, a.Method, conv, quarter, a.InServiceDate.Month(), yearIndex)
	if err != nil {
		return decimal.Zero, err
	}

	dep := basis.Mul(rate).Div(hundred)

	if a.DisposedInYear(taxYear) {
		dep = dep.Mul(disposalFractionFor(a, conv, taxYear))
	}

	dep = roundCents(dep)

	// Accumulated depreciation can never exceed cost.
	headroom := a.Cost.Sub(a.PriorAccumulatedDepreciation)
	if dep.GreaterThan(headroom) {
		dep = maxDecimal(decimal.Zero, headroom)
	}
	return dep, nil
}

// disposalFractionFor returns the in-service fraction for the disposal year.
// The disposal-year table amount is a FULL year's rate; the convention
// decides how much of it the final year keeps.
func disposalFractionFor(a AssetRecord, conv Convention, taxYear int) decimal.Decimal {
	d := *a.DisposalDate
	switch conv {
	case ConventionMidQuarter:
		return disposalYearFraction(conv, QuarterOf(d), 0)
	case ConventionMidMonth:
		return disposalYearFraction(conv, 0, d.Month())
	default:
		return disposalYearFraction(ConventionHalfYear, 0, 0)
	}
}
