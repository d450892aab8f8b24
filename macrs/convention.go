/*
convention.go - Batch-wide convention resolver

PURPOSE:
  Decides, once per run, whether the tax year's personal-property additions
  use the half-year or the mid-quarter convention. This is the one aggregate
  barrier in the pipeline: it must see every addition before any per-asset
  stage runs, because the decision applies uniformly to all of them.

THE TEST:
  q4Fraction = cost placed in service in Q4 / cost of all eligible additions

  The comparison is STRICT: mid-quarter applies only when the fraction
  EXCEEDS 40% ("more than 40 percent"). A batch landing exactly on 40.00%
  stays half-year and emits a boundary warning so a reviewer sees it.

EXCLUSIONS:
  - Real property is always mid-month and is excluded from both the
    numerator and the denominator.
  - De-minimis-expensed additions are not capitalized, so they never enter
    the test.
*/
package macrs

import (
	"github.com/shopspring/decimal"
)

// midQuarterThreshold is the statutory Q4-cost share above which the
// mid-quarter convention applies. Strictly above: exactly 40% stays
// half-year.
var midQuarterThreshold = decimal.NewFromInt(40)

// ResolveConvention runs the mid-quarter test over the eligible additions.
// Eligible means: Addition-type, non-real-property, capitalized (not
// de-minimis-expensed, not land). Quarters are assigned for every eligible
// asset regardless of the outcome so results can always report them.
func ResolveConvention(additions []AssetRecord) (ConventionDecision, []Warning) {
	decision := ConventionDecision{
		Global:     ConventionHalfYear,
		Q4Fraction: decimal.Zero,
		Quarters:   make(map[AssetID]int, len(additions)),
	}

	total := decimal.Zero
	q4 := decimal.Zero

	for _, a := range additions {
		quarter := QuarterOf(a.InServiceDate)
		decision.Quarters[a.ID] = quarter
		total = total.Add(a.Cost)
		if quarter == 4 {
			q4 = q4.Add(a.Cost)
		}
	}

	if !total.IsPositive() {
		return decision, nil
	}

	// Q4Fraction is rounded for reporting only; the comparison itself is
	// exact (cross-multiplied), so a share a hair above 40% never collapses
	// onto the boundary.
	decision.Q4Fraction = q4.Div(total).Mul(hundred).Round(4)
	q4Share := q4.Mul(hundred)
	threshold := midQuarterThreshold.Mul(total)

	var warnings []Warning
	switch {
	case q4Share.GreaterThan(threshold):
		decision.Global = ConventionMidQuarter
	case q4Share.Equal(threshold):
		decision.BoundaryExact = true
		warnings = append(warnings, warnf(WarnMidQuarterBoundary, "",
			"fourth-quarter cost share is exactly 40%%; strict comparison keeps the half-year convention"))
	}

	return decision, warnings
}

// conventionFor returns the convention a single asset computes under, given
// the batch decision. Real property is always mid-month. Existing personal
// property keeps its classifier hint when present; an empty or unusable hint
// defaults to half-year, which the caller reports as a warning.
func conventionFor(a AssetRecord, decision ConventionDecision, taxYear int) (conv Convention, quarter int, defaulted bool) {
	if a.IsRealProperty() {
		return ConventionMidMonth, 0, false
	}

	if a.TransactionType == TxAddition && a.InServiceDate.Year() == taxYear {
		if decision.Global == ConventionMidQuarter {
			return ConventionMidQuarter, decision.Quarters[a.ID], false
		}
		return ConventionHalfYear, decision.Quarters[a.ID], false
	}

	// Existing (or disposed prior-year) personal property: the original
	// year's batch test is unknowable here, so trust the hint.
	switch a.ConventionHint {
	case ConventionHalfYear:
		return ConventionHalfYear, 0, false
	case ConventionMidQuarter:
		return ConventionMidQuarter, QuarterOf(a.InServiceDate), false
	default:
		return ConventionHalfYear, 0, true
	}
}
