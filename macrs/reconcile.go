/*
reconcile.go - Basis / net-book-value reconciler

PURPOSE:
  The final verification pass. Recomputes each asset's net book value from
  first principles:

    derivedNBV = cost - (prior accumulated + current-year deductions)

  and flags any asset whose externally reported NBV differs by more than a
  small absolute tolerance. A flag is a manual-review warning, never a
  computation error: the derived value is still what the results carry.
*/
package macrs

import (
	"github.com/shopspring/decimal"
)

// reconcileNBV computes the derived NBV for a result and, when the record
// carries an externally reported NBV, checks it within tolerance. Returns
// the derived value, whether the check tripped, and an optional warning.
func reconcileNBV(a AssetRecord, res DepreciationResult, tolerance decimal.Decimal) (decimal.Decimal, bool, *Warning) {
	accumulated := a.PriorAccumulatedDepreciation.
		Add(res.ExpensingAmount).
		Add(res.DeMinimisAmount).
		Add(res.BonusAmount).
		Add(res.OrdinaryDepreciation)
	accumulated = minDecimal(accumulated, a.Cost)

	derived := roundCents(a.Cost.Sub(accumulated))

	if a.ReportedNetBookValue == nil {
		return derived, false, nil
	}

	diff := derived.Sub(*a.ReportedNetBookValue).Abs()
	if diff.LessThanOrEqual(tolerance) {
		return derived, false, nil
	}

	w := warnf(WarnNBVMismatch, a.ID,
		"derived NBV %s differs from reported NBV %s by %s (tolerance %s)",
		derived, a.ReportedNetBookValue, diff, tolerance)
	return derived, true, &w
}
