/*
expensing.go - First-year expensing limit allocator

PURPOSE:
  Allocates the scarce, batch-wide expensing dollar limit across the assets
  that elected it. This is the one stage with a shared mutable resource (the
  running total against the limit), so it walks assets in a fixed,
  deterministic order - never concurrently - and the order is an explicit
  engine option:

    ledger order (default)  - allocation matches the workbook a preparer sees
    cost descending         - stable sort; ledger position breaks cost ties

ALGORITHM:
  (a) effective limit = max(0, dollarLimit - max(0, eligibleCost - phaseout))
  (b) cap at the taxable-income ceiling (when one is supplied)
  (c) deduct prior-year carryforward against the allowance first
  (d) per-asset heavy-vehicle sub-limit BEFORE the batch-wide cap; the
      portion above the sub-limit is never deductible and never becomes
      carryforward - it simply stays in depreciable basis
  (e) walk assets accumulating granted amounts until the allowance is
      exhausted; each asset's unmet elected amount becomes carryforward

  An election exceeding the asset's cost is a validation error upstream,
  never silently truncated here.
*/
package macrs

import (
	"sort"

	"github.com/shopspring/decimal"
)

// expensingAllocation is the allocator's output: per-asset grants and
// carryforward, plus the batch totals the summary reports.
type expensingAllocation struct {
	granted      map[AssetID]decimal.Decimal
	carryforward map[AssetID]decimal.Decimal

	effectiveLimit       decimal.Decimal
	allowance            decimal.Decimal // effective limit after income ceiling
	carryforwardDeducted decimal.Decimal // prior-year carryforward used this run
	totalGranted         decimal.Decimal
	totalCarryforward    decimal.Decimal
}

// allocateExpensing walks the capitalized personal-property additions in the
// configured order and allocates the batch allowance. additions must already
// be validated and in ledger order.
func allocateExpensing(additions []AssetRecord, tc TaxYearContext, order AllocationOrder) expensingAllocation {
	alloc := expensingAllocation{
		granted:      make(map[AssetID]decimal.Decimal),
		carryforward: make(map[AssetID]decimal.Decimal),
	}

	// (a) Phaseout: every dollar of eligible addition cost above the
	// threshold reduces the dollar limit one for one.
	eligibleCost := decimal.Zero
	for _, a := range additions {
		eligibleCost = eligibleCost.Add(a.Cost)
	}
	excess := maxDecimal(decimal.Zero, eligibleCost.Sub(tc.ExpensingPhaseoutThreshold))
	alloc.effectiveLimit = maxDecimal(decimal.Zero, tc.ExpensingDollarLimit.Sub(excess))

	// (b) Taxable-income ceiling. Zero means no ceiling supplied.
	alloc.allowance = alloc.effectiveLimit
	if tc.TaxableIncomeCeiling.IsPositive() {
		alloc.allowance = minDecimal(alloc.allowance, tc.TaxableIncomeCeiling)
	}

	// (c) Prior-year carryforward consumes allowance before new elections.
	remaining := alloc.allowance
	if tc.PriorYearExpensingCarryforward.IsPositive() {
		alloc.carryforwardDeducted = minDecimal(tc.PriorYearExpensingCarryforward, remaining)
		remaining = remaining.Sub(alloc.carryforwardDeducted)
	}

	// (d)+(e) Ordered walk.
	for _, a := range orderedForAllocation(additions, order) {
		requested := a.ElectedExpensing
		if !requested.IsPositive() {
			continue
		}
		if a.HeavyVehicle {
			// Sub-limit applies per asset, independent of the batch limit.
			// Anything above it is not deductible and not carried forward.
			requested = minDecimal(requested, tc.HeavyVehicleExpensingLimit)
		}

		granted := minDecimal(requested, remaining)
		granted = roundCents(granted)
		unmet := requested.Sub(granted)

		if granted.IsPositive() {
			alloc.granted[a.ID] = granted
			alloc.totalGranted = alloc.totalGranted.Add(granted)
			remaining = remaining.Sub(granted)
		}
		if unmet.IsPositive() {
			alloc.carryforward[a.ID] = roundCents(unmet)
			alloc.totalCarryforward = alloc.totalCarryforward.Add(roundCents(unmet))
		}
	}

	return alloc
}

// orderedForAllocation returns the allocation walk order without mutating
// the input slice. The sort is stable so equal-cost assets keep their
// ledger positions and the result stays reproducible.
func orderedForAllocation(additions []AssetRecord, order AllocationOrder) []AssetRecord {
	if order != AllocCostDescending {
		return additions
	}
	sorted := make([]AssetRecord, len(additions))
	copy(sorted, additions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Cost.GreaterThan(sorted[j].Cost)
	})
	return sorted
}
