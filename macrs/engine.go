/*
engine.go - The computation pipeline

PURPOSE:
  Orchestrates one batch computation. The engine is a synchronous,
  deterministic, single-pass pipeline with one aggregate barrier:

    validate records            (per asset; bad rows excluded, batch continues)
    partition by transaction type
    resolve convention          (BARRIER: must see every addition)
    allocate expensing          (ordered walk against the shared dollar limit)
    per asset:
      bonus -> vehicle cap -> ordinary depreciation -> disposal recapture
    reconcile NBV               (final verification pass)
    summarize

  Stages after the barrier are pure functions of one asset plus already-
  resolved shared state; only the limit allocator touches a shared running
  total, and it runs strictly in its configured order.

IDEMPOTENCE:
  Compute is a pure function: recomputing with identical inputs yields an
  identical BatchResult. Nothing is persisted here and no clock is read -
  run history is the RunStore's concern (store.go).
*/
package macrs

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Compute runs the full pipeline over one ledger batch. The only error it
// returns is a batch-fatal ConfigurationError; per-asset failures come back
// inside BatchResult.Excluded with everything else still computed.
func Compute(assets []AssetRecord, tc TaxYearContext, opts Options) (*BatchResult, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	batch := &BatchResult{TaxYear: tc.TaxYear}

	// ---- Validation: one bad row never aborts the run -------------------
	valid := make([]AssetRecord, 0, len(assets))
	for _, a := range assets {
		if verr := validateAsset(a); verr != nil {
			batch.Excluded = append(batch.Excluded, AssetError{AssetID: a.ID, Err: verr})
			continue
		}
		valid = append(valid, a)
	}

	// ---- Partition -------------------------------------------------------
	deMinimis := make(map[AssetID]bool)
	var conventionSet []AssetRecord // capitalized personal-property additions

	for _, a := range valid {
		if a.TransactionType != TxAddition {
			continue
		}
		if a.Land {
			continue
		}
		if tc.DeMinimisThreshold.IsPositive() && a.Cost.IsPositive() &&
			a.Cost.LessThanOrEqual(tc.DeMinimisThreshold) {
			deMinimis[a.ID] = true
			continue
		}
		if a.IsRealProperty() {
			continue // always mid-month, excluded from the test
		}
		conventionSet = append(conventionSet, a)
	}

	// ---- Barrier: convention decision ------------------------------------
	decision, convWarnings := ResolveConvention(conventionSet)
	batch.Convention = decision
	batch.Warnings = append(batch.Warnings, convWarnings...)

	// ---- Shared-limit allocation (ordered, never concurrent) -------------
	alloc := allocateExpensing(conventionSet, tc, opts.AllocationOrder)

	// ---- Per-asset stages -------------------------------------------------
	for _, a := range valid {
		res := computeAsset(a, tc, decision, alloc, deMinimis[a.ID], opts)
		batch.Results = append(batch.Results, res)
	}

	summarize(batch, alloc)
	return batch, nil
}

// =============================================================================
// PER-ASSET COMPUTATION
// =============================================================================

func computeAsset(a AssetRecord, tc TaxYearContext, decision ConventionDecision, alloc expensingAllocation, isDeMinimis bool, opts Options) DepreciationResult {
	res := DepreciationResult{
		AssetID:              a.ID,
		Description:          a.Description,
		ClassifierConfidence: a.ClassifierConfidence,
		ExpensingAmount:      decimal.Zero,
		BonusAmount:          decimal.Zero,
		DepreciableBasis:     decimal.Zero,
	}

	if a.TransactionType == TxAddition && a.Cost.IsZero() {
		res.Warnings = append(res.Warnings, warnf(WarnZeroCostAddition, a.ID, "addition with zero cost"))
	}
	if a.HeavyVehicle && a.HeavyVehicleInferred {
		res.Warnings = append(res.Warnings, warnf(WarnHeavyVehicleInferred, a.ID,
			"heavy-vehicle status inferred from the description, not confirmed"))
	}

	switch {
	case a.TransactionType == TxTransfer || a.Land:
		// No deduction arises here; the NBV check still runs below.

	case isDeMinimis:
		res.DeMinimisExpensed = true
		res.DeMinimisAmount = roundCents(a.Cost)
		res.Warnings = append(res.Warnings, warnf(WarnDeMinimisExpensed, a.ID,
			"cost %s at or under the de-minimis threshold %s; deducted in full", a.Cost, tc.DeMinimisThreshold))

	case a.TransactionType == TxAddition:
		computeAddition(a, tc, decision, alloc, opts, &res)

	default: // Existing or Disposal
		computeCarriedAsset(a, tc, decision, &res)
	}

	res.TotalYear1Deduction = res.ExpensingAmount.
		Add(res.DeMinimisAmount).
		Add(res.BonusAmount).
		Add(res.OrdinaryDepreciation)

	derived, flagged, warning := reconcileNBV(a, res, tc.nbvTolerance())
	res.DerivedNetBookValue = derived
	res.ReconciliationFlag = flagged
	if warning != nil {
		res.Warnings = append(res.Warnings, *warning)
	}

	return res
}

// computeAddition runs the current-year stages for a capitalized addition:
// allocated expensing -> bonus -> vehicle cap -> year-1 ordinary.
func computeAddition(a AssetRecord, tc TaxYearContext, decision ConventionDecision, alloc expensingAllocation, opts Options, res *DepreciationResult) {
	conv, quarter, _ := conventionFor(a, decision, tc.TaxYear)
	res.Convention = conv
	res.Quarter = quarter

	if granted, ok := alloc.granted[a.ID]; ok {
		res.ExpensingAmount = granted
	}
	if cf, ok := alloc.carryforward[a.ID]; ok {
		res.ExpensingCarryforwardGenerated = cf
	}

	res.BonusAmount, res.BonusPercentApplied = computeBonus(a, res.ExpensingAmount, tc)
	res.DepreciableBasis = maxDecimal(decimal.Zero, a.Cost.Sub(res.ExpensingAmount).Sub(res.BonusAmount))

	ordinary, err := computeOrdinary(a, res.DepreciableBasis, conv, quarter, tc.TaxYear)
	if err != nil {
		// Rate lookup failures on a validated asset indicate a period/method
		// combination the tables cannot express; surface, don't invent.
		res.Warnings = append(res.Warnings, warnf(WarnDefaultedConvention, a.ID, "rate lookup failed: %v", err))
		ordinary = decimal.Zero
	}
	res.OrdinaryDepreciation = ordinary

	if vehicleCapApplies(a) {
		limit := vehicleYear1Limit(tc, res.BonusAmount.IsPositive())
		e, b, o := applyVehicleCap(res.ExpensingAmount, res.BonusAmount, res.OrdinaryDepreciation, limit, opts.VehicleTrimOrder)
		res.ExpensingAmount, res.BonusAmount, res.OrdinaryDepreciation = e, b, o
		// Basis reflects the capped elective components: what the cap
		// disallowed stays in basis for later recovery years.
		res.DepreciableBasis = maxDecimal(decimal.Zero, a.Cost.Sub(e).Sub(b))
		if b.IsZero() {
			res.BonusPercentApplied = decimal.Zero
		}
	}
}

// computeCarriedAsset handles Existing and Disposal records: the current
// recovery-year table rate on original cost, the disposal partial year, and
// recapture.
func computeCarriedAsset(a AssetRecord, tc TaxYearContext, decision ConventionDecision, res *DepreciationResult) {
	conv, quarter, defaulted := conventionFor(a, decision, tc.TaxYear)
	res.Convention = conv
	res.Quarter = quarter
	if defaulted {
		res.Warnings = append(res.Warnings, warnf(WarnDefaultedConvention, a.ID,
			"ambiguous convention hint; defaulted to half-year"))
	}

	ordinary, err := computeOrdinary(a, a.Cost, conv, quarter, tc.TaxYear)
	if err != nil {
		res.Warnings = append(res.Warnings, warnf(WarnDefaultedConvention, a.ID, "rate lookup failed: %v", err))
		ordinary = decimal.Zero
	}
	res.OrdinaryDepreciation = ordinary

	if a.TransactionType == TxDisposal {
		outcome := computeRecapture(a, res.ExpensingAmount, res.BonusAmount, res.OrdinaryDepreciation)
		res.RecaptureOrdinaryIncome = outcome.ordinaryIncome
		res.UnrecapturedGainReducedRate = outcome.unrecapturedGain
		res.CapitalGainOrLoss = outcome.capitalGainOrLoss
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

func validMethod(m Method) bool {
	switch m {
	case MethodDB200, MethodDB150, MethodSL:
		return true
	}
	return false
}

func validTransactionType(t TransactionType) bool {
	switch t {
	case TxAddition, TxExisting, TxDisposal, TxTransfer:
		return true
	}
	return false
}

// validateAsset applies the per-record rules. A non-nil return excludes the
// asset from every total; the batch keeps processing everything else.
func validateAsset(a AssetRecord) *ValidationError {
	fail := func(code ValidationCode, format string, args ...any) *ValidationError {
		return &ValidationError{AssetID: a.ID, Code: code, Message: fmt.Sprintf(format, args...)}
	}

	if a.Cost.IsNegative() {
		return fail(ValidationNegativeCost, "cost %s is negative", a.Cost)
	}
	if !validTransactionType(a.TransactionType) {
		return fail(ValidationBadTransactionType, "transaction type %q", a.TransactionType)
	}
	if a.PriorAccumulatedDepreciation.GreaterThan(a.Cost) {
		return fail(ValidationAccumExceedsCost,
			"accumulated depreciation %s exceeds cost %s", a.PriorAccumulatedDepreciation, a.Cost)
	}
	if a.DisposalDate != nil && a.DisposalDate.Before(a.InServiceDate) {
		return fail(ValidationDisposalBeforeUse,
			"disposal date %s precedes in-service date %s",
			a.DisposalDate.Format("2006-01-02"), a.InServiceDate.Format("2006-01-02"))
	}
	if a.BusinessUsePercent.IsNegative() || a.BusinessUsePercent.GreaterThan(hundred) {
		return fail(ValidationBusinessUseRange, "business use %s%% outside 0-100", a.BusinessUsePercent)
	}
	if a.ElectedExpensing.GreaterThan(a.Cost) {
		return fail(ValidationElectionExceedsCost,
			"elected expensing %s exceeds cost %s", a.ElectedExpensing, a.Cost)
	}

	if a.Land || a.TransactionType == TxTransfer {
		return nil
	}
	if !a.RecoveryPeriodYears.IsPositive() {
		return fail(ValidationMissingPeriod, "no recovery period for a non-land asset")
	}
	if !validMethod(a.Method) {
		return fail(ValidationMissingMethod, "method %q is not a recognized method", a.Method)
	}
	return nil
}

// =============================================================================
// SUMMARY
// =============================================================================

func summarize(batch *BatchResult, alloc expensingAllocation) {
	s := BatchSummary{
		TotalExpensing:             decimal.Zero,
		TotalExpensingCarryforward: decimal.Zero,
		CarryforwardDeducted:       alloc.carryforwardDeducted,
		TotalBonus:                 decimal.Zero,
		TotalOrdinaryDepreciation:  decimal.Zero,
		GlobalConvention:           batch.Convention.Global,
		AssetCount:                 len(batch.Results),
		ExcludedCount:              len(batch.Excluded),
	}

	warnings := len(batch.Warnings)
	for _, r := range batch.Results {
		s.TotalExpensing = s.TotalExpensing.Add(r.ExpensingAmount)
		s.TotalExpensingCarryforward = s.TotalExpensingCarryforward.Add(r.ExpensingCarryforwardGenerated)
		s.TotalBonus = s.TotalBonus.Add(r.BonusAmount)
		s.TotalOrdinaryDepreciation = s.TotalOrdinaryDepreciation.Add(r.OrdinaryDepreciation)
		s.TotalRecaptureOrdinaryIncome = s.TotalRecaptureOrdinaryIncome.Add(r.RecaptureOrdinaryIncome)
		warnings += len(r.Warnings)
		if r.ReconciliationFlag {
			s.ReconciliationFlags++
		}
	}

	s.WarningCount = warnings
	s.ExportReady = len(batch.Excluded) == 0
	batch.Summary = s
}
