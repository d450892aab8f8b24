/*
Package macrs is the tax depreciation calculation engine.

PURPOSE:
  Given a classified asset ledger and a tax-year configuration, compute a
  deterministic, internally-consistent set of per-asset deductions:
  first-year expensing, bonus depreciation, ordinary MACRS depreciation,
  and disposal recapture - subject to the dollar limits, phaseouts, and
  convention rules that couple the batch together.

KEY CONCEPTS IN THIS FILE (types.go):
  - AssetRecord: One normalized ledger line, classified upstream
  - TaxYearContext: Immutable statutory constants for one tax year
  - ConventionDecision: The batch-wide half-year vs. mid-quarter ruling
  - DepreciationResult: The engine's per-asset output
  - BatchResult / BatchSummary: Per-run output envelope

DESIGN PRINCIPLES:
  1. Immutability: AssetRecord and TaxYearContext are never mutated by
     a computation run. Results are produced once per run.
  2. Precision: Uses decimal.Decimal for every monetary value.
  3. Determinism: Identical inputs produce identical results. The one
     shared resource (the expensing dollar limit) is allocated in a
     fixed, documented order.
  4. No hidden state: Carryforward crosses year boundaries only through
     the TaxYearContext of the next run.

SEE ALSO:
  - engine.go: The pipeline orchestrating every stage
  - tables.go: Statutory rate schedule generation
  - errors.go: Validation / configuration / warning taxonomy
*/
package macrs

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS AND ENUMS
// =============================================================================

type AssetID string

// TransactionType partitions the ledger for a tax year.
type TransactionType string

const (
	TxAddition TransactionType = "addition" // Placed in service this tax year
	TxExisting TransactionType = "existing" // Placed in service in a prior year
	TxDisposal TransactionType = "disposal" // Sold/retired during this tax year
	TxTransfer TransactionType = "transfer" // Moved between books; no deduction here
)

// Method is the depreciation method assigned by the classifier.
type Method string

const (
	MethodDB200 Method = "200DB" // Double declining balance, switch to SL
	MethodDB150 Method = "150DB" // 150% declining balance, switch to SL
	MethodSL    Method = "SL"    // Straight line
)

// Convention governs the assumed timing of in-service and disposal events.
type Convention string

const (
	ConventionHalfYear   Convention = "half_year"
	ConventionMidQuarter Convention = "mid_quarter"
	ConventionMidMonth   Convention = "mid_month" // Real property, always
)

// TrimOrder selects which component the passenger-automobile year-1 cap
// reduces first. Both orders are cap-compliant; the statutory text does not
// fix one, so it is an explicit engine option.
type TrimOrder string

const (
	TrimBonusFirst     TrimOrder = "bonus_first"     // Default: bonus trimmed before expensing
	TrimExpensingFirst TrimOrder = "expensing_first" // Expensing trimmed before bonus
)

// AllocationOrder fixes the order in which the limit allocator walks assets
// when the batch-wide expensing limit is scarce.
type AllocationOrder string

const (
	AllocLedgerOrder    AllocationOrder = "ledger"          // Default: input order
	AllocCostDescending AllocationOrder = "cost_descending" // Stable sort, ledger order breaks ties
)

// Options are per-run engine settings for behaviors the statute leaves open.
type Options struct {
	VehicleTrimOrder TrimOrder
	AllocationOrder  AllocationOrder
}

func (o Options) withDefaults() Options {
	if o.VehicleTrimOrder == "" {
		o.VehicleTrimOrder = TrimBonusFirst
	}
	if o.AllocationOrder == "" {
		o.AllocationOrder = AllocLedgerOrder
	}
	return o
}

// =============================================================================
// ASSET RECORD - One ledger line, classified upstream, immutable here
// =============================================================================

// AssetRecord is a normalized ledger line. The importer assigns the
// transaction type and parses dates; the classifier assigns recovery period,
// method, and the eligibility flags. This engine never mutates a record.
type AssetRecord struct {
	ID          AssetID
	Description string

	Cost            decimal.Decimal
	AcquisitionDate time.Time
	InServiceDate   time.Time
	DisposalDate    *time.Time
	TransactionType TransactionType

	// Classification output
	RecoveryPeriodYears  decimal.Decimal // e.g. 5, 7, 27.5, 39
	Method               Method
	BonusEligible        bool
	QualifiedImprovement bool
	PassengerAutomobile  bool
	HeavyVehicle         bool
	// HeavyVehicleInferred marks a heavy-vehicle flag the classifier derived
	// from the description rather than confirmed data. Surfaces as a warning.
	HeavyVehicleInferred bool
	// ConventionHint is the classifier's convention candidate. The resolver's
	// batch decision overrides it for additions; existing personal property
	// falls back to half-year (with a warning) when the hint is empty.
	ConventionHint Convention
	// Land is never depreciated; a land record with no period/method is valid.
	Land bool
	// UsedProperty: not new-use under the governing bonus rule.
	UsedProperty bool

	BusinessUsePercent decimal.Decimal // 0-100

	// ElectedExpensing is the first-year expensing amount requested for this
	// asset. Electing more than Cost is a validation error, never truncated.
	ElectedExpensing decimal.Decimal

	PriorAccumulatedDepreciation decimal.Decimal // Existing/Disposal assets
	DisposalProceeds             decimal.Decimal // Disposal assets

	// ReportedNetBookValue is the NBV carried on the source ledger, if any.
	// The reconciler checks it against the derived NBV within a tolerance.
	ReportedNetBookValue *decimal.Decimal

	// ClassifierConfidence is opaque metadata passed through to results.
	// The engine never uses it in any calculation.
	ClassifierConfidence float64
}

// IsRealProperty reports whether the asset uses the fixed mid-month
// convention (building-like recovery periods).
func (a AssetRecord) IsRealProperty() bool {
	return a.RecoveryPeriodYears.GreaterThanOrEqual(realPropertyPeriodFloor)
}

// DisposedInYear reports whether the asset was disposed during taxYear.
func (a AssetRecord) DisposedInYear(taxYear int) bool {
	return a.DisposalDate != nil && a.DisposalDate.Year() == taxYear
}

var realPropertyPeriodFloor = decimal.NewFromInt(25)

// =============================================================================
// TAX YEAR CONTEXT - Statutory constants, immutable per run
// =============================================================================

// BonusRate is one row of the date-based bonus percentage schedule: the
// percentage applies to property placed in service on or after From, until
// a later row takes over.
type BonusRate struct {
	From    time.Time
	Percent decimal.Decimal // e.g. 80 for 80%
}

// VehicleYear1Limits is the passenger-automobile first-year ceiling, keyed
// by whether bonus depreciation applies to the vehicle.
type VehicleYear1Limits struct {
	WithBonus    decimal.Decimal
	WithoutBonus decimal.Decimal
}

// TaxYearContext carries every statutory constant the engine needs for one
// tax year. It is supplied externally (versioned table keyed by year) and is
// never a process-wide singleton: every computation receives its own copy.
type TaxYearContext struct {
	TaxYear int

	ExpensingDollarLimit       decimal.Decimal
	ExpensingPhaseoutThreshold decimal.Decimal
	HeavyVehicleExpensingLimit decimal.Decimal

	// TaxableIncomeCeiling caps total expensing for the batch. Zero means
	// the caller supplied no ceiling.
	TaxableIncomeCeiling decimal.Decimal

	BonusSchedule []BonusRate
	// BonusOverrideCutoff: acquisitions on/after this date take 100% bonus
	// regardless of the schedule. Nil when no override is in effect.
	BonusOverrideCutoff *time.Time

	DeMinimisThreshold decimal.Decimal

	VehicleLimits VehicleYear1Limits

	PriorYearExpensingCarryforward decimal.Decimal

	// NBVTolerance is the absolute tolerance for the reconciler. Defaults
	// to one dollar when zero.
	NBVTolerance decimal.Decimal
}

// Validate checks the context for internal consistency. Any failure is a
// ConfigurationError: there is no safe default tax-year configuration, so
// the whole batch aborts.
func (tc TaxYearContext) Validate() error {
	switch {
	case tc.TaxYear < 1987:
		return &ConfigurationError{TaxYear: tc.TaxYear, Reason: "tax year predates the recovery system"}
	case tc.ExpensingDollarLimit.IsNegative():
		return &ConfigurationError{TaxYear: tc.TaxYear, Reason: "negative expensing dollar limit"}
	case tc.ExpensingPhaseoutThreshold.IsNegative():
		return &ConfigurationError{TaxYear: tc.TaxYear, Reason: "negative phaseout threshold"}
	case tc.ExpensingPhaseoutThreshold.LessThan(tc.ExpensingDollarLimit):
		// A threshold below the dollar limit can never yield a legal
		// effective limit once any eligible cost exists.
		return &ConfigurationError{TaxYear: tc.TaxYear, Reason: "phaseout threshold below dollar limit"}
	case tc.HeavyVehicleExpensingLimit.IsNegative():
		return &ConfigurationError{TaxYear: tc.TaxYear, Reason: "negative heavy-vehicle limit"}
	case tc.TaxableIncomeCeiling.IsNegative():
		return &ConfigurationError{TaxYear: tc.TaxYear, Reason: "negative taxable-income ceiling"}
	case tc.DeMinimisThreshold.IsNegative():
		return &ConfigurationError{TaxYear: tc.TaxYear, Reason: "negative de-minimis threshold"}
	}
	for _, r := range tc.BonusSchedule {
		if r.Percent.IsNegative() || r.Percent.GreaterThan(decimal.NewFromInt(100)) {
			return &ConfigurationError{TaxYear: tc.TaxYear, Reason: "bonus percentage outside 0-100"}
		}
	}
	return nil
}

func (tc TaxYearContext) nbvTolerance() decimal.Decimal {
	if tc.NBVTolerance.IsPositive() {
		return tc.NBVTolerance
	}
	return decimal.NewFromInt(1)
}

// =============================================================================
// CONVENTION DECISION - Batch-scoped, derived once per run
// =============================================================================

// ConventionDecision is the batch-wide convention ruling. It is single-valued
// per tax year: the resolved convention applies uniformly to every eligible
// personal-property addition, never asset-by-asset.
type ConventionDecision struct {
	Global     Convention
	Q4Fraction decimal.Decimal // Share of addition cost placed in service in Q4

	// Quarters maps each eligible addition to its in-service calendar quarter.
	// Populated for both outcomes; only consulted under mid-quarter.
	Quarters map[AssetID]int

	// BoundaryExact is set when the Q4 fraction lands exactly on the
	// statutory threshold. The comparison is strict, so the batch stays
	// half-year, and a warning surfaces the boundary for review.
	BoundaryExact bool
}

// =============================================================================
// DEPRECIATION RESULT - One per asset record
// =============================================================================

// DepreciationResult is the engine's per-asset output. It is a pure function
// of (AssetRecord, ConventionDecision, TaxYearContext, allocation state).
type DepreciationResult struct {
	AssetID     AssetID
	Description string

	// Convention actually applied to this asset, and its quarter when the
	// batch resolved to mid-quarter.
	Convention Convention
	Quarter    int

	ExpensingAmount                decimal.Decimal
	ExpensingCarryforwardGenerated decimal.Decimal

	// DeMinimisAmount is a full deduction under the de-minimis safe harbor.
	// It is separate from ExpensingAmount because it never consumes the
	// batch expensing limit.
	DeMinimisAmount   decimal.Decimal
	DeMinimisExpensed bool

	BonusAmount         decimal.Decimal
	BonusPercentApplied decimal.Decimal

	DepreciableBasis decimal.Decimal

	OrdinaryDepreciation decimal.Decimal
	TotalYear1Deduction  decimal.Decimal

	RecaptureOrdinaryIncome     decimal.Decimal
	UnrecapturedGainReducedRate decimal.Decimal
	CapitalGainOrLoss           decimal.Decimal

	DerivedNetBookValue decimal.Decimal
	ReconciliationFlag  bool

	// ClassifierConfidence is passed through untouched.
	ClassifierConfidence float64

	Warnings []Warning
}

// =============================================================================
// BATCH RESULT - Per-run output envelope
// =============================================================================

// AssetError reports a validation failure on a single ledger line. The asset
// is excluded from every total; the rest of the batch still computes.
type AssetError struct {
	AssetID AssetID          `json:"asset_id"`
	Err     *ValidationError `json:"error"`
}

// BatchSummary is the batch-level report the export builder consumes.
type BatchSummary struct {
	TotalExpensing               decimal.Decimal
	TotalExpensingCarryforward   decimal.Decimal
	CarryforwardDeducted         decimal.Decimal // Prior-year carryforward used this year
	TotalBonus                   decimal.Decimal
	TotalOrdinaryDepreciation    decimal.Decimal
	TotalRecaptureOrdinaryIncome decimal.Decimal

	GlobalConvention Convention

	AssetCount          int
	ExcludedCount       int
	WarningCount        int
	ReconciliationFlags int

	// ExportReady: no validation errors and no configuration failure. The
	// caller decides whether warnings alone block export.
	ExportReady bool
}

// BatchResult is everything one computation run produces.
type BatchResult struct {
	TaxYear    int
	Convention ConventionDecision
	Results    []DepreciationResult
	Excluded   []AssetError
	Warnings   []Warning // Batch-level warnings; per-asset ones ride on results
	Summary    BatchSummary
}

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

var (
	hundred = decimal.NewFromInt(100)
	fifty   = decimal.NewFromInt(50)
)

// roundCents rounds a monetary amount to cents, half away from zero.
func roundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func minDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

func maxDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// MustDecimal parses a decimal literal, returning zero on failure. Intended
// for statutory constants and fixtures.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
