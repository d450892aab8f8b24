/*
errors.go - Centralized error and warning taxonomy for the engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The taxonomy mirrors how callers must react:

  1. ValidationError   - fatal for ONE asset; the batch keeps going
  2. ConfigurationError - fatal for the WHOLE batch; fail closed
  3. Warning           - non-fatal; surfaced alongside results

PARTIAL-FAILURE CONTRACT:
  One bad ledger row never aborts the run. The offending asset is excluded
  from every total and reported in BatchResult.Excluded. Only a broken or
  missing tax-year configuration aborts everything - there is no safe
  default set of statutory constants.

USAGE:
  if macrs.IsConfiguration(err) {
      // nothing was computed; fix the tax-year table
  }
*/
package macrs

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the sentinel every per-asset ValidationError unwraps to.
	ErrValidation = errors.New("asset validation failed")

	// ErrConfiguration is the sentinel every ConfigurationError unwraps to.
	ErrConfiguration = errors.New("tax year configuration invalid")

	// ErrTaxYearNotFound is returned by tax-year registries when the
	// requested year has no entry. The engine fails closed on it.
	ErrTaxYearNotFound = errors.New("no tax year configuration entry")

	// ErrRunNotFound is returned by run stores for unknown run IDs.
	ErrRunNotFound = errors.New("run not found")
)

// =============================================================================
// VALIDATION ERROR - Per-asset, fatal for that asset only
// =============================================================================

// ValidationCode identifies which rule a ledger line violated.
type ValidationCode string

const (
	ValidationNegativeCost        ValidationCode = "negative_cost"
	ValidationAccumExceedsCost    ValidationCode = "accumulated_exceeds_cost"
	ValidationDisposalBeforeUse   ValidationCode = "disposal_before_in_service"
	ValidationMissingPeriod       ValidationCode = "missing_recovery_period"
	ValidationMissingMethod       ValidationCode = "missing_method"
	ValidationElectionExceedsCost ValidationCode = "election_exceeds_cost"
	ValidationBusinessUseRange    ValidationCode = "business_use_out_of_range"
	ValidationBadTransactionType  ValidationCode = "unknown_transaction_type"
)

// ValidationError marks a single asset record as uncomputable. The asset is
// excluded and reported; the batch continues.
type ValidationError struct {
	AssetID AssetID        `json:"asset_id"`
	Code    ValidationCode `json:"code"`
	Message string         `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("asset %s: %s (%s)", e.AssetID, e.Message, e.Code)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// =============================================================================
// CONFIGURATION ERROR - Batch-level, aborts everything
// =============================================================================

// ConfigurationError reports a missing or internally inconsistent
// TaxYearContext. Nothing is computed when one occurs.
type ConfigurationError struct {
	TaxYear int
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("tax year %d: %s", e.TaxYear, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// =============================================================================
// WARNINGS - Non-fatal, never block output
// =============================================================================

// WarningCode identifies a computation warning.
type WarningCode string

const (
	// WarnZeroCostAddition: a current-year addition with zero cost.
	WarnZeroCostAddition WarningCode = "zero_cost_addition"

	// WarnNBVMismatch: derived NBV differs from the reported NBV beyond
	// tolerance. Manual-review flag, not a computation error.
	WarnNBVMismatch WarningCode = "nbv_mismatch"

	// WarnMidQuarterBoundary: the Q4 cost fraction landed exactly on the
	// statutory threshold. The strict comparison keeps half-year.
	WarnMidQuarterBoundary WarningCode = "mid_quarter_boundary"

	// WarnHeavyVehicleInferred: heavy-vehicle status came from description
	// matching rather than confirmed weight data.
	WarnHeavyVehicleInferred WarningCode = "heavy_vehicle_inferred"

	// WarnDefaultedConvention: an ambiguous convention hint was defaulted
	// to half-year. Explicit and logged, never silent.
	WarnDefaultedConvention WarningCode = "defaulted_convention"

	// WarnDeMinimisExpensed: the asset fell under the de-minimis threshold
	// and was deducted in full outside the expensing election.
	WarnDeMinimisExpensed WarningCode = "de_minimis_expensed"
)

// Warning is a non-fatal finding attached to a result or to the batch.
type Warning struct {
	Code    WarningCode `json:"code"`
	AssetID AssetID     `json:"asset_id,omitempty"` // Empty for batch-level warnings
	Message string      `json:"message"`
}

func (w Warning) String() string {
	if w.AssetID == "" {
		return fmt.Sprintf("%s: %s", w.Code, w.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", w.Code, w.AssetID, w.Message)
}

func warnf(code WarningCode, assetID AssetID, format string, args ...any) Warning {
	return Warning{Code: code, AssetID: assetID, Message: fmt.Sprintf(format, args...)}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation reports whether err is a per-asset validation failure.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsConfiguration reports whether err aborts the whole batch.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrTaxYearNotFound)
}
