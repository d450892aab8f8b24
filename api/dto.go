/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's decimal-based domain model from the external API contract:
  money crosses the wire as float64, dates as ISO strings, and decimal
  precision lives only inside the macrs package.

NAMING CONVENTION:
  - *Input: Request body types from clients
  - *DTO: Response types returned to clients

TYPES:
  Compute:
    ComputeRequest, AssetInput
  Results:
    BatchDTO, ResultDTO, SummaryDTO, ConventionDTO, WarningDTO,
    AssetErrorDTO
  Runs:
    RunDTO, RunHeaderDTO
  Tax years:
    TaxYearDTO, BonusRateDTO

VALIDATION:
  Shape validation (parseable dates, known enum values) happens in the
  conversion helpers here; domain validation is the engine's job and comes
  back inside BatchDTO.Excluded.

SEE ALSO:
  - handlers.go: Uses these types
  - macrs/types.go: The domain model these mirror
*/
package api

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/depreciation-engine/macrs"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ComputeRequest is the body of POST /api/batches/compute.
type ComputeRequest struct {
	TaxYear int `json:"tax_year"`

	// Taxpayer-specific overlays on the statutory tax-year entry.
	TaxableIncomeCeiling       float64 `json:"taxable_income_ceiling,omitempty"`
	PriorExpensingCarryforward float64 `json:"prior_expensing_carryforward,omitempty"`

	// Engine options; empty strings take the engine defaults.
	VehicleTrimOrder string `json:"vehicle_trim_order,omitempty"`
	AllocationOrder  string `json:"allocation_order,omitempty"`

	Assets []AssetInput `json:"assets"`
}

// AssetInput is one ledger line as submitted by a client. Field set matches
// the normalized ledger schema.
type AssetInput struct {
	ID              string  `json:"id"`
	Description     string  `json:"description,omitempty"`
	TransactionType string  `json:"transaction_type"`
	Cost            float64 `json:"cost"`
	AcquisitionDate string  `json:"acquisition_date,omitempty"`
	InServiceDate   string  `json:"in_service_date"`
	DisposalDate    string  `json:"disposal_date,omitempty"`

	RecoveryPeriodYears  float64 `json:"recovery_period,omitempty"`
	Method               string  `json:"method,omitempty"`
	ConventionHint       string  `json:"convention_hint,omitempty"`
	BonusEligible        bool    `json:"bonus_eligible,omitempty"`
	QualifiedImprovement bool    `json:"qualified_improvement,omitempty"`
	PassengerAutomobile  bool    `json:"passenger_automobile,omitempty"`
	HeavyVehicle         bool    `json:"heavy_vehicle,omitempty"`
	HeavyVehicleInferred bool    `json:"heavy_vehicle_inferred,omitempty"`
	Land                 bool    `json:"land,omitempty"`
	UsedProperty         bool    `json:"used_property,omitempty"`

	BusinessUsePercent           float64  `json:"business_use_percent,omitempty"`
	ElectedExpensing             float64  `json:"elected_expensing,omitempty"`
	PriorAccumulatedDepreciation float64  `json:"prior_accumulated_depreciation,omitempty"`
	DisposalProceeds             float64  `json:"disposal_proceeds,omitempty"`
	ReportedNetBookValue         *float64 `json:"reported_nbv,omitempty"`

	ClassifierConfidence float64 `json:"classifier_confidence,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// WarningDTO is a non-fatal finding.
type WarningDTO struct {
	Code    string `json:"code"`
	AssetID string `json:"asset_id,omitempty"`
	Message string `json:"message"`
}

// AssetErrorDTO reports an excluded ledger line.
type AssetErrorDTO struct {
	AssetID string `json:"asset_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ResultDTO is one asset's computed deductions.
type ResultDTO struct {
	AssetID     string `json:"asset_id"`
	Description string `json:"description,omitempty"`

	Convention string `json:"convention,omitempty"`
	Quarter    int    `json:"quarter,omitempty"`

	ExpensingAmount                float64 `json:"expensing_amount"`
	ExpensingCarryforwardGenerated float64 `json:"expensing_carryforward_generated"`
	DeMinimisAmount                float64 `json:"de_minimis_amount"`
	DeMinimisExpensed              bool    `json:"de_minimis_expensed,omitempty"`

	BonusAmount         float64 `json:"bonus_amount"`
	BonusPercentApplied float64 `json:"bonus_percent_applied"`

	DepreciableBasis     float64 `json:"depreciable_basis"`
	OrdinaryDepreciation float64 `json:"ordinary_depreciation"`
	TotalYear1Deduction  float64 `json:"total_year1_deduction"`

	RecaptureOrdinaryIncome     float64 `json:"recapture_ordinary_income"`
	UnrecapturedGainReducedRate float64 `json:"unrecaptured_gain_reduced_rate"`
	CapitalGainOrLoss           float64 `json:"capital_gain_or_loss"`

	DerivedNetBookValue float64 `json:"derived_nbv"`
	ReconciliationFlag  bool    `json:"reconciliation_flag,omitempty"`

	ClassifierConfidence float64 `json:"classifier_confidence,omitempty"`

	Warnings []WarningDTO `json:"warnings,omitempty"`
}

// ConventionDTO is the batch-wide convention ruling.
type ConventionDTO struct {
	Global        string         `json:"global"`
	Q4Fraction    float64        `json:"q4_fraction"`
	Quarters      map[string]int `json:"quarters,omitempty"`
	BoundaryExact bool           `json:"boundary_exact,omitempty"`
}

// SummaryDTO is the batch-level totals block.
type SummaryDTO struct {
	TotalExpensing               float64 `json:"total_expensing"`
	TotalExpensingCarryforward   float64 `json:"total_expensing_carryforward"`
	CarryforwardDeducted         float64 `json:"carryforward_deducted"`
	TotalBonus                   float64 `json:"total_bonus"`
	TotalOrdinaryDepreciation    float64 `json:"total_ordinary_depreciation"`
	TotalRecaptureOrdinaryIncome float64 `json:"total_recapture_ordinary_income"`

	GlobalConvention string `json:"global_convention"`

	AssetCount          int  `json:"asset_count"`
	ExcludedCount       int  `json:"excluded_count"`
	WarningCount        int  `json:"warning_count"`
	ReconciliationFlags int  `json:"reconciliation_flags"`
	ExportReady         bool `json:"export_ready"`
}

// BatchDTO is one computation's full output.
type BatchDTO struct {
	RunID      string          `json:"run_id,omitempty"`
	TaxYear    int             `json:"tax_year"`
	Convention ConventionDTO   `json:"convention"`
	Results    []ResultDTO     `json:"results"`
	Excluded   []AssetErrorDTO `json:"excluded,omitempty"`
	Warnings   []WarningDTO    `json:"warnings,omitempty"`
	Summary    SummaryDTO      `json:"summary"`
}

// RunHeaderDTO is a run without its results, for listings.
type RunHeaderDTO struct {
	ID        string `json:"id"`
	TaxYear   int    `json:"tax_year"`
	CreatedAt string `json:"created_at"`

	AssetCount    int  `json:"asset_count"`
	ExcludedCount int  `json:"excluded_count"`
	ExportReady   bool `json:"export_ready"`
}

// RunDTO is a persisted run with its full batch output.
type RunDTO struct {
	ID        string   `json:"id"`
	TaxYear   int      `json:"tax_year"`
	CreatedAt string   `json:"created_at"`
	Batch     BatchDTO `json:"batch"`
}

// BonusRateDTO is one row of the bonus percentage schedule.
type BonusRateDTO struct {
	From    string  `json:"from"`
	Percent float64 `json:"percent"`
}

// TaxYearDTO exposes one tax-year configuration entry.
type TaxYearDTO struct {
	TaxYear int `json:"tax_year"`

	ExpensingDollarLimit       float64 `json:"expensing_dollar_limit"`
	ExpensingPhaseoutThreshold float64 `json:"expensing_phaseout_threshold"`
	HeavyVehicleExpensingLimit float64 `json:"heavy_vehicle_expensing_limit"`
	DeMinimisThreshold         float64 `json:"de_minimis_threshold"`

	VehicleYear1LimitWithBonus    float64 `json:"vehicle_year1_limit_with_bonus"`
	VehicleYear1LimitWithoutBonus float64 `json:"vehicle_year1_limit_without_bonus"`

	BonusSchedule       []BonusRateDTO `json:"bonus_schedule"`
	BonusOverrideCutoff string         `json:"bonus_override_cutoff,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

const dateLayout = "2006-01-02"

// toAssetRecord converts one submitted line into the domain record. Only
// shape errors (unparseable dates) surface here; domain rules run inside
// the engine.
func toAssetRecord(in AssetInput) (macrs.AssetRecord, error) {
	rec := macrs.AssetRecord{
		ID:              macrs.AssetID(in.ID),
		Description:     in.Description,
		TransactionType: macrs.TransactionType(in.TransactionType),
		Cost:            decimal.NewFromFloat(in.Cost),

		RecoveryPeriodYears:  decimal.NewFromFloat(in.RecoveryPeriodYears),
		Method:               macrs.Method(in.Method),
		ConventionHint:       macrs.Convention(in.ConventionHint),
		BonusEligible:        in.BonusEligible,
		QualifiedImprovement: in.QualifiedImprovement,
		PassengerAutomobile:  in.PassengerAutomobile,
		HeavyVehicle:         in.HeavyVehicle,
		HeavyVehicleInferred: in.HeavyVehicleInferred,
		Land:                 in.Land,
		UsedProperty:         in.UsedProperty,

		BusinessUsePercent:           decimal.NewFromFloat(in.BusinessUsePercent),
		ElectedExpensing:             decimal.NewFromFloat(in.ElectedExpensing),
		PriorAccumulatedDepreciation: decimal.NewFromFloat(in.PriorAccumulatedDepreciation),
		DisposalProceeds:             decimal.NewFromFloat(in.DisposalProceeds),

		ClassifierConfidence: in.ClassifierConfidence,
	}

	var err error
	if in.InServiceDate == "" {
		return rec, fmt.Errorf("asset %s: in_service_date is required", in.ID)
	}
	if rec.InServiceDate, err = time.Parse(dateLayout, in.InServiceDate); err != nil {
		return rec, fmt.Errorf("asset %s: in_service_date: %w", in.ID, err)
	}
	if in.AcquisitionDate != "" {
		if rec.AcquisitionDate, err = time.Parse(dateLayout, in.AcquisitionDate); err != nil {
			return rec, fmt.Errorf("asset %s: acquisition_date: %w", in.ID, err)
		}
	}
	if in.DisposalDate != "" {
		d, err := time.Parse(dateLayout, in.DisposalDate)
		if err != nil {
			return rec, fmt.Errorf("asset %s: disposal_date: %w", in.ID, err)
		}
		rec.DisposalDate = &d
	}
	if in.ReportedNetBookValue != nil {
		nbv := decimal.NewFromFloat(*in.ReportedNetBookValue)
		rec.ReportedNetBookValue = &nbv
	}
	return rec, nil
}

func decimalFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func f64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func toWarningDTOs(ws []macrs.Warning) []WarningDTO {
	if len(ws) == 0 {
		return nil
	}
	out := make([]WarningDTO, len(ws))
	for i, w := range ws {
		out[i] = WarningDTO{Code: string(w.Code), AssetID: string(w.AssetID), Message: w.Message}
	}
	return out
}

func toResultDTO(r macrs.DepreciationResult) ResultDTO {
	return ResultDTO{
		AssetID:     string(r.AssetID),
		Description: r.Description,
		Convention:  string(r.Convention),
		Quarter:     r.Quarter,

		ExpensingAmount:                f64(r.ExpensingAmount),
		ExpensingCarryforwardGenerated: f64(r.ExpensingCarryforwardGenerated),
		DeMinimisAmount:                f64(r.DeMinimisAmount),
		DeMinimisExpensed:              r.DeMinimisExpensed,

		BonusAmount:         f64(r.BonusAmount),
		BonusPercentApplied: f64(r.BonusPercentApplied),

		DepreciableBasis:     f64(r.DepreciableBasis),
		OrdinaryDepreciation: f64(r.OrdinaryDepreciation),
		TotalYear1Deduction:  f64(r.TotalYear1Deduction),

		RecaptureOrdinaryIncome:     f64(r.RecaptureOrdinaryIncome),
		UnrecapturedGainReducedRate: f64(r.UnrecapturedGainReducedRate),
		CapitalGainOrLoss:           f64(r.CapitalGainOrLoss),

		DerivedNetBookValue:  f64(r.DerivedNetBookValue),
		ReconciliationFlag:   r.ReconciliationFlag,
		ClassifierConfidence: r.ClassifierConfidence,
		Warnings:             toWarningDTOs(r.Warnings),
	}
}

func toBatchDTO(runID string, b macrs.BatchResult) BatchDTO {
	dto := BatchDTO{
		RunID:   runID,
		TaxYear: b.TaxYear,
		Convention: ConventionDTO{
			Global:        string(b.Convention.Global),
			Q4Fraction:    f64(b.Convention.Q4Fraction),
			BoundaryExact: b.Convention.BoundaryExact,
		},
		Warnings: toWarningDTOs(b.Warnings),
		Summary: SummaryDTO{
			TotalExpensing:               f64(b.Summary.TotalExpensing),
			TotalExpensingCarryforward:   f64(b.Summary.TotalExpensingCarryforward),
			CarryforwardDeducted:         f64(b.Summary.CarryforwardDeducted),
			TotalBonus:                   f64(b.Summary.TotalBonus),
			TotalOrdinaryDepreciation:    f64(b.Summary.TotalOrdinaryDepreciation),
			TotalRecaptureOrdinaryIncome: f64(b.Summary.TotalRecaptureOrdinaryIncome),
			GlobalConvention:             string(b.Summary.GlobalConvention),
			AssetCount:                   b.Summary.AssetCount,
			ExcludedCount:                b.Summary.ExcludedCount,
			WarningCount:                 b.Summary.WarningCount,
			ReconciliationFlags:          b.Summary.ReconciliationFlags,
			ExportReady:                  b.Summary.ExportReady,
		},
	}

	if len(b.Convention.Quarters) > 0 {
		dto.Convention.Quarters = make(map[string]int, len(b.Convention.Quarters))
		for id, q := range b.Convention.Quarters {
			dto.Convention.Quarters[string(id)] = q
		}
	}

	dto.Results = make([]ResultDTO, len(b.Results))
	for i, r := range b.Results {
		dto.Results[i] = toResultDTO(r)
	}
	for _, e := range b.Excluded {
		dto.Excluded = append(dto.Excluded, AssetErrorDTO{
			AssetID: string(e.AssetID),
			Code:    string(e.Err.Code),
			Message: e.Err.Message,
		})
	}
	return dto
}

func toRunHeaderDTO(run macrs.Run) RunHeaderDTO {
	return RunHeaderDTO{
		ID:            run.ID,
		TaxYear:       run.TaxYear,
		CreatedAt:     run.CreatedAt.Format(time.RFC3339),
		AssetCount:    run.Result.Summary.AssetCount,
		ExcludedCount: run.Result.Summary.ExcludedCount,
		ExportReady:   run.Result.Summary.ExportReady,
	}
}

func toRunDTO(run macrs.Run) RunDTO {
	return RunDTO{
		ID:        run.ID,
		TaxYear:   run.TaxYear,
		CreatedAt: run.CreatedAt.Format(time.RFC3339),
		Batch:     toBatchDTO(run.ID, run.Result),
	}
}

func toTaxYearDTO(tc macrs.TaxYearContext) TaxYearDTO {
	dto := TaxYearDTO{
		TaxYear:                       tc.TaxYear,
		ExpensingDollarLimit:          f64(tc.ExpensingDollarLimit),
		ExpensingPhaseoutThreshold:    f64(tc.ExpensingPhaseoutThreshold),
		HeavyVehicleExpensingLimit:    f64(tc.HeavyVehicleExpensingLimit),
		DeMinimisThreshold:            f64(tc.DeMinimisThreshold),
		VehicleYear1LimitWithBonus:    f64(tc.VehicleLimits.WithBonus),
		VehicleYear1LimitWithoutBonus: f64(tc.VehicleLimits.WithoutBonus),
	}
	for _, r := range tc.BonusSchedule {
		dto.BonusSchedule = append(dto.BonusSchedule, BonusRateDTO{
			From:    r.From.Format(dateLayout),
			Percent: f64(r.Percent),
		})
	}
	if tc.BonusOverrideCutoff != nil {
		dto.BonusOverrideCutoff = tc.BonusOverrideCutoff.Format(dateLayout)
	}
	return dto
}
