/*
engine_test.go - Executable specifications for the computation pipeline

PURPOSE:
  These tests document the engine's batch-level behavior end to end:
  the elective-deduction ordering, the mid-quarter coupling, the vehicle
  cap, the disposal partial year, partial failure, and determinism.

READING THESE TESTS:
  Each test has:
  - A descriptive name that states the behavior
  - GIVEN/WHEN/THEN comments explaining the scenario
  - Clear assertions with explanatory messages
*/
package macrs_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/depreciation-engine/macrs"
)

// =============================================================================
// TEST INFRASTRUCTURE
// =============================================================================

func dec(s string) decimal.Decimal { return macrs.MustDecimal(s) }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// newAddition builds a plain 5-year 200DB current-year addition with no
// elections and no bonus eligibility.
func newAddition(id, cost string, inService time.Time) macrs.AssetRecord {
	return macrs.AssetRecord{
		ID:                  macrs.AssetID(id),
		Description:         "test asset " + id,
		Cost:                dec(cost),
		InServiceDate:       inService,
		TransactionType:     macrs.TxAddition,
		RecoveryPeriodYears: dec("5"),
		Method:              macrs.MethodDB200,
	}
}

// taxYear2023 carries the 2023 statutory constants with no income ceiling
// and no carryforward.
func taxYear2023() macrs.TaxYearContext {
	return macrs.TaxYearContext{
		TaxYear:                    2023,
		ExpensingDollarLimit:       dec("1160000"),
		ExpensingPhaseoutThreshold: dec("2890000"),
		HeavyVehicleExpensingLimit: dec("28900"),
		DeMinimisThreshold:         dec("2500"),
		VehicleLimits: macrs.VehicleYear1Limits{
			WithBonus:    dec("20200"),
			WithoutBonus: dec("12200"),
		},
		BonusSchedule: []macrs.BonusRate{
			{From: day(2022, time.January, 1), Percent: dec("100")},
			{From: day(2023, time.January, 1), Percent: dec("80")},
			{From: day(2024, time.January, 1), Percent: dec("60")},
		},
	}
}

func resultFor(t *testing.T, batch *macrs.BatchResult, id string) macrs.DepreciationResult {
	t.Helper()
	for _, r := range batch.Results {
		if r.AssetID == macrs.AssetID(id) {
			return r
		}
	}
	t.Fatalf("no result for asset %s", id)
	return macrs.DepreciationResult{}
}

func equalDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "want %s, got %s %v", want, got, msgAndArgs)
}

// =============================================================================
// ELECTIVE DEDUCTION ORDERING
// =============================================================================

func TestCompute_ExpensingThenBonusThenOrdinary(t *testing.T) {
	// GIVEN: A single 50,000 addition electing 25,000 of expensing, with
	//        an 80% bonus year
	// WHEN: The batch computes
	// THEN: Bonus applies to the post-expensing basis (25,000 * 80% =
	//       20,000), ordinary depreciation to the remaining 5,000, and the
	//       total first-year deduction never exceeds cost

	asset := newAddition("a-1", "50000", day(2023, time.July, 1))
	asset.BonusEligible = true
	asset.ElectedExpensing = dec("25000")

	batch, err := macrs.Compute([]macrs.AssetRecord{asset}, taxYear2023(), macrs.Options{})
	require.NoError(t, err)

	r := resultFor(t, batch, "a-1")
	equalDec(t, "25000", r.ExpensingAmount, "expensing")
	equalDec(t, "20000", r.BonusAmount, "bonus on post-expensing basis")
	equalDec(t, "80", r.BonusPercentApplied)
	equalDec(t, "5000", r.DepreciableBasis)

	// Single Q3 addition: half-year, 5-year 200DB year 1 = 20%
	assert.Equal(t, macrs.ConventionHalfYear, r.Convention)
	equalDec(t, "1000", r.OrdinaryDepreciation)
	equalDec(t, "46000", r.TotalYear1Deduction)

	assert.True(t, r.TotalYear1Deduction.LessThanOrEqual(asset.Cost),
		"first-year deduction must never exceed cost")
	assert.True(t, batch.Summary.ExportReady)
}

func TestCompute_ElectionExceedingCost_ExcludesAssetOnly(t *testing.T) {
	// GIVEN: One asset electing more expensing than it cost, one clean asset
	// WHEN: The batch computes
	// THEN: Only the offending asset is excluded; the rest still computes

	bad := newAddition("a-bad", "10000", day(2023, time.March, 1))
	bad.ElectedExpensing = dec("15000")
	good := newAddition("a-good", "10000", day(2023, time.March, 1))

	batch, err := macrs.Compute([]macrs.AssetRecord{bad, good}, taxYear2023(), macrs.Options{})
	require.NoError(t, err)

	require.Len(t, batch.Excluded, 1)
	assert.Equal(t, macrs.AssetID("a-bad"), batch.Excluded[0].AssetID)
	assert.Equal(t, macrs.ValidationElectionExceedsCost, batch.Excluded[0].Err.Code)

	require.Len(t, batch.Results, 1)
	equalDec(t, "2000", resultFor(t, batch, "a-good").OrdinaryDepreciation)
	assert.False(t, batch.Summary.ExportReady, "excluded assets block export")
}

// =============================================================================
// MID-QUARTER COUPLING
// =============================================================================

func TestCompute_Q4ShareTriggersMidQuarterForWholeBatch(t *testing.T) {
	// GIVEN: Four additions with 45% of cost in Q4
	// WHEN: The batch computes
	// THEN: Every addition uses mid-quarter with its own quarter's rate

	assets := []macrs.AssetRecord{
		newAddition("a-q1", "25000", day(2023, time.February, 10)),
		newAddition("a-q2", "20000", day(2023, time.May, 1)),
		newAddition("a-q3", "10000", day(2023, time.August, 20)),
		newAddition("a-q4", "45000", day(2023, time.November, 5)),
	}

	batch, err := macrs.Compute(assets, taxYear2023(), macrs.Options{})
	require.NoError(t, err)

	assert.Equal(t, macrs.ConventionMidQuarter, batch.Convention.Global)
	equalDec(t, "45", batch.Convention.Q4Fraction)

	q1 := resultFor(t, batch, "a-q1")
	assert.Equal(t, macrs.ConventionMidQuarter, q1.Convention)
	assert.Equal(t, 1, q1.Quarter)
	equalDec(t, "8750", q1.OrdinaryDepreciation, "Q1 year-1 rate is 35%")

	q4 := resultFor(t, batch, "a-q4")
	assert.Equal(t, 4, q4.Quarter)
	equalDec(t, "2250", q4.OrdinaryDepreciation, "Q4 year-1 rate is 5%")
}

func TestCompute_RealPropertyExcludedFromMidQuarterTest(t *testing.T) {
	// GIVEN: A large Q4 building and a small Q1 machine
	// WHEN: The batch computes
	// THEN: The building neither enters the test nor takes mid-quarter;
	//       the machine stays half-year

	building := macrs.AssetRecord{
		ID:                  "b-1",
		Cost:                dec("900000"),
		InServiceDate:       day(2023, time.November, 1),
		TransactionType:     macrs.TxAddition,
		RecoveryPeriodYears: dec("39"),
		Method:              macrs.MethodSL,
	}
	machine := newAddition("m-1", "10000", day(2023, time.February, 1))

	batch, err := macrs.Compute([]macrs.AssetRecord{building, machine}, taxYear2023(), macrs.Options{})
	require.NoError(t, err)

	assert.Equal(t, macrs.ConventionHalfYear, batch.Convention.Global)
	assert.Equal(t, macrs.ConventionMidMonth, resultFor(t, batch, "b-1").Convention)
	assert.Equal(t, macrs.ConventionHalfYear, resultFor(t, batch, "m-1").Convention)
}

// =============================================================================
// PASSENGER VEHICLE CAP
// =============================================================================

func TestCompute_VehicleCap_TrimBonusFirst(t *testing.T) {
	// GIVEN: A 50,000 automobile with tentative expensing 25,000, bonus
	//        20,000, ordinary 1,000 against a 20,200 year-1 ceiling
	// WHEN: The batch computes with the default trim order
	// THEN: The three components together total exactly 20,200, keeping
	//       expensing preferentially

	car := newAddition("car-1", "50000", day(2023, time.July, 1))
	car.BonusEligible = true
	car.PassengerAutomobile = true
	car.ElectedExpensing = dec("25000")

	batch, err := macrs.Compute([]macrs.AssetRecord{car}, taxYear2023(), macrs.Options{})
	require.NoError(t, err)

	r := resultFor(t, batch, "car-1")
	equalDec(t, "20200", r.ExpensingAmount)
	equalDec(t, "0", r.BonusAmount)
	equalDec(t, "0", r.BonusPercentApplied, "trimmed-to-zero bonus reports no percentage")
	equalDec(t, "0", r.OrdinaryDepreciation)
	equalDec(t, "20200", r.TotalYear1Deduction, "cap total must be exact")
	equalDec(t, "29800", r.DepreciableBasis, "disallowed amounts stay in basis")
}

func TestCompute_VehicleCap_TrimExpensingFirst(t *testing.T) {
	// GIVEN: The same automobile
	// WHEN: The batch computes with expensing trimmed first
	// THEN: Bonus is kept preferentially; the total still equals 20,200

	car := newAddition("car-1", "50000", day(2023, time.July, 1))
	car.BonusEligible = true
	car.PassengerAutomobile = true
	car.ElectedExpensing = dec("25000")

	batch, err := macrs.Compute([]macrs.AssetRecord{car}, taxYear2023(),
		macrs.Options{VehicleTrimOrder: macrs.TrimExpensingFirst})
	require.NoError(t, err)

	r := resultFor(t, batch, "car-1")
	equalDec(t, "20000", r.BonusAmount)
	equalDec(t, "200", r.ExpensingAmount)
	equalDec(t, "0", r.OrdinaryDepreciation)
	equalDec(t, "20200", r.TotalYear1Deduction)
	equalDec(t, "29800", r.DepreciableBasis)
}

func TestCompute_HeavyVehicleExemptFromCap(t *testing.T) {
	// GIVEN: A qualifying heavy vehicle costing 60,000 electing 40,000
	// WHEN: The batch computes
	// THEN: The automobile ceiling does not apply, but expensing is held
	//       to the heavy-vehicle sub-limit with no carryforward of the
	//       disallowed portion

	suv := newAddition("suv-1", "60000", day(2023, time.July, 1))
	suv.PassengerAutomobile = true
	suv.HeavyVehicle = true
	suv.ElectedExpensing = dec("40000")

	batch, err := macrs.Compute([]macrs.AssetRecord{suv}, taxYear2023(), macrs.Options{})
	require.NoError(t, err)

	r := resultFor(t, batch, "suv-1")
	equalDec(t, "28900", r.ExpensingAmount, "sub-limit applies")
	equalDec(t, "0", r.ExpensingCarryforwardGenerated,
		"over-sub-limit portion is not carryforward")
	// Remaining basis 31,100 at the year-1 half-year rate of 20%
	equalDec(t, "6220", r.OrdinaryDepreciation)
	assert.True(t, r.TotalYear1Deduction.GreaterThan(dec("20200")),
		"heavy vehicle is not held to the automobile ceiling")
}

// =============================================================================
// DISPOSALS AND RECAPTURE
// =============================================================================

func TestCompute_DisposalTakesPartialYearNeverZero(t *testing.T) {
	// GIVEN: A 10,000 asset with 6,000 accumulated, disposed mid-year
	//        under half-year, whose full table year implies 1,000
	// WHEN: The batch computes
	// THEN: The disposal year takes exactly half the table amount (500),
	//       and recapture ordinary income is capped at depreciation claimed

	disposed := macrs.AssetRecord{
		ID:                           "d-1",
		Cost:                         dec("10000"),
		InServiceDate:                day(2021, time.May, 10),
		TransactionType:              macrs.TxDisposal,
		RecoveryPeriodYears:          dec("10"),
		Method:                       macrs.MethodSL,
		ConventionHint:               macrs.ConventionHalfYear,
		PriorAccumulatedDepreciation: dec("6000"),
		DisposalProceeds:             dec("8000"),
	}
	d := day(2023, time.June, 15)
	disposed.DisposalDate = &d

	batch, err := macrs.Compute([]macrs.AssetRecord{disposed}, taxYear2023(), macrs.Options{})
	require.NoError(t, err)

	r := resultFor(t, batch, "d-1")
	equalDec(t, "500", r.OrdinaryDepreciation, "half of the 1,000 table year")

	// Claimed = 6,000 + 500; basis = 3,500; gain = 4,500, all ordinary
	equalDec(t, "4500", r.RecaptureOrdinaryIncome)
	equalDec(t, "0", r.CapitalGainOrLoss)
	assert.True(t, r.RecaptureOrdinaryIncome.LessThanOrEqual(dec("6500")),
		"recapture can never exceed depreciation claimed")
}

func TestCompute_SameYearInAndOut_NoRecoveryDeduction(t *testing.T) {
	// GIVEN: An asset placed in service and disposed within the tax year
	// WHEN: The batch computes
	// THEN: No recovery deduction arises for it

	flip := newAddition("f-1", "10000", day(2023, time.February, 1))
	flip.TransactionType = macrs.TxDisposal
	d := day(2023, time.September, 1)
	flip.DisposalDate = &d
	flip.DisposalProceeds = dec("9000")
	flip.ConventionHint = macrs.ConventionHalfYear

	batch, err := macrs.Compute([]macrs.AssetRecord{flip}, taxYear2023(), macrs.Options{})
	require.NoError(t, err)

	equalDec(t, "0", resultFor(t, batch, "f-1").OrdinaryDepreciation)
}

// =============================================================================
// DE MINIMIS, LAND, TRANSFERS
// =============================================================================

func TestCompute_DeMinimisAddition_FullyDeductedOutsideExpensing(t *testing.T) {
	// GIVEN: An 1,800 addition under the 2,500 de-minimis threshold
	// WHEN: The batch computes
	// THEN: The full cost deducts immediately, consumes none of the
	//       expensing limit, and carries an explanatory warning

	small := newAddition("s-1", "1800", day(2023, time.April, 1))

	batch, err := macrs.Compute([]macrs.AssetRecord{small}, taxYear2023(), macrs.Options{})
	require.NoError(t, err)

	r := resultFor(t, batch, "s-1")
	assert.True(t, r.DeMinimisExpensed)
	equalDec(t, "1800", r.DeMinimisAmount)
	equalDec(t, "0", r.ExpensingAmount, "de-minimis never consumes the limit")
	equalDec(t, "0", r.OrdinaryDepreciation)
	equalDec(t, "1800", r.TotalYear1Deduction)
	equalDec(t, "0", r.DerivedNetBookValue, "fully deducted")

	require.NotEmpty(t, r.Warnings)
	assert.Equal(t, macrs.WarnDeMinimisExpensed, r.Warnings[0].Code)
	equalDec(t, "0", batch.Summary.TotalExpensing)
}

func TestCompute_LandAndTransfers_NoDeduction(t *testing.T) {
	land := macrs.AssetRecord{
		ID:              "l-1",
		Cost:            dec("100000"),
		InServiceDate:   day(2023, time.March, 1),
		TransactionType: macrs.TxAddition,
		Land:            true,
	}
	transfer := newAddition("t-1", "5000", day(2022, time.March, 1))
	transfer.TransactionType = macrs.TxTransfer

	batch, err := macrs.Compute([]macrs.AssetRecord{land, transfer}, taxYear2023(), macrs.Options{})
	require.NoError(t, err)

	for _, id := range []string{"l-1", "t-1"} {
		r := resultFor(t, batch, id)
		equalDec(t, "0", r.TotalYear1Deduction, id)
	}
	equalDec(t, "100000", resultFor(t, batch, "l-1").DerivedNetBookValue)
}

func TestCompute_ZeroCostAddition_WarnsButComputes(t *testing.T) {
	zero := newAddition("z-1", "0", day(2023, time.March, 1))

	batch, err := macrs.Compute([]macrs.AssetRecord{zero}, taxYear2023(), macrs.Options{})
	require.NoError(t, err)

	r := resultFor(t, batch, "z-1")
	require.NotEmpty(t, r.Warnings)
	assert.Equal(t, macrs.WarnZeroCostAddition, r.Warnings[0].Code)
	equalDec(t, "0", r.TotalYear1Deduction)
	assert.True(t, batch.Summary.ExportReady, "warnings alone never block export")
}

// =============================================================================
// RECONCILIATION
// =============================================================================

func TestCompute_NBVMismatchBeyondTolerance_Flagged(t *testing.T) {
	// GIVEN: An existing asset whose reported NBV is 2,120 off
	// WHEN: The batch computes
	// THEN: The derived NBV stands, and the asset is flagged for review

	existing := macrs.AssetRecord{
		ID:                           "e-1",
		Cost:                         dec("10000"),
		InServiceDate:                day(2021, time.June, 1),
		TransactionType:              macrs.TxExisting,
		RecoveryPeriodYears:          dec("5"),
		Method:                       macrs.MethodDB200,
		ConventionHint:               macrs.ConventionHalfYear,
		PriorAccumulatedDepreciation: dec("5200"),
	}
	reported := dec("5000")
	existing.ReportedNetBookValue = &reported

	batch, err := macrs.Compute([]macrs.AssetRecord{existing}, taxYear2023(), macrs.Options{})
	require.NoError(t, err)

	r := resultFor(t, batch, "e-1")
	// Year 3 of 5-year 200DB: 19.2% of cost = 1,920
	equalDec(t, "1920", r.OrdinaryDepreciation)
	equalDec(t, "2880", r.DerivedNetBookValue)
	assert.True(t, r.ReconciliationFlag)
	assert.Equal(t, 1, batch.Summary.ReconciliationFlags)
}

func TestCompute_ExistingAssetWithoutHint_DefaultsHalfYearWithWarning(t *testing.T) {
	existing := macrs.AssetRecord{
		ID:                           "e-2",
		Cost:                         dec("10000"),
		InServiceDate:                day(2022, time.June, 1),
		TransactionType:              macrs.TxExisting,
		RecoveryPeriodYears:          dec("5"),
		Method:                       macrs.MethodDB200,
		PriorAccumulatedDepreciation: dec("2000"),
	}

	batch, err := macrs.Compute([]macrs.AssetRecord{existing}, taxYear2023(), macrs.Options{})
	require.NoError(t, err)

	r := resultFor(t, batch, "e-2")
	assert.Equal(t, macrs.ConventionHalfYear, r.Convention)
	require.NotEmpty(t, r.Warnings)
	assert.Equal(t, macrs.WarnDefaultedConvention, r.Warnings[0].Code)
}

// =============================================================================
// DETERMINISM AND FAIL-CLOSED CONFIGURATION
// =============================================================================

func TestCompute_IdenticalInputsProduceIdenticalResults(t *testing.T) {
	assets := []macrs.AssetRecord{
		newAddition("a-q1", "25000", day(2023, time.February, 10)),
		newAddition("a-q4", "45000", day(2023, time.November, 5)),
	}
	assets[0].ElectedExpensing = dec("10000")

	first, err := macrs.Compute(assets, taxYear2023(), macrs.Options{})
	require.NoError(t, err)
	second, err := macrs.Compute(assets, taxYear2023(), macrs.Options{})
	require.NoError(t, err)

	assert.Equal(t, first, second, "recomputation must be byte-identical")
}

func TestCompute_BrokenConfiguration_AbortsWholeBatch(t *testing.T) {
	// GIVEN: A phaseout threshold below the dollar limit
	// WHEN: The batch computes
	// THEN: Nothing computes at all; the failure is a configuration error

	tc := taxYear2023()
	tc.ExpensingPhaseoutThreshold = dec("1000")

	batch, err := macrs.Compute([]macrs.AssetRecord{newAddition("a-1", "100", day(2023, time.March, 1))}, tc, macrs.Options{})
	assert.Nil(t, batch)
	require.Error(t, err)
	assert.True(t, macrs.IsConfiguration(err))
}
