/*
defaults.go - Built-in statutory constants

The inflation-adjusted dollar figures published for each year. These are the
fallback when no external table file is supplied; a loaded file replaces any
year it names wholesale.

The bonus phase-down schedule (80/60/40/20) applies by in-service date; the
100% override applies to property acquired on or after 2025-01-20.
*/
package taxyear

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/depreciation-engine/macrs"
)

func d(v string) decimal.Decimal { return macrs.MustDecimal(v) }

func date(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// standardBonusSchedule is the phase-down by in-service date.
func standardBonusSchedule() []macrs.BonusRate {
	return []macrs.BonusRate{
		{From: date(2022, time.January, 1), Percent: d("100")},
		{From: date(2023, time.January, 1), Percent: d("80")},
		{From: date(2024, time.January, 1), Percent: d("60")},
		{From: date(2025, time.January, 1), Percent: d("40")},
		{From: date(2026, time.January, 1), Percent: d("20")},
	}
}

func builtinDefaults() map[int]macrs.TaxYearContext {
	overrideCutoff := date(2025, time.January, 20)

	years := map[int]macrs.TaxYearContext{
		2022: {
			TaxYear:                    2022,
			ExpensingDollarLimit:       d("1080000"),
			ExpensingPhaseoutThreshold: d("2700000"),
			HeavyVehicleExpensingLimit: d("27000"),
			DeMinimisThreshold:         d("2500"),
			VehicleLimits: macrs.VehicleYear1Limits{
				WithBonus:    d("19200"),
				WithoutBonus: d("11200"),
			},
		},
		2023: {
			TaxYear:                    2023,
			ExpensingDollarLimit:       d("1160000"),
			ExpensingPhaseoutThreshold: d("2890000"),
			HeavyVehicleExpensingLimit: d("28900"),
			DeMinimisThreshold:         d("2500"),
			VehicleLimits: macrs.VehicleYear1Limits{
				WithBonus:    d("20200"),
				WithoutBonus: d("12200"),
			},
		},
		2024: {
			TaxYear:                    2024,
			ExpensingDollarLimit:       d("1220000"),
			ExpensingPhaseoutThreshold: d("3050000"),
			HeavyVehicleExpensingLimit: d("30500"),
			DeMinimisThreshold:         d("2500"),
			VehicleLimits: macrs.VehicleYear1Limits{
				WithBonus:    d("20400"),
				WithoutBonus: d("12400"),
			},
		},
		2025: {
			TaxYear:                    2025,
			ExpensingDollarLimit:       d("2500000"),
			ExpensingPhaseoutThreshold: d("4000000"),
			HeavyVehicleExpensingLimit: d("31300"),
			DeMinimisThreshold:         d("2500"),
			VehicleLimits: macrs.VehicleYear1Limits{
				WithBonus:    d("20200"),
				WithoutBonus: d("12200"),
			},
		},
		2026: {
			TaxYear:                    2026,
			ExpensingDollarLimit:       d("2560000"),
			ExpensingPhaseoutThreshold: d("4090000"),
			HeavyVehicleExpensingLimit: d("32000"),
			DeMinimisThreshold:         d("2500"),
			VehicleLimits: macrs.VehicleYear1Limits{
				WithBonus:    d("20400"),
				WithoutBonus: d("12400"),
			},
		},
	}

	for year, tc := range years {
		tc.BonusSchedule = standardBonusSchedule()
		if year >= 2025 {
			cutoff := overrideCutoff
			tc.BonusOverrideCutoff = &cutoff
		}
		years[year] = tc
	}
	return years
}
