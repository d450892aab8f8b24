package macrs

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CALENDAR HELPERS - Quarters and convention fractions
// =============================================================================

// QuarterOf returns the calendar quarter (1-4) of a date.
func QuarterOf(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

var four = decimal.NewFromInt(4)
var twelve = decimal.NewFromInt(12)

// firstYearFraction is the portion of the first year an asset is treated as
// in service under a convention.
//
//	half-year:   1/2 regardless of timing
//	mid-quarter: (4 - q + 0.5) / 4 for in-service quarter q
//	mid-month:   (12 - m + 0.5) / 12 for in-service month m
func firstYearFraction(conv Convention, quarter int, month time.Month) decimal.Decimal {
	switch conv {
	case ConventionMidQuarter:
		q := decimal.NewFromInt(int64(quarter))
		return decimal.NewFromFloat(4.5).Sub(q).Div(four)
	case ConventionMidMonth:
		m := decimal.NewFromInt(int64(month))
		return decimal.NewFromFloat(12.5).Sub(m).Div(twelve)
	default:
		return decimal.NewFromFloat(0.5)
	}
}

// disposalYearFraction is the portion of the disposal year an asset is
// treated as in service. Disposed assets always receive this fraction of
// their table-year depreciation - never zero.
//
//	half-year:   1/2
//	mid-quarter: (q - 0.5) / 4 for disposal quarter q
//	mid-month:   (m - 0.5) / 12 for disposal month m
func disposalYearFraction(conv Convention, quarter int, month time.Month) decimal.Decimal {
	switch conv {
	case ConventionMidQuarter:
		q := decimal.NewFromInt(int64(quarter))
		return q.Sub(decimal.NewFromFloat(0.5)).Div(four)
	case ConventionMidMonth:
		m := decimal.NewFromInt(int64(month))
		return m.Sub(decimal.NewFromFloat(0.5)).Div(twelve)
	default:
		return decimal.NewFromFloat(0.5)
	}
}

// recoveryYearIndex returns which table year a tax year is for an asset
// placed in service in inServiceYear (1-based).
func recoveryYearIndex(taxYear, inServiceYear int) int {
	return taxYear - inServiceYear + 1
}
