/*
Package ledger reads normalized asset ledgers.

PURPOSE:
  Turns a normalized asset workbook into []macrs.AssetRecord. "Normalized"
  is load-bearing: the readers expect the fixed column set below, in order,
  with a header row naming them. Column detection, fuzzy header matching,
  and multi-sheet combination are the upstream importer's job and are
  deliberately NOT done here.

FORMATS:
  - CSV  (csv.go):  stdlib encoding/csv
  - XLSX (xlsx.go): excelize, first sheet or a named sheet

COLUMN SET:
  id, description, transaction_type, cost, acquisition_date,
  in_service_date, disposal_date, recovery_period, method, convention_hint,
  bonus_eligible, qualified_improvement, passenger_automobile,
  heavy_vehicle, land, used_property, business_use_percent,
  elected_expensing, prior_accumulated_depreciation, disposal_proceeds,
  reported_nbv

  Dates are ISO (2006-01-02); booleans are true/false/1/0/yes/no; empty
  optional cells mean "not present".
*/
package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/depreciation-engine/macrs"
)

// Columns is the normalized schema, in order.
var Columns = []string{
	"id",
	"description",
	"transaction_type",
	"cost",
	"acquisition_date",
	"in_service_date",
	"disposal_date",
	"recovery_period",
	"method",
	"convention_hint",
	"bonus_eligible",
	"qualified_improvement",
	"passenger_automobile",
	"heavy_vehicle",
	"land",
	"used_property",
	"business_use_percent",
	"elected_expensing",
	"prior_accumulated_depreciation",
	"disposal_proceeds",
	"reported_nbv",
}

// RowError reports a row that could not be parsed. Line numbers are
// 1-based and include the header.
type RowError struct {
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d, column %q: %v", e.Line, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// validateHeader checks the header row matches the normalized schema
// exactly. Anything else means the file has not been through the importer.
func validateHeader(header []string) error {
	if len(header) != len(Columns) {
		return fmt.Errorf("expected %d columns, found %d", len(Columns), len(header))
	}
	for i, want := range Columns {
		got := strings.TrimSpace(strings.ToLower(header[i]))
		if got != want {
			return fmt.Errorf("column %d: expected %q, found %q", i+1, want, header[i])
		}
	}
	return nil
}

// =============================================================================
// ROW PARSING
// =============================================================================

// parseRow converts one data row into an AssetRecord. line is for error
// reporting only.
func parseRow(row []string, line int) (macrs.AssetRecord, error) {
	if len(row) < len(Columns) {
		padded := make([]string, len(Columns))
		copy(padded, row)
		row = padded
	}

	cell := func(i int) string { return strings.TrimSpace(row[i]) }
	var rec macrs.AssetRecord
	var err error

	rec.ID = macrs.AssetID(cell(0))
	rec.Description = cell(1)
	rec.TransactionType = macrs.TransactionType(strings.ToLower(cell(2)))

	if rec.Cost, err = parseAmount(cell(3), false); err != nil {
		return rec, &RowError{Line: line, Column: "cost", Err: err}
	}
	if rec.AcquisitionDate, err = parseDate(cell(4), true); err != nil {
		return rec, &RowError{Line: line, Column: "acquisition_date", Err: err}
	}
	if rec.InServiceDate, err = parseDate(cell(5), false); err != nil {
		return rec, &RowError{Line: line, Column: "in_service_date", Err: err}
	}
	if cell(6) != "" {
		d, err := parseDate(cell(6), false)
		if err != nil {
			return rec, &RowError{Line: line, Column: "disposal_date", Err: err}
		}
		rec.DisposalDate = &d
	}
	if rec.RecoveryPeriodYears, err = parseAmount(cell(7), true); err != nil {
		return rec, &RowError{Line: line, Column: "recovery_period", Err: err}
	}
	rec.Method = macrs.Method(strings.ToUpper(cell(8)))
	rec.ConventionHint = macrs.Convention(strings.ToLower(cell(9)))

	bools := []struct {
		col  int
		name string
		dst  *bool
	}{
		{10, "bonus_eligible", &rec.BonusEligible},
		{11, "qualified_improvement", &rec.QualifiedImprovement},
		{12, "passenger_automobile", &rec.PassengerAutomobile},
		{13, "heavy_vehicle", &rec.HeavyVehicle},
		{14, "land", &rec.Land},
		{15, "used_property", &rec.UsedProperty},
	}
	for _, b := range bools {
		v, err := parseBool(cell(b.col))
		if err != nil {
			return rec, &RowError{Line: line, Column: b.name, Err: err}
		}
		*b.dst = v
	}

	if rec.BusinessUsePercent, err = parseAmount(cell(16), true); err != nil {
		return rec, &RowError{Line: line, Column: "business_use_percent", Err: err}
	}
	if rec.ElectedExpensing, err = parseAmount(cell(17), true); err != nil {
		return rec, &RowError{Line: line, Column: "elected_expensing", Err: err}
	}
	if rec.PriorAccumulatedDepreciation, err = parseAmount(cell(18), true); err != nil {
		return rec, &RowError{Line: line, Column: "prior_accumulated_depreciation", Err: err}
	}
	if rec.DisposalProceeds, err = parseAmount(cell(19), true); err != nil {
		return rec, &RowError{Line: line, Column: "disposal_proceeds", Err: err}
	}
	if cell(20) != "" {
		nbv, err := parseAmount(cell(20), false)
		if err != nil {
			return rec, &RowError{Line: line, Column: "reported_nbv", Err: err}
		}
		rec.ReportedNetBookValue = &nbv
	}

	return rec, nil
}

func parseAmount(s string, emptyOK bool) (decimal.Decimal, error) {
	if s == "" {
		if emptyOK {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("required amount is empty")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	return decimal.NewFromString(s)
}

func parseDate(s string, emptyOK bool) (time.Time, error) {
	if s == "" {
		if emptyOK {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("required date is empty")
	}
	return time.Parse("2006-01-02", s)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "false", "0", "no", "n":
		return false, nil
	case "true", "1", "yes", "y":
		return true, nil
	}
	return false, fmt.Errorf("unrecognized boolean %q", s)
}
