package ledger

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/warp/depreciation-engine/macrs"
)

// ReadXLSX parses a normalized asset ledger from a workbook. When sheet is
// empty, the first sheet is used. The sheet's first row must be the schema
// header - combining multiple sheets is the upstream importer's job.
func ReadXLSX(path, sheet string) ([]macrs.AssetRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	if err := validateHeader(rows[0]); err != nil {
		return nil, fmt.Errorf("ledger header: %w", err)
	}

	var records []macrs.AssetRecord
	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		rec, err := parseRow(row, i+2)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
