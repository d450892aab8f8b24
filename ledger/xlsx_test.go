package ledger_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/depreciation-engine/ledger"
	"github.com/warp/depreciation-engine/macrs"
)

// writeWorkbook builds a one-sheet workbook with the given rows, returning
// its path.
func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "ledger.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func headerRow() []any {
	row := make([]any, len(ledger.Columns))
	for i, c := range ledger.Columns {
		row[i] = c
	}
	return row
}

func TestReadXLSX_ParsesRowsAndSkipsBlanks(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		headerRow(),
		{"a-1", "Laptop", "addition", "1200", "", "2023-03-01", "", "5", "200DB", "",
			"true", "", "", "", "", "", "", "", "", "", ""},
		{"", "", "", "", "", "", "", "", "", "", "", "", "", "", "", "", "", "", "", "", ""},
		{"a-2", "Desk", "addition", "800", "", "2023-04-01", "", "7", "200DB", "",
			"", "", "", "", "", "", "", "", "", "", ""},
	})

	records, err := ledger.ReadXLSX(path, "")
	require.NoError(t, err)

	require.Len(t, records, 2, "blank rows are skipped")
	assert.Equal(t, macrs.AssetID("a-1"), records[0].ID)
	assert.True(t, records[0].Cost.Equal(macrs.MustDecimal("1200")))
	assert.True(t, records[0].BonusEligible)
	assert.Equal(t, macrs.AssetID("a-2"), records[1].ID)
	assert.True(t, records[1].RecoveryPeriodYears.Equal(macrs.MustDecimal("7")))
}

func TestReadXLSX_RejectsWrongHeader(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"asset", "cost"},
		{"a-1", "100"},
	})

	_, err := ledger.ReadXLSX(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger header")
}

func TestReadXLSX_UnknownSheet(t *testing.T) {
	path := writeWorkbook(t, [][]any{headerRow()})

	_, err := ledger.ReadXLSX(path, "NoSuchSheet")
	assert.Error(t, err)
}
