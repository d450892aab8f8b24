package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/warp/depreciation-engine/macrs"
)

// ReadCSV parses a normalized asset ledger from r. The first row must be
// the schema header; every following row becomes one AssetRecord.
func ReadCSV(r io.Reader) ([]macrs.AssetRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // row width is validated per row

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if err := validateHeader(header); err != nil {
		return nil, fmt.Errorf("ledger header: %w", err)
	}

	var records []macrs.AssetRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line++

		rec, err := parseRow(row, line)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadCSVFile opens and parses a CSV ledger file.
func ReadCSVFile(path string) ([]macrs.AssetRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}
