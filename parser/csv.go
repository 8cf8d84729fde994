package parser

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// CSVParser handles .csv files. Units are rows; cells within a row are
// joined by single spaces so the text reads as prose for extraction.
type CSVParser struct{}

func (p *CSVParser) SupportedFormats() []string { return []string{"csv"} }

func (p *CSVParser) Parse(ctx context.Context, path string, opts Options) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening CSV: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // tolerate ragged rows
	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("reading CSV: %w", err)
	}

	rows := make([]string, len(records))
	for i, rec := range records {
		rows[i] = strings.Join(rec, " ")
	}

	kept, err := selectUnits(rows, opts, "row")
	if err != nil {
		return "", err
	}
	return strings.Join(kept, "\n"), nil
}
