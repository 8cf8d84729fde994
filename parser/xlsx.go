package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXParser handles .xlsx files. Units are rows, flattened across sheets
// in sheet order; each sheet contributes its name as a leading unit.
type XLSXParser struct{}

func (p *XLSXParser) SupportedFormats() []string { return []string{"xlsx"} }

func (p *XLSXParser) Parse(ctx context.Context, path string, opts Options) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("opening XLSX: %w", err)
	}
	defer f.Close()

	var units []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		units = append(units, sheet)
		for _, row := range rows {
			units = append(units, strings.Join(row, " "))
		}
	}
	if len(units) == 0 {
		return "", fmt.Errorf("no data found in XLSX")
	}

	kept, err := selectUnits(units, opts, "row")
	if err != nil {
		return "", err
	}
	return strings.Join(kept, "\n"), nil
}
