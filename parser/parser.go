// Package parser extracts plain text from input documents so it can be fed
// to graph extraction. Each format has a natural unit (pdf pages, docx
// paragraphs, pptx slides, csv rows, text lines) and a number of units can
// be skipped from either end, which is useful for dropping covers, tables
// of contents and appendices.
package parser

import (
	"context"
	"fmt"
)

// Options controls which units of a document are kept.
type Options struct {
	SkipStart int // units to skip from the beginning
	SkipEnd   int // units to skip from the end
}

// Parser extracts text from a specific document format.
type Parser interface {
	Parse(ctx context.Context, path string, opts Options) (string, error)
	SupportedFormats() []string
}

// selectUnits applies skip options to a document's units. It errors when
// the requested range leaves nothing, for every format alike.
func selectUnits(units []string, opts Options, unit string) ([]string, error) {
	if opts.SkipStart < 0 || opts.SkipEnd < 0 {
		return nil, fmt.Errorf("negative skip counts")
	}
	start := opts.SkipStart
	end := len(units) - opts.SkipEnd
	if start >= end {
		return nil, fmt.Errorf("invalid %s range: skipping %d+%d of %d", unit, opts.SkipStart, opts.SkipEnd, len(units))
	}
	return units[start:end], nil
}
