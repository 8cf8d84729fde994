package parser

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// TextParser handles plain text (.txt) and markdown (.md) files.
// Units are lines.
type TextParser struct{}

func (p *TextParser) SupportedFormats() []string { return []string{"txt", "md"} }

func (p *TextParser) Parse(ctx context.Context, path string, opts Options) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading text file: %w", err)
	}

	if opts.SkipStart == 0 && opts.SkipEnd == 0 {
		return string(data), nil
	}

	// A trailing newline is a line terminator, not an extra empty line;
	// without the trim, SkipEnd would consume a phantom unit instead of
	// the last real line.
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	kept, err := selectUnits(lines, opts, "line")
	if err != nil {
		return "", err
	}
	return strings.Join(kept, "\n"), nil
}
