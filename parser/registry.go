package parser

import "fmt"

// Registry maps file extensions to parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry returns a registry with all built-in parsers registered.
func NewRegistry() *Registry {
	r := &Registry{parsers: make(map[string]Parser)}
	for _, p := range []Parser{
		&TextParser{},
		&CSVParser{},
		&PDFParser{},
		&DOCXParser{},
		&PPTXParser{},
		&XLSXParser{},
	} {
		for _, f := range p.SupportedFormats() {
			r.parsers[f] = p
		}
	}
	return r
}

// Get returns the parser for a format (lowercase extension without dot).
func (r *Registry) Get(format string) (Parser, error) {
	p, ok := r.parsers[format]
	if !ok {
		return nil, fmt.Errorf("no parser for format: %s", format)
	}
	return p, nil
}

// Register adds or replaces the parser for a format.
func (r *Registry) Register(format string, p Parser) {
	r.parsers[format] = p
}

// Formats lists all registered formats.
func (r *Registry) Formats() []string {
	formats := make([]string, 0, len(r.parsers))
	for f := range r.parsers {
		formats = append(formats, f)
	}
	return formats
}
