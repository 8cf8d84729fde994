package parser

import (
	"context"
	"testing"
)

func TestRegistryKnownFormats(t *testing.T) {
	r := NewRegistry()
	for _, format := range []string{"txt", "md", "csv", "pdf", "docx", "pptx", "xlsx"} {
		if _, err := r.Get(format); err != nil {
			t.Errorf("Get(%q) error = %v, want registered parser", format, err)
		}
	}
}

func TestRegistryUnknownFormat(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Get("epub"); err == nil {
		t.Fatal("expected error for unregistered format, got nil")
	}
}

type stubParser struct{}

func (stubParser) Parse(ctx context.Context, path string, opts Options) (string, error) {
	return "stub", nil
}
func (stubParser) SupportedFormats() []string { return []string{"stub"} }

func TestRegistryRegisterOverride(t *testing.T) {
	r := NewRegistry()
	r.Register("txt", stubParser{})

	p, err := r.Get("txt")
	if err != nil {
		t.Fatalf("Get(txt) error = %v", err)
	}
	if _, ok := p.(stubParser); !ok {
		t.Errorf("Get(txt) = %T, want stubParser override", p)
	}
}
