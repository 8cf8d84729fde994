package parser

import (
	"context"
	"testing"
)

func TestCSVParser(t *testing.T) {
	path := writeTempFile(t, "data.csv", "name,role\nMarie Curie,physicist\nPierre Curie,physicist\n")
	p := &CSVParser{}

	got, err := p.Parse(context.Background(), path, Options{})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := "name role\nMarie Curie physicist\nPierre Curie physicist"
	if got != want {
		t.Errorf("Parse() = %q, want %q", got, want)
	}
}

func TestCSVParserSkipHeaderRow(t *testing.T) {
	path := writeTempFile(t, "data.csv", "name,role\nMarie Curie,physicist\n")
	p := &CSVParser{}

	got, err := p.Parse(context.Background(), path, Options{SkipStart: 1})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got != "Marie Curie physicist" {
		t.Errorf("Parse() = %q, want data row only", got)
	}
}

func TestCSVParserRaggedRows(t *testing.T) {
	path := writeTempFile(t, "data.csv", "a,b,c\nd,e\n")
	p := &CSVParser{}

	got, err := p.Parse(context.Background(), path, Options{})
	if err != nil {
		t.Fatalf("Parse() error = %v (ragged rows should be tolerated)", err)
	}
	if got != "a b c\nd e" {
		t.Errorf("Parse() = %q", got)
	}
}
