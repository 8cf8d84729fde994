package textgraph

import "errors"

var (
	// ErrEmptyText is returned when a generation request carries no text.
	ErrEmptyText = errors.New("textgraph: input text is empty")

	// ErrUnsupportedFormat is returned for unrecognized file formats.
	ErrUnsupportedFormat = errors.New("textgraph: unsupported document format")

	// ErrParsingFailed is returned when text extraction from a file fails.
	ErrParsingFailed = errors.New("textgraph: parsing failed")

	// ErrExtractionFailed is returned when the LLM graph extraction fails.
	ErrExtractionFailed = errors.New("textgraph: graph extraction failed")

	// ErrGraphNotFound is returned when a saved graph ID does not exist.
	ErrGraphNotFound = errors.New("textgraph: graph not found")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("textgraph: invalid configuration")
)
