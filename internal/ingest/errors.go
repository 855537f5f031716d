package ingest

import "errors"

var (
	// ErrExtraction means a document produced no usable text.
	ErrExtraction = errors.New("extraction failed")
	// ErrStructuring means neither the structurer nor the fallback parser
	// produced a minimal record.
	ErrStructuring = errors.New("structuring failed")
)
