// Package provider declares the external collaborators an audit depends on
// and ships the implementations that need no network service: a text
// extractor backed by the document store and a structurer for JSON
// structuring output.
package provider

import (
	"context"

	"github.com/gyeh/claimaudit/internal/model"
)

// TextExtractor turns a stored document into plain text (the OCR step).
type TextExtractor interface {
	ExtractText(ctx context.Context, ref model.DocumentRef) (string, error)
}

// Structurer converts extracted text into structured records. A nil record
// with a nil error means the text could not be structured; callers fall back
// to the heuristic parsers.
type Structurer interface {
	StructureBill(ctx context.Context, text string) (*model.Bill, error)
	StructurePolicy(ctx context.Context, text string) (*model.Policy, error)
}

// Citator explains flags, typically by pointing at policy text.
type Citator interface {
	Cite(ctx context.Context, result *model.AuditResult) ([]model.Citation, error)
}

// LetterWriter composes the dispute letter for a finished audit.
type LetterWriter interface {
	WriteLetter(ctx context.Context, result *model.AuditResult) (string, error)
}
