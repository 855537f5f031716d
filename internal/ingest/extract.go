package ingest

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/provider"
)

// DefaultMinTextLen is the shortest extracted text accepted as a document.
const DefaultMinTextLen = 50

// Texts holds the extracted text of both documents.
type Texts struct {
	Bill   string
	Policy string
}

// Extract reads both documents concurrently. Text shorter than minLen
// characters (after trimming) is an extraction failure, never an empty but
// valid document.
func Extract(ctx context.Context, ext provider.TextExtractor, docs model.Documents, minLen int) (Texts, error) {
	if !docs.Complete() {
		return Texts{}, fmt.Errorf("%w: both documents are required", ErrExtraction)
	}
	if minLen <= 0 {
		minLen = DefaultMinTextLen
	}

	var out Texts
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := extractOne(gctx, ext, *docs.Bill, "Bill", minLen)
		out.Bill = text
		return err
	})
	g.Go(func() error {
		text, err := extractOne(gctx, ext, *docs.Policy, "Policy", minLen)
		out.Policy = text
		return err
	})
	if err := g.Wait(); err != nil {
		return Texts{}, err
	}
	return out, nil
}

func extractOne(ctx context.Context, ext provider.TextExtractor, ref model.DocumentRef, kind string, minLen int) (string, error) {
	text, err := ext.ExtractText(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrExtraction, strings.ToLower(kind), err)
	}
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minLen {
		return "", fmt.Errorf("%w: %s text empty or too short. Check if document is readable", ErrExtraction, kind)
	}
	return text, nil
}
