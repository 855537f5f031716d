package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/storage"
)

// ErrUnsupportedDocument is returned for documents that need a real OCR
// backend, such as PDFs and images.
var ErrUnsupportedDocument = errors.New("document is not plain text")

var pdfMagic = []byte("%PDF-")

// StoreExtractor reads text documents straight from the document store.
type StoreExtractor struct {
	Store storage.Store
}

func (e StoreExtractor) ExtractText(ctx context.Context, ref model.DocumentRef) (string, error) {
	data, err := e.Store.Get(ctx, ref.Key)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", ref.Key, err)
	}
	if bytes.HasPrefix(data, pdfMagic) || !utf8.Valid(data) {
		return "", fmt.Errorf("%s: %w", ref.Key, ErrUnsupportedDocument)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	return string(data), nil
}
