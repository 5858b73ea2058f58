// Package pdf extracts page-ordered plain text from PDF files.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/agro-knowledge/internal/core/domain"
)

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract joins the text of every page with a newline. Layout and font
// information is dropped.
func (e *Extractor) Extract(ctx context.Context, file domain.SourceFile) (text string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = domain.WrapError(domain.ErrExtraction, "pdf extract", fmt.Errorf("parse %q: %v", file.Name, r))
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(file.Content), int64(len(file.Content)))
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "pdf extract", fmt.Errorf("pdf reader: %w", err))
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			b.WriteString("\n")
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", domain.WrapError(domain.ErrExtraction, "pdf extract", fmt.Errorf("page %d: %w", i, err))
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}
	return b.String(), nil
}
