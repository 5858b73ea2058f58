// Package extractor picks a text extractor by MIME type.
package extractor

import (
	"context"

	"github.com/kirillkom/agro-knowledge/internal/core/domain"
	"github.com/kirillkom/agro-knowledge/internal/core/ports"
)

// Router sends PDFs to the PDF extractor and everything else to the text one.
type Router struct {
	pdf  ports.TextExtractor
	text ports.TextExtractor
}

func NewRouter(pdf, text ports.TextExtractor) *Router {
	return &Router{pdf: pdf, text: text}
}

func (r *Router) Extract(ctx context.Context, file domain.SourceFile) (string, error) {
	if file.IsPDF() {
		return r.pdf.Extract(ctx, file)
	}
	return r.text.Extract(ctx, file)
}
