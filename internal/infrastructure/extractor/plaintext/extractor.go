// Package plaintext reads .txt uploads as UTF-8.
package plaintext

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/agro-knowledge/internal/core/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract strips a leading byte order mark and normalizes line endings to \n.
func (e *Extractor) Extract(_ context.Context, file domain.SourceFile) (string, error) {
	content := bytes.TrimPrefix(file.Content, utf8BOM)
	if !utf8.Valid(content) {
		return "", domain.WrapError(domain.ErrExtraction, "plaintext.extract",
			fmt.Errorf("%q is not UTF-8 text", file.Name))
	}
	return strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(string(content)), nil
}
