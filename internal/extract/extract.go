// Package extract turns uploaded file bytes into plain text.
package extract

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"knowbase/internal/apperr"
)

// Document media types, normalized from the declared MIME type.
const (
	TypePDF      = "pdf"
	TypeText     = "text"
	TypeMarkdown = "markdown"
)

var mediaTypes = map[string]string{
	"application/pdf": TypePDF,
	"text/plain":      TypeText,
	"text/markdown":   TypeMarkdown,
}

// NormalizeMediaType maps a declared MIME type onto the allow-list, rejecting
// anything else before any record is created.
func NormalizeMediaType(declared string) (string, error) {
	t, ok := mediaTypes[strings.ToLower(strings.TrimSpace(declared))]
	if !ok {
		return "", fmt.Errorf("%w: %q", apperr.ErrUnsupportedType, declared)
	}
	return t, nil
}

// Extract converts file bytes into plain text according to the normalized
// media type. Pure transformation, no side effects.
func Extract(data []byte, mediaType string) (string, error) {
	switch mediaType {
	case TypePDF:
		return extractPDF(data)
	case TypeText, TypeMarkdown:
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: file is not valid UTF-8", apperr.ErrExtraction)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %q", apperr.ErrUnsupportedType, mediaType)
	}
}

// extractPDF concatenates per-page text with newline separators.
func extractPDF(data []byte) (text string, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: malformed pdf: %v", apperr.ErrExtraction, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrExtraction, err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", apperr.ErrExtraction, i, err)
		}
		pages = append(pages, content)
	}

	return strings.Join(pages, "\n"), nil
}
