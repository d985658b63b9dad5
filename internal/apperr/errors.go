// Package apperr defines the sentinel errors shared across the ingestion and
// question-answering paths. Callers wrap these with fmt.Errorf("%w: ...") and
// handlers map them to HTTP codes with errors.Is.
package apperr

import "errors"

var (
	// ErrUnsupportedType rejects a declared media type outside the allow-list.
	ErrUnsupportedType = errors.New("unsupported media type")

	// ErrExtraction marks a failure turning file bytes into plain text.
	ErrExtraction = errors.New("text extraction failed")

	// ErrEmbedding marks a failure of the embedding service.
	ErrEmbedding = errors.New("embedding failed")

	// ErrRetrieval marks a vector store query failure.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrGeneration marks a failure of the generation service.
	ErrGeneration = errors.New("generation failed")

	// ErrNotFound covers both missing records and records owned by another
	// caller; the two are deliberately indistinguishable in responses.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput rejects malformed request input.
	ErrInvalidInput = errors.New("invalid input")
)
