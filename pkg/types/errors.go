package types

import "errors"

// ErrInvalidInput marks malformed or out-of-range caller parameters.
// Wrap with context via fmt.Errorf("...: %w", ErrInvalidInput) so
// callers can match with errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// Domain errors for type validation
var (
	ErrInvalidChunkID    = errors.New("invalid chunk ID")
	ErrInvalidDocumentID = errors.New("invalid document ID")
	ErrInvalidScore      = errors.New("score must not be negative")
	ErrEmptyContent      = errors.New("content cannot be empty")
	ErrInvalidBorough    = errors.New("unknown borough")
	ErrInvalidCategory   = errors.New("unknown document category")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
