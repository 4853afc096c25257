package entity

import "errors"

// Domain errors
var (
	// Document and ingestion errors
	ErrDocumentNotFound  = errors.New("document not found")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrExtractionFailed  = errors.New("text extraction failed")

	// Embedding and search errors
	ErrEmbeddingFailed   = errors.New("embedding generation failed")
	ErrDimensionMismatch = errors.New("embedding vectors have different dimensions")

	// Chat errors
	ErrSessionNotFound = errors.New("chat session not found")
	ErrStudentNotFound = errors.New("student not found")

	// Upload validation errors
	ErrInvalidFile      = errors.New("invalid file")
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidExtension = errors.New("invalid file extension")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidParameter = errors.New("invalid parameter")
)
