package domain

import "errors"

var (
	// ErrDirectoryNotFound indicates the document directory is missing or not a directory.
	ErrDirectoryNotFound = errors.New("document directory not found")

	// ErrNoDocuments indicates ingestion produced zero documents.
	ErrNoDocuments = errors.New("no documents found")

	// ErrProviderUnavailable indicates an embedding or generation endpoint could not be reached.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrNotReady indicates the index has not finished building.
	ErrNotReady = errors.New("index not ready")

	// ErrEmptyQuestion indicates a blank question was submitted.
	ErrEmptyQuestion = errors.New("empty question")
)
