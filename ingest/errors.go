package ingest

import "errors"

var (
	// ErrRepositoryRequired is returned when an article repository is not provided.
	ErrRepositoryRequired = errors.New("article repository required")

	// ErrUnusableRecord is returned when a raw record cannot become a
	// stored-record candidate (missing or blank text).
	ErrUnusableRecord = errors.New("unusable record")

	// ErrStoreFailed wraps upsert failures; it aborts the run because the
	// store, not the record, is at fault.
	ErrStoreFailed = errors.New("store operation failed")
)
