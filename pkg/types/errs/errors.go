package errs

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrBlobNotFound   = errors.New("blob not found")
	ErrSuperseded     = errors.New("record replaced by a newer upload")

	// Categories surfaced by the ingest, enrichment and gallery use-cases.
	ErrValidation  = errors.New("validation error")
	ErrStorage     = errors.New("storage error")
	ErrPersistence = errors.New("persistence error")
	ErrEnrichment  = errors.New("enrichment error")
)
