package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrInvalidConfig       = errors.New("invalid configuration")
	ErrInvalidRule         = errors.New("invalid rule")
	ErrGeneration          = errors.New("generation failed")
	ErrSynthesisInProgress = errors.New("synthesis already in progress")
)
