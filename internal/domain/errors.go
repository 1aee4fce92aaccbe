// Package domain defines the error taxonomy shared by all TapX services.
package domain

import "errors"

var (
	// ErrValidation marks requests missing required fields or carrying
	// values outside the accepted enumerations.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks lookups where the referenced block, intent or
	// enquiry id does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrForbidden marks dashboard reads where the caller does not own the
	// profile or enquiry being queried.
	ErrForbidden = errors.New("forbidden")

	// ErrUpstream marks best-effort side effects that failed. Callers on
	// the conversion path log these and never surface them.
	ErrUpstream = errors.New("upstream failure")
)
