package reconcile

import "errors"

// Sentinel errors for reconciliation.
var (
	ErrInvalidDate = errors.New("invalid event date")
	ErrMissingSlug = errors.New("event has no slug")
)
