package domain

import "errors"

// Error kinds surfaced by the dashboard core. Callers match them with errors.Is.
var (
	// ErrUnknownCommunity is the LookupFailure returned when a community name
	// has no row in the reference table.
	ErrUnknownCommunity = errors.New("unknown community")

	// ErrFetch marks every failure to retrieve incidents from the remote API:
	// network errors, timeouts, non-success responses and malformed filters.
	ErrFetch = errors.New("fetch incidents")

	// ErrInvalidFilter is a fetch failure detected before any request is sent.
	ErrInvalidFilter = errors.New("invalid fetch filter")

	// ErrParse marks a single record that could not be parsed. It never
	// aborts a refresh.
	ErrParse = errors.New("parse record")

	// ErrInvalidQuery is returned when the dashboard configuration record
	// fails validation.
	ErrInvalidQuery = errors.New("invalid query")
)
