package domain

import (
	"context"
	"time"
)

// FetchRequest selects incidents with Start < date < End, a primary type in
// Categories, and the given community area.
type FetchRequest struct {
	Start      time.Time
	End        time.Time
	Categories []Category
	AreaID     string
}

// FetchResult carries decoded incidents and the records rejected while decoding.
type FetchResult struct {
	Incidents []RawIncident
	Rejected  []Rejection
}

// Fetcher retrieves raw incidents from the remote crime API.
// Every returned error wraps ErrFetch.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (FetchResult, error)
}
