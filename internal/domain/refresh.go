package domain

import (
	"context"
	"time"
)

// Refresh outcomes stored in RefreshRecord.Status.
const (
	RefreshOK     = "ok"
	RefreshFailed = "failed"
)

// RefreshRecord summarizes one dashboard refresh for history and downstream
// consumers.
type RefreshRecord struct {
	ID          string       `json:"id"`
	Community   string       `json:"community"`
	AreaID      string       `json:"area_id,omitempty"`
	Categories  []Category   `json:"categories"`
	Start       time.Time    `json:"start_date"`
	End         time.Time    `json:"end_date"`
	TotalCount  int          `json:"total_count"`
	Rejected    int          `json:"rejected"`
	TopCrimes   []CrimeCount `json:"top_crimes,omitempty"`
	Status      string       `json:"status"`
	Error       string       `json:"error,omitempty"`
	RefreshedAt time.Time    `json:"refreshed_at"`
}

// Recorder persists or publishes refresh records.
type Recorder interface {
	Record(ctx context.Context, rec RefreshRecord) error
}
