package dashboard

import (
	"time"

	"github.com/couchcryptid/crime-dashboard/internal/domain"
)

// State is the dashboard as one session sees it: the query that produced it,
// the cleaned dataset and its views. A failed refresh keeps the previous
// dataset and sets LastError.
type State struct {
	Query       domain.Query   `json:"query"`
	AreaID      string         `json:"area_id,omitempty"`
	Dataset     domain.Dataset `json:"-"`
	Views       domain.Views   `json:"views"`
	Rejected    int            `json:"rejected"`
	RefreshedAt time.Time      `json:"refreshed_at"`
	LastError   string         `json:"error,omitempty"`
	FailedAt    time.Time      `json:"-"`
}

// Loaded reports whether the state holds the result of a successful refresh.
func (s State) Loaded() bool {
	return !s.RefreshedAt.IsZero()
}
