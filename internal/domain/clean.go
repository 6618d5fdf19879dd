package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// SocrataTimestampLayout is the floating timestamp format used by the API.
const SocrataTimestampLayout = "2006-01-02T15:04:05.000"

// DateLayout is the calendar date format accepted for query bounds.
const DateLayout = "2006-01-02"

// incidentDateLayouts are tried in order when parsing an incident date.
var incidentDateLayouts = []string{
	SocrataTimestampLayout,
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"01/02/2006 03:04:05 PM",
	DateLayout,
}

// ParseIncidentTime parses an incident timestamp. The API's timestamps carry
// no zone; they are returned as UTC wall-clock values, and timestamps with an
// explicit offset keep their wall clock.
func ParseIncidentTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range incidentDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ParseDate parses a calendar date (YYYY-MM-DD) as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD", ErrInvalidQuery, s)
	}
	return t, nil
}

// Clean turns raw incidents into the dashboard Dataset.
//
// Incidents with a missing or unparseable date are returned as Rejections.
// The surviving rows fall in [start, end), are sorted by timestamp, carry
// derived time fields, match one of categories, and have a non-empty id.
func Clean(raw []RawIncident, communities *CommunityTable, categories []Category, start, end time.Time) (Dataset, []Rejection) {
	rows, rejected := parseDates(raw)
	rows = filterDateRange(rows, start, end)
	sortByTimestamp(rows)
	rows = enrich(rows)
	rows = filterCategories(rows, categories)
	rows = outerJoinCommunities(rows, communities)
	rows = dropIncompleteRows(rows)

	return Dataset{Incidents: rows, TotalCount: len(rows)}, rejected
}

func parseDates(raw []RawIncident) ([]EnrichedIncident, []Rejection) {
	rows := make([]EnrichedIncident, 0, len(raw))
	var rejected []Rejection
	for _, r := range raw {
		if r.Date == nil || strings.TrimSpace(*r.Date) == "" {
			rejected = append(rejected, Rejection{Index: r.Index, ID: deref(r.ID), Field: "date", Err: fmt.Errorf("%w: missing date", ErrParse)})
			continue
		}
		ts, err := ParseIncidentTime(*r.Date)
		if err != nil {
			rejected = append(rejected, Rejection{Index: r.Index, ID: deref(r.ID), Field: "date", Err: fmt.Errorf("%w: %w", ErrParse, err)})
			continue
		}
		rows = append(rows, EnrichedIncident{RawIncident: r, Timestamp: ts})
	}
	return rows, rejected
}

// filterDateRange keeps rows with start <= timestamp < end.
func filterDateRange(rows []EnrichedIncident, start, end time.Time) []EnrichedIncident {
	out := rows[:0]
	for _, r := range rows {
		if !r.Timestamp.Before(start) && r.Timestamp.Before(end) {
			out = append(out, r)
		}
	}
	return out
}

func sortByTimestamp(rows []EnrichedIncident) {
	slices.SortStableFunc(rows, func(a, b EnrichedIncident) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
}

func enrich(rows []EnrichedIncident) []EnrichedIncident {
	for i := range rows {
		ts := rows[i].Timestamp
		rows[i].Hour = ts.Hour()
		rows[i].Day = ts.Day()
		rows[i].Month = int(ts.Month())
		rows[i].Year = ts.Year()
		rows[i].TimeOfDay = TimeOfDayFor(ts.Hour())
	}
	return rows
}

func filterCategories(rows []EnrichedIncident, categories []Category) []EnrichedIncident {
	out := rows[:0]
	for _, r := range rows {
		if r.PrimaryType != nil && slices.Contains(categories, Category(*r.PrimaryType)) {
			out = append(out, r)
		}
	}
	return out
}

// outerJoinCommunities attaches community metadata by area id. Incidents
// without a matching community are kept with a nil Community. Communities
// without incidents are appended as rows with no incident id, after the
// incident rows and in table order; dropIncompleteRows removes them.
func outerJoinCommunities(rows []EnrichedIncident, communities *CommunityTable) []EnrichedIncident {
	if communities == nil {
		return rows
	}

	matched := make(map[string]bool)
	for i := range rows {
		area := strings.TrimSpace(deref(rows[i].CommunityArea))
		rec, ok := communities.ByAreaID(area)
		if !ok {
			continue
		}
		rows[i].Community = &rec
		matched[rec.AreaID] = true
	}

	for _, rec := range communities.Records() {
		if matched[rec.AreaID] {
			continue
		}
		rows = append(rows, EnrichedIncident{
			RawIncident: RawIncident{CommunityArea: StringPtr(rec.AreaID)},
			TimeOfDay:   UnknownBucket,
			Community:   &rec,
		})
	}
	return rows
}

// dropIncompleteRows is the post-join filter removing rows without an
// incident id. It is what discards the community-only rows of the outer join.
func dropIncompleteRows(rows []EnrichedIncident) []EnrichedIncident {
	out := make([]EnrichedIncident, 0, len(rows))
	for _, r := range rows {
		if r.ID == nil || strings.TrimSpace(*r.ID) == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
