package domain

import (
	"fmt"
	"time"
)

// RawIncident is one crime record as returned by the Socrata API. The API
// encodes every column as text and omits nulls, so each field is optional.
type RawIncident struct {
	ID                  *string `json:"id,omitempty"`
	CaseNumber          *string `json:"case_number,omitempty"`
	Block               *string `json:"block,omitempty"`
	PrimaryType         *string `json:"primary_type,omitempty"`
	Description         *string `json:"description,omitempty"`
	LocationDescription *string `json:"location_description,omitempty"`
	Date                *string `json:"date,omitempty"`
	CommunityArea       *string `json:"community_area,omitempty"`
	FBICode             *string `json:"fbi_code,omitempty"`
	Year                *string `json:"year,omitempty"`
	Latitude            *string `json:"latitude,omitempty"`
	Longitude           *string `json:"longitude,omitempty"`

	// Index is the record's position in the decoded API payload.
	Index int `json:"-"`
}

// IncidentColumns lists the API columns requested for every incident, in
// the order they are selected and exported.
var IncidentColumns = []string{
	"id", "case_number", "block", "primary_type", "description", "location_description",
	"date", "community_area", "fbi_code", "year", "latitude", "longitude",
}

type fieldRef struct {
	name string
	dst  **string
}

// fieldRefs returns pointers to each optional field, keyed by column name
// and ordered like IncidentColumns.
func (r *RawIncident) fieldRefs() []fieldRef {
	return []fieldRef{
		{"id", &r.ID},
		{"case_number", &r.CaseNumber},
		{"block", &r.Block},
		{"primary_type", &r.PrimaryType},
		{"description", &r.Description},
		{"location_description", &r.LocationDescription},
		{"date", &r.Date},
		{"community_area", &r.CommunityArea},
		{"fbi_code", &r.FBICode},
		{"year", &r.Year},
		{"latitude", &r.Latitude},
		{"longitude", &r.Longitude},
	}
}

// Values returns the raw column values ordered like IncidentColumns.
// Missing values are reported as "".
func (r RawIncident) Values() []string {
	refs := r.fieldRefs()
	out := make([]string, len(refs))
	for i, f := range refs {
		out[i] = deref(*f.dst)
	}
	return out
}

// EnrichedIncident is a cleaned incident with derived time fields and the
// matching community, if any. Year shadows the API's year column with the
// value derived from Timestamp.
type EnrichedIncident struct {
	RawIncident
	Timestamp time.Time        `json:"timestamp"`
	Hour      int              `json:"hour"`
	Day       int              `json:"day"`
	Month     int              `json:"month"`
	Year      int              `json:"year"`
	TimeOfDay string           `json:"time_of_day"`
	Community *CommunityRecord `json:"community,omitempty"`
}

// Dataset is the cleaned, ordered set of incidents behind every dashboard view.
type Dataset struct {
	Incidents  []EnrichedIncident `json:"incidents"`
	TotalCount int                `json:"total_count"`
}

// Rejection records a single incident excluded because it failed to parse.
// Err always wraps ErrParse.
type Rejection struct {
	Index int    `json:"index"`
	ID    string `json:"id,omitempty"`
	Field string `json:"field"`
	Err   error  `json:"-"`
}

func (r Rejection) Error() string {
	if r.ID != "" {
		return fmt.Sprintf("record %d (id %s): %s: %v", r.Index, r.ID, r.Field, r.Err)
	}
	return fmt.Sprintf("record %d: %s: %v", r.Index, r.Field, r.Err)
}

func (r Rejection) Unwrap() error { return r.Err }

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
