// Package domain models Chicago Police Department crime incidents and the
// dashboard views derived from them.
//
// # Data Source
//
// Incidents come from the City of Chicago "Crimes - 2001 to Present" dataset
// (Socrata id ijzp-q8t2) at https://data.cityofchicago.org. The SODA API
// returns a JSON array of flat objects; every column, numeric or not, is
// encoded as a string and null columns are omitted.
//
// # Data Conventions
//
// Timestamps:
//
//	"2023-10-05T14:30:00.000"  floating local time, no zone designator.
//	Parsed as a UTC wall-clock value and never converted, so the hour of
//	day is the hour recorded by CPD.
//
// Community areas:
//
//	Numeric codes 1-77 sent as text ("32" = Loop). The reference table maps
//	names to codes; see communities.csv.
//
// Coordinates:
//
//	"latitude" / "longitude" as decimal text. Records whose location was
//	redacted or never geocoded omit both columns.
//
// # Pipeline
//
// DecodeIncidents validates the API payload at the boundary. Clean parses
// dates, keeps [start, end), sorts ascending, derives hour/day/month/year
// and the time-of-day bucket, re-filters by category, outer-joins the
// community table, and drops rows without an incident id. Summarize computes
// the four dashboard views from the result.
//
// Per-record problems (bad dates, wrongly typed columns, unusable
// coordinates) exclude that record only and are reported, never fatal.
package domain
