package domain

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"
)

// DefaultTopK is the number of categories in the top crimes ranking.
const DefaultTopK = 5

// BucketCount is the number of incidents in one time-of-day bucket.
type BucketCount struct {
	Bucket string `json:"bucket"`
	Count  int    `json:"count"`
}

// LocationCount is the number of incidents at one location type.
type LocationCount struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

// CrimeCount is the number of incidents of one category.
type CrimeCount struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
}

// MapPoint is an incident location ready for plotting.
type MapPoint struct {
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	Category Category `json:"category"`
	Color    string   `json:"color"`
}

// MapView holds the plottable points and how many incidents had no usable
// coordinates. Legend maps each plotted category to its colour.
type MapView struct {
	Points   []MapPoint          `json:"points"`
	Excluded int                 `json:"excluded"`
	Legend   map[Category]string `json:"legend"`
}

// Views bundles every dashboard projection of a Dataset.
type Views struct {
	TotalCount    int             `json:"total_count"`
	TimeOfDay     []BucketCount   `json:"time_of_day"`
	LocationTypes []LocationCount `json:"location_types"`
	TopCrimes     []CrimeCount    `json:"top_crimes"`
	Map           MapView         `json:"map"`
}

// Summarize computes all views of ds.
func Summarize(ds Dataset) Views {
	return Views{
		TotalCount:    ds.TotalCount,
		TimeOfDay:     TimeOfDayDistribution(ds),
		LocationTypes: SortedLocationCounts(LocationTypeDistribution(ds)),
		TopCrimes:     TopCrimes(ds, DefaultTopK),
		Map:           MapPoints(ds),
	}
}

// TimeOfDayDistribution counts incidents per bucket. The six buckets are
// always present in canonical order; UnknownBucket is appended only when it
// has incidents.
func TimeOfDayDistribution(ds Dataset) []BucketCount {
	counts := make(map[string]int, len(timeOfDayBuckets)+1)
	for _, inc := range ds.Incidents {
		counts[inc.TimeOfDay]++
	}

	out := make([]BucketCount, 0, len(timeOfDayBuckets)+1)
	for _, b := range timeOfDayBuckets {
		out = append(out, BucketCount{Bucket: b, Count: counts[b]})
	}
	if n := counts[UnknownBucket]; n > 0 {
		out = append(out, BucketCount{Bucket: UnknownBucket, Count: n})
	}
	return out
}

// LocationTypeDistribution counts incidents per location description.
// Incidents without a description are not counted.
func LocationTypeDistribution(ds Dataset) map[string]int {
	out := make(map[string]int)
	for _, inc := range ds.Incidents {
		if inc.LocationDescription == nil {
			continue
		}
		out[*inc.LocationDescription]++
	}
	return out
}

// SortedLocationCounts orders a location distribution by count descending,
// then by label.
func SortedLocationCounts(dist map[string]int) []LocationCount {
	out := make([]LocationCount, 0, len(dist))
	for loc, n := range dist {
		out = append(out, LocationCount{Location: loc, Count: n})
	}
	slices.SortFunc(out, func(a, b LocationCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Location, b.Location)
	})
	return out
}

// TopCrimes ranks categories by incident count, descending, and returns at
// most k entries. Equal counts keep the order in which each category first
// appears in ds.
func TopCrimes(ds Dataset, k int) []CrimeCount {
	if k <= 0 {
		return []CrimeCount{}
	}

	var order []Category
	counts := make(map[Category]int)
	for _, inc := range ds.Incidents {
		if inc.PrimaryType == nil {
			continue
		}
		c := Category(*inc.PrimaryType)
		if _, seen := counts[c]; !seen {
			order = append(order, c)
		}
		counts[c]++
	}

	out := make([]CrimeCount, len(order))
	for i, c := range order {
		out[i] = CrimeCount{Category: c, Count: counts[c]}
	}
	slices.SortStableFunc(out, func(a, b CrimeCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// MapPoints extracts plottable coordinates. Incidents with a missing,
// non-numeric or out-of-range latitude or longitude are counted in Excluded.
func MapPoints(ds Dataset) MapView {
	view := MapView{
		Points: make([]MapPoint, 0, len(ds.Incidents)),
		Legend: make(map[Category]string),
	}
	for _, inc := range ds.Incidents {
		lat, lon, ok := inc.Coordinates()
		if !ok {
			view.Excluded++
			continue
		}
		c := Category(deref(inc.PrimaryType))
		color := CategoryColor(string(c))
		view.Points = append(view.Points, MapPoint{Lat: lat, Lon: lon, Category: c, Color: color})
		view.Legend[c] = color
	}
	return view
}

// Coordinates returns the incident's latitude and longitude. ok is false
// when either is missing, non-numeric or out of range.
func (inc EnrichedIncident) Coordinates() (lat, lon float64, ok bool) {
	lat, okLat := parseCoordinate(inc.Latitude, 90)
	lon, okLon := parseCoordinate(inc.Longitude, 180)
	return lat, lon, okLat && okLon
}

func parseCoordinate(s *string, limit float64) (float64, bool) {
	if s == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(*s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > limit {
		return 0, false
	}
	return v, true
}
