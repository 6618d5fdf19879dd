package domain

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enriched(primaryType, timeOfDay, location, lat, lon string) EnrichedIncident {
	inc := EnrichedIncident{RawIncident: RawIncident{ID: StringPtr("x")}, TimeOfDay: timeOfDay}
	if primaryType != "" {
		inc.PrimaryType = StringPtr(primaryType)
	}
	if location != "" {
		inc.LocationDescription = StringPtr(location)
	}
	if lat != "" {
		inc.Latitude = StringPtr(lat)
	}
	if lon != "" {
		inc.Longitude = StringPtr(lon)
	}
	return inc
}

func dataset(incs ...EnrichedIncident) Dataset {
	return Dataset{Incidents: incs, TotalCount: len(incs)}
}

func TestTimeOfDayFor_Partition(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{0, LateNight}, {3, LateNight},
		{4, EarlyMorning}, {7, EarlyMorning},
		{8, Morning}, {11, Morning},
		{12, Afternoon}, {15, Afternoon},
		{16, Evening}, {19, Evening},
		{20, Night}, {23, Night},
		{-1, UnknownBucket}, {24, UnknownBucket},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TimeOfDayFor(tt.hour), "hour %d", tt.hour)
	}

	perBucket := make(map[string]int)
	for h := 0; h < 24; h++ {
		b := TimeOfDayFor(h)
		require.Contains(t, TimeOfDayBuckets(), b)
		perBucket[b]++
	}
	for _, b := range TimeOfDayBuckets() {
		assert.Equal(t, 4, perBucket[b], b)
	}
}

func TestTimeOfDayDistribution_CanonicalOrder(t *testing.T) {
	ds := dataset(
		enriched("THEFT", Night, "", "", ""),
		enriched("THEFT", LateNight, "", "", ""),
		enriched("THEFT", Night, "", "", ""),
		enriched("THEFT", Afternoon, "", "", ""),
	)

	got := TimeOfDayDistribution(ds)

	assert.Equal(t, []BucketCount{
		{LateNight, 1}, {EarlyMorning, 0}, {Morning, 0},
		{Afternoon, 1}, {Evening, 0}, {Night, 2},
	}, got)
}

func TestTimeOfDayDistribution_UnknownLast(t *testing.T) {
	ds := dataset(enriched("THEFT", UnknownBucket, "", "", ""), enriched("THEFT", Morning, "", "", ""))

	got := TimeOfDayDistribution(ds)

	require.Len(t, got, 7)
	assert.Equal(t, BucketCount{UnknownBucket, 1}, got[6])
}

func TestLocationTypeDistribution(t *testing.T) {
	ds := dataset(
		enriched("THEFT", Morning, "STREET", "", ""),
		enriched("THEFT", Morning, "APARTMENT", "", ""),
		enriched("THEFT", Morning, "STREET", "", ""),
		enriched("THEFT", Morning, "", "", ""),
	)

	dist := LocationTypeDistribution(ds)
	assert.Equal(t, map[string]int{"STREET": 2, "APARTMENT": 1}, dist)

	assert.Equal(t, []LocationCount{{"STREET", 2}, {"APARTMENT", 1}}, SortedLocationCounts(dist))
}

func TestSortedLocationCounts_TiesByLabel(t *testing.T) {
	got := SortedLocationCounts(map[string]int{"STREET": 1, "ALLEY": 1, "RESIDENCE": 3})

	assert.Equal(t, []LocationCount{{"RESIDENCE", 3}, {"ALLEY", 1}, {"STREET", 1}}, got)
}

func TestTopCrimes_TiesKeepFirstEncounteredOrder(t *testing.T) {
	ds := dataset(
		enriched("ROBBERY", Morning, "", "", ""),
		enriched("ASSAULT", Morning, "", "", ""),
		enriched("THEFT", Morning, "", "", ""),
		enriched("THEFT", Morning, "", "", ""),
		enriched("ASSAULT", Morning, "", "", ""),
		enriched("BURGLARY", Morning, "", "", ""),
	)

	got := TopCrimes(ds, DefaultTopK)

	assert.Equal(t, []CrimeCount{
		{Assault, 2}, {Theft, 2}, {Robbery, 1}, {Burglary, 1},
	}, got)
	assert.Equal(t, []CrimeCount{{Assault, 2}, {Theft, 2}}, TopCrimes(ds, 2))
}

func TestTopCrimes_LimitsToK(t *testing.T) {
	var incs []EnrichedIncident
	for i, c := range Categories() {
		for n := 0; n <= i; n++ {
			incs = append(incs, enriched(string(c), Morning, "", "", ""))
		}
	}

	got := TopCrimes(dataset(incs...), DefaultTopK)

	require.Len(t, got, 5)
	assert.Equal(t, DomesticViolence, got[0].Category)
	assert.True(t, slices.IsSortedFunc(got, func(a, b CrimeCount) int { return b.Count - a.Count }))
}

func TestTopCrimes_NonPositiveK(t *testing.T) {
	ds := dataset(enriched("THEFT", Morning, "", "", ""))
	assert.Empty(t, TopCrimes(ds, 0))
	assert.Empty(t, TopCrimes(ds, -1))
}

func TestMapPoints_ExcludesUnusableCoordinates(t *testing.T) {
	ds := dataset(
		enriched("THEFT", Morning, "", "41.88", "-87.62"),
		enriched("THEFT", Morning, "", "", "-87.62"),
		enriched("ASSAULT", Morning, "", "41.9", "abc"),
		enriched("ASSAULT", Morning, "", "NaN", "-87.6"),
		enriched("ASSAULT", Morning, "", "95", "-87.6"),
		enriched("ASSAULT", Morning, "", " 41.79 ", "-87.59"),
	)

	view := MapPoints(ds)

	require.Len(t, view.Points, 2)
	assert.Equal(t, 4, view.Excluded)
	assert.Equal(t, len(ds.Incidents), len(view.Points)+view.Excluded)

	assert.Equal(t, MapPoint{Lat: 41.88, Lon: -87.62, Category: Theft, Color: CategoryColor("THEFT")}, view.Points[0])
	assert.InDelta(t, 41.79, view.Points[1].Lat, 1e-9)
	assert.Equal(t, map[Category]string{
		Theft:   CategoryColor("THEFT"),
		Assault: CategoryColor("ASSAULT"),
	}, view.Legend)
}

func TestCategoryColor_IndependentOfInputOrder(t *testing.T) {
	a := dataset(
		enriched("THEFT", Morning, "", "41.8", "-87.6"),
		enriched("HOMICIDE", Morning, "", "41.8", "-87.6"),
	)
	b := dataset(
		enriched("HOMICIDE", Morning, "", "41.8", "-87.6"),
		enriched("THEFT", Morning, "", "41.8", "-87.6"),
	)

	assert.Equal(t, MapPoints(a).Legend, MapPoints(b).Legend)
	for _, c := range Categories() {
		color := CategoryColor(string(c))
		assert.Contains(t, safePalette, color)
		assert.Equal(t, color, CategoryColor(string(c)))
	}
}

func TestCategoryColor_DistinctPerCategory(t *testing.T) {
	seen := make(map[string]Category)
	for _, c := range Categories() {
		color := CategoryColor(string(c))
		if other, ok := seen[color]; ok {
			t.Fatalf("%s and %s share colour %s", other, c, color)
		}
		seen[color] = c
	}
	assert.Len(t, seen, len(Categories()))
}

func TestCategoryColor_DistinctLegend(t *testing.T) {
	ds := dataset(
		enriched("BURGLARY", Morning, "", "41.8", "-87.6"),
		enriched("CRIMINAL TRESPASS", Morning, "", "41.8", "-87.6"),
		enriched("MOTOR VEHICLE THEFT", Morning, "", "41.8", "-87.6"),
		enriched("HOMICIDE", Morning, "", "41.8", "-87.6"),
		enriched("KIDNAPPING", Morning, "", "41.8", "-87.6"),
	)

	legend := MapPoints(ds).Legend

	require.Len(t, legend, 5)
	colors := make(map[string]bool)
	for _, color := range legend {
		colors[color] = true
	}
	assert.Len(t, colors, 5)
}

func TestCategoryColor_UnknownLabelStaysInPalette(t *testing.T) {
	color := CategoryColor("NOT A CATEGORY")

	assert.Contains(t, safePalette, color)
	assert.Equal(t, color, CategoryColor("NOT A CATEGORY"))
}

func TestSummarize_EmptyDataset(t *testing.T) {
	v := Summarize(Dataset{Incidents: []EnrichedIncident{}})

	assert.Equal(t, 0, v.TotalCount)
	require.Len(t, v.TimeOfDay, 6)
	for _, b := range v.TimeOfDay {
		assert.Zero(t, b.Count)
	}
	assert.Empty(t, v.LocationTypes)
	assert.Empty(t, v.TopCrimes)
	assert.Empty(t, v.Map.Points)
	assert.Zero(t, v.Map.Excluded)
}

func TestAggregations_DoNotMutateInput(t *testing.T) {
	ds := dataset(
		enriched("THEFT", Night, "STREET", "41.8", "-87.6"),
		enriched("ASSAULT", Morning, "ALLEY", "", ""),
	)
	before := dataset(append([]EnrichedIncident(nil), ds.Incidents...)...)

	first := Summarize(ds)
	second := Summarize(ds)

	assert.Equal(t, before, ds)
	assert.Equal(t, first, second)
}
