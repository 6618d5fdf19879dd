package csvexport

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/crime-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDataset(t *testing.T) domain.Dataset {
	t.Helper()
	raw := []domain.RawIncident{
		{
			ID:                  domain.StringPtr("13250002"),
			PrimaryType:         domain.StringPtr("THEFT"),
			LocationDescription: domain.StringPtr("STREET, ALLEY"),
			Date:                domain.StringPtr("2023-11-01T23:15:00.000"),
			CommunityArea:       domain.StringPtr("32"),
			Year:                domain.StringPtr("1999"),
		},
		{
			ID:            domain.StringPtr("13250001"),
			PrimaryType:   domain.StringPtr("THEFT"),
			Date:          domain.StringPtr("2023-10-05T02:00:00.000"),
			CommunityArea: domain.StringPtr("99"),
		},
	}
	ds, rejected := domain.Clean(raw, domain.DefaultCommunities(), []domain.Category{domain.Theft},
		time.Date(2023, time.October, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	require.Empty(t, rejected)
	return ds
}

func column(t *testing.T, name string) int {
	t.Helper()
	for i, h := range Header {
		if h == name {
			return i
		}
	}
	t.Fatalf("column %q not in header", name)
	return -1
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testDataset(t)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Header, records[0])

	first, second := records[1], records[2]
	assert.Equal(t, "13250001", first[column(t, "id")], "rows follow dataset order")
	assert.Equal(t, domain.LateNight, first[column(t, "time_of_day")])
	assert.Empty(t, first[column(t, "community_name")])
	assert.Empty(t, first[column(t, "location_description")])

	assert.Equal(t, "13250002", second[column(t, "id")])
	assert.Equal(t, "STREET, ALLEY", second[column(t, "location_description")])
	assert.Equal(t, "2023", second[column(t, "year")], "derived year replaces the raw column")
	assert.Equal(t, "23", second[column(t, "hour")])
	assert.Equal(t, "11", second[column(t, "month")])
	assert.Equal(t, "2023-11-01T23:15:00.000", second[column(t, "timestamp")])
	assert.Equal(t, "Loop", second[column(t, "community_name")])
}

func TestWrite_EmptyDatasetWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, domain.Dataset{}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{Header}, records)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "incidents.csv")
	require.NoError(t, WriteFile(path, testDataset(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"STREET, ALLEY"`)
}
