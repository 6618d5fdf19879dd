package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCommunities(t *testing.T) {
	table := DefaultCommunities()

	assert.Equal(t, 77, table.Len())
	assert.Equal(t, "Rogers Park", table.Names()[0])

	id, err := table.Resolve("Loop")
	require.NoError(t, err)
	assert.Equal(t, "32", id)

	rec, ok := table.ByAreaID("77")
	require.True(t, ok)
	assert.Equal(t, "Edgewater", rec.Name)
}

func TestResolve_ExactMatchOnly(t *testing.T) {
	table := DefaultCommunities()

	for _, name := range []string{"loop", " Loop", "Loop ", "", "Atlantis"} {
		t.Run(name, func(t *testing.T) {
			id, err := table.Resolve(name)
			require.ErrorIs(t, err, ErrUnknownCommunity)
			assert.Empty(t, id)
		})
	}
}

func TestLoadCommunities_HeaderOrderAndDuplicates(t *testing.T) {
	csv := "Community Area,Community\n8,Near North Side\n32,Loop\n99,Loop\n"

	table, err := LoadCommunities(strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 2, table.Len())
	id, err := table.Resolve("Loop")
	require.NoError(t, err)
	assert.Equal(t, "32", id, "first row wins")
	assert.Equal(t, []string{"Near North Side", "Loop"}, table.Names())
}

func TestLoadCommunities_NormalizesAreaID(t *testing.T) {
	table, err := LoadCommunities(strings.NewReader("Community,Community Area\nUptown, 03\n"))
	require.NoError(t, err)

	id, err := table.Resolve("Uptown")
	require.NoError(t, err)
	assert.Equal(t, "3", id)
}

func TestLoadCommunities_Invalid(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want string
	}{
		{"empty input", "", "missing header row"},
		{"missing column", "Name,Area\nLoop,32\n", "header must contain"},
		{"no rows", "Community,Community Area\n", "table is empty"},
		{"non-numeric area", "Community,Community Area\nLoop,abc\n", "invalid area"},
		{"blank name", "Community,Community Area\n ,32\n", "empty community name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCommunities(strings.NewReader(tt.csv))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRecords_ReturnsCopy(t *testing.T) {
	table := DefaultCommunities()
	recs := table.Records()
	recs[0].Name = "changed"

	assert.Equal(t, "Rogers Park", table.Records()[0].Name)
}
