package socrata

import (
	"testing"
	"time"

	"github.com/couchcryptid/crime-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest() domain.FetchRequest {
	return domain.FetchRequest{
		Start:      time.Date(2023, time.September, 30, 23, 59, 59, 999_000_000, time.UTC),
		End:        time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Categories: []domain.Category{domain.Theft, domain.Assault},
		AreaID:     "32",
	}
}

func TestBuildWhere(t *testing.T) {
	where, err := BuildWhere(testRequest())
	require.NoError(t, err)

	assert.Equal(t,
		"date > '2023-09-30T23:59:59.999' AND date < '2024-01-01T00:00:00.000' AND "+
			"(primary_type = 'THEFT' OR primary_type = 'ASSAULT') AND community_area = '32'",
		where)
}

func TestBuildWhere_SingleCategory(t *testing.T) {
	req := testRequest()
	req.Categories = []domain.Category{domain.MotorVehicleTheft}
	req.AreaID = " 8 "

	where, err := BuildWhere(req)
	require.NoError(t, err)
	assert.Contains(t, where, "(primary_type = 'MOTOR VEHICLE THEFT')")
	assert.Contains(t, where, "community_area = '8'")
}

func TestBuildWhere_RejectsInvalidFilters(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.FetchRequest)
		want   string
	}{
		{"no categories", func(r *domain.FetchRequest) { r.Categories = nil }, "at least one category"},
		{"unknown category", func(r *domain.FetchRequest) { r.Categories = []domain.Category{"THEFT' OR '1'='1"} }, "unknown category"},
		{"missing area", func(r *domain.FetchRequest) { r.AreaID = "" }, "area id is required"},
		{"None area", func(r *domain.FetchRequest) { r.AreaID = "None" }, "not numeric"},
		{"empty window", func(r *domain.FetchRequest) { r.End = r.Start }, "is not after start"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testRequest()
			tt.mutate(&req)

			where, err := BuildWhere(req)
			require.ErrorIs(t, err, domain.ErrInvalidFilter)
			require.ErrorIs(t, err, domain.ErrFetch)
			assert.Contains(t, err.Error(), tt.want)
			assert.Empty(t, where)
		})
	}
}

func TestLiteral_EscapesQuotes(t *testing.T) {
	assert.Equal(t, "'O''Hare'", literal("O'Hare"))
	assert.Equal(t, "'THEFT'", literal("THEFT"))
}
