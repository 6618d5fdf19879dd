//go:build socrata

package socrata

import (
	"context"
	"testing"
	"time"

	"github.com/couchcryptid/crime-dashboard/internal/domain"
	"github.com/couchcryptid/crime-dashboard/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the live City of Chicago Socrata API.
// Run with: go test -tags=socrata ./internal/adapter/socrata/ -v -count=1

func TestSmoke_FetchLoopTheft(t *testing.T) {
	c := NewClient(Config{
		BaseURL:         "https://data.cityofchicago.org",
		Dataset:         testDataset,
		Timeout:         30 * time.Second,
		MaxRecords:      50,
		RetryWait:       time.Second,
		BreakerFailures: 5,
		BreakerTimeout:  time.Minute,
	}, discardLogger(), observability.NewMetricsForTesting())

	req := domain.FetchRequest{
		Start:      time.Date(2023, time.October, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2023, time.October, 8, 0, 0, 0, 0, time.UTC),
		Categories: []domain.Category{domain.Theft},
		AreaID:     "32",
	}

	result, err := c.Fetch(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, result.Incidents)
	assert.Empty(t, result.Rejected)

	for _, inc := range result.Incidents {
		require.NotNil(t, inc.PrimaryType)
		assert.Equal(t, "THEFT", *inc.PrimaryType)
		require.NotNil(t, inc.CommunityArea)
		assert.Equal(t, "32", *inc.CommunityArea)
	}
}
