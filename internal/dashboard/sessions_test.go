package dashboard_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/couchcryptid/crime-dashboard/internal/dashboard"
	"github.com/couchcryptid/crime-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessions_GetMissing(t *testing.T) {
	s := dashboard.NewSessions(10)

	_, ok := s.Get("nope")
	assert.False(t, ok)
}

func TestSessions_UpdateStoresState(t *testing.T) {
	s := dashboard.NewSessions(10)
	id := dashboard.NewID()

	_, err := s.Update(id, func(prev dashboard.State) (dashboard.State, error) {
		assert.False(t, prev.Loaded())
		prev.AreaID = "32"
		return prev, nil
	})
	require.NoError(t, err)

	got, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, "32", got.AreaID)
}

func TestSessions_UpdateStoresStateOnError(t *testing.T) {
	s := dashboard.NewSessions(10)

	_, err := s.Update("a", func(prev dashboard.State) (dashboard.State, error) {
		prev.LastError = "boom"
		return prev, errors.New("boom")
	})
	require.Error(t, err)

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "boom", got.LastError)
}

func TestSessions_Isolated(t *testing.T) {
	s := dashboard.NewSessions(10)
	set := func(id, community string) {
		_, err := s.Update(id, func(prev dashboard.State) (dashboard.State, error) {
			prev.Query = domain.Query{Community: community}
			return prev, nil
		})
		require.NoError(t, err)
	}
	set("a", "Loop")
	set("b", "Uptown")

	a, _ := s.Get("a")
	b, _ := s.Get("b")
	assert.Equal(t, "Loop", a.Query.Community)
	assert.Equal(t, "Uptown", b.Query.Community)
}

func TestSessions_EvictsLeastRecentlyUsed(t *testing.T) {
	s := dashboard.NewSessions(2)
	noop := func(prev dashboard.State) (dashboard.State, error) { return prev, nil }

	_, _ = s.Update("a", noop)
	_, _ = s.Update("b", noop)
	_, _ = s.Get("a")
	_, _ = s.Update("c", noop)

	assert.Equal(t, 2, s.Len())
	_, ok := s.Get("b")
	assert.False(t, ok)
	_, ok = s.Get("a")
	assert.True(t, ok)
}

func TestSessions_ConcurrentUpdatesSerialize(t *testing.T) {
	s := dashboard.NewSessions(10)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Update("shared", func(prev dashboard.State) (dashboard.State, error) {
				prev.Rejected++
				return prev, nil
			})
		}()
	}
	wg.Wait()

	got, ok := s.Get("shared")
	require.True(t, ok)
	assert.Equal(t, 50, got.Rejected)
}

func TestNewID_Unique(t *testing.T) {
	assert.NotEqual(t, dashboard.NewID(), dashboard.NewID())
}
