package catalog

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	catalogs map[string][]Item
	states   map[string][]Item
	err      error
	calls    int
}

func (f *fakeFetcher) FetchCatalog(ctx context.Context, name string) ([]Item, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.catalogs[name], nil
}

func (f *fakeFetcher) FetchStates(ctx context.Context, country string) ([]Item, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.states[country], nil
}

func TestDefaults_Loaded(t *testing.T) {
	industries := DefaultIndustries()
	require.NotEmpty(t, industries)
	require.True(t, slices.Contains(Values(industries), "Technology"))

	types := DefaultOrgTypes()
	require.True(t, slices.Contains(Values(types), "Entertainment"))

	countries := DefaultCountries()
	require.True(t, slices.Contains(Values(countries), "Nigeria"))
	require.True(t, slices.IsSorted(Values(countries)), "countries sorted by name")
}

func TestDefaultStates(t *testing.T) {
	states := DefaultStates("Nigeria")
	require.True(t, slices.Contains(Values(states), "Lagos"))

	require.Nil(t, DefaultStates("Atlantis"))
}

func TestService_NoFetcherServesDefaults(t *testing.T) {
	ctx := context.Background()
	s := NewService(nil, time.Hour)

	require.Equal(t, DefaultIndustries(), s.Industries(ctx))
	require.Equal(t, DefaultStates("Ghana"), s.States(ctx, "Ghana"))
	require.Nil(t, s.States(ctx, ""))
}

func TestService_FetcherPreferred(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{
		catalogs: map[string][]Item{
			NameIndustries: FromStrings([]string{"Quarrying"}),
		},
		states: map[string][]Item{
			"Nigeria": FromStrings([]string{"Lagos"}),
		},
	}
	s := NewService(f, time.Hour)

	require.Equal(t, []Item{{Label: "Quarrying", Value: "Quarrying"}}, s.Industries(ctx))
	require.Equal(t, []Item{{Label: "Lagos", Value: "Lagos"}}, s.States(ctx, "Nigeria"))
}

func TestService_FetchesAreCached(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{
		catalogs: map[string][]Item{
			NameCountries: FromStrings([]string{"Nigeria"}),
		},
	}
	s := NewService(f, time.Hour)

	s.Countries(ctx)
	s.Countries(ctx)
	require.Equal(t, 1, f.calls, "second read should hit the cache")
}

func TestService_FetchErrorFallsBack(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{err: errors.New("upstream down")}
	s := NewService(f, time.Hour)

	require.Equal(t, DefaultOrgTypes(), s.OrgTypes(ctx))
	require.Equal(t, DefaultStates("Kenya"), s.States(ctx, "Kenya"))
}

func TestService_EmptyFetchFallsBack(t *testing.T) {
	ctx := context.Background()
	f := &fakeFetcher{} // returns empty sets
	s := NewService(f, time.Hour)

	require.Equal(t, DefaultIndustries(), s.Industries(ctx))
}
