package catalog

import (
	"context"
	"fmt"
	"time"

	"orgreg/internal/cachemanager"
	"orgreg/internal/log"
)

// Fetcher retrieves catalog sets from the platform. The API client
// implements it; tests substitute their own.
type Fetcher interface {
	FetchCatalog(ctx context.Context, name string) ([]Item, error)
	FetchStates(ctx context.Context, country string) ([]Item, error)
}

// Service serves catalog sets, preferring the platform's version and
// falling back to the embedded defaults when the fetch fails or no
// fetcher is configured.
type Service struct {
	setCache   *cachemanager.ReadThroughCache[string, []Item, string]
	stateCache *cachemanager.ReadThroughCache[string, []Item, string]
	hasFetcher bool
	ttl        time.Duration
}

// NewService creates a catalog service. fetcher may be nil, in which case
// only the embedded defaults are served.
func NewService(fetcher Fetcher, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}

	s := &Service{
		hasFetcher: fetcher != nil,
		ttl:        ttl,
	}
	if fetcher == nil {
		return s
	}

	sets := cachemanager.NewInMemoryCacheManager[string, []Item](
		"catalog_sets", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	s.setCache = cachemanager.NewReadThroughCache[string, []Item, string](
		sets, fetcher.FetchCatalog, false)

	states := cachemanager.NewInMemoryCacheManager[string, []Item](
		"catalog_states", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	s.stateCache = cachemanager.NewReadThroughCache[string, []Item, string](
		states, fetcher.FetchStates, false)

	return s
}

// Industries returns the industry set.
func (s *Service) Industries(ctx context.Context) []Item {
	return s.set(ctx, NameIndustries, DefaultIndustries)
}

// OrgTypes returns the organization type set.
func (s *Service) OrgTypes(ctx context.Context) []Item {
	return s.set(ctx, NameOrgTypes, DefaultOrgTypes)
}

// Countries returns the country set.
func (s *Service) Countries(ctx context.Context) []Item {
	return s.set(ctx, NameCountries, DefaultCountries)
}

// States returns the state set for a country. Unknown countries yield an
// empty set.
func (s *Service) States(ctx context.Context, country string) []Item {
	if country == "" {
		return nil
	}
	if !s.hasFetcher {
		return DefaultStates(country)
	}

	items, err := s.stateCache.Get(ctx, "states:"+country, country, s.ttl)
	if err != nil || len(items) == 0 {
		if err != nil {
			log.Warn(log.CatCatalog, "state fetch failed, using embedded defaults",
				"country", country, "error", err)
		}
		return DefaultStates(country)
	}
	return items
}

func (s *Service) set(ctx context.Context, name string, fallback func() []Item) []Item {
	if !s.hasFetcher {
		return fallback()
	}

	items, err := s.setCache.Get(ctx, fmt.Sprintf("set:%s", name), name, s.ttl)
	if err != nil || len(items) == 0 {
		if err != nil {
			log.Warn(log.CatCatalog, "catalog fetch failed, using embedded defaults",
				"catalog", name, "error", err)
		}
		return fallback()
	}
	return items
}
