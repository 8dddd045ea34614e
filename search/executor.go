package search

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"crowdmap/models"
	"crowdmap/models/geocode"
	"crowdmap/models/site"
)

// DefaultSourceTimeout bounds each source call when none is configured.
const DefaultSourceTimeout = 10 * time.Second

// CatalogSearcher looks sites up by name in the local catalog.
type CatalogSearcher interface {
	SearchSites(ctx context.Context, query string) ([]site.Site, error)
}

// GeocodeSearcher looks places up with an external geocoding provider.
type GeocodeSearcher interface {
	SearchLocations(ctx context.Context, query string) ([]geocode.Result, error)
}

// QueryExecutor turns a query into merged results. It never fails: a source
// that cannot answer contributes an empty list.
type QueryExecutor interface {
	Execute(ctx context.Context, query string) models.SearchResults
}

// Executor queries the catalog and the geocoder concurrently.
type Executor struct {
	catalog       CatalogSearcher
	geocoder      GeocodeSearcher
	sourceTimeout time.Duration
}

// NewExecutor accepts nil sources; a nil source always yields no results.
func NewExecutor(catalog CatalogSearcher, geocoder GeocodeSearcher, sourceTimeout time.Duration) *Executor {
	if sourceTimeout <= 0 {
		sourceTimeout = DefaultSourceTimeout
	}
	return &Executor{
		catalog:       catalog,
		geocoder:      geocoder,
		sourceTimeout: sourceTimeout,
	}
}

// Execute waits for both sources to settle. One source failing never cancels
// or empties the other.
func (e *Executor) Execute(ctx context.Context, query string) models.SearchResults {
	query = strings.TrimSpace(query)

	var (
		sites     []site.Site
		locations []geocode.Result
		g         errgroup.Group
	)
	if e.catalog != nil {
		g.Go(func() error {
			sites = settle(ctx, e.sourceTimeout, "catalog", query, e.catalog.SearchSites)
			return nil
		})
	}
	if e.geocoder != nil {
		g.Go(func() error {
			locations = settle(ctx, e.sourceTimeout, "geocode", query, e.geocoder.SearchLocations)
			return nil
		})
	}
	_ = g.Wait()

	return Merge(sites, locations)
}

func settle[T any](
	ctx context.Context,
	timeout time.Duration,
	source, query string,
	fn func(context.Context, string) ([]T, error),
) (out []T) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[SearchExecutor] %s search panicked for %q: %v", source, query, r)
			out = nil
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	items, err := fn(ctx, query)
	if err != nil {
		log.Printf("[SearchExecutor] %s search failed for %q after %v: %v",
			source, query, time.Since(start).Round(time.Millisecond), err)
		return nil
	}
	return items
}

// String is used in logs.
func (e *Executor) String() string {
	return fmt.Sprintf("Executor(catalog=%t, geocoder=%t, timeout=%v)",
		e.catalog != nil, e.geocoder != nil, e.sourceTimeout)
}
