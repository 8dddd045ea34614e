package search

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crowdmap/models"
	"crowdmap/models/geocode"
	"crowdmap/models/site"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func newTestSession(t *testing.T, catalog *fakeCatalog, geocoder *fakeGeocoder, cfg Config) (*Session, *fakeScheduler) {
	t.Helper()
	sched := &fakeScheduler{}
	cfg.Scheduler = sched
	s := NewSession(context.Background(), NewExecutor(catalog, geocoder, time.Second), cfg)
	t.Cleanup(s.Close)
	return s, sched
}

func waitLoaded(t *testing.T, s *Session) State {
	t.Helper()
	require.Eventually(t, func() bool {
		st := s.State()
		return !st.IsSearching && st.Phase == PhaseLoaded
	}, waitFor, tick)
	return s.State()
}

// blockingCatalog answers query block only after release is closed.
func blockingCatalog(block string, release <-chan struct{}, slow, fast []site.Site) *fakeCatalog {
	return &fakeCatalog{fn: func(ctx context.Context, q string) ([]site.Site, error) {
		if q == block {
			select {
			case <-release:
				return slow, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return fast, nil
	}}
}

func TestSession_InitialState(t *testing.T) {
	s, _ := newTestSession(t, &fakeCatalog{}, &fakeGeocoder{}, Config{})

	st := s.State()
	assert.Equal(t, "", st.Query)
	assert.False(t, st.IsSearching)
	assert.False(t, st.IsOpen)
	assert.True(t, st.Results.IsEmpty())
	assert.Equal(t, PhaseIdle, st.Phase)
}

func TestSession_ShortQueryClearsSynchronously(t *testing.T) {
	catalog := &fakeCatalog{}
	geocoder := &fakeGeocoder{}
	s, sched := newTestSession(t, catalog, geocoder, Config{MinSearchLength: 3})

	st := s.PerformSearch("ab")
	assert.Equal(t, "ab", st.Query)
	assert.True(t, st.IsOpen)
	assert.False(t, st.IsSearching)
	assert.True(t, st.Results.IsEmpty())
	assert.Equal(t, 0, sched.Live())

	st = s.PerformSearch("   ")
	assert.False(t, st.IsSearching)
	assert.Equal(t, 0, sched.Live())

	assert.Empty(t, catalog.Queries())
	assert.Empty(t, geocoder.Queries())
}

func TestSession_ShortQueryCancelsPendingSearch(t *testing.T) {
	catalog := &fakeCatalog{}
	s, sched := newTestSession(t, catalog, &fakeGeocoder{}, Config{MinSearchLength: 3})

	st := s.PerformSearch("cof")
	assert.True(t, st.IsSearching)
	pending := sched.Last()

	st = s.PerformSearch("co")
	assert.False(t, st.IsSearching)
	assert.Equal(t, 0, sched.Live())

	// Even if the old timer slipped through, its token is stale.
	pending.ForceFire()
	assert.Empty(t, catalog.Queries())
	assert.False(t, s.State().IsSearching)
}

func TestSession_WhitespaceOnlyQueryWithDefaultMinimum(t *testing.T) {
	catalog := &fakeCatalog{}
	s, sched := newTestSession(t, catalog, &fakeGeocoder{}, Config{})

	st := s.PerformSearch(" \t ")
	assert.False(t, st.IsSearching)
	assert.Equal(t, 0, sched.Live())
	assert.Empty(t, catalog.Queries())
}

func TestSession_RapidTypingRunsOneSearchWithLastQuery(t *testing.T) {
	catalog := &fakeCatalog{}
	geocoder := &fakeGeocoder{}
	s, sched := newTestSession(t, catalog, geocoder, Config{})

	for _, q := range []string{"c", "co", "cof"} {
		st := s.PerformSearch(q)
		assert.True(t, st.IsSearching)
		assert.True(t, st.IsOpen)
	}
	assert.Equal(t, 1, sched.Live())
	assert.Equal(t, DefaultDebounce, sched.Last().delay)

	assert.Equal(t, 1, sched.FireAll())
	st := waitLoaded(t, s)

	assert.Equal(t, "cof", st.Query)
	assert.Equal(t, []string{"cof"}, catalog.Queries())
	assert.Equal(t, []string{"cof"}, geocoder.Queries())
}

func TestSession_SetQueryBehavesLikePerformSearch(t *testing.T) {
	catalog := &fakeCatalog{}
	s, sched := newTestSession(t, catalog, &fakeGeocoder{}, Config{})

	st := s.SetQuery("louvre")
	assert.Equal(t, "louvre", st.Query)
	assert.True(t, st.IsSearching)
	assert.Equal(t, 1, sched.Live())

	sched.FireAll()
	waitLoaded(t, s)
	assert.Equal(t, []string{"louvre"}, catalog.Queries())
}

func TestSession_StaleResponseIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	catalog := blockingCatalog("paris", release, []site.Site{siteA}, []site.Site{siteB})
	s, sched := newTestSession(t, catalog, &fakeGeocoder{}, Config{})

	s.PerformSearch("paris")
	go sched.Last().Fire()
	require.Eventually(t, func() bool { return len(catalog.Queries()) == 1 }, waitFor, tick)

	s.PerformSearch("paris p")
	sched.Last().Fire()
	st := waitLoaded(t, s)
	require.Equal(t, []site.Site{siteB}, st.Results.Sites)

	close(release)
	assert.Never(t, func() bool {
		return s.State().Version != st.Version
	}, 150*time.Millisecond, tick)

	final := s.State()
	assert.Equal(t, "paris p", final.Query)
	assert.Equal(t, []site.Site{siteB}, final.Results.Sites)
}

func TestSession_StaleResponseDoesNotClearSearchingFlag(t *testing.T) {
	release := make(chan struct{})
	catalog := blockingCatalog("paris", release, []site.Site{siteA}, nil)
	s, sched := newTestSession(t, catalog, &fakeGeocoder{}, Config{})

	s.PerformSearch("paris")
	go sched.Last().Fire()
	require.Eventually(t, func() bool { return len(catalog.Queries()) == 1 }, waitFor, tick)

	// The newer search is still debouncing when the older one returns.
	s.PerformSearch("paris p")
	close(release)

	assert.Never(t, func() bool { return !s.State().IsSearching }, 150*time.Millisecond, tick)
	assert.True(t, s.State().Results.IsEmpty())
}

func TestSession_PartialFailureShowsLocations(t *testing.T) {
	catalog := &fakeCatalog{fn: func(ctx context.Context, q string) ([]site.Site, error) {
		return nil, errors.New("catalog unavailable")
	}}
	geocoder := &fakeGeocoder{fn: func(ctx context.Context, q string) ([]geocode.Result, error) {
		return []geocode.Result{locX, locY}, nil
	}}
	s, sched := newTestSession(t, catalog, geocoder, Config{})

	s.PerformSearch("Paris")
	sched.FireAll()
	st := waitLoaded(t, s)

	assert.Empty(t, st.Results.Sites)
	assert.Equal(t, []geocode.Result{locX, locY}, st.Results.Locations)
	require.Len(t, st.Results.Combined, 2)
	assert.Equal(t, models.ResultKindLocation, st.Results.Combined[0].Kind)
	assert.Equal(t, models.ResultKindLocation, st.Results.Combined[1].Kind)
}

func TestSession_SelectSite(t *testing.T) {
	var (
		mu       sync.Mutex
		selected []site.Site
	)
	catalog := &fakeCatalog{fn: func(ctx context.Context, q string) ([]site.Site, error) {
		return []site.Site{siteA, siteB}, nil
	}}
	s, sched := newTestSession(t, catalog, &fakeGeocoder{}, Config{
		OnSiteSelect: func(s site.Site) {
			mu.Lock()
			selected = append(selected, s)
			mu.Unlock()
		},
	})

	s.PerformSearch("par")
	sched.FireAll()
	waitLoaded(t, s)

	s.PerformSearch("pari")
	pending := sched.Last()

	st := s.SelectSite(siteA)
	assert.Equal(t, "Paris Opera", st.Query)
	assert.False(t, st.IsOpen)
	assert.False(t, st.IsSearching)
	assert.True(t, st.Results.IsEmpty())
	assert.Equal(t, PhaseSelected, st.Phase)
	assert.Equal(t, 0, sched.Live())

	mu.Lock()
	assert.Equal(t, []site.Site{siteA}, selected)
	mu.Unlock()

	pending.ForceFire()
	assert.Equal(t, []string{"par"}, catalog.Queries())
	assert.Equal(t, st, s.State())
}

func TestSession_SelectLocation(t *testing.T) {
	var calls int32
	var got geocode.Result
	s, _ := newTestSession(t, &fakeCatalog{}, &fakeGeocoder{}, Config{
		OnLocationSelect: func(l geocode.Result) {
			atomic.AddInt32(&calls, 1)
			got = l
		},
	})

	s.PerformSearch("paris")
	st := s.SelectLocation(locY)

	assert.Equal(t, "Paris", st.Query)
	assert.False(t, st.IsOpen)
	assert.False(t, st.IsSearching)
	assert.True(t, st.Results.IsEmpty())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "place.2", got.ID)
	assert.InDelta(t, 33.6609, got.Lat(), 1e-9)
}

func TestSession_SelectWithoutCallbacks(t *testing.T) {
	s, _ := newTestSession(t, &fakeCatalog{}, &fakeGeocoder{}, Config{})

	assert.NotPanics(t, func() {
		s.SelectSite(siteA)
		s.SelectLocation(locX)
	})
}

func TestSession_ClearSearchDuringInFlight(t *testing.T) {
	release := make(chan struct{})
	catalog := blockingCatalog("paris", release, []site.Site{siteA}, nil)
	s, sched := newTestSession(t, catalog, &fakeGeocoder{}, Config{})

	s.PerformSearch("paris")
	go sched.Last().Fire()
	require.Eventually(t, func() bool { return len(catalog.Queries()) == 1 }, waitFor, tick)

	st := s.ClearSearch()
	assert.Equal(t, "", st.Query)
	assert.False(t, st.IsOpen)
	assert.False(t, st.IsSearching)
	assert.Equal(t, PhaseIdle, st.Phase)

	close(release)
	assert.Never(t, func() bool {
		return s.State().Version != st.Version
	}, 150*time.Millisecond, tick)
	assert.True(t, s.State().Results.IsEmpty())
}

func TestSession_ClearSearchCancelsDebounce(t *testing.T) {
	catalog := &fakeCatalog{}
	s, sched := newTestSession(t, catalog, &fakeGeocoder{}, Config{})

	s.PerformSearch("paris")
	s.ClearSearch()

	assert.Equal(t, 0, sched.FireAll())
	assert.Empty(t, catalog.Queries())
}

func TestSession_CloseDropdownKeepsInFlightSearch(t *testing.T) {
	release := make(chan struct{})
	catalog := blockingCatalog("paris", release, []site.Site{siteA}, nil)
	s, sched := newTestSession(t, catalog, &fakeGeocoder{}, Config{})

	s.PerformSearch("paris")
	go sched.Last().Fire()
	require.Eventually(t, func() bool { return len(catalog.Queries()) == 1 }, waitFor, tick)

	st := s.CloseDropdown()
	assert.False(t, st.IsOpen)
	assert.True(t, st.IsSearching)
	assert.Equal(t, "paris", st.Query)

	close(release)
	st = waitLoaded(t, s)
	assert.False(t, st.IsOpen)
	assert.Equal(t, []site.Site{siteA}, st.Results.Sites)

	st = s.OpenDropdown()
	assert.True(t, st.IsOpen)
	assert.Equal(t, []site.Site{siteA}, st.Results.Sites)
}

func TestSession_ObserversSeeEveryChangeInOrder(t *testing.T) {
	s, sched := newTestSession(t, &fakeCatalog{}, &fakeGeocoder{}, Config{})
	rec := &stateRecorder{}
	unsubscribe := s.Subscribe(rec.observe)

	s.PerformSearch("c")
	s.PerformSearch("co")
	sched.FireAll()
	waitLoaded(t, s)
	s.CloseDropdown()

	require.Eventually(t, func() bool { return len(rec.All()) == 4 }, waitFor, tick)
	states := rec.All()
	for i := 1; i < len(states); i++ {
		assert.Equal(t, states[i-1].Version+1, states[i].Version)
	}
	assert.Equal(t, PhaseLoaded, states[2].Phase)
	assert.False(t, states[3].IsOpen)

	unsubscribe()
	s.OpenDropdown()
	assert.Never(t, func() bool { return len(rec.All()) != 4 }, 50*time.Millisecond, tick)
}

func TestSession_ObserverMayCallBackIntoSession(t *testing.T) {
	s, _ := newTestSession(t, &fakeCatalog{}, &fakeGeocoder{}, Config{})

	var closedOnce sync.Once
	s.Subscribe(func(st State) {
		_ = s.State()
		if st.IsOpen {
			closedOnce.Do(func() { s.CloseDropdown() })
		}
	})

	s.OpenDropdown()
	assert.Eventually(t, func() bool { return !s.State().IsOpen }, waitFor, tick)
}

type panickingExecutor struct{}

func (panickingExecutor) Execute(ctx context.Context, query string) models.SearchResults {
	panic("merge failed")
}

func TestSession_CatastrophicFailureClearsResults(t *testing.T) {
	sched := &fakeScheduler{}
	s := NewSession(context.Background(), panickingExecutor{}, Config{Scheduler: sched})
	defer s.Close()

	s.PerformSearch("paris")
	sched.FireAll()

	st := s.State()
	assert.False(t, st.IsSearching)
	assert.True(t, st.Results.IsEmpty())
}

func TestSession_CloseCancelsInFlightAndFreezesState(t *testing.T) {
	started := make(chan struct{})
	cancelled := make(chan struct{})
	catalog := &fakeCatalog{fn: func(ctx context.Context, q string) ([]site.Site, error) {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return nil, ctx.Err()
	}}
	sched := &fakeScheduler{}
	s := NewSession(context.Background(), NewExecutor(catalog, &fakeGeocoder{}, time.Minute), Config{Scheduler: sched})

	s.PerformSearch("paris")
	go sched.Last().Fire()
	<-started

	s.Close()
	select {
	case <-cancelled:
	default:
		t.Fatal("in-flight source was not cancelled")
	}

	before := s.State()
	assert.Equal(t, before, s.PerformSearch("louvre"))
	assert.Equal(t, before, s.ClearSearch())
	assert.NotPanics(t, s.Close)
}

func TestSession_EndToEndWithRealClock(t *testing.T) {
	catalog := &fakeCatalog{fn: func(ctx context.Context, q string) ([]site.Site, error) {
		return []site.Site{}, nil
	}}
	geocoder := &fakeGeocoder{fn: func(ctx context.Context, q string) ([]geocode.Result, error) {
		if len(q) < 3 {
			return []geocode.Result{}, nil
		}
		return []geocode.Result{cafe}, nil
	}}
	s := NewSession(context.Background(), NewExecutor(catalog, geocoder, time.Second), Config{})
	defer s.Close()

	start := time.Now()
	s.PerformSearch("c")
	s.PerformSearch("co")
	s.PerformSearch("cof")

	st := waitLoaded(t, s)
	assert.GreaterOrEqual(t, time.Since(start), DefaultDebounce)
	require.Len(t, st.Results.Combined, 1)
	assert.Equal(t, models.ResultKindLocation, st.Results.Combined[0].Kind)
	assert.Equal(t, "Coffee Lab", st.Results.Combined[0].Label())
	assert.Equal(t, []string{"cof"}, catalog.Queries())
	assert.Equal(t, []string{"cof"}, geocoder.Queries())
}
