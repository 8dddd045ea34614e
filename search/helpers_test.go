package search

import (
	"context"
	"sync"
	"time"

	"crowdmap/models/geocode"
	"crowdmap/models/site"
)

// fakeScheduler records timers and fires them only when told to.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	mu      sync.Mutex
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{delay: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

// Fire runs the callback unless the timer was stopped or already fired.
func (t *fakeTimer) Fire() bool {
	t.mu.Lock()
	if t.stopped || t.fired {
		t.mu.Unlock()
		return false
	}
	t.fired = true
	t.mu.Unlock()
	t.f()
	return true
}

// ForceFire runs the callback even if stopped, as a runtime timer that
// fired just before Stop would.
func (t *fakeTimer) ForceFire() {
	t.f()
}

// FireAll fires every live timer and returns how many ran.
func (s *fakeScheduler) FireAll() int {
	s.mu.Lock()
	timers := append([]*fakeTimer(nil), s.timers...)
	s.mu.Unlock()

	n := 0
	for _, t := range timers {
		if t.Fire() {
			n++
		}
	}
	return n
}

func (s *fakeScheduler) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		t.mu.Lock()
		if !t.stopped && !t.fired {
			n++
		}
		t.mu.Unlock()
	}
	return n
}

func (s *fakeScheduler) Last() *fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		return nil
	}
	return s.timers[len(s.timers)-1]
}

// fakeCatalog and fakeGeocoder record queries and answer through fn.
type fakeCatalog struct {
	mu      sync.Mutex
	queries []string
	fn      func(ctx context.Context, query string) ([]site.Site, error)
}

func (c *fakeCatalog) SearchSites(ctx context.Context, query string) ([]site.Site, error) {
	c.mu.Lock()
	c.queries = append(c.queries, query)
	fn := c.fn
	c.mu.Unlock()
	if fn == nil {
		return []site.Site{}, nil
	}
	return fn(ctx, query)
}

func (c *fakeCatalog) Queries() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.queries...)
}

type fakeGeocoder struct {
	mu      sync.Mutex
	queries []string
	fn      func(ctx context.Context, query string) ([]geocode.Result, error)
}

func (g *fakeGeocoder) SearchLocations(ctx context.Context, query string) ([]geocode.Result, error) {
	g.mu.Lock()
	g.queries = append(g.queries, query)
	fn := g.fn
	g.mu.Unlock()
	if fn == nil {
		return []geocode.Result{}, nil
	}
	return fn(ctx, query)
}

func (g *fakeGeocoder) Queries() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.queries...)
}

// stateRecorder collects every notified snapshot.
type stateRecorder struct {
	mu     sync.Mutex
	states []State
}

func (r *stateRecorder) observe(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *stateRecorder) All() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

var (
	siteA = site.Site{ID: "a", Name: "Paris Opera", Location: site.Location{Lat: 48.872, Lng: 2.3316}}
	siteB = site.Site{ID: "b", Name: "Paris Plage", Location: site.Location{Lat: 48.8566, Lng: 2.3522}}
	locX  = geocode.Result{ID: "place.1", Text: "Paris", PlaceName: "Paris, France", Center: [2]float64{2.3522, 48.8566}}
	locY  = geocode.Result{ID: "place.2", Text: "Paris", PlaceName: "Paris, Texas, United States", Center: [2]float64{-95.5555, 33.6609}}
	cafe  = geocode.Result{ID: "poi.9", Text: "Coffee Lab", PlaceName: "Coffee Lab, Lisbon, Portugal", Center: [2]float64{-9.1393, 38.7223}}
)
