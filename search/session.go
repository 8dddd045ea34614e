// Package search implements the incremental search engine behind the map
// search bar: debounced queries, stale-response suppression, concurrent
// catalog and geocoder lookups, and the session state the UI renders.
package search

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"crowdmap/models"
	"crowdmap/models/geocode"
	"crowdmap/models/site"
)

const (
	DefaultDebounce        = 300 * time.Millisecond
	DefaultMinSearchLength = 1
)

// Config tunes a Session. Zero values fall back to the defaults.
type Config struct {
	Debounce         time.Duration
	MinSearchLength  int
	OnSiteSelect     func(site.Site)
	OnLocationSelect func(geocode.Result)
	Scheduler        Scheduler
}

func (c Config) withDefaults() Config {
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.MinSearchLength <= 0 {
		c.MinSearchLength = DefaultMinSearchLength
	}
	if c.Scheduler == nil {
		c.Scheduler = SystemScheduler
	}
	return c
}

// Session is one search bar. All methods are safe for concurrent use.
// Observers are called in notification order from a single goroutine, never
// while the session lock is held, so they may call back into the session.
type Session struct {
	mu        sync.Mutex
	cfg       Config
	executor  QueryExecutor
	seq       Sequencer
	debouncer *Debouncer
	state     State
	closed    bool

	ctx      context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup

	observers    map[int]func(State)
	nextObserver int
	queue        []State
	wake         chan struct{}
	stop         chan struct{}
	dispatchDone chan struct{}
}

func NewSession(ctx context.Context, executor QueryExecutor, cfg Config) *Session {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(ctx)

	s := &Session{
		cfg:          cfg,
		executor:     executor,
		debouncer:    NewDebouncer(cfg.Debounce, cfg.Scheduler),
		state:        idleState(),
		ctx:          ctx,
		cancel:       cancel,
		observers:    make(map[int]func(State)),
		wake:         make(chan struct{}, 1),
		stop:         make(chan struct{}),
		dispatchDone: make(chan struct{}),
	}
	go s.dispatch()
	return s
}

// State returns the current snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn for every subsequent state change. The returned
// function unregisters it.
func (s *Session) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextObserver
	s.nextObserver++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// SetQuery records the text the user typed and schedules a search for it.
func (s *Session) SetQuery(query string) State {
	return s.PerformSearch(query)
}

// PerformSearch opens the dropdown and either clears the results right away,
// when the trimmed query is shorter than MinSearchLength, or schedules a
// debounced search. Any pending or in-flight search is superseded.
func (s *Session) PerformSearch(query string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.state
	}

	s.debouncer.Cancel()
	token := s.seq.Next()

	s.state.Query = query
	s.state.IsOpen = true
	s.state.Phase = PhaseTyping

	trimmed := strings.TrimSpace(query)
	if trimmed == "" || utf8.RuneCountInString(trimmed) < s.cfg.MinSearchLength {
		s.state.Results = models.EmptySearchResults()
		s.state.IsSearching = false
		return s.publishLocked()
	}

	s.state.IsSearching = true
	s.debouncer.Trigger(func() { s.run(token, query) })
	return s.publishLocked()
}

// SelectSite commits a site pick: the query becomes its name, the dropdown
// closes, and OnSiteSelect is called once after the state is updated.
func (s *Session) SelectSite(selected site.Site) State {
	s.mu.Lock()
	if s.closed {
		defer s.mu.Unlock()
		return s.state
	}
	s.resetLocked(selected.Name, PhaseSelected)
	snapshot := s.publishLocked()
	callback := s.cfg.OnSiteSelect
	s.mu.Unlock()

	if callback != nil {
		callback(selected)
	}
	return snapshot
}

// SelectLocation mirrors SelectSite for geocoder results, using the
// location's display text as the query.
func (s *Session) SelectLocation(selected geocode.Result) State {
	s.mu.Lock()
	if s.closed {
		defer s.mu.Unlock()
		return s.state
	}
	s.resetLocked(selected.Text, PhaseSelected)
	snapshot := s.publishLocked()
	callback := s.cfg.OnLocationSelect
	s.mu.Unlock()

	if callback != nil {
		callback(selected)
	}
	return snapshot
}

// ClearSearch returns the session to idle and drops any pending search.
func (s *Session) ClearSearch() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.state
	}
	s.resetLocked("", PhaseIdle)
	return s.publishLocked()
}

func (s *Session) OpenDropdown() State {
	return s.setOpen(true)
}

// CloseDropdown only hides the dropdown. Results and any in-flight search
// are left alone.
func (s *Session) CloseDropdown() State {
	return s.setOpen(false)
}

func (s *Session) setOpen(open bool) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.state
	}
	s.state.IsOpen = open
	return s.publishLocked()
}

// Close stops pending timers, cancels in-flight source calls and waits for
// them and for queued notifications to drain. Later calls are no-ops.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.debouncer.Cancel()
	s.seq.Next()
	s.mu.Unlock()

	s.cancel()
	s.inflight.Wait()
	close(s.stop)
	<-s.dispatchDone
}

// resetLocked invalidates any outstanding search and replaces the state with
// a closed dropdown holding no results.
func (s *Session) resetLocked(query string, phase Phase) {
	s.debouncer.Cancel()
	s.seq.Next()
	s.state = State{
		Query:   query,
		Results: models.EmptySearchResults(),
		Phase:   phase,
		Version: s.state.Version,
	}
}

func (s *Session) run(token Token, query string) {
	s.mu.Lock()
	if s.closed || !s.seq.IsCurrent(token) {
		s.mu.Unlock()
		return
	}
	s.inflight.Add(1)
	ctx := s.ctx
	s.mu.Unlock()
	defer s.inflight.Done()

	results, ok := s.execute(ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.seq.IsCurrent(token) {
		log.Printf("[SearchSession] Discarding stale results for %q (token %d, latest %d)",
			query, token, s.seq.Latest())
		return
	}
	if !ok {
		results = models.EmptySearchResults()
	}
	s.state.Results = results
	s.state.IsSearching = false
	s.state.Phase = PhaseLoaded
	s.publishLocked()
}

func (s *Session) execute(ctx context.Context, query string) (results models.SearchResults, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[SearchSession] Search for %q failed: %v", query, r)
			ok = false
		}
	}()
	return s.executor.Execute(ctx, query), true
}

func (s *Session) publishLocked() State {
	s.state.Version++
	snapshot := s.state
	s.queue = append(s.queue, snapshot)
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return snapshot
}

func (s *Session) dispatch() {
	defer close(s.dispatchDone)
	for {
		select {
		case <-s.wake:
			s.drain()
		case <-s.stop:
			s.drain()
			return
		}
	}
}

func (s *Session) drain() {
	for {
		s.mu.Lock()
		batch := s.queue
		s.queue = nil
		ids := make([]int, 0, len(s.observers))
		for id := range s.observers {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		observers := make([]func(State), 0, len(ids))
		for _, id := range ids {
			observers = append(observers, s.observers[id])
		}
		s.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, snapshot := range batch {
			for _, observer := range observers {
				observer(snapshot)
			}
		}
	}
}
