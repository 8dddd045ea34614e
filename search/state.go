package search

import "crowdmap/models"

// Phase is the coarse lifecycle position of a session.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseTyping   Phase = "typing"
	PhaseLoaded   Phase = "loaded"
	PhaseSelected Phase = "selected"
)

// State is an immutable snapshot of a session. Results slices are shared
// between snapshots and must be treated as read-only.
type State struct {
	Query       string               `json:"query"`
	IsSearching bool                 `json:"is_searching"`
	IsOpen      bool                 `json:"is_open"`
	Results     models.SearchResults `json:"results"`
	Phase       Phase                `json:"phase"`
	Version     uint64               `json:"version"`
}

func idleState() State {
	return State{
		Results: models.EmptySearchResults(),
		Phase:   PhaseIdle,
	}
}
