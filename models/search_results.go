// models/search_results.go
package models

import (
	"encoding/json"
	"fmt"

	"crowdmap/models/geocode"
	"crowdmap/models/site"
)

// ResultKind tags which source a ResultEntry came from.
type ResultKind string

const (
	ResultKindSite     ResultKind = "site"
	ResultKindLocation ResultKind = "location"
)

// ResultEntry is one row of the combined result list. Exactly one of the
// payload pointers matches Kind.
type ResultEntry struct {
	Kind     ResultKind
	site     *site.Site
	location *geocode.Result
}

func SiteEntry(s site.Site) ResultEntry {
	return ResultEntry{Kind: ResultKindSite, site: &s}
}

func LocationEntry(l geocode.Result) ResultEntry {
	return ResultEntry{Kind: ResultKindLocation, location: &l}
}

func (e ResultEntry) AsSite() (site.Site, bool) {
	if e.Kind != ResultKindSite || e.site == nil {
		return site.Site{}, false
	}
	return *e.site, true
}

func (e ResultEntry) AsLocation() (geocode.Result, bool) {
	if e.Kind != ResultKindLocation || e.location == nil {
		return geocode.Result{}, false
	}
	return *e.location, true
}

// Label is the text shown for the entry in a result list.
func (e ResultEntry) Label() string {
	switch e.Kind {
	case ResultKindSite:
		if e.site != nil {
			return e.site.Name
		}
	case ResultKindLocation:
		if e.location != nil {
			return e.location.Text
		}
	}
	return ""
}

type resultEntryJSON struct {
	Kind    ResultKind      `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

func (e ResultEntry) MarshalJSON() ([]byte, error) {
	var payload interface{}
	switch e.Kind {
	case ResultKindSite:
		payload = e.site
	case ResultKindLocation:
		payload = e.location
	default:
		return nil, fmt.Errorf("unknown result kind %q", e.Kind)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(resultEntryJSON{Kind: e.Kind, Payload: raw})
}

func (e *ResultEntry) UnmarshalJSON(data []byte) error {
	var aux resultEntryJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	switch aux.Kind {
	case ResultKindSite:
		var s site.Site
		if err := json.Unmarshal(aux.Payload, &s); err != nil {
			return fmt.Errorf("failed to unmarshal site payload: %w", err)
		}
		*e = SiteEntry(s)
	case ResultKindLocation:
		var l geocode.Result
		if err := json.Unmarshal(aux.Payload, &l); err != nil {
			return fmt.Errorf("failed to unmarshal location payload: %w", err)
		}
		*e = LocationEntry(l)
	default:
		return fmt.Errorf("unknown result kind %q", aux.Kind)
	}
	return nil
}

// SearchResults holds both source lists plus their combined, tagged view.
type SearchResults struct {
	Sites     []site.Site      `json:"sites"`
	Locations []geocode.Result `json:"locations"`
	Combined  []ResultEntry    `json:"combined"`
}

// EmptySearchResults returns results whose lists are empty but non-nil.
func EmptySearchResults() SearchResults {
	return SearchResults{
		Sites:     []site.Site{},
		Locations: []geocode.Result{},
		Combined:  []ResultEntry{},
	}
}

func (r SearchResults) IsEmpty() bool {
	return len(r.Combined) == 0
}
