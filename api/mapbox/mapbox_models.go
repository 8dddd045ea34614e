package mapbox

import "crowdmap/models/geocode"

// FeatureCollection is the subset of a geocoding v5 response we consume.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Query    []string  `json:"query,omitempty"`
	Features []Feature `json:"features"`
}

// Feature is one geocoded place. Center is [lng, lat].
type Feature struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	PlaceName string     `json:"place_name"`
	Center    [2]float64 `json:"center"`
}

func (f Feature) ToResult() geocode.Result {
	return geocode.Result{
		ID:        f.ID,
		Text:      f.Text,
		PlaceName: f.PlaceName,
		Center:    f.Center,
	}
}

func toResults(features []Feature, limit int) []geocode.Result {
	out := make([]geocode.Result, 0, len(features))
	for _, f := range features {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, f.ToResult())
	}
	return out
}
