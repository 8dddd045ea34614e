package geocode

import "crowdmap/models/site"

// Result is a single place returned by the geocoding provider.
//
// Center is ordered [longitude, latitude], the opposite of site.Location.
// Use Lat, Lng or Location instead of indexing it directly.
type Result struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	PlaceName string     `json:"place_name"`
	Center    [2]float64 `json:"center"`
}

func (r Result) Lng() float64 { return r.Center[0] }

func (r Result) Lat() float64 { return r.Center[1] }

// Location reorders Center into a site.Location.
func (r Result) Location() site.Location {
	return site.Location{Lat: r.Lat(), Lng: r.Lng()}
}
