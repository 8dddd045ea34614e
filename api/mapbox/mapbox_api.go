package mapbox

import (
	"context"

	"crowdmap/models/geocode"
)

// MIN_QUERY_LENGTH is the shortest query sent to the geocoder.
const MIN_QUERY_LENGTH = 3

// DEFAULT_LIMIT caps the number of features returned per query.
const DEFAULT_LIMIT = 5

// DEFAULT_TYPES restricts results to human-meaningful places.
const DEFAULT_TYPES = "place,locality,neighborhood,address,poi"

// MapboxAPI defines the interface for interacting with the Mapbox geocoding API
type MapboxAPI interface {
	SearchLocations(ctx context.Context, query string) ([]geocode.Result, error)
	SetAccessToken(token string)
}
