package weather

import (
	"context"

	weathermodel "crowdmap/models/weather"
)

// WeatherAPI defines the interface for current-conditions lookups.
type WeatherAPI interface {
	GetCurrent(ctx context.Context, lat, lng float64) (*weathermodel.Condition, error)
	SetAPIKey(key string)
}
