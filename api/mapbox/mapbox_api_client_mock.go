package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"crowdmap/models/geocode"
)

// MapboxApiClientMock answers from a geocoding response fixture on disk.
// Features are filtered by a case-insensitive substring match on place_name.
type MapboxApiClientMock struct {
	fixturePath string
	limit       int
}

// NewMapboxApiClientMock creates a new instance of MapboxApiClientMock
func NewMapboxApiClientMock(fixturePath string) *MapboxApiClientMock {
	return &MapboxApiClientMock{fixturePath: fixturePath, limit: DEFAULT_LIMIT}
}

func (c *MapboxApiClientMock) SetAccessToken(token string) {}

func (c *MapboxApiClientMock) SearchLocations(ctx context.Context, query string) ([]geocode.Result, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MIN_QUERY_LENGTH {
		return []geocode.Result{}, nil
	}

	fc, err := ReadFeatureCollectionFromJSON(c.fixturePath)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	var matched []Feature
	for _, f := range fc.Features {
		if strings.Contains(strings.ToLower(f.PlaceName), needle) {
			matched = append(matched, f)
		}
	}
	return toResults(matched, c.limit), nil
}

// ReadFeatureCollectionFromJSON loads a FeatureCollection from JSON on disk.
func ReadFeatureCollectionFromJSON(filePath string) (*FeatureCollection, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %q: %w", filePath, err)
	}
	var fc FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal FeatureCollection: %w", err)
	}
	return &fc, nil
}
