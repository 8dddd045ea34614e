package mapbox

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"

	"crowdmap/api"
	"crowdmap/models/geocode"
)

// MapboxApiClient embeds the common HTTPClient
type MapboxApiClient struct {
	*api.HTTPClient
	accessToken string
	limit       int
}

// NewMapboxApiClient creates a new instance of MapboxApiClient
func NewMapboxApiClient(httpClient *api.HTTPClient, limit int) *MapboxApiClient {
	if limit <= 0 {
		limit = DEFAULT_LIMIT
	}
	return &MapboxApiClient{
		HTTPClient: httpClient,
		limit:      limit,
	}
}

func (c *MapboxApiClient) SetAccessToken(token string) {
	c.accessToken = token
}

// SearchLocations forward-geocodes query. Queries shorter than MIN_QUERY_LENGTH
// and a missing access token yield an empty list without a network call.
func (c *MapboxApiClient) SearchLocations(ctx context.Context, query string) ([]geocode.Result, error) {
	if c.accessToken == "" {
		log.Println("[MapboxApiClient] Mapbox access token is missing")
		return []geocode.Result{}, nil
	}
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MIN_QUERY_LENGTH {
		return []geocode.Result{}, nil
	}

	params := url.Values{}
	params.Set("access_token", c.accessToken)
	params.Set("types", DEFAULT_TYPES)
	params.Set("limit", strconv.Itoa(c.limit))

	var response FeatureCollection
	endpoint := "/geocoding/v5/mapbox.places/" + url.PathEscape(query) + ".json"
	if err := c.Request(ctx, "GET", endpoint, params, nil, nil, &response); err != nil {
		return nil, fmt.Errorf("mapbox geocoding failed for %q: %w", query, err)
	}
	return toResults(response.Features, c.limit), nil
}
