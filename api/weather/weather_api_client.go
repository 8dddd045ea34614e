package weather

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/url"
	"strconv"

	"crowdmap/api"
	weathermodel "crowdmap/models/weather"
)

type currentResponse struct {
	Current struct {
		TempC     float64 `json:"temp_c"`
		Humidity  int     `json:"humidity"`
		WindKph   float64 `json:"wind_kph"`
		Condition struct {
			Text string `json:"text"`
			Icon string `json:"icon"`
		} `json:"condition"`
	} `json:"current"`
}

// WeatherApiClient embeds the common HTTPClient
type WeatherApiClient struct {
	*api.HTTPClient
	apiKey string
}

func NewWeatherApiClient(httpClient *api.HTTPClient) *WeatherApiClient {
	return &WeatherApiClient{HTTPClient: httpClient}
}

func (c *WeatherApiClient) SetAPIKey(key string) {
	c.apiKey = key
}

// GetCurrent returns nil, nil when no API key is configured.
func (c *WeatherApiClient) GetCurrent(ctx context.Context, lat, lng float64) (*weathermodel.Condition, error) {
	if c.apiKey == "" {
		log.Println("[WeatherApiClient] Weather API key not configured")
		return nil, nil
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("aqi", "no")

	var response currentResponse
	if err := c.Request(ctx, "GET", "/current.json", params, nil, nil, &response); err != nil {
		return nil, fmt.Errorf("weather lookup failed for %f,%f: %w", lat, lng, err)
	}

	return &weathermodel.Condition{
		Temperature: int(math.Round(response.Current.TempC)),
		Condition:   response.Current.Condition.Text,
		Humidity:    response.Current.Humidity,
		WindSpeed:   int(math.Round(response.Current.WindKph)),
		Icon:        response.Current.Condition.Icon,
	}, nil
}
