package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Server config
const HTTP_ADDRESS = ":8080"

// Redis Config. "memory" selects the in-process client.
const REDIS_DB_ADDRESS = "redis:6379"
const REDIS_DB_PASSWORD = ""
const REDIS_DB = 0
const REDIS_MEMORY_ADDRESS = "memory"

// Search config
const SEARCH_DEBOUNCE = 300 * time.Millisecond
const SEARCH_MIN_LENGTH = 1
const SEARCH_SOURCE_TIMEOUT = 10 * time.Second
const SEARCH_CATALOG_LIMIT = 10

// Mapbox Geocoding API
const MAPBOX_ENDPOINT_BASE = "https://api.mapbox.com"
const MAPBOX_RESULT_LIMIT = 5

// Weather API
const WEATHER_ENDPOINT_BASE_V1 = "https://api.weatherapi.com/v1"

// Crowd levels are derived from reports younger than the window and
// recomputed on the refresh interval.
const CROWD_REPORT_WINDOW = 3 * time.Hour
const CROWD_REFRESH_INTERVAL = 10 * time.Minute

// Resources file paths
const RESOURCES_PATH_PREFIX = "resources"
const SITES_RESOURCE = "sites.json"
const GEOCODE_RESPONSE_RESOURCE = "geocode_response.json"

//go:embed config.toml.sample
var configTemplate string

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Redis   RedisConfig   `toml:"redis"`
	Search  SearchConfig  `toml:"search"`
	Mapbox  MapboxConfig  `toml:"mapbox"`
	Weather WeatherConfig `toml:"weather"`
	Crowd   CrowdConfig   `toml:"crowd"`
	Catalog CatalogConfig `toml:"catalog"`
}

type ServerConfig struct {
	Address string `toml:"address"`

	// AllowedOrigins lists extra browser origins that may open search
	// session sockets. The server's own host is always allowed.
	AllowedOrigins []string `toml:"allowed_origins"`
}

type RedisConfig struct {
	Address  string `toml:"address"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type SearchConfig struct {
	Debounce        Duration `toml:"debounce"`
	MinSearchLength int      `toml:"min_search_length"`
	SourceTimeout   Duration `toml:"source_timeout"`
	CatalogLimit    int      `toml:"catalog_limit"`
}

type MapboxConfig struct {
	AccessToken string `toml:"access_token"`
	BaseURL     string `toml:"base_url"`
	Limit       int    `toml:"limit"`
}

type WeatherConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

type CrowdConfig struct {
	ReportWindow    Duration `toml:"report_window"`
	RefreshInterval Duration `toml:"refresh_interval"`
}

type CatalogConfig struct {
	SeedFile string `toml:"seed_file"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{Address: HTTP_ADDRESS},
		Redis: RedisConfig{
			Address:  REDIS_DB_ADDRESS,
			Password: REDIS_DB_PASSWORD,
			DB:       REDIS_DB,
		},
		Search: SearchConfig{
			Debounce:        Duration{SEARCH_DEBOUNCE},
			MinSearchLength: SEARCH_MIN_LENGTH,
			SourceTimeout:   Duration{SEARCH_SOURCE_TIMEOUT},
			CatalogLimit:    SEARCH_CATALOG_LIMIT,
		},
		Mapbox: MapboxConfig{
			BaseURL: MAPBOX_ENDPOINT_BASE,
			Limit:   MAPBOX_RESULT_LIMIT,
		},
		Weather: WeatherConfig{BaseURL: WEATHER_ENDPOINT_BASE_V1},
		Crowd: CrowdConfig{
			ReportWindow:    Duration{CROWD_REPORT_WINDOW},
			RefreshInterval: Duration{CROWD_REFRESH_INTERVAL},
		},
		Catalog: CatalogConfig{SeedFile: GetResourcePath(SITES_RESOURCE)},
	}
}

// Load reads the TOML file at path over the defaults. A missing file or an
// empty path yields the defaults. Environment variables win over both.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("unmarshaling config: %w", err)
			}
		}
	}

	cfg.applyEnv()
	cfg.fillZeroes()
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		name   string
		target *string
	}{
		{"MAPBOX_ACCESS_TOKEN", &c.Mapbox.AccessToken},
		{"WEATHER_API_KEY", &c.Weather.APIKey},
		{"REDIS_ADDR", &c.Redis.Address},
		{"HTTP_ADDR", &c.Server.Address},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.name); v != "" {
			*o.target = v
		}
	}
}

// fillZeroes restores defaults for values a partial file left at zero.
func (c *Config) fillZeroes() {
	d := Default()
	if c.Server.Address == "" {
		c.Server.Address = d.Server.Address
	}
	if c.Redis.Address == "" {
		c.Redis.Address = d.Redis.Address
	}
	if c.Search.Debounce.Duration <= 0 {
		c.Search.Debounce = d.Search.Debounce
	}
	if c.Search.MinSearchLength <= 0 {
		c.Search.MinSearchLength = d.Search.MinSearchLength
	}
	if c.Search.SourceTimeout.Duration <= 0 {
		c.Search.SourceTimeout = d.Search.SourceTimeout
	}
	if c.Search.CatalogLimit <= 0 {
		c.Search.CatalogLimit = d.Search.CatalogLimit
	}
	if c.Mapbox.BaseURL == "" {
		c.Mapbox.BaseURL = d.Mapbox.BaseURL
	}
	if c.Mapbox.Limit <= 0 {
		c.Mapbox.Limit = d.Mapbox.Limit
	}
	if c.Weather.BaseURL == "" {
		c.Weather.BaseURL = d.Weather.BaseURL
	}
	if c.Crowd.ReportWindow.Duration <= 0 {
		c.Crowd.ReportWindow = d.Crowd.ReportWindow
	}
	if c.Crowd.RefreshInterval.Duration <= 0 {
		c.Crowd.RefreshInterval = d.Crowd.RefreshInterval
	}
	if c.Catalog.SeedFile == "" {
		c.Catalog.SeedFile = d.Catalog.SeedFile
	}
}

// SaveTemplateConfig writes the commented sample configuration to path.
func SaveTemplateConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(path, []byte(configTemplate), 0644)
}

// BaseDir returns the absolute path of the project root directory
func BaseDir() string {
	if root := os.Getenv("PROJECT_ROOT"); root != "" {
		return root
	}

	wd, err := os.Getwd()
	if err != nil {
		panic("Unable to determine working directory: " + err.Error())
	}

	return wd
}

func GetResourcePath(resourceFile string) string {
	return filepath.Join(BaseDir(), RESOURCES_PATH_PREFIX, resourceFile)
}
