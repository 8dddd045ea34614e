package di

import (
	"context"
	"fmt"
	"log"

	goredis "github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"

	"crowdmap/api"
	"crowdmap/api/mapbox"
	"crowdmap/api/weather"
	"crowdmap/config"
	"crowdmap/dao/redis"
	"crowdmap/db"
	"crowdmap/search"
	"crowdmap/server"
	"crowdmap/server/handlers"
	services "crowdmap/service"
)

const ENV_PROD = "prod"

// Container holds all application dependencies.
type Container struct {
	Config                     *config.Config
	RedisClient                db.RedisClient
	RedisSiteDao               *redis.RedisSiteDAO
	RedisReportDao             *redis.RedisReportDAO
	MapboxAPI                  mapbox.MapboxAPI
	WeatherAPI                 weather.WeatherAPI
	SiteService                *services.SiteService
	ReportService              *services.ReportService
	CatalogImporterService     *services.CatalogImporterService
	CrowdLevelRefresherService *services.CrowdLevelRefresherService
	SearchExecutor             *search.Executor
	SiteHandler                *handlers.SiteHandler
	ReportHandler              *handlers.ReportHandler
	SearchHandler              *handlers.SearchHandler
	SessionHandler             *handlers.SessionHandler
	MuxRouter                  *mux.Router
	Router                     *server.Router
	CrowdMapHttpServer         *server.CrowdMapHttpServer
}

// NewContainer initializes and wires up all dependencies. Outside prod the
// geocoder answers from the fixture in resources.
func NewContainer(ctx context.Context, cfg *config.Config, env string) (*Container, error) {
	log.Printf("initializing container - env: %s", env)

	redisClient, err := newRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	redisSiteDao := redis.NewRedisSiteDAO(redisClient)
	redisReportDao := redis.NewRedisReportDAO(redisClient)

	var mapboxApiClient mapbox.MapboxAPI
	if env != ENV_PROD {
		log.Printf("Using mock mapbox api")
		mapboxApiClient = mapbox.NewMapboxApiClientMock(config.GetResourcePath(config.GEOCODE_RESPONSE_RESOURCE))
	} else {
		log.Printf("Using prod mapbox api")
		mapboxApiClient = mapbox.NewMapboxApiClient(api.NewHTTPClient(cfg.Mapbox.BaseURL), cfg.Mapbox.Limit)
		mapboxApiClient.SetAccessToken(cfg.Mapbox.AccessToken)
	}

	var weatherApiClient weather.WeatherAPI
	if cfg.Weather.APIKey != "" {
		weatherApiClient = weather.NewWeatherApiClient(api.NewHTTPClient(cfg.Weather.BaseURL))
		weatherApiClient.SetAPIKey(cfg.Weather.APIKey)
	} else {
		log.Printf("No weather api key configured, site details will omit weather")
	}

	siteService := services.NewSiteService(
		redisSiteDao,
		redisReportDao,
		weatherApiClient,
		cfg.Search.CatalogLimit,
		cfg.Crowd.ReportWindow.Duration,
	)
	reportService := services.NewReportService(redisReportDao, siteService)
	catalogImporterService := services.NewCatalogImporterService(siteService)
	crowdLevelRefresherService := services.NewCrowdLevelRefresherService(siteService)

	executor := search.NewExecutor(siteService, mapboxApiClient, cfg.Search.SourceTimeout.Duration)
	log.Printf("Search executor: %s", executor)

	siteHandler := handlers.NewSiteHandler(siteService)
	reportHandler := handlers.NewReportHandler(reportService)
	searchHandler := handlers.NewSearchHandler(executor, cfg.Search.MinSearchLength)
	sessionHandler := handlers.NewSessionHandler(executor, siteService, SessionConfig(cfg), cfg.Server.AllowedOrigins)

	muxRouter := mux.NewRouter()
	router := server.NewRouter(siteHandler, reportHandler, searchHandler, sessionHandler, muxRouter)
	crowdMapHttpServer := server.NewCrowdMapHttpServer(router, muxRouter, cfg.Server.Address)

	return &Container{
		Config:                     cfg,
		RedisClient:                redisClient,
		RedisSiteDao:               redisSiteDao,
		RedisReportDao:             redisReportDao,
		MapboxAPI:                  mapboxApiClient,
		WeatherAPI:                 weatherApiClient,
		SiteService:                siteService,
		ReportService:              reportService,
		CatalogImporterService:     catalogImporterService,
		CrowdLevelRefresherService: crowdLevelRefresherService,
		SearchExecutor:             executor,
		SiteHandler:                siteHandler,
		ReportHandler:              reportHandler,
		SearchHandler:              searchHandler,
		SessionHandler:             sessionHandler,
		MuxRouter:                  muxRouter,
		Router:                     router,
		CrowdMapHttpServer:         crowdMapHttpServer,
	}, nil
}

// SessionConfig builds the search session settings; hosts add their own
// selection callbacks.
func SessionConfig(cfg *config.Config) search.Config {
	return search.Config{
		Debounce:        cfg.Search.Debounce.Duration,
		MinSearchLength: cfg.Search.MinSearchLength,
	}
}

func newRedisClient(ctx context.Context, cfg config.RedisConfig) (db.RedisClient, error) {
	if cfg.Address == config.REDIS_MEMORY_ADDRESS {
		log.Printf("Using in-memory redis client")
		return db.NewMemoryRedisClient(), nil
	}

	redisClient := db.NewGeoRedisClient(goredis.NewClient(&goredis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	}))
	if err := redisClient.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}
	return redisClient, nil
}
