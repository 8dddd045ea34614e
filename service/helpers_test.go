package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"crowdmap/dao/redis"
	"crowdmap/db"
	"crowdmap/models/site"
	weathermodel "crowdmap/models/weather"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type stubWeatherApi struct {
	condition *weathermodel.Condition
	err       error
	calls     int
}

func (s *stubWeatherApi) GetCurrent(ctx context.Context, lat, lng float64) (*weathermodel.Condition, error) {
	s.calls++
	return s.condition, s.err
}

func (s *stubWeatherApi) SetAPIKey(key string) {}

var errWeatherDown = errors.New("weather down")

type fixture struct {
	siteDao       *redis.RedisSiteDAO
	reportDao     *redis.RedisReportDAO
	weather       *stubWeatherApi
	siteService   *SiteService
	reportService *ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := db.NewMemoryRedisClient()
	f := &fixture{
		siteDao:   redis.NewRedisSiteDAO(client),
		reportDao: redis.NewRedisReportDAO(client),
		weather:   &stubWeatherApi{},
	}
	f.siteService = NewSiteService(f.siteDao, f.reportDao, f.weather, 0, 0)
	f.siteService.now = func() time.Time { return testNow }
	f.reportService = NewReportService(f.reportDao, f.siteService)
	f.reportService.now = func() time.Time { return testNow }
	return f
}

func (f *fixture) seed(t *testing.T, sites ...site.Site) {
	t.Helper()
	for _, s := range sites {
		require.NoError(t, f.siteService.UpsertSite(context.Background(), s))
	}
}

func paris() []site.Site {
	return []site.Site{
		{ID: "s1", Name: "Paris Opera", Location: site.Location{Lat: 48.8720, Lng: 2.3316}, CrowdLevel: site.CrowdLevelModerate},
		{ID: "s2", Name: "Pantheon", Location: site.Location{Lat: 48.8462, Lng: 2.3464}, CrowdLevel: site.CrowdLevelLow},
		{ID: "s3", Name: "paris Plage", Location: site.Location{Lat: 48.8566, Lng: 2.3522}, CrowdLevel: site.CrowdLevelCritical},
		{ID: "s4", Name: "Louvre", Location: site.Location{Lat: 48.8606, Lng: 2.3376}, CrowdLevel: site.CrowdLevelHigh},
	}
}
