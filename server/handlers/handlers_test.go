package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"crowdmap/api/weather"
	"crowdmap/dao/redis"
	"crowdmap/db"
	"crowdmap/models/geocode"
	"crowdmap/models/site"
	"crowdmap/search"
	services "crowdmap/service"
)

type stubGeocoder struct {
	results []geocode.Result
}

func (g *stubGeocoder) SearchLocations(ctx context.Context, query string) ([]geocode.Result, error) {
	if len([]rune(query)) < 3 {
		return []geocode.Result{}, nil
	}
	return g.results, nil
}

var parisFrance = geocode.Result{
	ID:        "place.1",
	Text:      "Paris",
	PlaceName: "Paris, France",
	Center:    [2]float64{2.3522, 48.8566},
}

type testEnv struct {
	router      *mux.Router
	siteService *services.SiteService
}

type envOptions struct {
	weather        weather.WeatherAPI
	allowedOrigins []string
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWith(t, envOptions{})
}

func newTestEnvWith(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	client := db.NewMemoryRedisClient()
	siteDao := redis.NewRedisSiteDAO(client)
	reportDao := redis.NewRedisReportDAO(client)
	siteService := services.NewSiteService(siteDao, reportDao, opts.weather, 10, 3*time.Hour)
	reportService := services.NewReportService(reportDao, siteService)

	for _, s := range []site.Site{
		{ID: "s1", Name: "Paris Opera", Location: site.Location{Lat: 48.8720, Lng: 2.3316}, CrowdLevel: site.CrowdLevelModerate},
		{ID: "s2", Name: "Pantheon", Location: site.Location{Lat: 48.8462, Lng: 2.3464}, CrowdLevel: site.CrowdLevelLow},
		{ID: "s3", Name: "Louvre", Location: site.Location{Lat: 48.8606, Lng: 2.3376}, CrowdLevel: site.CrowdLevelHigh},
	} {
		require.NoError(t, siteService.UpsertSite(context.Background(), s))
	}

	executor := search.NewExecutor(siteService, &stubGeocoder{results: []geocode.Result{parisFrance}}, time.Second)
	siteHandler := NewSiteHandler(siteService)
	reportHandler := NewReportHandler(reportService)
	searchHandler := NewSearchHandler(executor, 1)
	sessionHandler := NewSessionHandler(executor, siteService, search.Config{Debounce: 10 * time.Millisecond}, opts.allowedOrigins)

	r := mux.NewRouter()
	r.HandleFunc("/v1/sites", siteHandler.GetSites).Methods("GET")
	r.HandleFunc("/v1/sites/nearby", siteHandler.GetSitesNearby).Methods("GET")
	r.HandleFunc("/v1/sites/chart", siteHandler.GetSitesChart).Methods("GET")
	r.HandleFunc("/v1/sites/{id}", siteHandler.GetSite).Methods("GET")
	r.HandleFunc("/v1/sites/{id}/reports", siteHandler.GetSiteReports).Methods("GET")
	r.HandleFunc("/v1/sites/{id}/reports/mine", reportHandler.GetMySiteReport).Methods("GET")
	r.HandleFunc("/v1/reports", reportHandler.CreateReport).Methods("POST")
	r.HandleFunc("/v1/reports/mine", reportHandler.GetMyReports).Methods("GET")
	r.HandleFunc("/v1/reports/{id}", reportHandler.UpdateReport).Methods("PATCH")
	r.HandleFunc("/v1/reports/{id}", reportHandler.DeleteReport).Methods("DELETE")
	r.HandleFunc("/v1/search", searchHandler.Search).Methods("GET")
	r.HandleFunc("/v1/search/session", sessionHandler.ServeSession).Methods("GET")
	r.HandleFunc("/ping", siteHandler.Ping).Methods("GET")

	return &testEnv{router: r, siteService: siteService}
}

func (e *testEnv) do(t *testing.T, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		req.Header.Set(USER_ID_HEADER, userID)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}
