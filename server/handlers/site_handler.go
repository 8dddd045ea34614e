package handlers

import (
	"bytes"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"crowdmap/models/site"
	services "crowdmap/service"
	"crowdmap/util"
)

const (
	LAT_QUERY_ARG     = "lat"
	LON_QUERY_ARG     = "lon"
	RADIUS_QUERY_ARG  = "radius"
	VERBOSE_QUERY_ARG = "verbose"

	ID_PATH_VAR = "id"
)

// MinifiedSite is the small form returned when verbose=false.
type MinifiedSite struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	CrowdLevel site.CrowdLevel `json:"crowd_level"`
	Lat        float64         `json:"lat"`
	Lng        float64         `json:"lng"`
}

type SiteHandler struct {
	siteService *services.SiteService
}

func NewSiteHandler(siteService *services.SiteService) *SiteHandler {
	return &SiteHandler{siteService: siteService}
}

// GetSites handles GET /v1/sites[?verbose=true], the whole catalog by name.
func (h *SiteHandler) GetSites(w http.ResponseWriter, r *http.Request) {
	verbose := false
	if v := r.URL.Query().Get(VERBOSE_QUERY_ARG); v != "" {
		verbose, _ = strconv.ParseBool(v)
	}

	sites, err := h.siteService.ListSites(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.transform(sites, verbose))
}

// GetSitesNearby handles GET /v1/sites/nearby?lat=&lon=&radius=&verbose=
func (h *SiteHandler) GetSitesNearby(w http.ResponseWriter, r *http.Request) {
	lat, lon, radius, verbose, ok := h.parseArgs(r.URL.Query(), w)
	if !ok {
		return
	}

	sites, err := h.siteService.GetSitesNearby(r.Context(), lat, lon, radius)
	if err != nil {
		log.Println("Error loading nearby sites:", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, h.transform(sites, verbose))
}

func (h *SiteHandler) parseArgs(vals url.Values, w http.ResponseWriter) (
	lat, lon, radius float64, verbose bool, ok bool,
) {
	var err error

	lat, err = parseArgFloat64(vals, LAT_QUERY_ARG)
	if err != nil || lat < -90 || lat > 90 {
		writeError(w, http.StatusBadRequest, "Invalid argument "+LAT_QUERY_ARG)
		return
	}
	lon, err = parseArgFloat64(vals, LON_QUERY_ARG)
	if err != nil || lon < -180 || lon > 180 {
		writeError(w, http.StatusBadRequest, "Invalid argument "+LON_QUERY_ARG)
		return
	}
	radius, err = parseArgFloat64(vals, RADIUS_QUERY_ARG)
	if err != nil || radius <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid argument "+RADIUS_QUERY_ARG)
		return
	}
	if v := vals.Get(VERBOSE_QUERY_ARG); v != "" {
		verbose, _ = strconv.ParseBool(v)
	}
	ok = true
	return
}

func (h *SiteHandler) transform(sites []site.Site, verbose bool) interface{} {
	if verbose {
		return sites
	}
	min := make([]MinifiedSite, 0, len(sites))
	for _, s := range sites {
		min = append(min, MinifiedSite{
			ID:         s.ID,
			Name:       s.Name,
			CrowdLevel: s.CrowdLevel,
			Lat:        s.Location.Lat,
			Lng:        s.Location.Lng,
		})
	}
	return min
}

// GetSite handles GET /v1/sites/{id} with reports and current weather.
func (h *SiteHandler) GetSite(w http.ResponseWriter, r *http.Request) {
	detail, err := h.siteService.GetSiteDetail(r.Context(), mux.Vars(r)[ID_PATH_VAR])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// GetSiteReports handles GET /v1/sites/{id}/reports, newest first.
func (h *SiteHandler) GetSiteReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.siteService.ListReports(r.Context(), mux.Vars(r)[ID_PATH_VAR])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// GetSitesChart handles GET /v1/sites/chart.
func (h *SiteHandler) GetSitesChart(w http.ResponseWriter, r *http.Request) {
	sites, err := h.siteService.ListSites(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := util.PlotSites(&buf, sites); err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// Ping handles GET /ping
func (h *SiteHandler) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "pong"})
}

func parseArgFloat64(vals url.Values, name string) (float64, error) {
	return strconv.ParseFloat(vals.Get(name), 64)
}
