package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

type SiteRoutes interface {
	GetSites(w http.ResponseWriter, r *http.Request)
	GetSitesNearby(w http.ResponseWriter, r *http.Request)
	GetSite(w http.ResponseWriter, r *http.Request)
	GetSiteReports(w http.ResponseWriter, r *http.Request)
	GetSitesChart(w http.ResponseWriter, r *http.Request)
	Ping(w http.ResponseWriter, r *http.Request)
}

type ReportRoutes interface {
	CreateReport(w http.ResponseWriter, r *http.Request)
	UpdateReport(w http.ResponseWriter, r *http.Request)
	DeleteReport(w http.ResponseWriter, r *http.Request)
	GetMyReports(w http.ResponseWriter, r *http.Request)
	GetMySiteReport(w http.ResponseWriter, r *http.Request)
}

type SearchRoutes interface {
	Search(w http.ResponseWriter, r *http.Request)
}

type SessionRoutes interface {
	ServeSession(w http.ResponseWriter, r *http.Request)
}

type Router struct {
	siteHandler    SiteRoutes
	reportHandler  ReportRoutes
	searchHandler  SearchRoutes
	sessionHandler SessionRoutes
	router         *mux.Router
}

// NewRouter creates a router with the app's routes.
func NewRouter(
	siteHandler SiteRoutes,
	reportHandler ReportRoutes,
	searchHandler SearchRoutes,
	sessionHandler SessionRoutes,
	router *mux.Router) *Router {
	return &Router{
		siteHandler:    siteHandler,
		reportHandler:  reportHandler,
		searchHandler:  searchHandler,
		sessionHandler: sessionHandler,
		router:         router,
	}
}

func (r *Router) RegisterRoutes() {
	r.router.HandleFunc("/v1/sites", r.siteHandler.GetSites).Methods("GET")
	// expects ?lat={latitude(float)}&lon={longitude(float)}&radius={km(float)}[&verbose=true]
	r.router.HandleFunc("/v1/sites/nearby", r.siteHandler.GetSitesNearby).Methods("GET")
	r.router.HandleFunc("/v1/sites/chart", r.siteHandler.GetSitesChart).Methods("GET")
	r.router.HandleFunc("/v1/sites/{id}", r.siteHandler.GetSite).Methods("GET")
	r.router.HandleFunc("/v1/sites/{id}/reports", r.siteHandler.GetSiteReports).Methods("GET")
	// reads the caller from X-User-ID
	r.router.HandleFunc("/v1/sites/{id}/reports/mine", r.reportHandler.GetMySiteReport).Methods("GET")

	r.router.HandleFunc("/v1/reports", r.reportHandler.CreateReport).Methods("POST")
	r.router.HandleFunc("/v1/reports/mine", r.reportHandler.GetMyReports).Methods("GET")
	r.router.HandleFunc("/v1/reports/{id}", r.reportHandler.UpdateReport).Methods("PATCH")
	r.router.HandleFunc("/v1/reports/{id}", r.reportHandler.DeleteReport).Methods("DELETE")

	// expects ?q={query}
	r.router.HandleFunc("/v1/search", r.searchHandler.Search).Methods("GET")
	r.router.HandleFunc("/v1/search/session", r.sessionHandler.ServeSession).Methods("GET")

	r.router.HandleFunc("/ping", r.siteHandler.Ping).Methods("GET")
}
