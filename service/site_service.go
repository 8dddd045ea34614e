package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"crowdmap/api/weather"
	"crowdmap/dao/redis"
	"crowdmap/models/report"
	"crowdmap/models/site"
	weathermodel "crowdmap/models/weather"
)

const DEFAULT_CATALOG_LIMIT = 10
const DEFAULT_REPORT_WINDOW = 3 * time.Hour

// SiteDetail is everything the site panel shows once a site is selected.
type SiteDetail struct {
	Site    site.Site               `json:"site"`
	Reports []report.Report         `json:"reports"`
	Weather *weathermodel.Condition `json:"weather,omitempty"`
}

type SiteService struct {
	siteDao      *redis.RedisSiteDAO
	reportDao    *redis.RedisReportDAO
	weatherApi   weather.WeatherAPI
	catalogLimit int
	reportWindow time.Duration
	now          func() time.Time
}

// NewSiteService constructs a SiteService. weatherApi may be nil.
func NewSiteService(
	siteDao *redis.RedisSiteDAO,
	reportDao *redis.RedisReportDAO,
	weatherApi weather.WeatherAPI,
	catalogLimit int,
	reportWindow time.Duration) *SiteService {

	if catalogLimit <= 0 {
		catalogLimit = DEFAULT_CATALOG_LIMIT
	}
	if reportWindow <= 0 {
		reportWindow = DEFAULT_REPORT_WINDOW
	}
	return &SiteService{
		siteDao:      siteDao,
		reportDao:    reportDao,
		weatherApi:   weatherApi,
		catalogLimit: catalogLimit,
		reportWindow: reportWindow,
		now:          time.Now,
	}
}

// SearchSites returns catalog sites whose name starts with query, ignoring
// case, in name order.
func (ss *SiteService) SearchSites(ctx context.Context, query string) ([]site.Site, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []site.Site{}, nil
	}
	sites, err := ss.siteDao.SearchSitesByNamePrefix(ctx, query, ss.catalogLimit)
	if err != nil {
		return nil, fmt.Errorf("catalog search for %q: %w", query, err)
	}
	return sites, nil
}

func (ss *SiteService) GetSite(ctx context.Context, id string) (*site.Site, error) {
	s, err := ss.siteDao.GetSite(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("site %s: %w", id, ErrNotFound)
	}
	return s, nil
}

// GetSiteDetail loads a site with its reports, newest first, and the current
// weather. A weather failure only drops the weather.
func (ss *SiteService) GetSiteDetail(ctx context.Context, id string) (*SiteDetail, error) {
	s, err := ss.GetSite(ctx, id)
	if err != nil {
		return nil, err
	}
	reports, err := ss.reportDao.ListReportsBySite(ctx, id, 0)
	if err != nil {
		return nil, err
	}

	detail := &SiteDetail{Site: *s, Reports: reports}
	if ss.weatherApi != nil {
		condition, err := ss.weatherApi.GetCurrent(ctx, s.Location.Lat, s.Location.Lng)
		if err != nil {
			log.Printf("[SiteService] Weather lookup failed for site %s: %v", id, err)
		} else {
			detail.Weather = condition
		}
	}
	return detail, nil
}

// GetSitesNearby returns sites within radiusKm, most crowded first.
func (ss *SiteService) GetSitesNearby(ctx context.Context, lat, lng, radiusKm float64) ([]site.Site, error) {
	sites, err := ss.siteDao.GetNearbySites(ctx, lat, lng, radiusKm)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(sites, func(i, j int) bool {
		return sites[i].CrowdLevel.Ordinal() > sites[j].CrowdLevel.Ordinal()
	})
	return sites, nil
}

// ListSites returns the whole catalog ordered by name.
func (ss *SiteService) ListSites(ctx context.Context) ([]site.Site, error) {
	sites, err := ss.siteDao.ListSites(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(sites, func(i, j int) bool {
		ni, nj := redis.FoldName(sites[i].Name), redis.FoldName(sites[j].Name)
		if ni != nj {
			return ni < nj
		}
		return sites[i].ID < sites[j].ID
	})
	return sites, nil
}

// ListReports returns the site's reports newest first.
func (ss *SiteService) ListReports(ctx context.Context, siteID string) ([]report.Report, error) {
	if _, err := ss.GetSite(ctx, siteID); err != nil {
		return nil, err
	}
	return ss.reportDao.ListReportsBySite(ctx, siteID, 0)
}

// UpsertSite stores a catalog entry. The incoming crowd level becomes the
// baseline when none is given.
func (ss *SiteService) UpsertSite(ctx context.Context, s site.Site) error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name", ErrMissingField)
	}
	if s.CrowdLevel == "" {
		s.CrowdLevel = site.CrowdLevelLow
	}
	if !s.CrowdLevel.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCrowdLevel, s.CrowdLevel)
	}
	if !s.BaselineCrowdLevel.Valid() {
		s.BaselineCrowdLevel = s.CrowdLevel
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = ss.now().UTC()
	}
	return ss.siteDao.UpsertSite(ctx, s)
}

// RecomputeCrowdLevel refreshes the site's displayed level from its recent
// reports and stores it when it changed.
func (ss *SiteService) RecomputeCrowdLevel(ctx context.Context, siteID string) (*site.Site, error) {
	s, err := ss.GetSite(ctx, siteID)
	if err != nil {
		return nil, err
	}
	reports, err := ss.reportDao.ListReportsBySite(ctx, siteID, 0)
	if err != nil {
		return nil, err
	}

	baseline := s.BaselineCrowdLevel
	if !baseline.Valid() {
		baseline = s.CrowdLevel
	}
	level := AggregateCrowdLevel(baseline, reports, ss.now(), ss.reportWindow)
	if level == s.CrowdLevel {
		return s, nil
	}

	log.Printf("[SiteService] Crowd level of %s changed %s -> %s", s.ID, s.CrowdLevel, level)
	s.CrowdLevel = level
	if err := ss.siteDao.UpsertSite(ctx, *s); err != nil {
		return nil, err
	}
	return s, nil
}
