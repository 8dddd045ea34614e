package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"crowdmap/dao/redis"
	"crowdmap/models/report"
	"crowdmap/models/site"
)

// ReportInput is the body of a report submission or update.
type ReportInput struct {
	SiteID     string `json:"site_id"`
	CrowdLevel string `json:"crowd_level"`
	Content    string `json:"content"`
}

type ReportService struct {
	reportDao   *redis.RedisReportDAO
	siteService *SiteService
	now         func() time.Time
}

func NewReportService(reportDao *redis.RedisReportDAO, siteService *SiteService) *ReportService {
	return &ReportService{
		reportDao:   reportDao,
		siteService: siteService,
		now:         time.Now,
	}
}

// SubmitReport records userID's report for a site. A user keeps one report
// per site, so a repeated submission updates it; created tells which happened.
func (rs *ReportService) SubmitReport(ctx context.Context, userID string, in ReportInput) (r *report.Report, created bool, err error) {
	if userID == "" {
		return nil, false, fmt.Errorf("%w: user", ErrMissingField)
	}
	if strings.TrimSpace(in.SiteID) == "" || strings.TrimSpace(in.CrowdLevel) == "" {
		return nil, false, fmt.Errorf("%w: site_id and crowd_level", ErrMissingField)
	}
	level, err := site.ParseCrowdLevel(in.CrowdLevel)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidCrowdLevel, err)
	}
	if _, err := rs.siteService.GetSite(ctx, in.SiteID); err != nil {
		return nil, false, err
	}

	existing, err := rs.reportDao.GetUserReportForSite(ctx, in.SiteID, userID)
	if err != nil {
		return nil, false, err
	}

	now := rs.now().UTC()
	if existing == nil {
		id := uuid.NewString()
		owner, err := rs.reportDao.ClaimUserSiteReport(ctx, in.SiteID, userID, id)
		if err != nil {
			return nil, false, err
		}
		if owner == id {
			created = true
			r = &report.Report{
				ID:         id,
				SiteID:     in.SiteID,
				UserID:     userID,
				Content:    strings.TrimSpace(in.Content),
				CrowdLevel: level,
				CreatedAt:  now,
			}
		} else if existing, err = rs.reportDao.GetReport(ctx, owner); err != nil {
			return nil, false, err
		} else if existing == nil {
			// The concurrent submission that won the claim has not stored its report yet.
			existing = &report.Report{ID: owner, SiteID: in.SiteID, UserID: userID, CreatedAt: now}
		}
	}
	if !created {
		existing.CrowdLevel = level
		existing.Content = strings.TrimSpace(in.Content)
		existing.UpdatedAt = &now
		r = existing
	}

	if err := rs.reportDao.UpsertReport(ctx, *r); err != nil {
		return nil, false, err
	}
	rs.recompute(ctx, r.SiteID)
	return r, created, nil
}

// UpdateReport changes the level and content of a report owned by userID.
func (rs *ReportService) UpdateReport(ctx context.Context, userID, reportID string, in ReportInput) (*report.Report, error) {
	if strings.TrimSpace(in.CrowdLevel) == "" {
		return nil, fmt.Errorf("%w: crowd_level", ErrMissingField)
	}
	level, err := site.ParseCrowdLevel(in.CrowdLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCrowdLevel, err)
	}
	r, err := rs.ownedReport(ctx, userID, reportID)
	if err != nil {
		return nil, err
	}

	now := rs.now().UTC()
	r.CrowdLevel = level
	r.Content = strings.TrimSpace(in.Content)
	r.UpdatedAt = &now
	if err := rs.reportDao.UpsertReport(ctx, *r); err != nil {
		return nil, err
	}
	rs.recompute(ctx, r.SiteID)
	return r, nil
}

func (rs *ReportService) DeleteReport(ctx context.Context, userID, reportID string) error {
	r, err := rs.ownedReport(ctx, userID, reportID)
	if err != nil {
		return err
	}
	if err := rs.reportDao.DeleteReport(ctx, *r); err != nil {
		return err
	}
	rs.recompute(ctx, r.SiteID)
	return nil
}

// UserStatistics summarises a user's reporting activity.
type UserStatistics struct {
	TotalReports int `json:"total_reports"`
	ActiveSites  int `json:"active_sites"`
}

// ListUserReports returns userID's reports newest first.
func (rs *ReportService) ListUserReports(ctx context.Context, userID string) ([]report.Report, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user", ErrMissingField)
	}
	return rs.reportDao.ListReportsByUser(ctx, userID, 0)
}

// ComputeUserStatistics counts the reports and the distinct sites they cover.
func ComputeUserStatistics(reports []report.Report) UserStatistics {
	sites := make(map[string]struct{}, len(reports))
	for _, r := range reports {
		sites[r.SiteID] = struct{}{}
	}
	return UserStatistics{TotalReports: len(reports), ActiveSites: len(sites)}
}

// GetUserReportForSite returns userID's report on siteID, or ErrNotFound
// when the site is unknown or the user has not reported on it.
func (rs *ReportService) GetUserReportForSite(ctx context.Context, userID, siteID string) (*report.Report, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user", ErrMissingField)
	}
	if _, err := rs.siteService.GetSite(ctx, siteID); err != nil {
		return nil, err
	}
	r, err := rs.reportDao.GetUserReportForSite(ctx, siteID, userID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("report of %s on site %s: %w", userID, siteID, ErrNotFound)
	}
	return r, nil
}

func (rs *ReportService) ownedReport(ctx context.Context, userID, reportID string) (*report.Report, error) {
	r, err := rs.reportDao.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("report %s: %w", reportID, ErrNotFound)
	}
	if r.UserID != userID {
		return nil, fmt.Errorf("report %s: %w", reportID, ErrForbidden)
	}
	return r, nil
}

func (rs *ReportService) recompute(ctx context.Context, siteID string) {
	if _, err := rs.siteService.RecomputeCrowdLevel(ctx, siteID); err != nil {
		log.Printf("[ReportService] Failed to recompute crowd level of %s: %v", siteID, err)
	}
}
