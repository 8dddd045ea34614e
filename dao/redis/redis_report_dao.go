package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"crowdmap/db"
	"crowdmap/models/report"
)

const REPORT_KEY_FORMAT_V1 = "report_v1:%s"

// SITE_REPORTS_KEY_FORMAT_V1 is a sorted set of report IDs scored by creation time.
const SITE_REPORTS_KEY_FORMAT_V1 = "site_reports_v1:%s"

// USER_SITE_REPORT_KEY_FORMAT_V1 maps (site, user) to the user's report ID.
const USER_SITE_REPORT_KEY_FORMAT_V1 = "user_site_report_v1:%s:%s"

// USER_REPORTS_KEY_FORMAT_V1 is a sorted set of a user's report IDs scored by creation time.
const USER_REPORTS_KEY_FORMAT_V1 = "user_reports_v1:%s"

const claimAttempts = 3

// RedisReportDAO handles crowd report operations using Redis.
type RedisReportDAO struct {
	client db.RedisClient
}

func NewRedisReportDAO(client db.RedisClient) *RedisReportDAO {
	return &RedisReportDAO{client: client}
}

// UpsertReport stores r and indexes it by site, by user and by (site, user).
func (dao *RedisReportDAO) UpsertReport(ctx context.Context, r report.Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report %s: %w", r.ID, err)
	}
	if err := dao.client.Set(ctx, fmt.Sprintf(REPORT_KEY_FORMAT_V1, r.ID), string(data)); err != nil {
		return fmt.Errorf("failed to set report in redis: %w", err)
	}
	score := float64(r.CreatedAt.UnixMilli())
	if err := dao.client.ZAdd(ctx, fmt.Sprintf(SITE_REPORTS_KEY_FORMAT_V1, r.SiteID), score, r.ID); err != nil {
		return fmt.Errorf("failed to index report %s: %w", r.ID, err)
	}
	if err := dao.client.ZAdd(ctx, fmt.Sprintf(USER_REPORTS_KEY_FORMAT_V1, r.UserID), score, r.ID); err != nil {
		return fmt.Errorf("failed to index report %s by user: %w", r.ID, err)
	}
	if err := dao.client.Set(ctx, fmt.Sprintf(USER_SITE_REPORT_KEY_FORMAT_V1, r.SiteID, r.UserID), r.ID); err != nil {
		return fmt.Errorf("failed to index report %s by user and site: %w", r.ID, err)
	}
	return nil
}

// ClaimUserSiteReport reserves the (site, user) pair for reportID. It returns
// the ID that owns the pair afterwards, which is another report's ID when one
// already holds it.
func (dao *RedisReportDAO) ClaimUserSiteReport(ctx context.Context, siteID, userID, reportID string) (string, error) {
	key := fmt.Sprintf(USER_SITE_REPORT_KEY_FORMAT_V1, siteID, userID)
	for i := 0; i < claimAttempts; i++ {
		ok, err := dao.client.SetNX(ctx, key, reportID)
		if err != nil {
			return "", fmt.Errorf("failed to claim user report index: %w", err)
		}
		if ok {
			return reportID, nil
		}
		owner, err := dao.client.Get(ctx, key)
		if errors.Is(err, db.ErrNil) {
			// released by a concurrent delete
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to get user report index: %w", err)
		}
		return owner, nil
	}
	return "", fmt.Errorf("failed to claim user report index for site %s: contended", siteID)
}

// GetReport returns nil, nil when the report does not exist.
func (dao *RedisReportDAO) GetReport(ctx context.Context, id string) (*report.Report, error) {
	str, err := dao.client.Get(ctx, fmt.Sprintf(REPORT_KEY_FORMAT_V1, id))
	if errors.Is(err, db.ErrNil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report from redis: %w", err)
	}
	var r report.Report
	if err := json.Unmarshal([]byte(str), &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report JSON: %w", err)
	}
	return &r, nil
}

func (dao *RedisReportDAO) DeleteReport(ctx context.Context, r report.Report) error {
	if err := dao.client.ZRem(ctx, fmt.Sprintf(SITE_REPORTS_KEY_FORMAT_V1, r.SiteID), r.ID); err != nil {
		return fmt.Errorf("failed to unindex report %s: %w", r.ID, err)
	}
	if err := dao.client.ZRem(ctx, fmt.Sprintf(USER_REPORTS_KEY_FORMAT_V1, r.UserID), r.ID); err != nil {
		return fmt.Errorf("failed to unindex report %s by user: %w", r.ID, err)
	}
	keys := []string{
		fmt.Sprintf(REPORT_KEY_FORMAT_V1, r.ID),
		fmt.Sprintf(USER_SITE_REPORT_KEY_FORMAT_V1, r.SiteID, r.UserID),
	}
	if err := dao.client.Del(ctx, keys...); err != nil {
		return fmt.Errorf("failed to delete report %s: %w", r.ID, err)
	}
	return nil
}

// ListReportsBySite returns the site's reports newest first. limit <= 0 means all.
func (dao *RedisReportDAO) ListReportsBySite(ctx context.Context, siteID string, limit int) ([]report.Report, error) {
	return dao.listIndexed(ctx, fmt.Sprintf(SITE_REPORTS_KEY_FORMAT_V1, siteID), limit)
}

// ListReportsByUser returns the user's reports newest first. limit <= 0 means all.
func (dao *RedisReportDAO) ListReportsByUser(ctx context.Context, userID string, limit int) ([]report.Report, error) {
	return dao.listIndexed(ctx, fmt.Sprintf(USER_REPORTS_KEY_FORMAT_V1, userID), limit)
}

func (dao *RedisReportDAO) listIndexed(ctx context.Context, indexKey string, limit int) ([]report.Report, error) {
	ids, err := dao.client.ZRevRange(ctx, indexKey, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list reports of %s: %w", indexKey, err)
	}
	reports := make([]report.Report, 0, len(ids))
	for _, id := range ids {
		r, err := dao.GetReport(ctx, id)
		if err != nil {
			return nil, err
		}
		if r == nil {
			log.Printf("[RedisReportDAO] %s indexes missing report %s", indexKey, id)
			continue
		}
		reports = append(reports, *r)
	}
	return reports, nil
}

// GetUserReportForSite returns nil, nil when the user has not reported on the site.
func (dao *RedisReportDAO) GetUserReportForSite(ctx context.Context, siteID, userID string) (*report.Report, error) {
	id, err := dao.client.Get(ctx, fmt.Sprintf(USER_SITE_REPORT_KEY_FORMAT_V1, siteID, userID))
	if errors.Is(err, db.ErrNil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user report index: %w", err)
	}
	return dao.GetReport(ctx, id)
}
