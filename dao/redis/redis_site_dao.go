package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"golang.org/x/text/cases"

	"crowdmap/db"
	"crowdmap/models/site"
)

const SITES_GEO_KEY_V1 = "sites_geo_v1"
const SITE_MEMBER_FORMAT_V1 = "site_v1:%s"

// SITE_NAME_INDEX_KEY_V1 is a zero-score sorted set of "<folded name>\x00<id>"
// members, so ZRANGEBYLEX answers case-insensitive prefix queries in name order.
const SITE_NAME_INDEX_KEY_V1 = "site_names_v1"

const nameIndexSeparator = "\x00"

// RedisSiteDAO handles site catalog operations using Redis.
type RedisSiteDAO struct {
	client db.RedisClient
}

func NewRedisSiteDAO(client db.RedisClient) *RedisSiteDAO {
	return &RedisSiteDAO{client: client}
}

// FoldName normalizes a name for case-insensitive comparison.
func FoldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

func nameIndexMember(s site.Site) string {
	return FoldName(s.Name) + nameIndexSeparator + s.ID
}

// UpsertSite stores the site in the geo index and keeps the name index in sync.
func (dao *RedisSiteDAO) UpsertSite(ctx context.Context, s site.Site) error {
	if s.ID == "" {
		return errors.New("site id is required")
	}

	previous, err := dao.GetSite(ctx, s.ID)
	if err != nil {
		return err
	}
	if previous != nil && FoldName(previous.Name) != FoldName(s.Name) {
		if err := dao.client.ZRem(ctx, SITE_NAME_INDEX_KEY_V1, nameIndexMember(*previous)); err != nil {
			return fmt.Errorf("failed to drop stale name index for site %s: %w", s.ID, err)
		}
	}

	siteKey := fmt.Sprintf(SITE_MEMBER_FORMAT_V1, s.ID)
	if err := dao.client.AddLocationWithJSON(ctx, SITES_GEO_KEY_V1, siteKey, s.Location.Lat, s.Location.Lng, s); err != nil {
		return fmt.Errorf("failed to upsert site %s: %w", s.ID, err)
	}
	if err := dao.client.ZAdd(ctx, SITE_NAME_INDEX_KEY_V1, 0, nameIndexMember(s)); err != nil {
		return fmt.Errorf("failed to index name of site %s: %w", s.ID, err)
	}
	return nil
}

// GetSite returns nil, nil when the site does not exist.
func (dao *RedisSiteDAO) GetSite(ctx context.Context, id string) (*site.Site, error) {
	str, err := dao.client.Get(ctx, fmt.Sprintf(SITE_MEMBER_FORMAT_V1, id))
	if errors.Is(err, db.ErrNil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site %s from redis: %w", id, err)
	}
	var s site.Site
	if err := json.Unmarshal([]byte(str), &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal site JSON: %w", err)
	}
	return &s, nil
}

func (dao *RedisSiteDAO) DeleteSite(ctx context.Context, id string) error {
	s, err := dao.GetSite(ctx, id)
	if err != nil || s == nil {
		return err
	}
	if err := dao.client.ZRem(ctx, SITE_NAME_INDEX_KEY_V1, nameIndexMember(*s)); err != nil {
		return fmt.Errorf("failed to drop name index for site %s: %w", id, err)
	}
	return dao.client.RemoveLocation(ctx, SITES_GEO_KEY_V1, fmt.Sprintf(SITE_MEMBER_FORMAT_V1, id))
}

// GetNearbySites retrieves sites within radiusKm, nearest first.
func (dao *RedisSiteDAO) GetNearbySites(ctx context.Context, lat, lng, radiusKm float64) ([]site.Site, error) {
	sitesJSON, err := dao.client.GetLocationsWithinRadius(ctx, SITES_GEO_KEY_V1, lat, lng, radiusKm)
	if err != nil {
		return nil, fmt.Errorf("[RedisSiteDAO] failed to get sites: %w", err)
	}

	sites := make([]site.Site, len(sitesJSON))
	for i, siteJSON := range sitesJSON {
		if err := json.Unmarshal([]byte(siteJSON), &sites[i]); err != nil {
			return nil, fmt.Errorf("failed to unmarshal site JSON: %w", err)
		}
	}
	return sites, nil
}

// SearchSitesByNamePrefix returns up to limit sites whose name starts with
// prefix, ignoring case, ordered by name ascending.
func (dao *RedisSiteDAO) SearchSitesByNamePrefix(ctx context.Context, prefix string, limit int) ([]site.Site, error) {
	members, err := dao.client.ZRangeByLexPrefix(ctx, SITE_NAME_INDEX_KEY_V1, FoldName(prefix), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to range name index: %w", err)
	}

	sites := make([]site.Site, 0, len(members))
	for _, m := range members {
		i := strings.LastIndex(m, nameIndexSeparator)
		if i < 0 {
			log.Printf("[RedisSiteDAO] Skipping malformed name index member %q", m)
			continue
		}
		s, err := dao.GetSite(ctx, m[i+1:])
		if err != nil {
			return nil, err
		}
		if s == nil {
			log.Printf("[RedisSiteDAO] Name index points to missing site %s", m[i+1:])
			continue
		}
		sites = append(sites, *s)
	}
	return sites, nil
}

// ListSiteIDs returns all site IDs present in the catalog.
func (dao *RedisSiteDAO) ListSiteIDs(ctx context.Context) ([]string, error) {
	keys, err := dao.client.Keys(ctx, fmt.Sprintf(SITE_MEMBER_FORMAT_V1, "*"))
	if err != nil {
		return nil, fmt.Errorf("failed to list site keys: %w", err)
	}
	prefix := fmt.Sprintf(SITE_MEMBER_FORMAT_V1, "")
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, prefix))
	}
	return ids, nil
}

// ListSites loads every site in the catalog.
func (dao *RedisSiteDAO) ListSites(ctx context.Context) ([]site.Site, error) {
	ids, err := dao.ListSiteIDs(ctx)
	if err != nil {
		return nil, err
	}
	sites := make([]site.Site, 0, len(ids))
	for _, id := range ids {
		s, err := dao.GetSite(ctx, id)
		if err != nil {
			return nil, err
		}
		if s != nil {
			sites = append(sites, *s)
		}
	}
	return sites, nil
}
