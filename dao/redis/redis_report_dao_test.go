package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crowdmap/db"
	"crowdmap/models/report"
	"crowdmap/models/site"
)

func TestRedisReportDAO_UpsertAndList(t *testing.T) {
	ctx := context.Background()
	dao := NewRedisReportDAO(db.NewMemoryRedisClient())
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	r1 := report.Report{ID: "r1", SiteID: "s1", UserID: "u1", CrowdLevel: site.CrowdLevelLow, CreatedAt: base}
	r2 := report.Report{ID: "r2", SiteID: "s1", UserID: "u2", CrowdLevel: site.CrowdLevelHigh, CreatedAt: base.Add(time.Minute)}
	r3 := report.Report{ID: "r3", SiteID: "s2", UserID: "u1", CrowdLevel: site.CrowdLevelCritical, CreatedAt: base}
	for _, r := range []report.Report{r1, r2, r3} {
		require.NoError(t, dao.UpsertReport(ctx, r))
	}

	reports, err := dao.ListReportsBySite(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "r2", reports[0].ID)
	assert.Equal(t, "r1", reports[1].ID)

	got, err := dao.GetUserReportForSite(ctx, "s2", "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "r3", got.ID)
	assert.Equal(t, site.CrowdLevelCritical, got.CrowdLevel)
}

func TestRedisReportDAO_ListReportsByUser(t *testing.T) {
	ctx := context.Background()
	dao := NewRedisReportDAO(db.NewMemoryRedisClient())
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	for _, r := range []report.Report{
		{ID: "r1", SiteID: "s1", UserID: "u1", CrowdLevel: site.CrowdLevelLow, CreatedAt: base},
		{ID: "r2", SiteID: "s1", UserID: "u2", CrowdLevel: site.CrowdLevelHigh, CreatedAt: base.Add(time.Minute)},
		{ID: "r3", SiteID: "s2", UserID: "u1", CrowdLevel: site.CrowdLevelCritical, CreatedAt: base.Add(2 * time.Minute)},
	} {
		require.NoError(t, dao.UpsertReport(ctx, r))
	}

	reports, err := dao.ListReportsByUser(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "r3", reports[0].ID)
	assert.Equal(t, "r1", reports[1].ID)

	require.NoError(t, dao.DeleteReport(ctx, reports[0]))
	reports, err = dao.ListReportsByUser(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "r1", reports[0].ID)

	reports, err = dao.ListReportsByUser(ctx, "nobody", 0)
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestRedisReportDAO_ClaimUserSiteReport(t *testing.T) {
	ctx := context.Background()
	dao := NewRedisReportDAO(db.NewMemoryRedisClient())

	owner, err := dao.ClaimUserSiteReport(ctx, "s1", "u1", "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", owner)

	owner, err = dao.ClaimUserSiteReport(ctx, "s1", "u1", "r2")
	require.NoError(t, err)
	assert.Equal(t, "r1", owner, "the first claim keeps the pair")

	owner, err = dao.ClaimUserSiteReport(ctx, "s1", "u2", "r3")
	require.NoError(t, err)
	assert.Equal(t, "r3", owner)

	require.NoError(t, dao.DeleteReport(ctx, report.Report{ID: "r1", SiteID: "s1", UserID: "u1"}))
	owner, err = dao.ClaimUserSiteReport(ctx, "s1", "u1", "r4")
	require.NoError(t, err)
	assert.Equal(t, "r4", owner, "deleting the report releases the pair")
}

func TestRedisReportDAO_Delete(t *testing.T) {
	ctx := context.Background()
	dao := NewRedisReportDAO(db.NewMemoryRedisClient())
	r := report.Report{ID: "r1", SiteID: "s1", UserID: "u1", CrowdLevel: site.CrowdLevelLow, CreatedAt: time.Now()}
	require.NoError(t, dao.UpsertReport(ctx, r))

	require.NoError(t, dao.DeleteReport(ctx, r))

	got, err := dao.GetReport(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = dao.GetUserReportForSite(ctx, "s1", "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	reports, err := dao.ListReportsBySite(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Empty(t, reports)
}
