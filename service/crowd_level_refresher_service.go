package services

import (
	"context"
	"log"
	"time"
)

// CrowdLevelRefresherService periodically re-derives every site's crowd level
// so that reports ageing out of the window are reflected without new writes.
type CrowdLevelRefresherService struct {
	siteService *SiteService
}

func NewCrowdLevelRefresherService(siteService *SiteService) *CrowdLevelRefresherService {
	return &CrowdLevelRefresherService{siteService: siteService}
}

// StartPeriodicJob launches the background loop at the given interval. It
// stops when ctx is done.
func (cr *CrowdLevelRefresherService) StartPeriodicJob(ctx context.Context, interval time.Duration) {
	go cr.startPeriodicJob(ctx, interval)
}

func (cr *CrowdLevelRefresherService) startPeriodicJob(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[CrowdLevelRefresherService] Stopping periodic job.")
			return
		case <-ticker.C:
			log.Println("[CrowdLevelRefresherService] Running periodic crowd level refresh.")
			if n, err := cr.RefreshCrowdLevels(ctx); err != nil {
				log.Printf("[CrowdLevelRefresherService] RefreshCrowdLevels returned error: %v", err)
			} else {
				log.Printf("[CrowdLevelRefresherService] Refreshed %d sites.", n)
			}
		}
	}
}

// RefreshCrowdLevels recomputes every site and returns how many it processed.
// A failing site is logged and skipped.
func (cr *CrowdLevelRefresherService) RefreshCrowdLevels(ctx context.Context) (int, error) {
	ids, err := cr.siteService.siteDao.ListSiteIDs(ctx)
	if err != nil {
		log.Printf("[CrowdLevelRefresherService] Error listing site IDs: %v", err)
		return 0, err
	}
	log.Printf("[CrowdLevelRefresherService] Found %d sites", len(ids))

	n := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if _, err := cr.siteService.RecomputeCrowdLevel(ctx, id); err != nil {
			log.Printf("[CrowdLevelRefresherService] Recompute failed for %s: %v", id, err)
			continue
		}
		n++
	}
	return n, nil
}
