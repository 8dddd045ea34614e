package services

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"crowdmap/util"
)

const catalogReloadDebounce = 200 * time.Millisecond

// CatalogImporterService loads the site catalog from a JSON file.
type CatalogImporterService struct {
	siteService *SiteService
}

func NewCatalogImporterService(siteService *SiteService) *CatalogImporterService {
	return &CatalogImporterService{siteService: siteService}
}

// ImportFromFile upserts every site in the file and returns how many were
// stored. Invalid entries are logged and skipped.
func (ci *CatalogImporterService) ImportFromFile(ctx context.Context, path string) (int, error) {
	sites, err := util.ReadSitesFromJSON(path)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, s := range sites {
		if err := ci.siteService.UpsertSite(ctx, s); err != nil {
			log.Printf("[CatalogImporterService] Skipping site %q: %v", s.ID, err)
			continue
		}
		n++
	}
	log.Printf("[CatalogImporterService] Imported %d/%d sites from %s", n, len(sites), path)
	return n, nil
}

// Watch re-imports path whenever it is written or replaced, until ctx is done.
// The directory is watched so editors that rename over the file are seen.
func (ci *CatalogImporterService) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	log.Printf("[CatalogImporterService] Watching %s", abs)

	var reload <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				reload = time.After(catalogReloadDebounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[CatalogImporterService] Watcher error: %v", err)
		case <-reload:
			reload = nil
			if _, err := ci.ImportFromFile(ctx, abs); err != nil {
				log.Printf("[CatalogImporterService] Reload of %s failed: %v", abs, err)
			}
		}
	}
}
