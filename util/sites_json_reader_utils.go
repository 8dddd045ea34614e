package util

import (
	"encoding/json"
	"fmt"
	"os"

	"crowdmap/models/site"
)

// ReadSitesFromJSON loads a JSON array of sites from disk.
func ReadSitesFromJSON(filePath string) ([]site.Site, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %q: %w", filePath, err)
	}
	var sites []site.Site
	if err := json.Unmarshal(data, &sites); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sites: %w", err)
	}
	return sites, nil
}
