package search

import (
	"crowdmap/models"
	"crowdmap/models/geocode"
	"crowdmap/models/site"
)

// Merge builds SearchResults from the two source lists: Combined holds every
// site, then every location, each in the order its source returned them.
// Nothing is deduplicated or re-ranked. The inputs are copied, not aliased.
func Merge(sites []site.Site, locations []geocode.Result) models.SearchResults {
	results := models.SearchResults{
		Sites:     make([]site.Site, len(sites)),
		Locations: make([]geocode.Result, len(locations)),
		Combined:  make([]models.ResultEntry, 0, len(sites)+len(locations)),
	}
	copy(results.Sites, sites)
	copy(results.Locations, locations)

	for _, s := range results.Sites {
		results.Combined = append(results.Combined, models.SiteEntry(s))
	}
	for _, l := range results.Locations {
		results.Combined = append(results.Combined, models.LocationEntry(l))
	}
	return results
}
