package site

import (
	"fmt"
	"time"

	"crowdmap/models/weather"
)

// Location is a latitude/longitude pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Site is a point of interest in the catalog.
type Site struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Location    Location           `json:"location"`
	CrowdLevel  CrowdLevel         `json:"crowd_level"`
	Weather     *weather.Condition `json:"weather,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`

	// BaselineCrowdLevel is the catalog value used when no recent reports exist.
	BaselineCrowdLevel CrowdLevel `json:"baseline_crowd_level,omitempty"`
}

func (s *Site) ToString() string {
	return fmt.Sprintf("Site(name=%s, crowd=%s, lat=%f, lng=%f)",
		s.Name, s.CrowdLevel, s.Location.Lat, s.Location.Lng)
}
