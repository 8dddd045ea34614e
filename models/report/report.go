package report

import (
	"time"

	"crowdmap/models/site"
)

// Report is one user's crowd observation for a site.
type Report struct {
	ID         string          `json:"id"`
	SiteID     string          `json:"site_id"`
	UserID     string          `json:"user_id"`
	Content    string          `json:"content,omitempty"`
	CrowdLevel site.CrowdLevel `json:"crowd_level"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  *time.Time      `json:"updated_at,omitempty"`
}

// LastTouched returns UpdatedAt when set, CreatedAt otherwise.
func (r Report) LastTouched() time.Time {
	if r.UpdatedAt != nil {
		return *r.UpdatedAt
	}
	return r.CreatedAt
}
