package services

import (
	"math"
	"time"

	"crowdmap/models/report"
	"crowdmap/models/site"
)

// AggregateCrowdLevel returns the rounded mean level of the reports touched
// within window before now. With no such report it returns baseline.
func AggregateCrowdLevel(baseline site.CrowdLevel, reports []report.Report, now time.Time, window time.Duration) site.CrowdLevel {
	sum, n := 0, 0
	for _, r := range reports {
		if !r.CrowdLevel.Valid() {
			continue
		}
		if now.Sub(r.LastTouched()) > window {
			continue
		}
		sum += r.CrowdLevel.Ordinal()
		n++
	}
	if n == 0 {
		return baseline
	}
	return site.CrowdLevelFromOrdinal(int(math.Round(float64(sum) / float64(n))))
}
