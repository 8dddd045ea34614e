package site

import (
	"fmt"
	"strings"
)

// CrowdLevel is the ordinal occupancy indicator of a site.
type CrowdLevel string

const (
	CrowdLevelLow      CrowdLevel = "low"
	CrowdLevelModerate CrowdLevel = "moderate"
	CrowdLevelHigh     CrowdLevel = "high"
	CrowdLevelCritical CrowdLevel = "critical"
)

// CrowdLevels lists every level from least to most crowded.
var CrowdLevels = []CrowdLevel{
	CrowdLevelLow,
	CrowdLevelModerate,
	CrowdLevelHigh,
	CrowdLevelCritical,
}

// Valid reports whether c is one of the known levels.
func (c CrowdLevel) Valid() bool {
	return c.Ordinal() >= 0
}

// Ordinal returns the 0-based rank of c, or -1 if c is unknown.
func (c CrowdLevel) Ordinal() int {
	for i, l := range CrowdLevels {
		if l == c {
			return i
		}
	}
	return -1
}

// CrowdLevelFromOrdinal clamps i into the known range.
func CrowdLevelFromOrdinal(i int) CrowdLevel {
	if i < 0 {
		i = 0
	}
	if i >= len(CrowdLevels) {
		i = len(CrowdLevels) - 1
	}
	return CrowdLevels[i]
}

// ParseCrowdLevel accepts any casing and surrounding whitespace.
func ParseCrowdLevel(s string) (CrowdLevel, error) {
	c := CrowdLevel(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("invalid crowd level %q: must be low, moderate, high, or critical", s)
	}
	return c, nil
}
