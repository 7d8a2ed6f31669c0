// Package activity holds canonical-model helpers: distance
// categorization and the title heuristic that replaces generic source
// titles with something descriptive.
package activity

import "strings"

// Distance category boundaries in meters, half-open intervals.
var categories = []struct {
	label string
	min   float64
	max   float64 // exclusive; <0 means unbounded
}{
	{"5K", 4500, 5500},
	{"10K", 9500, 10500},
	{"Half Marathon", 20500, 21500},
	{"Marathon", 41500, 42500},
	{"Ultra Marathon", 42500, -1},
}

// genericTitles are the provider-generated default names that carry no
// information and may be replaced.
var genericTitles = map[string]bool{
	"morning run":   true,
	"lunch run":     true,
	"afternoon run": true,
	"evening run":   true,
	"night run":     true,
	"run":           true,
	"晨跑":            true,
	"午间跑步":          true,
	"下午跑步":          true,
	"傍晚跑步":          true,
	"夜跑":            true,
	"跑步":            true,
}

// DistanceCategory returns the label for a recognized race distance.
func DistanceCategory(meters float64) (string, bool) {
	for _, c := range categories {
		if meters >= c.min && (c.max < 0 || meters < c.max) {
			return c.label, true
		}
	}
	return "", false
}

// IsGenericTitle reports whether a title is a provider default.
func IsGenericTitle(title string) bool {
	return genericTitles[strings.ToLower(strings.TrimSpace(title))]
}

// ResolveTitle substitutes a matched race name or a distance-category
// label for generic source titles. Non-generic titles pass through
// untouched; the race name, when present, wins even over them only if
// the title is generic.
func ResolveTitle(title string, distanceMeters float64, raceName string) string {
	if !IsGenericTitle(title) && strings.TrimSpace(title) != "" {
		return title
	}
	if raceName != "" {
		return raceName
	}
	if label, ok := DistanceCategory(distanceMeters); ok {
		return label
	}
	if strings.TrimSpace(title) == "" {
		return "Run"
	}
	return title
}
