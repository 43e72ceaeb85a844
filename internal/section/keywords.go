package section

import "strings"

// geoKeywords triggers geo-augmented generation. A section request is
// grounded with the caller's coordinates when the user prompt or the
// section's display name contains any of these, case-insensitively. This is
// a heuristic substring match, not exact-word matching.
var geoKeywords = []string{
	"nomad",
	"dashboard",
	"near",
	"nearby",
	"map",
	"local",
	"cafe",
	"weather",
	"visa",
	"city",
	"around me",
}

// wantsGeo reports whether text matches the geo keyword set.
func wantsGeo(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range geoKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
