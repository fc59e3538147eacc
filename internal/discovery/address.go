package discovery

import (
	"regexp"
	"strings"
)

var (
	countrySuffix = regexp.MustCompile(`(?i)(?:,\s*|\s+)(?:United States(?: of America)?|USA|US)\.?\s*$`)
	stateZip      = regexp.MustCompile(`^([A-Z]{2})(?:\s+\d{5}(?:-\d{4})?)?$`)
	stateOnly     = regexp.MustCompile(`^[A-Z]{2}$`)
)

// ParseTownState performs a best-effort extraction of town and state from a
// formatted address like "123 Main St, Chicago, IL 60601, United States".
// It returns ("", "") when nothing matches.
func ParseTownState(addr string) (town, state string) {
	addr = countrySuffix.ReplaceAllString(strings.TrimSpace(addr), "")
	if addr == "" {
		return "", ""
	}

	parts := strings.Split(addr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	// Walk backwards for "ST" or "ST 12345".
	for i := len(parts) - 1; i >= 0; i-- {
		if m := stateZip.FindStringSubmatch(parts[i]); m != nil {
			if i > 0 {
				town = parts[i-1]
			}
			return town, m[1]
		}
	}

	if n := len(parts); n >= 2 && stateOnly.MatchString(parts[n-1]) {
		return parts[n-2], parts[n-1]
	}
	return "", ""
}
