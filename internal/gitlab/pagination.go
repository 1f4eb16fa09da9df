package gitlab

import "strings"

// NextPageURL extracts the rel="next" URL from a Link response header, or
// returns the empty string when there is no next page. Entries are separated
// by ", ", each one being `<url>; rel="type"`; malformed entries are ignored.
func NextPageURL(header string) string {
	if header == "" {
		return ""
	}
	for _, entry := range strings.Split(header, ", ") {
		parts := strings.Split(entry, "; ")
		if len(parts) < 2 {
			continue
		}
		url := strings.TrimSuffix(strings.TrimPrefix(parts[0], "<"), ">")
		for _, param := range parts[1:] {
			if param == `rel="next"` {
				return url
			}
		}
	}
	return ""
}
