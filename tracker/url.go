package tracker

import "strings"

// HasTrackingScheme reports whether url is an absolute http or https URL. The scheme is
// matched case-insensitively.
func HasTrackingScheme(url string) bool {
	lower := strings.ToLower(url)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
