package report

import "regexp"

var (
	cveExact = regexp.MustCompile(`^CVE-\d{4}-\d+$`)
	cveAny   = regexp.MustCompile(`CVE-\d{4}-\d+`)
)

// IsCVEID reports whether s is exactly a CVE identifier (CVE-YYYY-NNNN).
func IsCVEID(s string) bool {
	return cveExact.MatchString(s)
}

// ExtractCVE returns the first CVE identifier embedded in s (e.g., inside a
// reference URL), or "" when none is present.
func ExtractCVE(s string) string {
	return cveAny.FindString(s)
}

// FirstCVE returns the first valid CVE identifier from the list, or "".
// Non-CVE entries (vendor advisories, GHSA IDs) are skipped, never rewritten.
func FirstCVE(ids []string) string {
	for _, id := range ids {
		if IsCVEID(id) {
			return id
		}
	}
	return ""
}
