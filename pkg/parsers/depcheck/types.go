package depcheck

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// =============================================================================
// OWASP Dependency-Check Report Types (XML and JSON variants)
// =============================================================================

// analysisXML is the root of the XML report. Namespaces vary across report
// schema versions; matching is by local name.
type analysisXML struct {
	XMLName      xml.Name        `xml:"analysis"`
	Dependencies []dependencyXML `xml:"dependencies>dependency"`
}

type dependencyXML struct {
	FileName        string             `xml:"fileName"`
	FilePath        string             `xml:"filePath"`
	PackageName     string             `xml:"packageName"`
	PackageVersion  string             `xml:"packageVersion"`
	Vulnerabilities []vulnerabilityXML `xml:"vulnerabilities>vulnerability"`
}

type vulnerabilityXML struct {
	Name        string   `xml:"name"`
	Severity    string   `xml:"severity"`
	CVSSScore   string   `xml:"cvssScore"`
	CVSSVector  string   `xml:"cvssVector"`
	CVEs        []string `xml:"cve"`
	Description string   `xml:"description"`
	Notes       string   `xml:"notes"`
	Solution    string   `xml:"solution"`
}

// reportJSON mirrors the XML structure as nested objects/arrays.
type reportJSON struct {
	Dependencies []dependencyJSON `json:"dependencies"`
}

type dependencyJSON struct {
	FileName        string              `json:"fileName"`
	FilePath        string              `json:"filePath"`
	PackageName     string              `json:"packageName"`
	PackageVersion  string              `json:"packageVersion"`
	Vulnerabilities []vulnerabilityJSON `json:"vulnerabilities"`
}

type vulnerabilityJSON struct {
	Name        string    `json:"name"`
	Severity    string    `json:"severity"`
	CVSSScore   flexScore `json:"cvssScore"`
	CVSSVector  string    `json:"cvssVector"`
	CVE         string    `json:"cve"`
	Description string    `json:"description"`
	Notes       string    `json:"notes"`
	Solution    string    `json:"solution"`
}

// flexScore accepts a CVSS score written as a JSON number or as a numeric
// string, both of which appear in real reports.
type flexScore struct {
	Value   float64
	Present bool
	Invalid bool
	Raw     string
}

func (f *flexScore) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		return nil
	}
	s = strings.Trim(s, `"`)
	f.Present = true
	f.Raw = s
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		f.Invalid = true
		return nil
	}
	f.Value = v
	return nil
}
