package snyk

import (
	"encoding/json"
	"strconv"
	"strings"
)

// =============================================================================
// Snyk CLI/API JSON Report Types
// =============================================================================

// reportJSON is the root of a Snyk test report.
type reportJSON struct {
	ProjectName       string     `json:"projectName"`
	DisplayTargetFile string     `json:"displayTargetFile"`
	PackageManager    string     `json:"packageManager"`
	Vulnerabilities   []vulnJSON `json:"vulnerabilities"`
}

type vulnJSON struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Remediation string `json:"remediation"`

	CVSSScore  flexScore `json:"cvssScore"`
	CVSSVector string    `json:"CVSSv3"`

	PackageName string `json:"packageName"`
	Version     string `json:"version"`

	// From is the introduction chain: project first, then the direct
	// dependency that pulls the vulnerable package in.
	From []string `json:"from"`

	// UpgradePath mixes booleans and "pkg@version" strings.
	UpgradePath []any `json:"upgradePath"`

	Identifiers identifiersJSON `json:"identifiers"`
	CVEs        []cveRef        `json:"cves"`
}

type identifiersJSON struct {
	CVE []string `json:"CVE"`
	CWE []string `json:"CWE"`
}

// cveRef accepts both spellings present across report versions: a bare
// string or an object with an "id" field.
type cveRef struct {
	ID string
}

func (c *cveRef) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		c.ID = s
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err == nil {
		c.ID = obj.ID
	}
	return nil
}

// flexScore accepts a CVSS score written as a JSON number or numeric string.
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

// sourceCodeExts marks displayTargetFile suffixes that indicate a code scan
// rather than a manifest scan.
var sourceCodeExts = []string{
	".go", ".py", ".js", ".jsx", ".ts", ".tsx", ".java", ".rb", ".php",
	".c", ".cc", ".cpp", ".cs", ".rs", ".kt", ".swift",
}

func isSourceCodeFile(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range sourceCodeExts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
