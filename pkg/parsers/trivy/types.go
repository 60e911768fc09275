package trivy

// =============================================================================
// Trivy JSON Output Types
// =============================================================================

// reportJSON is the root of modern Trivy JSON output.
type reportJSON struct {
	SchemaVersion int          `json:"SchemaVersion"`
	ArtifactName  string       `json:"ArtifactName"`
	ArtifactType  string       `json:"ArtifactType"`
	Results       []resultJSON `json:"Results"`
}

// resultJSON is a single scan result (per target).
type resultJSON struct {
	Target          string     `json:"Target"`
	Class           string     `json:"Class"` // os-pkgs, lang-pkgs, config, secret
	Type            string     `json:"Type"`  // alpine, debian, npm, terraform, etc.
	ArtifactName    string     `json:"ArtifactName"`
	Vulnerabilities []vulnJSON `json:"Vulnerabilities"`
}

type vulnJSON struct {
	VulnerabilityID  string `json:"VulnerabilityID"`
	PkgName          string `json:"PkgName"`
	InstalledVersion string `json:"InstalledVersion"`
	FixedVersion     string `json:"FixedVersion"`
	PrimaryURL       string `json:"PrimaryURL"`

	Title       string `json:"Title"`
	Description string `json:"Description"`
	Severity    string `json:"Severity"`

	CVSS map[string]cvssData `json:"CVSS"`

	References []string `json:"References"`
}

// cvssData carries per-source CVSS entries.
type cvssData struct {
	V2Vector string  `json:"V2Vector"`
	V3Vector string  `json:"V3Vector"`
	V2Score  float64 `json:"V2Score"`
	V3Score  float64 `json:"V3Score"`
}

// cvssSources is the preference order when multiple sources report a score.
var cvssSources = []string{"nvd", "ghsa", "redhat", "ubuntu", "debian", "amazon"}

// bestCVSS picks the best available score. V3 beats V2, preferred sources
// beat the rest.
func bestCVSS(cvss map[string]cvssData) (float64, string, bool) {
	for _, src := range cvssSources {
		if data, ok := cvss[src]; ok {
			if data.V3Score > 0 {
				return data.V3Score, data.V3Vector, true
			}
			if data.V2Score > 0 {
				return data.V2Score, data.V2Vector, true
			}
		}
	}
	for _, data := range cvss {
		if data.V3Score > 0 {
			return data.V3Score, data.V3Vector, true
		}
		if data.V2Score > 0 {
			return data.V2Score, data.V2Vector, true
		}
	}
	return 0, "", false
}

// =============================================================================
// SARIF 2.1.0 Types (the subset Trivy emits)
// =============================================================================

type sarifDoc struct {
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Results []sarifResult `json:"results"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
	// Properties carries Trivy extras such as "security-severity".
	Properties map[string]any `json:"properties"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}
