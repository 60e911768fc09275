// Package report defines the normalized output model shared by every
// extractor: the canonical finding, the result envelope returned to callers,
// and the source-format tag the detector assigns.
package report

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/openvulnio/scaningest/pkg/shared/severity"
)

// Format tags which extractor produced (or should produce) a result.
type Format string

const (
	FormatNessus          Format = "nessus"
	FormatDependencyCheck Format = "dependency_check"
	FormatSnyk            Format = "snyk"
	FormatTrivy           Format = "trivy"
	FormatUnknown         Format = "unknown"
)

// String returns the string representation of the format tag.
func (f Format) String() string {
	return string(f)
}

// KnownFormats returns the formats with a registered extractor.
func KnownFormats() []Format {
	return []Format{FormatNessus, FormatDependencyCheck, FormatSnyk, FormatTrivy}
}

// AssetType classifies what a finding was observed on.
type AssetType string

const (
	AssetServer     AssetType = "server"
	AssetDependency AssetType = "dependency"
	AssetContainer  AssetType = "container"
	AssetCode       AssetType = "code"
)

// DefaultTitle is used when the source record carries no usable name.
const DefaultTitle = "Untitled Finding"

// Finding is the canonical normalized vulnerability record. Constructed once
// per source finding during extraction and immutable afterwards; the caller
// owns it once the parse call returns.
type Finding struct {
	// Title is always non-empty; extractors fall back to DefaultTitle.
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Remediation string `json:"remediation,omitempty"`

	// PluginID is the tool-specific rule/check identifier (Nessus plugin ID,
	// Dependency-Check rule name, Trivy rule ID).
	PluginID string `json:"plugin_id,omitempty"`

	// CVEID is the first/primary CVE when the source carries one, in
	// CVE-YYYY-NNNN form. Never a fabricated or non-CVE value.
	CVEID string `json:"cve_id,omitempty"`

	// Severity is always populated; unknown source values map to info.
	Severity severity.Level `json:"scanner_severity"`

	// CVSSScore is nil when absent or outside [0, 10]. Out-of-range source
	// values are dropped with a warning rather than clamped, so bad source
	// data stays visible.
	CVSSScore  *float64 `json:"cvss_score,omitempty"`
	CVSSVector string   `json:"cvss_vector,omitempty"`

	// Port and Protocol are set only for network-oriented findings (Nessus).
	Port     *int   `json:"port,omitempty"`
	Protocol string `json:"protocol,omitempty"`

	// AssetIdentifier is the host/IP, package name+version, or image name
	// the finding was observed on.
	AssetIdentifier string    `json:"asset_identifier,omitempty"`
	AssetType       AssetType `json:"asset_type"`

	// Raw preserves the tool-specific source record for audit/debugging.
	// It is never consulted after extraction.
	Raw map[string]any `json:"raw_data,omitempty"`
}

// Result is the envelope returned to callers: the ordered findings, the
// format tag of the extractor that ran, and the non-fatal warnings collected
// along the way. Partial success is the default failure mode.
type Result struct {
	ID       string    `json:"id"`
	Format   Format    `json:"source_format"`
	Findings []Finding `json:"findings"`
	Warnings []string  `json:"warnings,omitempty"`

	// LowConfidence is set when the format tag came from a fallback guess
	// (unrecognized XML root, catch-all JSON default) rather than a
	// positive content match.
	LowConfidence bool `json:"low_confidence,omitempty"`
}

// NewResult creates an empty result for the given format.
func NewResult(format Format) *Result {
	return &Result{
		ID:     uuid.NewString(),
		Format: format,
	}
}

// Warnf records a non-fatal per-record warning.
func (r *Result) Warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Summary counts the result's findings by severity.
func (r *Result) Summary() severity.CountBySeverity {
	var c severity.CountBySeverity
	for i := range r.Findings {
		c.Increment(r.Findings[i].Severity)
	}
	return c
}

// ValidCVSS reports whether a CVSS score is within the valid [0, 10] range.
func ValidCVSS(score float64) bool {
	return score >= 0 && score <= 10
}

// Float returns a pointer to f, for optional score fields.
func Float(f float64) *float64 {
	return &f
}

// Int returns a pointer to i, for optional port fields.
func Int(i int) *int {
	return &i
}
