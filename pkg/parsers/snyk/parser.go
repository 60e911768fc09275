// Package snyk extracts normalized findings from Snyk CLI/API JSON test
// reports.
package snyk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openvulnio/scaningest/pkg/core"
	"github.com/openvulnio/scaningest/pkg/errors"
	"github.com/openvulnio/scaningest/pkg/report"
	"github.com/openvulnio/scaningest/pkg/shared/severity"
)

// Parser converts Snyk JSON reports to normalized findings.
type Parser struct{}

// NewParser creates a new Snyk parser.
func NewParser() *Parser {
	return &Parser{}
}

// Name returns the parser name.
func (p *Parser) Name() string {
	return "snyk"
}

// Format returns the format tag this parser produces.
func (p *Parser) Format() report.Format {
	return report.FormatSnyk
}

// CanParse checks for the Snyk marker keys.
func (p *Parser) CanParse(data []byte) bool {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(data), &keys); err != nil {
		return false
	}
	if _, ok := keys["vulnerabilities"]; !ok {
		return false
	}
	_, hasProject := keys["projectName"]
	_, hasTarget := keys["displayTargetFile"]
	return hasProject || hasTarget
}

// Parse extracts one finding per vulnerability issue. License issues are
// skipped without a warning; they are policy findings, not vulnerabilities.
func (p *Parser) Parse(ctx context.Context, data []byte, opts *core.ParseOptions) (*report.Result, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.E(errors.KindExtraction, "snyk.Parse", "expected JSON object at root")
	}

	var doc reportJSON
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, errors.E(errors.KindExtraction, "snyk.Parse", "invalid Snyk JSON", err)
	}

	result := report.NewResult(report.FormatSnyk)
	for i := range doc.Vulnerabilities {
		v := &doc.Vulnerabilities[i]
		if strings.EqualFold(v.Type, "license") {
			continue
		}
		result.Findings = append(result.Findings, p.parseVulnerability(v, &doc, result))
	}

	opts.Log().Debug("snyk: parsed %d findings from project %q", len(result.Findings), doc.ProjectName)
	return result, nil
}

func (p *Parser) parseVulnerability(v *vulnJSON, doc *reportJSON, result *report.Result) report.Finding {
	title := strings.TrimSpace(v.Title)
	if title == "" {
		title = report.DefaultTitle
	}

	pkg := packageIdentifier(v)

	description := strings.TrimSpace(v.Description)
	remediation := strings.TrimSpace(v.Remediation)
	if remediation == "" {
		if upgrade := upgradeTarget(v.UpgradePath); upgrade != "" {
			remediation = "Upgrade to " + upgrade
		}
	}
	if description == "" && remediation != "" {
		description = "Remediation: " + remediation
	}

	finding := report.Finding{
		Title:           title,
		Description:     description,
		Remediation:     remediation,
		PluginID:        strings.TrimSpace(v.ID),
		CVEID:           firstCVE(v),
		Severity:        severity.Normalize(severity.ToolSnyk, v.Severity),
		CVSSVector:      strings.TrimSpace(v.CVSSVector),
		AssetIdentifier: pkg,
		AssetType:       assetType(v, doc),
		Raw: map[string]any{
			"id":          v.ID,
			"title":       v.Title,
			"issueType":   v.Type,
			"severity":    v.Severity,
			"packageName": v.PackageName,
			"version":     v.Version,
			"from":        v.From,
		},
	}

	if v.CVSSScore.Present {
		switch {
		case v.CVSSScore.Invalid:
			result.Warnf("%s: unparseable cvssScore %q, discarded", title, v.CVSSScore.Raw)
		case !report.ValidCVSS(v.CVSSScore.Value):
			result.Warnf("%s: cvssScore %v out of range, discarded", title, v.CVSSScore.Value)
		default:
			finding.CVSSScore = report.Float(v.CVSSScore.Value)
		}
	}

	return finding
}

// firstCVE prefers identifiers.CVE, then the legacy cves list. Non-CVE
// values are never promoted into the cve_id field.
func firstCVE(v *vulnJSON) string {
	if cve := report.FirstCVE(v.Identifiers.CVE); cve != "" {
		return cve
	}
	for _, ref := range v.CVEs {
		if report.IsCVEID(ref.ID) {
			return ref.ID
		}
	}
	return ""
}

// packageIdentifier names the vulnerable package. The from chain starts with
// the project itself, so the package is the second element when present.
func packageIdentifier(v *vulnJSON) string {
	if len(v.From) > 1 {
		return v.From[1]
	}
	if len(v.From) == 1 {
		return v.From[0]
	}
	if v.PackageName != "" {
		if v.Version != "" {
			return fmt.Sprintf("%s@%s", v.PackageName, v.Version)
		}
		return v.PackageName
	}
	return "unknown"
}

// upgradeTarget returns the first upgrade step beyond the project entry.
// Entries are false when no upgrade exists at that position.
func upgradeTarget(path []any) string {
	for i, step := range path {
		if i == 0 {
			continue
		}
		if s, ok := step.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// assetType classifies the finding: container issue types stay containers,
// a source-file target marks a code scan, everything else is a dependency.
func assetType(v *vulnJSON, doc *reportJSON) report.AssetType {
	if strings.Contains(strings.ToLower(v.Type), "container") {
		return report.AssetContainer
	}
	if doc.DisplayTargetFile != "" && isSourceCodeFile(doc.DisplayTargetFile) {
		return report.AssetCode
	}
	return report.AssetDependency
}

var _ core.Parser = (*Parser)(nil)
