// Package trivy extracts normalized findings from Trivy JSON and SARIF
// reports covering container, filesystem, and repository scans.
package trivy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/openvulnio/scaningest/pkg/core"
	"github.com/openvulnio/scaningest/pkg/errors"
	"github.com/openvulnio/scaningest/pkg/report"
	"github.com/openvulnio/scaningest/pkg/shared/severity"
)

// Parser converts Trivy JSON and SARIF output to normalized findings.
type Parser struct{}

// NewParser creates a new Trivy parser.
func NewParser() *Parser {
	return &Parser{}
}

// Name returns the parser name.
func (p *Parser) Name() string {
	return "trivy"
}

// Format returns the format tag this parser produces.
func (p *Parser) Format() report.Format {
	return report.FormatTrivy
}

// CanParse checks for Trivy JSON markers or a SARIF document.
func (p *Parser) CanParse(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return false
	}
	if trimmed[0] == '[' {
		var results []resultJSON
		if err := json.Unmarshal(trimmed, &results); err != nil || len(results) == 0 {
			return false
		}
		return results[0].Target != "" || len(results[0].Vulnerabilities) > 0
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &keys); err != nil {
		return false
	}
	if _, ok := keys["Results"]; ok {
		return true
	}
	_, hasRuns := keys["runs"]
	_, hasVersion := keys["version"]
	return hasRuns && hasVersion
}

// Parse dispatches on document shape: SARIF, modern object root, or the
// legacy array-of-results root.
func (p *Parser) Parse(ctx context.Context, data []byte, opts *core.ParseOptions) (*report.Result, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.E(errors.KindExtraction, "trivy.Parse", "empty document")
	}

	if trimmed[0] == '[' {
		return p.parseResults(trimmed, opts)
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &keys); err != nil {
		return nil, errors.E(errors.KindExtraction, "trivy.Parse", "invalid Trivy JSON", err)
	}
	if _, ok := keys["runs"]; ok {
		return p.parseSARIF(trimmed, opts)
	}
	return p.parseJSON(trimmed, opts)
}

// parseJSON handles the modern object root with a Results array.
func (p *Parser) parseJSON(data []byte, opts *core.ParseOptions) (*report.Result, error) {
	var doc reportJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.E(errors.KindExtraction, "trivy.Parse", "invalid Trivy JSON", err)
	}

	result := report.NewResult(report.FormatTrivy)
	for i := range doc.Results {
		p.parseResult(&doc.Results[i], doc.ArtifactName, doc.ArtifactType, result)
	}

	opts.Log().Debug("trivy: parsed %d findings from %q", len(result.Findings), doc.ArtifactName)
	return result, nil
}

// parseResults handles the legacy array-of-results root emitted by older
// Trivy releases.
func (p *Parser) parseResults(data []byte, opts *core.ParseOptions) (*report.Result, error) {
	var results []resultJSON
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, errors.E(errors.KindExtraction, "trivy.Parse", "invalid Trivy JSON", err)
	}

	result := report.NewResult(report.FormatTrivy)
	for i := range results {
		p.parseResult(&results[i], results[i].ArtifactName, results[i].Type, result)
	}

	opts.Log().Debug("trivy: parsed %d findings from legacy array report", len(result.Findings))
	return result, nil
}

func (p *Parser) parseResult(res *resultJSON, artifactName, artifactType string, result *report.Result) {
	asset := strings.TrimSpace(res.Target)
	if asset == "" {
		asset = strings.TrimSpace(artifactName)
	}
	if asset == "" {
		asset = "unknown-artifact"
	}

	for i := range res.Vulnerabilities {
		v := &res.Vulnerabilities[i]
		result.Findings = append(result.Findings, p.parseVulnerability(v, res, asset, artifactType, result))
	}
}

func (p *Parser) parseVulnerability(v *vulnJSON, res *resultJSON, asset, artifactType string, result *report.Result) report.Finding {
	title := strings.TrimSpace(v.Title)
	if title == "" {
		title = strings.TrimSpace(v.VulnerabilityID)
	}
	if title == "" {
		title = report.DefaultTitle
	}

	remediation := ""
	if v.FixedVersion != "" {
		remediation = fmt.Sprintf("Update %s to %s", v.PkgName, v.FixedVersion)
	}

	finding := report.Finding{
		Title:           title,
		Description:     strings.TrimSpace(v.Description),
		Remediation:     remediation,
		PluginID:        strings.TrimSpace(v.VulnerabilityID),
		CVEID:           vulnCVE(v),
		Severity:        severity.Normalize(severity.ToolTrivy, v.Severity),
		AssetIdentifier: asset,
		AssetType:       assetType(artifactType, res, v),
		Raw: map[string]any{
			"vulnerabilityID":  v.VulnerabilityID,
			"severity":         v.Severity,
			"packageName":      v.PkgName,
			"installedVersion": v.InstalledVersion,
			"fixedVersion":     v.FixedVersion,
			"target":           res.Target,
		},
	}

	if score, vector, ok := bestCVSS(v.CVSS); ok {
		if report.ValidCVSS(score) {
			finding.CVSSScore = report.Float(score)
			finding.CVSSVector = vector
		} else {
			result.Warnf("%s: CVSS score %v out of range, discarded", title, score)
		}
	}

	return finding
}

// vulnCVE returns the finding's CVE. The VulnerabilityID usually is one;
// otherwise the references are scanned for an embedded CVE URL.
func vulnCVE(v *vulnJSON) string {
	if report.IsCVEID(v.VulnerabilityID) {
		return v.VulnerabilityID
	}
	for _, ref := range v.References {
		if cve := report.ExtractCVE(ref); cve != "" {
			return cve
		}
	}
	return ""
}

// assetType classifies the scanned artifact: image scans are containers,
// package-level results are dependencies, anything else is code.
func assetType(artifactType string, res *resultJSON, v *vulnJSON) report.AssetType {
	lower := strings.ToLower(artifactType)
	if strings.Contains(lower, "image") || strings.Contains(lower, "container") {
		return report.AssetContainer
	}
	if v.PkgName != "" || res.Class == "os-pkgs" || res.Class == "lang-pkgs" {
		return report.AssetDependency
	}
	return report.AssetCode
}

// parseSARIF handles the SARIF 2.1.0 subset Trivy emits. Rule IDs are
// CVE IDs when Trivy reports vulnerabilities through SARIF.
func (p *Parser) parseSARIF(data []byte, opts *core.ParseOptions) (*report.Result, error) {
	var doc sarifDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.E(errors.KindExtraction, "trivy.Parse", "invalid SARIF JSON", err)
	}

	result := report.NewResult(report.FormatTrivy)
	for _, run := range doc.Runs {
		for i := range run.Results {
			result.Findings = append(result.Findings, p.parseSARIFResult(&run.Results[i], result))
		}
	}

	opts.Log().Debug("trivy: parsed %d findings from SARIF report", len(result.Findings))
	return result, nil
}

func (p *Parser) parseSARIFResult(res *sarifResult, result *report.Result) report.Finding {
	title := strings.TrimSpace(res.Message.Text)
	if title == "" {
		title = report.DefaultTitle
	}

	asset := "unknown"
	if len(res.Locations) > 0 {
		if uri := res.Locations[0].PhysicalLocation.ArtifactLocation.URI; uri != "" {
			asset = uri
		}
	}

	cve := ""
	if report.IsCVEID(res.RuleID) {
		cve = res.RuleID
	} else if prop, ok := res.Properties["cve"].(string); ok && report.IsCVEID(prop) {
		cve = prop
	}

	finding := report.Finding{
		Title:           title,
		PluginID:        strings.TrimSpace(res.RuleID),
		CVEID:           cve,
		Severity:        severity.FromSARIFLevel(res.Level),
		AssetIdentifier: asset,
		AssetType:       report.AssetCode,
		Raw: map[string]any{
			"ruleId": res.RuleID,
			"level":  res.Level,
		},
	}

	if desc, ok := res.Properties["description"].(string); ok {
		finding.Description = strings.TrimSpace(desc)
	}
	if score, ok := sarifScore(res.Properties); ok {
		if report.ValidCVSS(score) {
			finding.CVSSScore = report.Float(score)
		} else {
			result.Warnf("%s: security-severity %v out of range, discarded", title, score)
		}
	}

	return finding
}

// sarifScore reads the score property, which arrives as a JSON number or a
// numeric string depending on the emitting version. "security-severity" is
// the current key; "cvss_score" appears in older reports.
func sarifScore(props map[string]any) (float64, bool) {
	raw, ok := props["security-severity"]
	if !ok {
		raw, ok = props["cvss_score"]
	}
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

var _ core.Parser = (*Parser)(nil)
