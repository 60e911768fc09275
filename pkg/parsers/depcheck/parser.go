// Package depcheck extracts normalized findings from OWASP Dependency-Check
// reports, in both the XML and JSON variants of its schema.
package depcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/openvulnio/scaningest/pkg/core"
	"github.com/openvulnio/scaningest/pkg/errors"
	"github.com/openvulnio/scaningest/pkg/report"
	"github.com/openvulnio/scaningest/pkg/shared/severity"
)

// Parser converts Dependency-Check reports to normalized findings.
type Parser struct{}

// NewParser creates a new Dependency-Check parser.
func NewParser() *Parser {
	return &Parser{}
}

// Name returns the parser name.
func (p *Parser) Name() string {
	return "dependency-check"
}

// Format returns the format tag this parser produces.
func (p *Parser) Format() report.Format {
	return report.FormatDependencyCheck
}

// CanParse checks for Dependency-Check markers in either variant.
func (p *Parser) CanParse(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return false
	}
	if trimmed[0] == '<' {
		return bytes.Contains(trimmed, []byte("<dependencies")) || bytes.Contains(trimmed, []byte("<dependency"))
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &keys); err != nil {
		return false
	}
	_, ok := keys["dependencies"]
	return ok
}

// Parse dispatches on the leading byte: XML reports start with '<', the JSON
// variant mirrors the same dependency/vulnerability nesting as objects.
func (p *Parser) Parse(ctx context.Context, data []byte, opts *core.ParseOptions) (*report.Result, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.E(errors.KindExtraction, "depcheck.Parse", "empty document", errors.ErrEmptyDocument)
	}

	var (
		result *report.Result
		err    error
	)
	if trimmed[0] == '<' {
		result, err = p.parseXML(trimmed)
	} else {
		result, err = p.parseJSON(trimmed)
	}
	if err != nil {
		return nil, err
	}

	opts.Log().Debug("dependency-check: parsed %d findings from %s", len(result.Findings), opts.File())
	return result, nil
}

func (p *Parser) parseXML(data []byte) (*report.Result, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	var doc analysisXML
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.E(errors.KindExtraction, "depcheck.Parse", "invalid Dependency-Check XML", err)
	}

	result := report.NewResult(report.FormatDependencyCheck)
	for i := range doc.Dependencies {
		dep := &doc.Dependencies[i]
		asset := assetIdentifier(dep.PackageName, dep.FileName, dep.PackageVersion)
		for j := range dep.Vulnerabilities {
			result.Findings = append(result.Findings, p.parseXMLVulnerability(&dep.Vulnerabilities[j], asset, result))
		}
	}
	return result, nil
}

func (p *Parser) parseXMLVulnerability(v *vulnerabilityXML, asset string, result *report.Result) report.Finding {
	title := strings.TrimSpace(v.Name)
	if title == "" {
		title = report.DefaultTitle
	}

	description := strings.TrimSpace(v.Description)
	if description == "" {
		description = strings.TrimSpace(v.Notes)
	}

	finding := report.Finding{
		Title:           title,
		Description:     description,
		Remediation:     strings.TrimSpace(v.Solution),
		PluginID:        strings.TrimSpace(v.Name),
		CVEID:           report.FirstCVE(v.CVEs),
		Severity:        severity.Normalize(severity.ToolDependencyCheck, v.Severity),
		CVSSVector:      strings.TrimSpace(v.CVSSVector),
		AssetIdentifier: asset,
		AssetType:       report.AssetDependency,
		Raw: map[string]any{
			"name":       v.Name,
			"severity":   v.Severity,
			"cvss_score": v.CVSSScore,
		},
	}

	if score := strings.TrimSpace(v.CVSSScore); score != "" {
		if val, err := strconv.ParseFloat(score, 64); err != nil {
			result.Warnf("%s: unparseable cvssScore %q, discarded", title, score)
		} else if !report.ValidCVSS(val) {
			result.Warnf("%s: cvssScore %v out of range, discarded", title, val)
		} else {
			finding.CVSSScore = report.Float(val)
		}
	}

	return finding
}

func (p *Parser) parseJSON(data []byte) (*report.Result, error) {
	if data[0] != '{' {
		return nil, errors.E(errors.KindExtraction, "depcheck.Parse", "expected JSON object at root")
	}

	var doc reportJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.E(errors.KindExtraction, "depcheck.Parse", "invalid Dependency-Check JSON", err)
	}

	result := report.NewResult(report.FormatDependencyCheck)
	for i := range doc.Dependencies {
		dep := &doc.Dependencies[i]
		asset := assetIdentifier(dep.PackageName, dep.FileName, dep.PackageVersion)
		for j := range dep.Vulnerabilities {
			result.Findings = append(result.Findings, p.parseJSONVulnerability(&dep.Vulnerabilities[j], asset, result))
		}
	}
	return result, nil
}

func (p *Parser) parseJSONVulnerability(v *vulnerabilityJSON, asset string, result *report.Result) report.Finding {
	title := strings.TrimSpace(v.Name)
	if title == "" {
		title = report.DefaultTitle
	}

	description := strings.TrimSpace(v.Description)
	if description == "" {
		description = strings.TrimSpace(v.Notes)
	}

	cve := strings.TrimSpace(v.CVE)
	if !report.IsCVEID(cve) {
		cve = ""
	}

	finding := report.Finding{
		Title:           title,
		Description:     description,
		Remediation:     strings.TrimSpace(v.Solution),
		PluginID:        strings.TrimSpace(v.Name),
		CVEID:           cve,
		Severity:        severity.Normalize(severity.ToolDependencyCheck, v.Severity),
		CVSSVector:      strings.TrimSpace(v.CVSSVector),
		AssetIdentifier: asset,
		AssetType:       report.AssetDependency,
		Raw: map[string]any{
			"name":     v.Name,
			"severity": v.Severity,
			"cve":      v.CVE,
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

// assetIdentifier builds the package-oriented asset name: package (or file)
// name, with the version appended when the report carries one.
func assetIdentifier(packageName, fileName, version string) string {
	name := strings.TrimSpace(packageName)
	if name == "" {
		name = strings.TrimSpace(fileName)
	}
	if name == "" {
		name = "unknown"
	}
	if v := strings.TrimSpace(version); v != "" {
		return name + "@" + v
	}
	return name
}

var _ core.Parser = (*Parser)(nil)
