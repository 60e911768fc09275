// Package nessus extracts normalized findings from Nessus .nessus/.xml
// exports (NessusClientData_v2 schema).
package nessus

import (
	"bytes"
	"context"
	"encoding/xml"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/openvulnio/scaningest/pkg/core"
	"github.com/openvulnio/scaningest/pkg/errors"
	"github.com/openvulnio/scaningest/pkg/report"
	"github.com/openvulnio/scaningest/pkg/shared/severity"
)

// Parser converts Nessus XML exports to normalized findings.
type Parser struct{}

// NewParser creates a new Nessus parser.
func NewParser() *Parser {
	return &Parser{}
}

// Name returns the parser name.
func (p *Parser) Name() string {
	return "nessus"
}

// Format returns the format tag this parser produces.
func (p *Parser) Format() report.Format {
	return report.FormatNessus
}

// CanParse checks whether the data carries the NessusClientData_v2 root.
func (p *Parser) CanParse(data []byte) bool {
	return bytes.Contains(data, []byte("<NessusClientData_v2"))
}

// Parse walks Report > ReportHost > ReportItem and emits one finding per
// item. A host with no items contributes nothing. Malformed values inside an
// item (bad CVSS, bad port) become warnings, never errors.
func (p *Parser) Parse(ctx context.Context, data []byte, opts *core.ParseOptions) (*report.Result, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	// Nessus exports from older scanners are not always UTF-8.
	dec.CharsetReader = charset.NewReaderLabel

	var doc ClientData
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.E(errors.KindExtraction, "nessus.Parse", "invalid Nessus XML", err)
	}

	result := report.NewResult(report.FormatNessus)
	for _, rep := range doc.Reports {
		for _, host := range rep.Hosts {
			hostName := host.Name
			if hostName == "" {
				hostName = "unknown"
			}
			props := host.PropertyMap()
			for i := range host.Items {
				result.Findings = append(result.Findings, p.parseReportItem(&host.Items[i], hostName, props, result))
			}
		}
	}

	opts.Log().Debug("nessus: parsed %d findings from %s", len(result.Findings), opts.File())
	return result, nil
}

// parseReportItem converts one ReportItem into a normalized finding.
func (p *Parser) parseReportItem(item *ReportItem, host string, props map[string]string, result *report.Result) report.Finding {
	title := strings.TrimSpace(item.PluginNameAttr)
	if title == "" {
		title = strings.TrimSpace(item.PluginName)
	}
	if title == "" {
		title = report.DefaultTitle
	}

	finding := report.Finding{
		Title:           title,
		Description:     strings.TrimSpace(item.Description),
		Remediation:     strings.TrimSpace(item.Solution),
		PluginID:        item.PluginID,
		CVEID:           report.FirstCVE(item.CVEs),
		Severity:        severity.Normalize(severity.ToolNessus, item.Severity),
		CVSSVector:      strings.TrimSpace(item.CVSSVector),
		AssetIdentifier: host,
		AssetType:       report.AssetServer,
		Raw: map[string]any{
			"plugin_id": item.PluginID,
			"severity":  item.Severity,
			"port":      item.Port,
			"protocol":  item.Protocol,
			"svc_name":  item.ServiceName,
		},
	}

	if os, ok := props["operating-system"]; ok {
		finding.Raw["operating_system"] = os
	}

	if score := strings.TrimSpace(item.CVSSBaseScore); score != "" {
		if v, err := strconv.ParseFloat(score, 64); err != nil {
			result.Warnf("plugin %s on %s: unparseable cvss_base_score %q, discarded", item.PluginID, host, score)
		} else if !report.ValidCVSS(v) {
			result.Warnf("plugin %s on %s: cvss_base_score %v out of range, discarded", item.PluginID, host, v)
		} else {
			finding.CVSSScore = report.Float(v)
		}
	}

	if port := strings.TrimSpace(item.Port); port != "" {
		if v, err := strconv.Atoi(port); err != nil || v < 0 || v > 65535 {
			result.Warnf("plugin %s on %s: invalid port %q, discarded", item.PluginID, host, port)
		} else {
			finding.Port = report.Int(v)
		}
	}

	switch proto := strings.ToLower(strings.TrimSpace(item.Protocol)); proto {
	case "tcp", "udp":
		finding.Protocol = proto
	}

	return finding
}

var _ core.Parser = (*Parser)(nil)
