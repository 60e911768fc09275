package nessus

import "encoding/xml"

// =============================================================================
// Nessus XML Export Types (NessusClientData_v2 schema)
// =============================================================================

// ClientData is the root of a .nessus export.
type ClientData struct {
	XMLName xml.Name    `xml:"NessusClientData_v2"`
	Reports []ScanGroup `xml:"Report"`
}

// ScanGroup is one Report element; exports normally carry exactly one.
type ScanGroup struct {
	Name  string       `xml:"name,attr"`
	Hosts []ReportHost `xml:"ReportHost"`
}

// ReportHost is a scanned host with its findings.
type ReportHost struct {
	Name       string         `xml:"name,attr"`
	Properties []HostProperty `xml:"HostProperties>tag"`
	Items      []ReportItem   `xml:"ReportItem"`
}

// HostProperty is one HostProperties tag (operating-system, host-fqdn, ...).
type HostProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

// ReportItem is one finding on a host. Severity is the 0-4 integer scale;
// CVE may be multi-valued. All child elements are optional in practice.
type ReportItem struct {
	PluginID       string   `xml:"pluginID,attr"`
	PluginNameAttr string   `xml:"pluginName,attr"`
	Severity       string   `xml:"severity,attr"`
	Port           string   `xml:"port,attr"`
	Protocol       string   `xml:"protocol,attr"`
	ServiceName    string   `xml:"svc_name,attr"`
	PluginName     string   `xml:"plugin_name"`
	Description    string   `xml:"description"`
	Solution       string   `xml:"solution"`
	Synopsis       string   `xml:"synopsis"`
	RiskFactor     string   `xml:"risk_factor"`
	CVEs           []string `xml:"cve"`
	CVSSBaseScore  string   `xml:"cvss_base_score"`
	CVSSVector     string   `xml:"cvss_vector"`
}

// PropertyMap flattens the host properties for raw-data preservation.
func (h *ReportHost) PropertyMap() map[string]string {
	if len(h.Properties) == 0 {
		return nil
	}
	props := make(map[string]string, len(h.Properties))
	for _, p := range h.Properties {
		if p.Name != "" {
			props[p.Name] = p.Value
		}
	}
	return props
}
