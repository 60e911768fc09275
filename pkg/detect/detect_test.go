package detect

import (
	"testing"

	"github.com/openvulnio/scaningest/pkg/report"
)

func TestExt(t *testing.T) {
	tests := []struct {
		filename string
		expected string
	}{
		{"scan.nessus", ".nessus"},
		{"report.XML", ".xml"},
		{"report.json.gz", ".json"},
		{"report.json.zst", ".json"},
		{"/uploads/2024/scan.sarif", ".sarif"},
		{"noext", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := Ext(tt.filename); got != tt.expected {
				t.Errorf("Ext(%q) = %q, want %q", tt.filename, got, tt.expected)
			}
		})
	}
}

func TestKnownExtension(t *testing.T) {
	tests := []struct {
		filename string
		expected bool
	}{
		{"scan.nessus", true},
		{"scan.xml", true},
		{"scan.json", true},
		{"scan.sarif", true},
		{"scan.json.gz", true},
		{"scan.csv", false},
		{"scan.txt", false},
		{"scan", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := KnownExtension(tt.filename); got != tt.expected {
				t.Errorf("KnownExtension(%q) = %v, want %v", tt.filename, got, tt.expected)
			}
		})
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name      string
		filename  string
		data      string
		format    report.Format
		confident bool
	}{
		{
			name:      "nessus extension needs no content",
			filename:  "scan.nessus",
			data:      "",
			format:    report.FormatNessus,
			confident: true,
		},
		{
			name:      "sarif extension routes to trivy",
			filename:  "scan.sarif",
			data:      "not even json",
			format:    report.FormatTrivy,
			confident: true,
		},
		{
			name:      "xml with NessusClientData_v2 root",
			filename:  "export.xml",
			data:      `<?xml version="1.0"?><NessusClientData_v2><Report/></NessusClientData_v2>`,
			format:    report.FormatNessus,
			confident: true,
		},
		{
			name:      "xml with dependencies element",
			filename:  "dc-report.xml",
			data:      `<?xml version="1.0"?><analysis><dependencies><dependency/></dependencies></analysis>`,
			format:    report.FormatDependencyCheck,
			confident: true,
		},
		{
			name:      "foreign xml falls back to nessus without confidence",
			filename:  "whatever.xml",
			data:      `<?xml version="1.0"?><catalog><item/></catalog>`,
			format:    report.FormatNessus,
			confident: false,
		},
		{
			name:     "malformed xml is unknown",
			filename: "broken.xml",
			data:     `<<<< not xml`,
			format:   report.FormatUnknown,
		},
		{
			name:      "json with Results array is trivy",
			filename:  "trivy.json",
			data:      `{"SchemaVersion": 2, "Results": []}`,
			format:    report.FormatTrivy,
			confident: true,
		},
		{
			name:      "json with vulnerabilities and projectName is snyk",
			filename:  "snyk.json",
			data:      `{"vulnerabilities": [], "projectName": "x"}`,
			format:    report.FormatSnyk,
			confident: true,
		},
		{
			name:      "json with vulnerabilities and displayTargetFile is snyk",
			filename:  "snyk.json",
			data:      `{"vulnerabilities": [], "displayTargetFile": "package.json"}`,
			format:    report.FormatSnyk,
			confident: true,
		},
		{
			name:      "json with dependencies is dependency_check",
			filename:  "dc.json",
			data:      `{"dependencies": []}`,
			format:    report.FormatDependencyCheck,
			confident: true,
		},
		{
			name:      "Results wins over vulnerabilities",
			filename:  "mixed.json",
			data:      `{"Results": [], "vulnerabilities": [], "projectName": "x"}`,
			format:    report.FormatTrivy,
			confident: true,
		},
		{
			name:      "vulnerabilities without project metadata falls through to snyk guess",
			filename:  "bare.json",
			data:      `{"vulnerabilities": []}`,
			format:    report.FormatSnyk,
			confident: false,
		},
		{
			name:      "unmarked json falls back to snyk without confidence",
			filename:  "random.json",
			data:      `{"hello": "world"}`,
			format:    report.FormatSnyk,
			confident: false,
		},
		{
			name:      "legacy trivy array root",
			filename:  "old-trivy.json",
			data:      `[{"Target": "img", "Vulnerabilities": []}]`,
			format:    report.FormatTrivy,
			confident: false,
		},
		{
			name:     "malformed json is unknown",
			filename: "broken.json",
			data:     `{"unterminated": `,
			format:   report.FormatUnknown,
		},
		{
			name:     "csv is rejected outright",
			filename: "findings.csv",
			data:     "a,b,c",
			format:   report.FormatUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det := Detect(tt.filename, []byte(tt.data))
			if det.Format != tt.format {
				t.Errorf("Detect().Format = %v, want %v", det.Format, tt.format)
			}
			if det.Confident != tt.confident {
				t.Errorf("Detect().Confident = %v, want %v", det.Confident, tt.confident)
			}
		})
	}
}
