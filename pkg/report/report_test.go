package report

import (
	"testing"

	"github.com/openvulnio/scaningest/pkg/shared/severity"
)

func TestNewResult(t *testing.T) {
	r := NewResult(FormatNessus)

	if r.ID == "" {
		t.Error("NewResult should assign an ID")
	}
	if r.Format != FormatNessus {
		t.Errorf("Format = %v, want nessus", r.Format)
	}
	if len(r.Findings) != 0 || len(r.Warnings) != 0 {
		t.Error("new result should be empty")
	}

	other := NewResult(FormatSnyk)
	if other.ID == r.ID {
		t.Error("result IDs should be unique")
	}
}

func TestResult_Warnf(t *testing.T) {
	r := NewResult(FormatSnyk)
	r.Warnf("cvss score %v out of range, discarded", 15.0)

	if len(r.Warnings) != 1 {
		t.Fatalf("len(Warnings) = %d, want 1", len(r.Warnings))
	}
	if r.Warnings[0] != "cvss score 15 out of range, discarded" {
		t.Errorf("warning = %q", r.Warnings[0])
	}
}

func TestResult_Summary(t *testing.T) {
	r := NewResult(FormatTrivy)
	r.Findings = []Finding{
		{Title: "a", Severity: severity.Critical},
		{Title: "b", Severity: severity.Critical},
		{Title: "c", Severity: severity.Low},
	}

	s := r.Summary()
	if s.Total != 3 || s.Critical != 2 || s.Low != 1 {
		t.Errorf("unexpected summary: %+v", s)
	}
	if s.HighestSeverity() != severity.Critical {
		t.Errorf("HighestSeverity = %v", s.HighestSeverity())
	}
}

func TestValidCVSS(t *testing.T) {
	tests := []struct {
		score    float64
		expected bool
	}{
		{0, true},
		{10, true},
		{7.5, true},
		{-1, false},
		{15.0, false},
		{10.1, false},
	}

	for _, tt := range tests {
		if got := ValidCVSS(tt.score); got != tt.expected {
			t.Errorf("ValidCVSS(%v) = %v, want %v", tt.score, got, tt.expected)
		}
	}
}

func TestIsCVEID(t *testing.T) {
	tests := []struct {
		id       string
		expected bool
	}{
		{"CVE-2021-44228", true},
		{"CVE-2024-1", true},
		{"cve-2021-44228", false},
		{"CVE-21-44228", false},
		{"GHSA-jfh8-c2jp-5v3q", false},
		{"", false},
		{"CVE-2021-44228 extra", false},
	}

	for _, tt := range tests {
		if got := IsCVEID(tt.id); got != tt.expected {
			t.Errorf("IsCVEID(%q) = %v, want %v", tt.id, got, tt.expected)
		}
	}
}

func TestExtractCVE(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"https://nvd.nist.gov/vuln/detail/CVE-2021-44228", "CVE-2021-44228"},
		{"no cve here", ""},
		{"CVE-2019-1234", "CVE-2019-1234"},
	}

	for _, tt := range tests {
		if got := ExtractCVE(tt.in); got != tt.expected {
			t.Errorf("ExtractCVE(%q) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}

func TestFirstCVE(t *testing.T) {
	tests := []struct {
		name     string
		ids      []string
		expected string
	}{
		{"first valid wins", []string{"CVE-2020-1", "CVE-2021-2"}, "CVE-2020-1"},
		{"skips non-CVE ids", []string{"GHSA-xxxx", "CVE-2021-2"}, "CVE-2021-2"},
		{"all invalid", []string{"GHSA-xxxx", "RHSA-2021:1234"}, ""},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstCVE(tt.ids); got != tt.expected {
				t.Errorf("FirstCVE(%v) = %q, want %q", tt.ids, got, tt.expected)
			}
		})
	}
}
