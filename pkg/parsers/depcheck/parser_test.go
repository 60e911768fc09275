package depcheck

import (
	"context"
	"testing"

	"github.com/openvulnio/scaningest/pkg/errors"
	"github.com/openvulnio/scaningest/pkg/report"
	"github.com/openvulnio/scaningest/pkg/shared/severity"
)

const xmlReport = `<?xml version="1.0"?>
<analysis xmlns="https://jeremylong.github.io/DependencyCheck/dependency-check.2.5.xsd">
  <dependencies>
    <dependency>
      <fileName>log4j-core-2.14.1.jar</fileName>
      <packageName>log4j-core</packageName>
      <packageVersion>2.14.1</packageVersion>
      <vulnerabilities>
        <vulnerability>
          <name>CVE-2021-44228</name>
          <severity>critical</severity>
          <cvssScore>10.0</cvssScore>
          <cvssVector>AV:N/AC:L/Au:N/C:C/I:C/A:C</cvssVector>
          <cve>CVE-2021-44228</cve>
          <description>JNDI features used in configuration do not protect against attacker controlled LDAP.</description>
          <solution>Upgrade to log4j-core 2.17.1.</solution>
        </vulnerability>
      </vulnerabilities>
    </dependency>
  </dependencies>
</analysis>`

const jsonReport = `{
  "reportSchema": "1.1",
  "dependencies": [
    {
      "fileName": "jackson-databind-2.9.8.jar",
      "packageName": "jackson-databind",
      "packageVersion": "2.9.8",
      "vulnerabilities": [
        {
          "name": "CVE-2019-12086",
          "severity": "HIGH",
          "cvssScore": 7.5,
          "cvssVector": "CVSS:3.0/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:N/A:N",
          "cve": "CVE-2019-12086",
          "description": "Polymorphic typing issue in jackson-databind.",
          "solution": "Upgrade to 2.9.9 or later."
        }
      ]
    }
  ]
}`

func TestParser_Parse_XML(t *testing.T) {
	parser := NewParser()
	result, err := parser.Parse(context.Background(), []byte(xmlReport), nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if result.Format != report.FormatDependencyCheck {
		t.Errorf("Format = %v", result.Format)
	}
	if len(result.Findings) != 1 {
		t.Fatalf("len(Findings) = %d, want 1", len(result.Findings))
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", result.Warnings)
	}

	f := result.Findings[0]
	if f.Title != "CVE-2021-44228" {
		t.Errorf("Title = %q", f.Title)
	}
	if f.CVEID != "CVE-2021-44228" {
		t.Errorf("CVEID = %q", f.CVEID)
	}
	if f.Severity != severity.Critical {
		t.Errorf("Severity = %v", f.Severity)
	}
	if f.CVSSScore == nil || *f.CVSSScore != 10.0 {
		t.Errorf("CVSSScore = %v", f.CVSSScore)
	}
	if f.CVSSVector == "" || f.Description == "" || f.Remediation == "" {
		t.Error("vector, description and remediation should be populated")
	}
	if f.AssetIdentifier != "log4j-core@2.14.1" {
		t.Errorf("AssetIdentifier = %q", f.AssetIdentifier)
	}
	if f.AssetType != report.AssetDependency {
		t.Errorf("AssetType = %v", f.AssetType)
	}
	if f.Port != nil || f.Protocol != "" {
		t.Error("dependency findings carry no port/protocol")
	}
}

func TestParser_Parse_JSON(t *testing.T) {
	parser := NewParser()
	result, err := parser.Parse(context.Background(), []byte(jsonReport), nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(result.Findings) != 1 {
		t.Fatalf("len(Findings) = %d, want 1", len(result.Findings))
	}
	f := result.Findings[0]
	if f.Severity != severity.High {
		t.Errorf("Severity = %v, want high", f.Severity)
	}
	if f.CVSSScore == nil || *f.CVSSScore != 7.5 {
		t.Errorf("CVSSScore = %v", f.CVSSScore)
	}
	if f.AssetIdentifier != "jackson-databind@2.9.8" {
		t.Errorf("AssetIdentifier = %q", f.AssetIdentifier)
	}
}

func TestParser_Parse_JSONStringScore(t *testing.T) {
	doc := `{"dependencies": [{"fileName": "a.jar", "vulnerabilities": [
		{"name": "CVE-2020-1", "severity": "low", "cvssScore": "3.1"}
	]}]}`

	parser := NewParser()
	result, err := parser.Parse(context.Background(), []byte(doc), nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if result.Findings[0].CVSSScore == nil || *result.Findings[0].CVSSScore != 3.1 {
		t.Errorf("CVSSScore = %v, want 3.1 from string value", result.Findings[0].CVSSScore)
	}
}

func TestParser_Parse_OutOfRangeScore(t *testing.T) {
	doc := `{"dependencies": [{"fileName": "a.jar", "vulnerabilities": [
		{"name": "CVE-2020-2", "severity": "medium", "cvssScore": 15.0}
	]}]}`

	parser := NewParser()
	result, err := parser.Parse(context.Background(), []byte(doc), nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if result.Findings[0].CVSSScore != nil {
		t.Error("out-of-range score should be dropped, not clamped")
	}
	if len(result.Warnings) != 1 {
		t.Errorf("len(Warnings) = %d, want 1: %v", len(result.Warnings), result.Warnings)
	}
}

func TestParser_Parse_DependencyWithoutVulnerabilities(t *testing.T) {
	doc := `{"dependencies": [{"fileName": "clean.jar"}, {"fileName": "b.jar", "vulnerabilities": []}]}`

	parser := NewParser()
	result, err := parser.Parse(context.Background(), []byte(doc), nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(result.Findings) != 0 {
		t.Errorf("len(Findings) = %d, want 0", len(result.Findings))
	}
}

func TestParser_Parse_BadRoot(t *testing.T) {
	parser := NewParser()

	for _, data := range []string{`[1,2,3]`, `not a document`, ``} {
		if _, err := parser.Parse(context.Background(), []byte(data), nil); err == nil {
			t.Errorf("expected error for %q", data)
		} else if !errors.IsExtractionError(err) {
			t.Errorf("error kind = %v for %q, want extraction", errors.GetKind(err), data)
		}
	}
}

func TestParser_CanParse(t *testing.T) {
	parser := NewParser()
	tests := []struct {
		name     string
		data     string
		expected bool
	}{
		{"xml report", xmlReport, true},
		{"json report", jsonReport, true},
		{"trivy json", `{"Results": []}`, false},
		{"foreign xml", `<catalog/>`, false},
		{"garbage", `garbage`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parser.CanParse([]byte(tt.data)); got != tt.expected {
				t.Errorf("CanParse = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParser_Parse_NilOptions(t *testing.T) {
	p := NewParser()
	for _, doc := range []string{xmlReport, jsonReport} {
		result, err := p.Parse(context.Background(), []byte(doc), nil)
		if err != nil {
			t.Fatalf("Parse() with nil options error = %v", err)
		}
		if len(result.Findings) != 1 {
			t.Errorf("expected 1 finding, got %d", len(result.Findings))
		}
	}
}
