package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/openvulnio/scaningest/pkg/compress"
	"github.com/openvulnio/scaningest/pkg/errors"
	"github.com/openvulnio/scaningest/pkg/metrics"
	"github.com/openvulnio/scaningest/pkg/report"
)

const nessusDoc = `<?xml version="1.0"?>
<NessusClientData_v2>
  <Report name="weekly">
    <ReportHost name="10.0.0.5">
      <ReportItem pluginID="19506" pluginName="Nessus Scan Information" severity="0" port="0" protocol="tcp">
        <description>Information about this scan.</description>
      </ReportItem>
    </ReportHost>
  </Report>
</NessusClientData_v2>`

const trivyDoc = `{"ArtifactName": "alpine:3.18", "ArtifactType": "container_image",
 "Results": [{"Target": "alpine:3.18", "Class": "os-pkgs",
   "Vulnerabilities": [{"VulnerabilityID": "CVE-2023-5363", "PkgName": "libcrypto3", "Severity": "HIGH"}]}]}`

const sarifDoc = `{"version": "2.1.0", "runs": [{"results": [
  {"ruleId": "CVE-2023-5363", "level": "error",
   "message": {"text": "libcrypto3 issue"},
   "locations": [{"physicalLocation": {"artifactLocation": {"uri": "alpine:3.18"}}}]}]}]}`

func TestParseFile_UnknownExtensionRejectedBeforeRead(t *testing.T) {
	s := NewService(nil)
	// The path does not exist: a read attempt would fail with a different
	// error kind, so the unsupported-format kind proves the gate ran first.
	_, err := s.ParseFile(context.Background(), filepath.Join(t.TempDir(), "findings.csv"))
	if err == nil {
		t.Fatal("expected error for .csv")
	}
	if !errors.IsUnsupportedFormat(err) {
		t.Errorf("expected unsupported format, got %v", err)
	}
}

func TestParseFile_MissingFile(t *testing.T) {
	s := NewService(nil)
	_, err := s.ParseFile(context.Background(), filepath.Join(t.TempDir(), "scan.nessus"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.IsUnreadableFile(err) {
		t.Errorf("expected unreadable file, got %v", err)
	}
}

func TestParseFile_Routing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.nessus")
	if err := os.WriteFile(path, []byte(nessusDoc), 0644); err != nil {
		t.Fatal(err)
	}

	s := NewService(nil)
	result, err := s.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if result.Format != report.FormatNessus {
		t.Errorf("Format = %q, want nessus", result.Format)
	}
	if len(result.Findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(result.Findings))
	}
	if result.LowConfidence {
		t.Error("a .nessus upload is never low confidence")
	}
}

func TestParse_GzipUpload(t *testing.T) {
	compressed, err := compress.Compress([]byte(trivyDoc), compress.AlgorithmGzip)
	if err != nil {
		t.Fatal(err)
	}

	s := NewService(nil)
	result, err := s.Parse(context.Background(), compressed, "report.json.gz")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if result.Format != report.FormatTrivy {
		t.Errorf("Format = %q, want trivy", result.Format)
	}
	if len(result.Findings) != 1 {
		t.Errorf("expected 1 finding, got %d", len(result.Findings))
	}
}

func TestParse_ZstdUpload(t *testing.T) {
	compressed, err := compress.Compress([]byte(nessusDoc), compress.AlgorithmZSTD)
	if err != nil {
		t.Fatal(err)
	}

	s := NewService(nil)
	result, err := s.Parse(context.Background(), compressed, "scan.nessus.zst")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if result.Format != report.FormatNessus {
		t.Errorf("Format = %q, want nessus", result.Format)
	}
}

func TestParse_LowConfidenceMarker(t *testing.T) {
	// Detectable only by the snyk catch-all and confirmed by no parser.
	s := NewService(nil)
	result, err := s.Parse(context.Background(), []byte(`{"foo": 1}`), "export.json")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !result.LowConfidence {
		t.Error("catch-all guess must be flagged low confidence")
	}
	if result.Format != report.FormatSnyk {
		t.Errorf("Format = %q, want snyk", result.Format)
	}
}

func TestParse_RerouteOnContent(t *testing.T) {
	// SARIF content under a .json name: the catch-all guesses snyk, but
	// the trivy parser recognizes the content and takes over.
	s := NewService(nil)
	result, err := s.Parse(context.Background(), []byte(sarifDoc), "results.json")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if result.Format != report.FormatTrivy {
		t.Errorf("Format = %q, want trivy after reroute", result.Format)
	}
	if result.LowConfidence {
		t.Error("content-confirmed reroute is not low confidence")
	}
	if len(result.Findings) != 1 {
		t.Errorf("expected 1 finding, got %d", len(result.Findings))
	}
}

func TestParse_StrictDetection(t *testing.T) {
	s := NewService(&Options{StrictDetection: true})
	_, err := s.Parse(context.Background(), []byte(`{"foo": 1}`), "export.json")
	if err == nil {
		t.Fatal("expected strict mode to reject the guess")
	}
	if !errors.IsUnsupportedFormat(err) {
		t.Errorf("expected unsupported format, got %v", err)
	}
}

func TestParse_ExtractionErrorWrapped(t *testing.T) {
	s := NewService(nil)
	_, err := s.Parse(context.Background(), []byte(`not xml at all`), "scan.nessus")
	if err == nil {
		t.Fatal("expected error for invalid Nessus content")
	}
	if !errors.IsExtractionError(err) {
		t.Errorf("expected extraction error, got %v", err)
	}
}

func TestParse_MaxFileSize(t *testing.T) {
	s := NewService(&Options{MaxFileSize: 16})
	_, err := s.Parse(context.Background(), []byte(trivyDoc), "report.json")
	if err == nil {
		t.Fatal("expected size limit error")
	}
	if errors.GetKind(err) != errors.KindInvalidInput {
		t.Errorf("expected invalid input kind, got %v", err)
	}
}

func TestParse_Metrics(t *testing.T) {
	collector := metrics.NewInMemoryCollector()
	s := NewService(&Options{Metrics: collector})

	if _, err := s.Parse(context.Background(), []byte(trivyDoc), "report.json"); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := collector.GetCounter(metrics.IngestFilesTotal.Name, "format", "trivy", "status", "ok"); got != 1 {
		t.Errorf("files counter = %v, want 1", got)
	}
	if got := collector.GetCounter(metrics.IngestFindingsTotal.Name, "format", "trivy", "severity", "high"); got != 1 {
		t.Errorf("findings counter = %v, want 1", got)
	}
	if got := collector.GetHistogram(metrics.IngestParseDuration.Name, "format", "trivy"); len(got) != 1 {
		t.Errorf("duration observations = %v, want 1", got)
	}
}
