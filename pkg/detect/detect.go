// Package detect implements the content sniffer that classifies an uploaded
// scan file before extraction. Classification is driven by the file
// extension first, then by a bounded peek at the content: the root element
// for XML, the top-level object keys for JSON. The full document is parsed
// later by the extractor, never here.
package detect

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"path/filepath"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/openvulnio/scaningest/pkg/report"
)

// Detection is the sniffer's verdict for one file.
type Detection struct {
	Format report.Format

	// Confident is false when Format is a fallback guess: an .xml file
	// whose root is not a recognized marker (defaults to nessus) or a
	// .json file matching no marker key (defaults to snyk as the least
	// structurally strict format). Callers may treat non-confident
	// detections more cautiously; the dispatcher surfaces the flag on
	// the parse result.
	Confident bool
}

// maxXMLTokens bounds how far into an XML document the sniffer looks for
// marker elements before settling on the fallback.
const maxXMLTokens = 256

// supportedExts maps recognized extensions. Anything else is rejected by the
// dispatcher before the file is even read.
var supportedExts = map[string]bool{
	".nessus": true,
	".xml":    true,
	".json":   true,
	".sarif":  true,
}

// Ext returns the lower-cased extension of filename with any trailing
// compression suffix (.gz, .zst) stripped, so "report.json.gz" sniffs as
// ".json".
func Ext(filename string) string {
	name := strings.ToLower(filepath.Base(filename))
	for _, suffix := range []string{".gz", ".zst"} {
		name = strings.TrimSuffix(name, suffix)
	}
	return filepath.Ext(name)
}

// KnownExtension reports whether the filename's extension is one an
// extractor could handle at all.
func KnownExtension(filename string) bool {
	return supportedExts[Ext(filename)]
}

// Detect classifies the file. The data must already be decompressed.
//
// Per-extension policy:
//   - .nessus: always nessus, no content inspection.
//   - .sarif: always trivy (the only SARIF-aware extractor here).
//   - .xml: a dependencies/dependency element means dependency_check,
//     anything else defaults to nessus (its root tag is unstable across
//     tool versions, so nessus is the XML fallback).
//   - .json: priority-ordered top-level key markers, snyk as catch-all.
//   - anything else: unknown.
//
// Unparseable content yields unknown for .xml/.json; .nessus and .sarif do
// not need content, so their tags survive and the extractor reports the
// actual parse failure.
func Detect(filename string, data []byte) Detection {
	switch Ext(filename) {
	case ".nessus":
		return Detection{Format: report.FormatNessus, Confident: true}
	case ".sarif":
		return Detection{Format: report.FormatTrivy, Confident: true}
	case ".xml":
		return detectXML(data)
	case ".json":
		return detectJSON(data)
	default:
		return Detection{Format: report.FormatUnknown}
	}
}

// detectXML walks the token stream just far enough to see the root element
// and the first marker elements.
func detectXML(data []byte) Detection {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	sawRoot := false
	for i := 0; i < maxXMLTokens; i++ {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "dependencies", "dependency":
			return Detection{Format: report.FormatDependencyCheck, Confident: true}
		case "NessusClientData_v2":
			return Detection{Format: report.FormatNessus, Confident: true}
		}
		sawRoot = true
	}

	if !sawRoot {
		return Detection{Format: report.FormatUnknown}
	}
	// Unrecognized XML defaults to nessus, flagged as a guess.
	return Detection{Format: report.FormatNessus, Confident: false}
}

// detectJSON inspects the top-level object keys only; values are kept raw.
func detectJSON(data []byte) Detection {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Detection{Format: report.FormatUnknown}
	}

	// Legacy Trivy reports are a bare array of results.
	if trimmed[0] == '[' {
		if json.Valid(trimmed) {
			return Detection{Format: report.FormatTrivy, Confident: false}
		}
		return Detection{Format: report.FormatUnknown}
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &keys); err != nil {
		return Detection{Format: report.FormatUnknown}
	}

	if results, ok := keys["Results"]; ok && isJSONArray(results) {
		return Detection{Format: report.FormatTrivy, Confident: true}
	}
	if _, ok := keys["vulnerabilities"]; ok {
		_, hasProject := keys["projectName"]
		_, hasTarget := keys["displayTargetFile"]
		if hasProject || hasTarget {
			return Detection{Format: report.FormatSnyk, Confident: true}
		}
	}
	if _, ok := keys["dependencies"]; ok {
		return Detection{Format: report.FormatDependencyCheck, Confident: true}
	}

	// Catch-all: snyk is the least structurally strict of the four.
	return Detection{Format: report.FormatSnyk, Confident: false}
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
