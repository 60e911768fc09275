// Package ingest ties the pipeline together: extension gate, decompression,
// format detection, and dispatch to the matching extractor.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/openvulnio/scaningest/pkg/compress"
	"github.com/openvulnio/scaningest/pkg/core"
	"github.com/openvulnio/scaningest/pkg/detect"
	"github.com/openvulnio/scaningest/pkg/errors"
	"github.com/openvulnio/scaningest/pkg/metrics"
	"github.com/openvulnio/scaningest/pkg/parsers"
	"github.com/openvulnio/scaningest/pkg/report"
)

// Options configures a Service. The zero value is usable: silent logger,
// discarded metrics, built-in parsers, permissive detection.
type Options struct {
	// Logger receives pipeline diagnostics. Nil means silent.
	Logger core.Logger

	// Metrics receives ingest counters and timings. Nil discards them.
	Metrics metrics.Collector

	// Registry overrides the built-in parser set.
	Registry *parsers.Registry

	// StrictDetection rejects files whose format could only be guessed,
	// instead of parsing them flagged as low confidence.
	StrictDetection bool

	// MaxFileSize caps accepted payloads in bytes. Zero means no cap.
	// The cap applies to the payload as uploaded, before decompression.
	MaxFileSize int64
}

// Service routes uploaded scan reports to the right extractor.
type Service struct {
	registry    *parsers.Registry
	logger      core.Logger
	metrics     metrics.Collector
	strict      bool
	maxFileSize int64
}

// NewService creates a dispatcher. opts may be nil.
func NewService(opts *Options) *Service {
	if opts == nil {
		opts = &Options{}
	}

	registry := opts.Registry
	if registry == nil {
		registry = parsers.NewRegistry()
	}
	logger := opts.Logger
	if logger == nil {
		logger = &core.NopLogger{}
	}
	collector := opts.Metrics
	if collector == nil {
		collector = &metrics.NopCollector{}
	}

	return &Service{
		registry:    registry,
		logger:      logger,
		metrics:     collector,
		strict:      opts.StrictDetection,
		maxFileSize: opts.MaxFileSize,
	}
}

// Formats returns the format tags the service can ingest.
func (s *Service) Formats() []report.Format {
	return s.registry.Formats()
}

// ParseFile reads and parses a report from disk. The extension gate runs
// before the file is read, so an unsupported upload never touches the
// filesystem.
func (s *Service) ParseFile(ctx context.Context, path string) (*report.Result, error) {
	const op = "ingest.ParseFile"

	if !detect.KnownExtension(path) {
		s.metrics.CounterInc(metrics.IngestFilesTotal.Name, "format", "unknown", "status", "rejected")
		return nil, errors.E(errors.KindUnsupportedFormat, op,
			fmt.Sprintf("unsupported file extension %q", detect.Ext(path)))
	}

	if s.maxFileSize > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.E(errors.KindUnreadableFile, op, "cannot stat file", err)
		}
		if info.Size() > s.maxFileSize {
			return nil, errors.E(errors.KindInvalidInput, op,
				fmt.Sprintf("file size %d exceeds limit %d", info.Size(), s.maxFileSize))
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.E(errors.KindUnreadableFile, op, "cannot read file", err)
	}

	return s.Parse(ctx, data, filepath.Base(path))
}

// Parse classifies and extracts an in-memory report. filename is the
// declared upload name; only its extension participates in detection.
func (s *Service) Parse(ctx context.Context, data []byte, filename string) (*report.Result, error) {
	const op = "ingest.Parse"

	if !detect.KnownExtension(filename) {
		s.metrics.CounterInc(metrics.IngestFilesTotal.Name, "format", "unknown", "status", "rejected")
		return nil, errors.E(errors.KindUnsupportedFormat, op,
			fmt.Sprintf("unsupported file extension %q", detect.Ext(filename)))
	}
	if s.maxFileSize > 0 && int64(len(data)) > s.maxFileSize {
		return nil, errors.E(errors.KindInvalidInput, op,
			fmt.Sprintf("payload size %d exceeds limit %d", len(data), s.maxFileSize))
	}

	data, err := compress.Decompress(data)
	if err != nil {
		return nil, errors.E(errors.KindUnreadableFile, op, "corrupt compressed payload", err)
	}

	detection := detect.Detect(filename, data)
	if detection.Format == report.FormatUnknown {
		s.metrics.CounterInc(metrics.IngestFilesTotal.Name, "format", "unknown", "status", "rejected")
		return nil, errors.E(errors.KindUnsupportedFormat, op,
			fmt.Sprintf("cannot determine scanner format of %q", filename))
	}

	parser := s.registry.Get(detection.Format)
	if parser == nil {
		return nil, errors.E(errors.KindInternal, op,
			fmt.Sprintf("no parser registered for format %q", detection.Format))
	}

	confident := detection.Confident
	if !confident {
		if parser.CanParse(data) {
			confident = true
		} else if alt := s.registry.FindParser(data); alt != nil {
			s.logger.Debug("rerouting %q from guessed %s to %s", filename, parser.Name(), alt.Name())
			parser = alt
			confident = true
		}
	}
	if !confident && s.strict {
		s.metrics.CounterInc(metrics.IngestFilesTotal.Name, "format", parser.Format().String(), "status", "rejected")
		return nil, errors.E(errors.KindUnsupportedFormat, op,
			fmt.Sprintf("format of %q is a guess (%s) and strict detection is on", filename, parser.Format()))
	}

	format := parser.Format().String()
	timer := metrics.NewTimer(s.metrics, metrics.IngestParseDuration.Name, "format", format)
	result, err := parser.Parse(ctx, data, &core.ParseOptions{
		Filename: filename,
		Logger:   s.logger,
	})
	timer.ObserveDuration()

	if err != nil {
		s.metrics.CounterInc(metrics.IngestFilesTotal.Name, "format", format, "status", "error")
		s.logger.Error("parsing %q as %s failed: %v", filename, format, err)
		return nil, errors.WrapWithKind(err, op, errors.KindExtraction)
	}

	result.LowConfidence = !confident
	s.record(result, format)
	s.logger.Info("parsed %q as %s: %d findings, %d warnings",
		filename, format, len(result.Findings), len(result.Warnings))
	return result, nil
}

func (s *Service) record(result *report.Result, format string) {
	s.metrics.CounterInc(metrics.IngestFilesTotal.Name, "format", format, "status", "ok")
	if result.LowConfidence {
		s.metrics.CounterInc(metrics.IngestLowConfidenceTotal.Name, "format", format)
	}
	if n := len(result.Warnings); n > 0 {
		s.metrics.CounterAdd(metrics.IngestWarningsTotal.Name, float64(n), "format", format)
	}
	for i := range result.Findings {
		s.metrics.CounterInc(metrics.IngestFindingsTotal.Name,
			"format", format, "severity", result.Findings[i].Severity.String())
	}
}
