// Package core provides the core interfaces for the scan-report ingest
// library: the extractor contract every format parser implements, the
// options passed into a parse call, and the pluggable logger.
package core

import (
	"context"

	"github.com/openvulnio/scaningest/pkg/report"
)

// Parser is the contract every format extractor implements. Extractors are
// stateless: a Parser value may be shared across concurrent parse calls.
//
// New scanner formats are added by implementing this interface and
// registering the parser, not by modifying the dispatcher.
type Parser interface {
	// Name returns the parser name (e.g., "nessus", "trivy").
	Name() string

	// Format returns the format tag this parser produces.
	Format() report.Format

	// CanParse reports whether the data looks like this parser's format.
	// Used to confirm low-confidence detector guesses; it must be cheap
	// and must not mutate state.
	CanParse(data []byte) bool

	// Parse extracts normalized findings from a complete document.
	// Document-shape problems return an extraction error; a single
	// malformed finding inside an otherwise valid document is skipped
	// with a warning on the result instead.
	Parse(ctx context.Context, data []byte, opts *ParseOptions) (*report.Result, error)
}

// ParseOptions configures a single parse call.
type ParseOptions struct {
	// Filename is the declared upload name, for log/warning context only.
	// Dispatch has already happened by the time a parser sees it.
	Filename string

	// Logger receives per-call diagnostics. Nil means silent.
	Logger Logger
}

// Log returns the options' logger, never nil.
func (o *ParseOptions) Log() Logger {
	if o == nil || o.Logger == nil {
		return nopLogger
	}
	return o.Logger
}

// File returns the declared upload name, or "" when unset. Safe on nil
// options, like Log.
func (o *ParseOptions) File() string {
	if o == nil {
		return ""
	}
	return o.Filename
}
