// Package parsers wires the per-tool extractors into a format-keyed
// dispatch table.
package parsers

import (
	"sync"

	"github.com/openvulnio/scaningest/pkg/core"
	"github.com/openvulnio/scaningest/pkg/parsers/depcheck"
	"github.com/openvulnio/scaningest/pkg/parsers/nessus"
	"github.com/openvulnio/scaningest/pkg/parsers/snyk"
	"github.com/openvulnio/scaningest/pkg/parsers/trivy"
	"github.com/openvulnio/scaningest/pkg/report"
)

// Registry maps detected formats to their parsers.
type Registry struct {
	parsers map[report.Format]core.Parser
	mu      sync.RWMutex
}

// NewRegistry creates a registry with the four built-in parsers.
func NewRegistry() *Registry {
	r := &Registry{
		parsers: make(map[report.Format]core.Parser),
	}

	r.Register(nessus.NewParser())
	r.Register(depcheck.NewParser())
	r.Register(snyk.NewParser())
	r.Register(trivy.NewParser())

	return r
}

// Register adds a parser, replacing any parser already bound to its format.
func (r *Registry) Register(parser core.Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[parser.Format()] = parser
}

// Get returns the parser bound to the format, or nil.
func (r *Registry) Get(format report.Format) core.Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.parsers[format]
}

// FindParser asks each registered parser whether its CanParse accepts the
// content. Used when detection is not confident.
func (r *Registry) FindParser(data []byte) core.Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, parser := range r.parsers {
		if parser.CanParse(data) {
			return parser
		}
	}
	return nil
}

// Formats returns the registered format tags in canonical order.
func (r *Registry) Formats() []report.Format {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]report.Format, 0, len(r.parsers))
	for _, f := range report.KnownFormats() {
		if _, ok := r.parsers[f]; ok {
			formats = append(formats, f)
		}
	}
	return formats
}
