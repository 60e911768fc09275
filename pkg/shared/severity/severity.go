// Package severity provides the canonical severity scale for normalized
// findings and the per-scanner mapping tables used during extraction.
//
// Every supported scanner ships its own severity vocabulary (Nessus uses a
// 0-4 integer, Dependency-Check and Snyk use lower-case words, Trivy uses
// upper-case words). Normalize collapses all of them onto the five canonical
// levels. Values absent from a tool's table map to Info: severity is advisory
// metadata, so an unknown value lowers confidence instead of rejecting the
// finding.
package severity

import "strings"

// Level represents a canonical severity level.
type Level string

const (
	// Critical - Immediate action required.
	Critical Level = "critical"

	// High - Serious vulnerability that should be addressed urgently.
	High Level = "high"

	// Medium - Moderate risk, address in the normal development cycle.
	Medium Level = "medium"

	// Low - Minor issue, address when convenient.
	Low Level = "low"

	// Info - Informational finding, or severity could not be determined.
	Info Level = "info"
)

// AllLevels returns the canonical levels in order of priority (highest first).
func AllLevels() []Level {
	return []Level{Critical, High, Medium, Low, Info}
}

// String returns the string representation of the severity level.
func (l Level) String() string {
	return string(l)
}

// Priority returns the numeric priority of the severity level.
// Higher numbers = higher priority.
func (l Level) Priority() int {
	switch l {
	case Critical:
		return 5
	case High:
		return 4
	case Medium:
		return 3
	case Low:
		return 2
	case Info:
		return 1
	default:
		return 0
	}
}

// IsHigherThan returns true if this severity is higher than the other.
func (l Level) IsHigherThan(other Level) bool {
	return l.Priority() > other.Priority()
}

// IsAtLeast returns true if this severity is at least as high as the other.
func (l Level) IsAtLeast(other Level) bool {
	return l.Priority() >= other.Priority()
}

// Tool identifies which scanner's severity vocabulary a raw value belongs to.
type Tool string

const (
	ToolNessus          Tool = "nessus"
	ToolDependencyCheck Tool = "dependency_check"
	ToolSnyk            Tool = "snyk"
	ToolTrivy           Tool = "trivy"
)

// nessusTable maps the Nessus 0-4 integer scale.
var nessusTable = map[string]Level{
	"0": Info,
	"1": Low,
	"2": Medium,
	"3": High,
	"4": Critical,
}

// textualTable covers the word-based scales used by Dependency-Check and
// Snyk, including the case and spelling variants seen in real reports.
var textualTable = map[string]Level{
	"critical":      Critical,
	"high":          High,
	"medium":        Medium,
	"med":           Medium,
	"moderate":      Medium,
	"low":           Low,
	"info":          Info,
	"informational": Info,
	"information":   Info,
	"none":          Info,
}

// trivyTable maps Trivy's upper-case vocabulary (matched after lowercasing).
var trivyTable = map[string]Level{
	"critical": Critical,
	"high":     High,
	"medium":   Medium,
	"low":      Low,
	"unknown":  Info,
}

var toolTables = map[Tool]map[string]Level{
	ToolNessus:          nessusTable,
	ToolDependencyCheck: textualTable,
	ToolSnyk:            textualTable,
	ToolTrivy:           trivyTable,
}

// Normalize maps a raw scanner severity value to a canonical Level.
// Matching is case-insensitive; any value absent from the tool's table
// (including the empty string) maps to Info.
func Normalize(tool Tool, raw string) Level {
	table, ok := toolTables[tool]
	if !ok {
		return Info
	}
	if level, ok := table[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return level
	}
	return Info
}

// FromString normalizes a bare textual severity without tool context.
// Used where a report embeds a severity outside its tool's main scale.
func FromString(s string) Level {
	key := strings.ToLower(strings.TrimSpace(s))
	if level, ok := textualTable[key]; ok {
		return level
	}
	if level, ok := trivyTable[key]; ok {
		return level
	}
	return Info
}

// ParseLevel parses a canonical level name, case-insensitively. Unlike
// FromString it reports whether the input matched, so callers validating
// user input can reject unknown values instead of defaulting to Info.
func ParseLevel(s string) (Level, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, level := range AllLevels() {
		if key == string(level) {
			return level, true
		}
	}
	return Info, false
}

// FromSARIFLevel maps a SARIF result level to a canonical Level.
// Trivy only emits the standard four levels in its SARIF output.
func FromSARIFLevel(level string) Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		return Critical
	case "warning":
		return High
	case "note":
		return Medium
	case "none":
		return Info
	default:
		return Medium
	}
}

// CountBySeverity counts findings by severity level.
type CountBySeverity struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Info     int `json:"info"`
	Total    int `json:"total"`
}

// Increment increases the count for the given severity.
// Levels outside the canonical five count as Info.
func (c *CountBySeverity) Increment(level Level) {
	c.Total++
	switch level {
	case Critical:
		c.Critical++
	case High:
		c.High++
	case Medium:
		c.Medium++
	case Low:
		c.Low++
	default:
		c.Info++
	}
}

// HighestSeverity returns the highest severity level with a non-zero count.
func (c *CountBySeverity) HighestSeverity() Level {
	switch {
	case c.Critical > 0:
		return Critical
	case c.High > 0:
		return High
	case c.Medium > 0:
		return Medium
	case c.Low > 0:
		return Low
	default:
		return Info
	}
}
