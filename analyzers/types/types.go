package types

import (
	"regexp"
	"strings"
)

// Severity is the level a diagnostic is reported with.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// SeverityFromIssueType maps the issue type reported by psalm to a severity.
// Any issue type mentioning "error" (case-insensitive) is an error, everything else is a warning.
func SeverityFromIssueType(issueType string) Severity {
	if strings.Contains(strings.ToLower(issueType), "error") {
		return SeverityError
	}
	return SeverityWarning
}

// Position is a zero-based line and column inside a document.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Range is the span of a document a diagnostic is attached to.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Diagnostic is a single issue psalm reported, located in the linted document.
type Diagnostic struct {
	Severity    Severity `json:"severity"`
	FilePath    string   `json:"file_path,omitempty"`
	Range       Range    `json:"range"`
	Excerpt     string   `json:"excerpt"`
	IssueType   string   `json:"issue_type"`
	URL         string   `json:"url,omitempty"`
	Description string   `json:"description,omitempty"`
}

// issueCodePrefix matches the issue name psalm puts in front of the message, e.g. "UndefinedVariable: ...".
var issueCodePrefix = regexp.MustCompile(`^([A-Z][A-Za-z0-9]+): `)

// IssueCode returns the psalm issue name of the diagnostic. Recent psalm versions prefix the message with it,
// older ones report it as the issue type.
func (d *Diagnostic) IssueCode() string {
	if m := issueCodePrefix.FindStringSubmatch(d.Excerpt); m != nil {
		return m[1]
	}
	return d.IssueType
}

// Report holds the diagnostics produced by one lint cycle.
type Report struct {
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// Invocation describes a single run of the external tool. FilePath and WorkingDir are empty for unsaved documents.
type Invocation struct {
	ExecutablePath string
	FilePath       string
	Text           string
	WorkingDir     string
}
