package processors

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/deepsourcelabs/linter-psalm/analyzers/types"
	"github.com/deepsourcelabs/linter-psalm/analyzers/utils"
)

// PsalmTextPattern matches one diagnostic of `psalm --output-format=text`:
//
//	<file>:<line>:<column>:<issue type> - <message>
const PsalmTextPattern = `(?P<filename>.+):(?P<line>\d+):(?P<column>\d+):(?P<issue_type>.+)\s-\s(?P<message>.+)`

// Describer attaches documentation to a diagnostic based on its issue type.
type Describer interface {
	Describe(d *types.Diagnostic)
}

// RangeMapper converts a zero-based line of text into an editor range. It must not fail for lines
// outside the text.
type RangeMapper func(text string, line int) types.Range

// Option configures a RegexProcessor.
type Option func(*RegexProcessor)

// WithDescriber sets the describer used to document every diagnostic.
func WithDescriber(d Describer) Option {
	return func(r *RegexProcessor) {
		r.describer = d
	}
}

// WithMapper replaces the default range mapper, utils.GenerateRange.
func WithMapper(m RangeMapper) Option {
	return func(r *RegexProcessor) {
		if m != nil {
			r.mapper = m
		}
	}
}

// RegexProcessor utilizes regular expressions for processing.
type RegexProcessor struct {
	exp       *regexp.Regexp
	describer Describer
	mapper    RangeMapper
}

// NewRegexProcessor compiles pattern. The pattern must contain the named groups `line`, `issue_type` and `message`.
func NewRegexProcessor(pattern string, opts ...Option) (*RegexProcessor, error) {
	exp, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	return newProcessor(exp, opts), nil
}

// NewPsalmProcessor returns a processor for psalm's text output format.
func NewPsalmProcessor(opts ...Option) *RegexProcessor {
	return newProcessor(psalmExp, opts)
}

var psalmExp = regexp.MustCompile(PsalmTextPattern)

func newProcessor(exp *regexp.Regexp, opts []Option) *RegexProcessor {
	r := &RegexProcessor{exp: exp, mapper: utils.GenerateRange}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Process extracts every diagnostic from the raw tool output, in order. Text which doesn't match
// the pattern (banners, summaries) is skipped. Ranges are computed against snapshot, the text that
// was handed to the tool.
func (r *RegexProcessor) Process(output, snapshot, filePath string) []types.Diagnostic {
	diagnostics := make([]types.Diagnostic, 0)

	groupNames := r.exp.SubexpNames()
	for _, match := range r.exp.FindAllStringSubmatch(output, -1) {
		var (
			line      int
			issueType string
			message   string
			valid     = true
		)

		// populate fields using named groups
		for groupIdx, content := range match {
			switch groupNames[groupIdx] {
			case "line":
				n, err := strconv.Atoi(content)
				if err != nil {
					valid = false
				}
				line = n
			case "issue_type":
				issueType = content
			case "message":
				message = content
			}
		}

		// line numbers too large for an int
		if !valid {
			continue
		}

		// psalm lines are 1-based; non-positive lines are treated as the first line
		index := line - 1
		if index < 0 {
			index = 0
		}

		diagnostic := types.Diagnostic{
			Severity:  types.SeverityFromIssueType(issueType),
			FilePath:  filePath,
			Range:     r.mapper(snapshot, index),
			Excerpt:   strings.TrimRight(message, "\r"),
			IssueType: strings.TrimSpace(issueType),
		}
		if r.describer != nil {
			r.describer.Describe(&diagnostic)
		}

		diagnostics = append(diagnostics, diagnostic)
	}

	return diagnostics
}
