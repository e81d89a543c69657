package utils

import (
	"strings"
	"unicode/utf8"

	"github.com/deepsourcelabs/linter-psalm/analyzers/types"
)

// GenerateRange returns the range covering the given zero-based line of text, from column 0 to the end
// of the line. Lines before the start of the document map to the first line and lines past the end map
// to the last one, so the returned range is always addressable.
func GenerateRange(text string, line int) types.Range {
	lines := strings.Split(text, "\n")

	if line < 0 {
		line = 0
	}
	if line > len(lines)-1 {
		line = len(lines) - 1
	}

	// columns are counted in characters, CRLF endings don't contribute
	content := strings.TrimSuffix(lines[line], "\r")
	length := utf8.RuneCountInString(content)

	return types.Range{
		Start: types.Position{Line: line, Column: 0},
		End:   types.Position{Line: line, Column: length},
	}
}

