package utils

import (
	"testing"

	"github.com/deepsourcelabs/linter-psalm/analyzers/types"
	"github.com/google/go-cmp/cmp"
)

func TestGenerateRange(t *testing.T) {
	type test struct {
		description string
		text        string
		line        int
		want        types.Range
	}

	text := "<?php\n  $x;\r\necho 'héllo';\n"

	tests := []test{
		{description: "first line", text: text, line: 0, want: span(0, 5)},
		{description: "indentation is part of the range", text: text, line: 1, want: span(1, 5)},
		{description: "columns count characters, not bytes", text: text, line: 2, want: span(2, 13)},
		{description: "trailing empty line after the final newline", text: text, line: 3, want: span(3, 0)},
		{description: "negative line is clamped to the first line", text: text, line: -1, want: span(0, 5)},
		{description: "line past the end is clamped to the last line", text: text, line: 42, want: span(3, 0)},
		{description: "empty document", text: "", line: 0, want: span(0, 0)},
		{description: "empty document with out of range line", text: "", line: 7, want: span(0, 0)},
	}

	for _, tc := range tests {
		got := GenerateRange(tc.text, tc.line)
		if diffs := cmp.Diff(got, tc.want); diffs != "" {
			t.Errorf("description: %s, ranges don't match\n", tc.description)
			t.Log("differences in diffs:", diffs)
		}
	}
}

func span(line, end int) types.Range {
	return types.Range{
		Start: types.Position{Line: line},
		End:   types.Position{Line: line, Column: end},
	}
}
