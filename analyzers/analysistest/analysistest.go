// Package analysistest verifies lint results against expectations written into PHP fixtures.
//
// An expectation is a comment on the line the issue is reported for:
//
//	echo $undefined; // raise: UndefinedGlobalVariable
//
// Several issue types can be listed, separated by commas.
package analysistest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/deepsourcelabs/linter-psalm/analyzers/types"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"
)

var raiseExp = regexp.MustCompile(`raise:\s*(.+?)\s*(?:\*/)?\s*$`)

// ParsedIssue represents an issue parsed using tree-sitter. Line is 1-based.
type ParsedIssue struct {
	IssueCode string
	Line      int
}

type ParsedIssues []ParsedIssue

// LintFunc lints a document, as linter.Linter.Lint does.
type LintFunc func(ctx context.Context, v interface{}) (*types.Report, error)

// File is a fixture presented to the linter as a saved document.
type File struct {
	path    string
	content string
}

func (f *File) Path() string { return f.path }

func (f *File) Text() string { return f.content }

// Run lints every PHP file under directory and checks the report against the file's expectations.
func Run(ctx context.Context, lint LintFunc, directory string) error {
	files, err := getFilenames(directory)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no PHP fixtures in %s", directory)
	}

	for _, filename := range files {
		content, err := os.ReadFile(filename)
		if err != nil {
			return err
		}

		expected, err := Parse(ctx, content)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", filename, err)
		}

		report, err := lint(ctx, &File{path: filename, content: string(content)})
		if err != nil {
			return fmt.Errorf("linting %s: %w", filename, err)
		}

		if err := Verify(report, expected); err != nil {
			return fmt.Errorf("%s: %w", filename, err)
		}
	}

	return nil
}

// getFilenames returns the PHP files under directory.
func getFilenames(directory string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(directory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() && filepath.Ext(path) == ".php" {
			files = append(files, path)
		}

		return nil
	})

	return files, err
}

// Parse collects the raise annotations of a PHP source file.
func Parse(ctx context.Context, content []byte) (ParsedIssues, error) {
	lang := php.GetLanguage()

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	query, err := sitter.NewQuery([]byte("(comment) @comment"), lang)
	if err != nil {
		return nil, err
	}
	defer query.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, tree.RootNode())

	var issues ParsedIssues
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}

		for _, c := range m.Captures {
			submatches := raiseExp.FindStringSubmatch(c.Node.Content(content))
			if submatches == nil {
				continue
			}

			for _, issueCode := range strings.Split(submatches[1], ",") {
				issueCode = strings.TrimSpace(issueCode)
				if issueCode == "" {
					continue
				}
				issues = append(issues, ParsedIssue{IssueCode: issueCode, Line: int(c.Node.StartPoint().Row) + 1})
			}
		}
	}

	return issues, nil
}

// Verify checks that the report holds exactly the expected issues. The order doesn't matter.
func Verify(report *types.Report, expected ParsedIssues) error {
	var actual ParsedIssues
	if report != nil {
		for i := range report.Diagnostics {
			d := &report.Diagnostics[i]
			actual = append(actual, ParsedIssue{IssueCode: d.IssueCode(), Line: d.Range.Start.Line + 1})
		}
	}

	missing, unexpected := difference(expected, actual), difference(actual, expected)

	var errs []error
	for _, issue := range missing {
		errs = append(errs, fmt.Errorf("line %d: expected %s, not reported", issue.Line, issue.IssueCode))
	}
	for _, issue := range unexpected {
		errs = append(errs, fmt.Errorf("line %d: unexpected %s", issue.Line, issue.IssueCode))
	}

	return errors.Join(errs...)
}

// difference returns the issues of a not matched by b, counting duplicates, sorted by line.
func difference(a, b ParsedIssues) ParsedIssues {
	remaining := make(map[ParsedIssue]int, len(b))
	for _, issue := range b {
		remaining[issue]++
	}

	var diff ParsedIssues
	for _, issue := range a {
		if remaining[issue] > 0 {
			remaining[issue]--
			continue
		}
		diff = append(diff, issue)
	}

	sort.SliceStable(diff, func(i, j int) bool {
		return diff[i].Line < diff[j].Line
	})

	return diff
}
