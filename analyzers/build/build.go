package build

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/deepsourcelabs/linter-psalm/analyzers/types"
	"github.com/microcosm-cc/bluemonday"
	gotoml "github.com/pelletier/go-toml/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// docsURL is the documentation page psalm keeps for every issue type.
const docsURL = "https://psalm.dev/docs/running_psalm/issues/%s/"

// IssueMeta represents an issue type present in the catalog.
type IssueMeta struct {
	IssueType   string `toml:"issue_type"`
	Title       string `toml:"title"`
	Description string `toml:"description"`
}

type IssueMetas struct {
	Issues []IssueMeta
}

// IssueTOML is used for decoding issues from a TOML file.
type IssueTOML struct {
	Issues []map[string]interface{}
}

// LoadCatalog reads the catalog file and returns it ready for lookups.
func LoadCatalog(filename string) (*Catalog, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	issues, err := FetchIssues(f)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", filename, err)
	}

	return NewCatalog(issues), nil
}

// FetchIssues reads a TOML file containing all issues, and returns all issues as IssueMetas.
func FetchIssues(r io.Reader) (IssueMetas, error) {
	// get issues from TOML file
	var issueTOML IssueTOML
	err := issueTOML.Read(r)
	if err != nil {
		return IssueMetas{}, err
	}
	issues := issueTOML.IssueMetas()

	// parse issues
	parsedIssues, err := parseIssues(issues)
	if err != nil {
		return IssueMetas{}, err
	}

	// sort issues (based on issue type) before returning
	sort.Slice(parsedIssues.Issues, func(i, j int) bool {
		return parsedIssues.Issues[i].IssueType < parsedIssues.Issues[j].IssueType
	})

	return parsedIssues, nil
}

// BuildTOML writes one <issue_type>.toml file per issue to rootDir.
func (i *IssueMetas) BuildTOML(rootDir string) error {
	if len(i.Issues) == 0 {
		return errors.New("no issues found")
	}

	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return err
	}

	for _, issue := range i.Issues {
		// The unique identifier (filename) is based on the issue type. TOML files cannot be generated for issues having an empty type.
		if issue.IssueType == "" {
			return errors.New("invalid issue type. cannot generate toml")
		}

		filename := fmt.Sprintf("%s.toml", issue.IssueType)
		tomlPath := filepath.Join(rootDir, filename)

		f, err := os.Create(tomlPath)
		if err != nil {
			return err
		}

		err = issue.Write(f)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// Read reads content from a reader and unmarshals it to IssueTOML.
func (i *IssueTOML) Read(r io.Reader) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	return toml.Unmarshal(content, i)
}

// IssueMetas returns issues from a IssueTOML struct.
func (i *IssueTOML) IssueMetas() IssueMetas {
	var issueMetas IssueMetas
	for _, issueTOML := range i.Issues {
		issueMetas.Issues = append(issueMetas.Issues, IssueMeta{
			IssueType:   stringField(issueTOML, "issue_type"),
			Title:       stringField(issueTOML, "title"),
			Description: stringField(issueTOML, "description"),
		})
	}

	return issueMetas
}

func stringField(m map[string]interface{}, key string) string {
	if m[key] == nil {
		return ""
	}
	return fmt.Sprintf("%v", m[key])
}

// Write writes the issue data to the writer.
func (i *IssueMeta) Write(w io.Writer) error {
	content, err := gotoml.Marshal(i)
	if err != nil {
		return err
	}

	_, err = w.Write(content)
	return err
}

// readMarkdown is a helper utility used for parsing and sanitizing markdown content.
func readMarkdown(content string) (string, error) {
	// use the Github-flavored Markdown extension
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		return "", err
	}

	// sanitize markdown body
	p := bluemonday.UGCPolicy()
	return p.Sanitize(buf.String()), nil
}

// parseIssues returns issues after parsing and sanitizing markdown content.
func parseIssues(issues IssueMetas) (IssueMetas, error) {
	var parsedIssues IssueMetas

	for _, issue := range issues.Issues {
		desc, err := readMarkdown(issue.Description)
		if err != nil {
			return IssueMetas{}, err
		}

		issue.Description = desc
		parsedIssues.Issues = append(parsedIssues.Issues, issue)
	}

	return parsedIssues, nil
}

// Catalog looks up documentation for psalm issue types. A nil Catalog describes nothing.
type Catalog struct {
	issues map[string]IssueMeta
}

func NewCatalog(issues IssueMetas) *Catalog {
	c := &Catalog{issues: make(map[string]IssueMeta, len(issues.Issues))}
	for _, issue := range issues.Issues {
		c.issues[issue.IssueType] = issue
	}
	return c
}

// Lookup returns the catalog entry for an issue type.
func (c *Catalog) Lookup(issueType string) (IssueMeta, bool) {
	if c == nil {
		return IssueMeta{}, false
	}
	issue, ok := c.issues[issueType]
	return issue, ok
}

// Describe sets the documentation URL and description of a diagnostic whose issue type is known.
func (c *Catalog) Describe(d *types.Diagnostic) {
	issue, ok := c.Lookup(d.IssueCode())
	if !ok {
		return
	}
	d.URL = fmt.Sprintf(docsURL, issue.IssueType)
	d.Description = issue.Description
}
