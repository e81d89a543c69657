package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/deepsourcelabs/linter-psalm/analyzers/types"
	"github.com/fatih/color"
)

type printer struct {
	w        io.Writer
	location *color.Color
	errorSev *color.Color
	warnSev  *color.Color
	link     *color.Color
}

func newPrinter(w io.Writer, colored bool) *printer {
	p := &printer{
		w:        w,
		location: color.New(color.Bold),
		errorSev: color.New(color.FgRed, color.Bold),
		warnSev:  color.New(color.FgYellow, color.Bold),
		link:     color.New(color.Faint),
	}

	for _, c := range []*color.Color{p.location, p.errorSev, p.warnSev, p.link} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return p
}

func (p *printer) diagnostic(d types.Diagnostic) {
	path := d.FilePath
	if path == "" {
		path = "<stdin>"
	}

	sev := p.warnSev
	if d.Severity == types.SeverityError {
		sev = p.errorSev
	}

	fmt.Fprintf(p.w, "%s %s %s",
		p.location.Sprintf("%s:%d:", path, d.Range.Start.Line+1),
		sev.Sprint(string(d.Severity)),
		d.Excerpt,
	)
	if d.URL != "" {
		fmt.Fprintf(p.w, " %s", p.link.Sprintf("(%s)", d.URL))
	}
	fmt.Fprintln(p.w)
}

// writeText prints one line per diagnostic followed by a summary.
func writeText(w io.Writer, reports []*types.Report, colored bool) error {
	p := newPrinter(w, colored)

	var errs, warnings int
	for _, r := range reports {
		for _, d := range r.Diagnostics {
			p.diagnostic(d)
			if d.Severity == types.SeverityError {
				errs++
			} else {
				warnings++
			}
		}
	}

	_, err := fmt.Fprintf(w, "%d error(s), %d warning(s)\n", errs, warnings)
	return err
}

// writeJSON prints all diagnostics as a single report.
func writeJSON(w io.Writer, reports []*types.Report) error {
	merged := types.Report{Diagnostics: []types.Diagnostic{}}
	for _, r := range reports {
		merged.Diagnostics = append(merged.Diagnostics, r.Diagnostics...)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(merged)
}
