// Package renderer turns tradebook results into markdown reports.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"text/template"

	"github.com/etnz/tradebook"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.md
var templates embed.FS

var funcs = template.FuncMap{
	"price": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"join": func(years []int) string {
		s := make([]string, len(years))
		for i, y := range years {
			s[i] = strconv.Itoa(y)
		}
		return strings.Join(s, ", ")
	},
}

// RenderSummary renders the portfolio valuation.
func RenderSummary(s *tradebook.Summary) string {
	partials := map[string]string{
		"summary_rows": "summary_rows.md",
		"anomalies":    "anomalies.md",
	}
	return renderTemplate("summary", "summary.md", partials, s)
}

// RenderHoldings renders the positions without market prices.
func RenderHoldings(h *Holdings) string {
	partials := map[string]string{
		"holdings_closed": "holdings_closed.md",
		"anomalies":       "anomalies.md",
	}
	return renderTemplate("holdings", "holdings.md", partials, h)
}

// RenderSnapshot renders the verification report of a snapshot.
func RenderSnapshot(s *Snapshot) string {
	partials := map[string]string{
		"anomalies": "anomalies.md",
	}
	return renderTemplate("snapshot", "snapshot.md", partials, s)
}

// RenderStatus renders the state of the ledger and of the snapshots.
func RenderStatus(s *Status) string {
	partials := map[string]string{
		"anomalies": "anomalies.md",
	}
	return renderTemplate("status", "status.md", partials, s)
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, "templates/"+mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		var content []byte
		// An empty file name is a valid case, resulting in an empty template.
		if file != "" {
			var readErr error
			content, readErr = fs.ReadFile(templates, "templates/"+file)
			if readErr != nil {
				return fmt.Sprintf("error reading partial template %q: %v", file, readErr)
			}
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
