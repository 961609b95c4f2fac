// Package report renders the printable feasibility report of a project.
package report

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/viabilidade/backend/internal/feasibility"
	"github.com/viabilidade/backend/internal/model"
)

//go:embed report.html.tmpl
var reportTemplate string

var tmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"brl":   FormatBRL,
	"pct":   FormatPercent,
	"ratio": FormatRatio,
}).Parse(reportTemplate))

// Data is everything shown in a report.
type Data struct {
	Project     *model.Project
	Metrics     feasibility.Metrics
	Analysis    string // markdown, optional
	GeneratedAt time.Time
}

type view struct {
	Data
	AnalysisHTML template.HTML
}

// Render writes the HTML report of d to w.
func Render(w io.Writer, d Data) error {
	v := view{Data: d}
	if d.GeneratedAt.IsZero() {
		v.GeneratedAt = time.Now()
	}
	if d.Analysis != "" {
		h, err := RenderMarkdown(CleanMarkdown(d.Analysis))
		if err != nil {
			return fmt.Errorf("render analysis: %w", err)
		}
		v.AnalysisHTML = h
	}
	if err := tmpl.Execute(w, v); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// FileName returns the archive name of a report generated at t.
func FileName(p *model.Project, t time.Time) string {
	return fmt.Sprintf("relatorio_%s_%s.html", p.ID, t.UTC().Format("20060102T150405Z"))
}
