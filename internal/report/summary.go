// Package report builds an overview of a report list: counts per status and
// schedule kind, the upcoming runs and the reports in error.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"time"

	"github.com/reportconsole/internal/models"
	"github.com/reportconsole/internal/schedule"
)

type Summary struct {
	GeneratedAt time.Time
	Total       int
	ByStatus    []Count
	ByKind      []Count
	Upcoming    []Run
	Errors      []Run
}

type Count struct {
	Label string
	Count int
}

type Run struct {
	ID       int
	Name     string
	When     string
	Next     time.Time
	Status   string
	LastRun  string
	Duration int
}

// Generator turns report lists into summaries.
type Generator struct {
	tmpl     *template.Template
	upcoming int
}

func NewGenerator(upcoming int) (*Generator, error) {
	tmpl, err := template.New("summary").Funcs(template.FuncMap{
		"stamp": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
	}).Parse(summaryHTML)
	if err != nil {
		return nil, fmt.Errorf("failed to parse summary template: %w", err)
	}
	if upcoming <= 0 {
		upcoming = 10
	}
	return &Generator{tmpl: tmpl, upcoming: upcoming}, nil
}

func (g *Generator) Summarize(list models.ReportList, now time.Time) Summary {
	s := Summary{GeneratedAt: now, Total: len(list.Reports)}
	status := make(map[string]int)
	kinds := make(map[schedule.Kind]int)

	for _, rc := range list.Reports {
		v := models.FromComplex(rc)
		code := v.StatusCode()
		label := models.StatusLabel(code)
		status[label]++
		kind := schedule.Classify(v)
		kinds[kind]++

		run := Run{
			ID:       v.ID,
			Name:     v.Name,
			When:     schedule.Describe(v),
			Status:   label,
			LastRun:  v.RunDate.String,
			Duration: int(v.RunTimeDurationSeconds.Int64),
		}
		if models.IsErrorStatus(code) {
			s.Errors = append(s.Errors, run)
		}
		if v.IsSuspended() {
			continue
		}
		if next, err := schedule.NextRun(v, now); err == nil {
			run.Next = next
			s.Upcoming = append(s.Upcoming, run)
		}
	}

	for label, n := range status {
		s.ByStatus = append(s.ByStatus, Count{Label: label, Count: n})
	}
	sort.Slice(s.ByStatus, func(i, j int) bool { return s.ByStatus[i].Label < s.ByStatus[j].Label })
	for _, k := range schedule.Kinds {
		if n := kinds[k]; n > 0 {
			s.ByKind = append(s.ByKind, Count{Label: string(k), Count: n})
		}
	}

	sort.SliceStable(s.Upcoming, func(i, j int) bool { return s.Upcoming[i].Next.Before(s.Upcoming[j].Next) })
	if len(s.Upcoming) > g.upcoming {
		s.Upcoming = s.Upcoming[:g.upcoming]
	}
	return s
}

// HTML renders s as a standalone page.
func (g *Generator) HTML(s Summary) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, s); err != nil {
		return nil, fmt.Errorf("failed to execute summary template: %w", err)
	}
	return buf.Bytes(), nil
}

const summaryHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Report schedule summary</title></head>
<body>
<h1>Report schedule summary</h1>
<p>{{.Total}} reports, generated {{stamp .GeneratedAt}}</p>
<h2>By status</h2>
<table>{{range .ByStatus}}<tr><td>{{.Label}}</td><td>{{.Count}}</td></tr>{{end}}</table>
<h2>By schedule</h2>
<table>{{range .ByKind}}<tr><td>{{.Label}}</td><td>{{.Count}}</td></tr>{{end}}</table>
<h2>Upcoming runs</h2>
<table>
<tr><th>ID</th><th>Name</th><th>When</th><th>Next run</th></tr>
{{range .Upcoming}}<tr><td>{{.ID}}</td><td>{{.Name}}</td><td>{{.When}}</td><td>{{stamp .Next}}</td></tr>
{{end}}</table>
{{if .Errors}}<h2>Errors</h2>
<table>
<tr><th>ID</th><th>Name</th><th>Status</th><th>Last run</th></tr>
{{range .Errors}}<tr><td>{{.ID}}</td><td>{{.Name}}</td><td>{{.Status}}</td><td>{{.LastRun}}</td></tr>
{{end}}</table>{{end}}
</body>
</html>
`
