package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"

	reports "waterhealth-cloud/internal/reports/domain"
)

// HTML sections, rendered in this order by the e-mail document.
const (
	SectionHeader     = "header"
	SectionBadge      = "badge"
	SectionWater      = "water"
	SectionViolations = "violations"
	SectionWeather    = "weather"
	SectionFactors    = "factors"
	SectionDisease    = "disease"
	SectionActions    = "actions"
	SectionFooter     = "footer"
)

// AllSafeLine is shown when no water parameter is violated.
const AllSafeLine = "All major parameters within safe range"

const cell = `padding:6px;border:1px solid #ccc`

const htmlTemplates = `
{{define "header"}}<div style="background:#0f2942;padding:24px 32px;border-radius:8px 8px 0 0;">
  <h1 style="color:white;margin:0;font-size:22px;">🌊 {{.Brand.Name}} — {{.Brand.Tagline}}</h1>
  <p style="color:#7dd3fc;margin:4px 0 0;font-size:12px;">Official Area Water Health Report</p>
</div>{{end}}

{{define "badge"}}<div style="background:#f0f4f8;padding:16px 32px;border-bottom:3px solid {{.Color}};">
  <h2 style="margin:0;color:#0f2942">{{.Report.Area}}</h2>
  <p style="margin:4px 0 0;color:#555;font-size:12px;">Report ID: {{.Report.ID}} | Generated: {{.GeneratedAt}}</p>
  <span style="background:{{.Color}};color:white;padding:6px 16px;border-radius:20px;font-weight:bold;">{{.LevelUpper}} RISK — {{.Score}}/100</span>
</div>{{end}}

{{define "water"}}<h3 style="color:#1e3a5f;">1. Water Quality Analysis</h3>
{{if .WaterRows}}<table style="width:100%;border-collapse:collapse;font-size:13px;">
  <tr style="background:#eaf0fb"><th style="{{.Cell}}">Parameter</th><th style="{{.Cell}}">Value</th><th style="{{.Cell}}">Safe Range</th></tr>
{{range .WaterRows}}  <tr><td style="{{$.Cell}}">{{.Name}}</td><td style="{{$.Cell}};text-align:center">{{.Value}}</td><td style="{{$.Cell}};text-align:center;color:#555">{{.SafeRange}}</td></tr>
{{end}}</table>{{else}}<p style="color:#888">No water quality data available.</p>{{end}}{{end}}

{{define "violations"}}<h3 style="color:#dc2626;">⚠ Parameter Violations</h3>
<ul>{{range .Report.WaterIssues}}<li style="color:#c0392b">{{.}}</li>{{else}}<li style="color:green">{{.AllSafe}}</li>{{end}}</ul>{{end}}

{{define "weather"}}<h3 style="color:#1e3a5f;">2. Environmental / Weather Conditions</h3>
{{with .Report.Weather}}<table style="font-size:13px;">
  <tr><td>Rainfall</td><td><b>{{value .RainfallMM}} mm</b></td></tr>
  <tr><td>Temperature</td><td><b>{{value .Temperature}} °C</b></td></tr>
  <tr><td>Humidity</td><td><b>{{value .Humidity}} %</b></td></tr>
  <tr><td>Flood Risk</td><td>{{if .FloodRisk}}<b style="color:red">YES — ACTIVE</b>{{else}}<b style="color:green">No</b>{{end}}</td></tr>
</table>{{else}}<p style="color:#888">No weather data.</p>{{end}}{{end}}

{{define "factors"}}<h4 style="color:#0369a1;">Contributing Environmental Factors:</h4>
<ul style="font-size:13px;">{{range .Factors}}<li>{{.}}</li>{{end}}</ul>{{end}}

{{define "disease"}}{{with .Report.Disease}}<h3 style="color:#6d28d9">Disease Outbreak Data</h3>
<table style="width:100%;border-collapse:collapse;font-size:13px;">
  <tr><td>Disease</td><td><b>{{.Disease}}</b></td></tr>
  <tr><td>Total Cases</td><td>{{.TotalCases}}</td></tr>
  <tr><td>Active Cases</td><td style="color:#b45309;font-weight:bold">{{.ActiveCases}}</td></tr>
  <tr><td>Recovered</td><td style="color:green">{{.Recovered}}</td></tr>
  <tr><td>Deaths</td><td style="color:#b91c1c;font-weight:bold">{{.Deaths}}</td></tr>
</table>{{end}}{{end}}

{{define "actions"}}<h3 style="color:#92400e;">3. Recommended Government Actions</h3>
<ol style="font-size:13px;line-height:1.7;">{{range .Actions}}<li>{{.}}</li>{{end}}</ol>{{end}}

{{define "footer"}}<div style="padding:12px 32px;background:#1e3a5f;text-align:center;">
  <p style="color:#7dd3fc;font-size:11px;margin:0;">🚨 Emergency: <b style="color:white">{{.Brand.EmergencyNumber}}</b> | Disease Surveillance: <b style="color:white">{{.Brand.SurveillanceNumber}}</b> | Water Quality Helpline: <b style="color:white">{{.Brand.HelplineNumber}}</b></p>
  <p style="color:#475569;font-size:10px;margin:4px 0 0;">This report was auto-generated by {{.Brand.Name}} {{.Brand.Tagline}} System</p>
</div>{{end}}

{{define "email"}}<!DOCTYPE html>
<html>
<head><meta charset="utf-8"/></head>
<body style="font-family:Arial,sans-serif;max-width:700px;margin:0 auto;color:#1a1a1a;">
{{template "header" .}}
{{template "badge" .}}
<div style="padding:24px 32px;background:white;">
{{template "water" .}}
{{template "violations" .}}
</div>
<div style="padding:0 32px 24px;background:white;">
{{template "weather" .}}
{{template "factors" .}}
</div>
<div style="padding:0 32px 24px;background:white;">{{template "disease" .}}</div>
<div style="padding:16px 32px 24px;background:#fffbeb;">
{{template "actions" .}}
</div>
{{template "footer" .}}
</body>
</html>{{end}}`

var htmlSet = template.Must(template.New("report").Funcs(template.FuncMap{
	"value": reports.FormatValue,
}).Parse(htmlTemplates))

type htmlView struct {
	Report      *reports.AreaReport
	Brand       Branding
	Color       string
	LevelUpper  string
	Score       string
	GeneratedAt string
	WaterRows   []ParameterRow
	Factors     []string
	Actions     []string
	AllSafe     string
	Cell        template.CSS
}

// HTMLRenderer renders the rich e-mail form of a report.
type HTMLRenderer struct {
	brand Branding
}

// NewHTMLRenderer constructs an HTML renderer.
func NewHTMLRenderer(brand Branding) *HTMLRenderer {
	return &HTMLRenderer{brand: brand.WithDefaults()}
}

// Render returns the full HTML document.
func (r *HTMLRenderer) Render(report *reports.AreaReport) (string, error) {
	return r.RenderSection("email", report)
}

// RenderSection renders a single named section.
func (r *HTMLRenderer) RenderSection(name string, report *reports.AreaReport) (string, error) {
	if r == nil {
		return "", errors.New("html renderer: nil")
	}
	if report == nil {
		return "", errors.New("html renderer: nil report")
	}
	if htmlSet.Lookup(name) == nil {
		return "", fmt.Errorf("html renderer: unknown section %q", name)
	}
	var buf bytes.Buffer
	if err := htmlSet.ExecuteTemplate(&buf, name, r.view(report)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Subject returns the e-mail subject for the report.
func (r *HTMLRenderer) Subject(report *reports.AreaReport) string {
	return Subject(report, r.brand)
}

func (r *HTMLRenderer) view(report *reports.AreaReport) htmlView {
	return htmlView{
		Report:      report,
		Brand:       r.brand,
		Color:       RiskColor(report.Risk.Level),
		LevelUpper:  levelUpper(report.Risk.Level),
		Score:       formatScore(report.Risk.Score),
		GeneratedAt: report.GeneratedAt.UTC().Format("2006-01-02 15:04:05") + " UTC",
		WaterRows:   WaterParameterRows(report.Water),
		Factors:     EnvironmentalFactors(report.Weather),
		Actions:     RecommendedActions(report.Area, r.brand),
		AllSafe:     AllSafeLine,
		Cell:        template.CSS(cell),
	}
}

// Preview truncates rendered output to at most n characters.
func Preview(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
