package render

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"text/template"

	reports "waterhealth-cloud/internal/reports/domain"
)

// MaxSMSIssues is how many water issues the SMS carries.
const MaxSMSIssues = 2

const DefaultSMSTemplate = `[{{.Brand}} ALERT] {{.Area}} — {{.Level}} RISK (Score: {{.Score}}/100)
Disease: {{.Disease}} | Active Cases: {{.ActiveCases}}
{{if .Issues}}Water Issues: {{.Issues}}
{{end}}PRECAUTIONS: Boil water before use. Wash hands with soap. Visit nearest PHC if unwell.
Helpline: {{.Helpline}} | Emergency: {{.Emergency}}`

// SMSData provides fields for the compact text form.
type SMSData struct {
	Brand       string
	Area        string
	Level       string
	Score       string
	Disease     string
	ActiveCases string
	Issues      string
	Helpline    string
	Emergency   string
}

// SMSRenderer renders the compact text form of a report.
type SMSRenderer struct {
	tpl   *template.Template
	brand Branding
}

// NewSMSRenderer parses an SMS template, falling back to DefaultSMSTemplate.
func NewSMSRenderer(tpl string, brand Branding) (*SMSRenderer, error) {
	if tpl == "" {
		tpl = DefaultSMSTemplate
	}
	parsed, err := template.New("sms").Parse(tpl)
	if err != nil {
		return nil, err
	}
	return &SMSRenderer{tpl: parsed, brand: brand.WithDefaults()}, nil
}

// Render applies the template to the report.
func (r *SMSRenderer) Render(report *reports.AreaReport) (string, error) {
	if r == nil || r.tpl == nil {
		return "", errors.New("sms template: nil")
	}
	if report == nil {
		return "", errors.New("sms template: nil report")
	}
	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, r.data(report)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *SMSRenderer) data(report *reports.AreaReport) SMSData {
	disease, active := "—", "—"
	if report.Disease != nil {
		if report.Disease.Disease != "" {
			disease = report.Disease.Disease
		}
		active = strconv.Itoa(report.Disease.ActiveCases)
	}
	issues := report.WaterIssues
	if len(issues) > MaxSMSIssues {
		issues = issues[:MaxSMSIssues]
	}
	return SMSData{
		Brand:       r.brand.Name,
		Area:        report.Area,
		Level:       levelUpper(report.Risk.Level),
		Score:       formatScore(report.Risk.Score),
		Disease:     disease,
		ActiveCases: active,
		Issues:      strings.Join(issues, "; "),
		Helpline:    r.brand.HelplineNumber,
		Emergency:   r.brand.EmergencyNumber,
	}
}
