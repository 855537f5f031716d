package report

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/normalize"
)

//go:embed letter.tmpl
var letterTemplate string

type finding struct {
	Number    int
	Marker    string
	Type      string
	Reason    string
	Impact    string
	Reference string
	Citation  string
}

type letterData struct {
	InsurerName   string
	PatientName   string
	PolicyID      string
	AdmissionDate string
	HospitalName  string
	Findings      []finding
	TotalBilled   string
	UnderReview   string
	Covered       string
}

// TemplateLetterWriter renders the dispute letter from a fixed template.
type TemplateLetterWriter struct {
	tmpl *template.Template
}

// NewTemplateLetterWriter parses the built-in letter template.
func NewTemplateLetterWriter() (*TemplateLetterWriter, error) {
	t, err := template.New("letter").Parse(letterTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing letter template: %w", err)
	}
	return &TemplateLetterWriter{tmpl: t}, nil
}

func (w *TemplateLetterWriter) WriteLetter(_ context.Context, result *model.AuditResult) (string, error) {
	if result == nil {
		return "", fmt.Errorf("no audit result")
	}
	var buf bytes.Buffer
	if err := w.tmpl.Execute(&buf, buildLetterData(result)); err != nil {
		return "", fmt.Errorf("rendering letter: %w", err)
	}
	return buf.String(), nil
}

func buildLetterData(r *model.AuditResult) letterData {
	citations := make(map[int]string, len(r.Citations))
	for _, c := range r.Citations {
		if _, ok := citations[c.FlagIndex]; !ok {
			citations[c.FlagIndex] = c.Text
		}
	}

	findings := make([]finding, 0, len(r.Flags))
	for i, f := range r.Flags {
		fd := finding{
			Number:   i + 1,
			Marker:   "(*)",
			Type:     strings.ToUpper(string(f.FlagType)),
			Reason:   f.Reason,
			Citation: citations[i],
		}
		if f.Severity == model.SeverityError {
			fd.Marker = "(!)"
		}
		if f.AmountAffected != nil && *f.AmountAffected > 0 {
			fd.Impact = normalize.FormatAmount(*f.AmountAffected)
		}
		var refs []string
		if f.PolicyClause != "" {
			refs = append(refs, f.PolicyClause)
		}
		if f.IRDAIReference != "" {
			refs = append(refs, f.IRDAIReference)
		}
		fd.Reference = strings.Join(refs, "; ")
		findings = append(findings, fd)
	}

	return letterData{
		InsurerName:   orDefault(r.Policy.InsurerName, "Insurance Company"),
		PatientName:   orDefault(r.Bill.PatientName, "Unknown"),
		PolicyID:      orDefault(r.Policy.ID, "NA"),
		AdmissionDate: orDefault(r.Bill.AdmissionDate, "not stated"),
		HospitalName:  orDefault(r.Bill.HospitalName, "Hospital"),
		Findings:      findings,
		TotalBilled:   normalize.FormatAmount(r.TotalBilled),
		UnderReview:   normalize.FormatAmount(r.AmountUnderReview),
		Covered:       normalize.FormatAmount(r.FullyCoveredAmount),
	}
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
