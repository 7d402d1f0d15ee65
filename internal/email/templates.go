package email

import (
	"bytes"
	"html/template"
)

const layout = `<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#222">
{{block "content" .}}{{end}}
<p style="color:#888;font-size:12px">Training &amp; Placement Office</p>
</body></html>`

var (
	submittedTmpl = template.Must(template.Must(template.New("submitted").Parse(layout)).Parse(
		`{{define "content"}}<h2>Application received</h2>
<p>Hi {{.StudentName}},</p>
<p>Your application for <strong>{{.JobTitle}}</strong>{{with .CompanyName}} at {{.}}{{end}} has been submitted.</p>{{end}}`))

	statusTmpl = template.Must(template.Must(template.New("status").Parse(layout)).Parse(
		`{{define "content"}}<h2>Application update</h2>
<p>Hi {{.StudentName}},</p>
<p>Your application for <strong>{{.JobTitle}}</strong>{{with .CompanyName}} at {{.}}{{end}} is now <strong>{{.Status}}</strong>.</p>{{end}}`))

	selectionTmpl = template.Must(template.Must(template.New("selection").Parse(layout)).Parse(
		`{{define "content"}}<h2>Student selected</h2>
<p>{{.StudentName}} has been selected for <strong>{{.JobTitle}}</strong>{{with .CompanyName}} at {{.}}{{end}}.</p>{{end}}`))
)

// TemplateData fills every notification template.
type TemplateData struct {
	StudentName string
	JobTitle    string
	CompanyName string
	Status      string
}

func render(t *template.Template, data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func RenderSubmitted(data TemplateData) (string, error) {
	return render(submittedTmpl, data)
}

func RenderStatusChanged(data TemplateData) (string, error) {
	return render(statusTmpl, data)
}

// RenderSelection is the admin notice sent when a student is selected.
func RenderSelection(data TemplateData) (string, error) {
	return render(selectionTmpl, data)
}
