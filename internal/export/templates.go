package export

import (
	"bytes"
	"html/template"
	"strings"
	"time"
)

var checklistTemplate = template.Must(template.New("checklist").Funcs(template.FuncMap{
	"lower": strings.ToLower,
	"formatDate": func(t time.Time, layout string) string {
		return t.Format(layout)
	},
}).Parse(checklistTemplateHTML))

// RenderChecklistHTML renders the checklist report template.
func RenderChecklistHTML(doc ChecklistDocument) (string, error) {
	var buf bytes.Buffer
	if err := checklistTemplate.Execute(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const checklistTemplateHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.ProjectName}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    table { border-collapse: collapse; width: 100%; }
    th, td { border: 1px solid #ccc; padding: 0.4rem 0.6rem; text-align: left; vertical-align: top; }
    th { background: #f5f5f5; }
    .severity-high, .severity-critical { color: #a00; font-weight: bold; }
    .status-done { color: #070; }
  </style>
</head>
<body>
  <h1>{{.ProjectName}}</h1>
  {{if .Description}}<p>{{.Description}}</p>{{end}}
  <div class="meta">
    {{.ProjectID}}
    {{if .DeploymentEnvironment}} | {{.DeploymentEnvironment}}{{end}}
    | generated {{formatDate .GeneratedAt "Jan 2, 2006 15:04 MST"}}
    | generator {{.GeneratorVersion}}
    | checklist {{.ChecklistHash}}
  </div>
  <table>
    <thead>
      <tr><th>Control</th><th>Pack</th><th>Severity</th><th>Status</th><th>Owner</th><th>Notes</th></tr>
    </thead>
    <tbody>
      {{range .Items}}
      <tr>
        <td>{{.Title}}</td>
        <td>{{.Domain}}/{{.PackID}}</td>
        <td class="severity-{{lower .Severity}}">{{.Severity}}</td>
        <td class="status-{{lower .Status}}">{{.Status}}</td>
        <td>{{.Owner}}</td>
        <td>{{.Notes}}</td>
      </tr>
      {{end}}
    </tbody>
  </table>
</body>
</html>`
