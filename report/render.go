package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"pasturewatch/models"
)

//go:embed template.html
var templateHTML string

var tmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"fmt2":  func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"fmt4":  fmt4,
	"nl2br": nl2br,
	"layerNames": func(m map[string]*string) []string {
		names := make([]string, 0, len(m))
		for k := range m {
			names = append(names, k)
		}
		sort.Strings(names)
		return names
	},
}).Parse(templateHTML))

func fmt4(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", *v)
}

// nl2br escapes s and turns line breaks into <br>.
func nl2br(s string) template.HTML {
	esc := template.HTMLEscapeString(s)
	return template.HTML(strings.ReplaceAll(esc, "\n", "<br>"))
}

// Render returns the report as a self-contained HTML document.
func Render(r models.AnalysisReport) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, r); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}
