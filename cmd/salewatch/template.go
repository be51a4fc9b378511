package main

import (
	"fmt"
	"io"
	"text/template"

	"github.com/geniass/salewatch/pkg/tracker"
)

var templateFuncs = template.FuncMap{
	"price": formatPrice,
	"title": func(title, url string) string {
		if title == "" {
			return url
		}
		return title
	},
}

var markdownTemplate = template.Must(template.New("markdownTemplate").Funcs(templateFuncs).Parse(
	`# salewatch
{{ with .Scan -}}
Checked {{ .Checked }} items, {{ .Failed }} failed.
{{ range .Events }}
New sale: [{{ title .Title .URL }}]({{ .URL }}) {{ printf "%.2f" .PreviousPrice }} -> {{ printf "%.2f" .NewPrice }} (-{{ printf "%.1f" .DiscountPct }}%)
{{- end }}
{{ end }}
{{- if eq .Summary.Count 0 }}
Nothing on sale right now.
{{- else }}
{{ range .Summary.Items }}
## {{ title .Title .URL }}
[Product Page]({{ .URL }})

Folder: {{ .Folder }}

Price: {{ price .LastPrice }}

Was: {{ price .BaselinePrice }}

Percentage off: {{ printf "%.1f" .DiscountPct }}%
{{ end }}
{{- end }}
`,
))

var foldersTemplate = template.Must(template.New("foldersTemplate").Funcs(templateFuncs).Parse(
	`{{ range .Folders -}}
{{ .Name }} ({{ len .Items }})
{{- range .Items }}
  {{ if .IsOnSale }}*{{ else }}-{{ end }} {{ title .Title .URL }}  {{ price .LastPrice }}
{{- end }}
{{ end -}}
`,
))

type report struct {
	Scan    *tracker.ScanResult
	Summary tracker.Summary
}

func writeReport(w io.Writer, scan *tracker.ScanResult, summary tracker.Summary) error {
	return markdownTemplate.Execute(w, report{Scan: scan, Summary: summary})
}

func formatPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *p)
}
