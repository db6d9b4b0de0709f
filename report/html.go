// Copyright 2026 The coco-bonus Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"io"

	"github.com/google/safehtml/template"
)

const htmlSource = `
{{- range . -}}
<table class='allocstat'>
<caption>{{.Name}}</caption>
<tr><th>Iterations{{range .Labels}}<th>Mean ({{.}}, ns)<th>SD ({{.}}, ns){{end}}
{{range .Rows -}}
<tr><td>{{.Iters}}{{range .Cells}}<td>{{.}}{{end}}
{{end -}}
{{if .Geomean -}}
<tr class='geomean'><td>Geomean{{range .Geomean}}<td>{{.}}{{end}}
{{end -}}
</table>
{{end -}}
`

var htmlTemplate = template.Must(template.New("report").Parse(htmlSource))

// HTML writes one HTML table per input to w.
func HTML(w io.Writer, inputs []Input, opts Options) error {
	models := make([]*model, 0, len(inputs))
	for _, in := range inputs {
		m, err := newModel(in, opts)
		if err != nil {
			return err
		}
		models = append(models, m)
	}
	return htmlTemplate.Execute(w, models)
}

// HTMLHeader and HTMLFooter wrap the output of HTML into a standalone
// document.
var HTMLHeader = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>Allocator Benchmark Results</title>
<style>
.allocstat { border-collapse: collapse; margin-bottom: 2em; }
.allocstat caption { text-align: left; font-weight: bold; }
.allocstat th { border-bottom: 1px solid #666; padding: 0em 1em; }
.allocstat td { text-align: right; padding: 0em 1em; }
.allocstat .geomean td { border-top: 1px solid #ccc; font-style: italic; }
</style>
</head>
<body>
`

var HTMLFooter = `</body>
</html>
`
