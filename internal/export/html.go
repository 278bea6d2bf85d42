// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"html/template"
)

// HTMLExporter writes a standalone HTML page.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates an HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

var htmlPage = template.Must(template.New("transcript").Funcs(template.FuncMap{
	"long":  formatTimestamp,
	"short": formatShortTimestamp,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="generator" content="{{.Generator}}">
<title>{{.T.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; background: #1C1917; color: #E7E5E4; max-width: 760px; margin: 2rem auto; padding: 0 1rem; }
h1 { color: #34D399; font-size: 1.4rem; }
.meta { color: #A8A29E; font-size: .85rem; margin-bottom: 1.5rem; }
.message { border-radius: 10px; padding: .75rem 1rem; margin: .75rem 0; white-space: pre-wrap; }
.user { background: #0C4A6E; margin-left: 3rem; }
.bot { background: #44403C; margin-right: 3rem; }
.who { font-weight: 600; font-size: .8rem; margin-bottom: .25rem; }
.time { color: #A8A29E; font-weight: 400; margin-left: .5rem; }
footer { color: #78716C; font-size: .75rem; margin-top: 2rem; }
</style>
</head>
<body>
<header>
<h1>{{.T.Title}}</h1>
<div class="meta">Started {{long .T.Started}} &middot; {{len .T.Messages}} messages</div>
</header>
<main>
{{- range .T.Messages}}
<div class="message {{.Sender}}">
<div class="who">{{.Sender.DisplayName}}{{if $.Timestamps}}<span class="time">{{short .Timestamp}}</span>{{end}}</div>
<div class="text">{{.Text}}</div>
</div>
{{- end}}
</main>
<footer>Exported from {{.Generator}} on {{long .T.Exported}}</footer>
</body>
</html>
`))

// Export renders t. Message text is escaped.
func (e *HTMLExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err := htmlPage.Execute(&buf, struct {
		T          *Transcript
		Generator  string
		Timestamps bool
	}{t, Generator, e.options.IncludeTimestamps})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileExtension returns ".html".
func (e *HTMLExporter) FileExtension() string { return ".html" }

// MimeType returns the HTML MIME type.
func (e *HTMLExporter) MimeType() string { return "text/html; charset=utf-8" }
