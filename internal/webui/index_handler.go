package webui

import (
	"html/template"
	"net/http"
	"time"

	"gaugelink.hydrology.org/internal/logging"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>gaugelink</title>
</head>
<body>
<h1>gaugelink</h1>
{{if .Ready}}
<p>Run <code>{{.RunID}}</code> finished {{.Finished}}.</p>
<table>
<tr><th>Matches</th><td>{{.Matches}}</td></tr>
<tr><th>Segments</th><td>{{.Segments}}</td></tr>
<tr><th>Integrity score</th><td>{{printf "%.4f" .Score}}{{if not .Passed}} (below threshold){{end}}</td></tr>
</table>
<ul>
<li><a href="/api/matches.json">matches</a></li>
<li><a href="/api/integrity.json">integrity report</a></li>
<li><a href="/debug/network">network summary</a></li>
</ul>
{{else}}
<p>No completed matching run.</p>
{{end}}
</body>
</html>
`))

type indexPage struct {
	Ready    bool
	RunID    string
	Finished string
	Matches  int
	Segments int
	Score    float64
	Passed   bool
}

func (webUI *WebUI) indexHandler(w http.ResponseWriter, r *http.Request) {
	page := indexPage{}
	if res := webUI.Result(); res != nil {
		page = indexPage{
			Ready:    true,
			RunID:    res.RunID,
			Finished: res.Finished.UTC().Format(time.RFC3339),
			Matches:  len(res.Matches),
			Score:    res.Integrity.Score,
			Passed:   res.Integrity.Passed(),
		}
		if res.Network != nil {
			page.Segments = res.Network.Summarize().Edges
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, page); err != nil {
		logging.LogError(webUI.Logger, "failed to render index page", err)
	}
}
