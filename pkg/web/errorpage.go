package web

import (
	"html/template"
	"net/http"

	"github.com/noventa-dev/noventa/internal/errors"
)

// statusFor maps an error code to its HTTP status. Rejected requests
// surface as 503 so clients and load balancers back off.
func statusFor(e *errors.Error) int {
	switch e.Code {
	case "E010":
		return http.StatusBadRequest
	case "E020":
		return http.StatusNotFound
	case "E050":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var devErrorPage = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Code}}: {{.Message}}</title>
<style>
body { background:#111; color:#eee; font-family:monospace; margin:0; padding:40px; }
.wrap { max-width:860px; margin:0 auto; }
h1 { color:#ff5555; font-size:20px; margin:0 0 8px; }
h2 { color:#888; font-size:14px; font-weight:normal; margin:0 0 24px; }
pre { background:#1a1a1a; border:1px solid #333; border-radius:8px; padding:16px; overflow:auto; white-space:pre-wrap; }
.suggestion { color:#8be98b; margin-top:24px; }
.doc a { color:#6ab0f3; }
</style>
</head>
<body>
<div class="wrap">
<h1>{{.Code}}: {{.Message}}</h1>
<h2>{{.Category}}{{if .Route}} · {{.Route}}{{end}}</h2>
{{if .Detail}}<pre>{{.Detail}}</pre>{{end}}
{{if .Location}}<pre>{{.Location.File}}:{{.Location.Line}}{{range .Context}}
{{.}}{{end}}</pre>{{end}}
{{if .Traceback}}<pre>{{.Traceback}}</pre>{{end}}
{{if .Suggestion}}<p class="suggestion">{{.Suggestion}}</p>{{end}}
{{if .DocURL}}<p class="doc"><a href="{{.DocURL}}">{{.DocURL}}</a></p>{{end}}
</div>
</body>
</html>
`))

var prodErrorPage = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Status}} {{.Text}}</title></head>
<body style="font-family:sans-serif;text-align:center;padding:80px;">
<h1>{{.Status}}</h1>
<p>{{.Text}}</p>
</body>
</html>
`))

// errorPage writes the HTML error response. Development mode shows the
// full structured error; production shows only the status.
func (s *Server) errorPage(w http.ResponseWriter, r *http.Request, e *errors.Error) {
	status := statusFor(e)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if s.opts.DevMode {
		devErrorPage.Execute(w, e)
		return
	}
	prodErrorPage.Execute(w, struct {
		Status int
		Text   string
	}{status, http.StatusText(status)})
}
