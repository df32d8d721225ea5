package web

import (
	"bytes"
	"html/template"

	"docchat/internal/domain"
	"docchat/internal/session"
)

const loadingText = "Loading models and indexing documents... This might take a minute."

type pageData struct {
	Title    string
	State    string
	Loading  string
	Status   string
	Failure  string
	Notice   string
	Messages []domain.Message
	CanAsk   bool
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
{{if eq .State "initializing"}}<meta http-equiv="refresh" content="2">{{end}}
<style>
body{font-family:sans-serif;max-width:46rem;margin:2rem auto;padding:0 1rem}
.msg{padding:.6rem .8rem;margin:.4rem 0;border-radius:.5rem;white-space:pre-wrap}
.user{background:#eef3ff}.assistant{background:#f4f4f4}
.role{font-weight:bold;font-size:.8rem;text-transform:uppercase;color:#666}
.ok{color:#1a7f37}.err{color:#b42318}.notice{color:#9a6700}
form{display:flex;gap:.5rem;margin-top:1rem}input[name=prompt]{flex:1;padding:.5rem}
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if eq .State "initializing"}}<p class="notice" id="status">{{.Loading}}</p>{{end}}
{{if eq .State "ready"}}<p class="ok" id="status">{{.Status}}</p>{{end}}
{{if eq .State "failed"}}<p class="err" id="status">Error loading data: {{.Failure}}</p>{{end}}
<div id="transcript">
{{range .Messages}}<div class="msg {{.Role}}"><div class="role">{{.Role}}</div>{{.Content}}</div>
{{end}}</div>
{{with .Notice}}<p class="err" id="notice">{{.}}</p>{{end}}
{{if .CanAsk}}<form method="post" action="/">
<input name="prompt" placeholder="Your question here..." autocomplete="off" autofocus>
<button type="submit">Send</button>
</form>{{end}}
</body>
</html>
`))

func renderPage(title string, state session.State, failure error, notice string, msgs []domain.Message) (string, error) {
	data := pageData{
		Title:    title,
		State:    state.String(),
		Loading:  loadingText,
		Status:   "System Ready! Ask away.",
		Notice:   notice,
		Messages: msgs,
		CanAsk:   state == session.StateReady,
	}
	if failure != nil {
		data.Failure = failure.Error()
	}
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
