package preview

import "html/template"

type pageData struct {
	Title  string
	Name   string
	Theme  string
	Blocks []template.HTML
	Files  []string
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en" class="{{.Theme}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.6; }
html.light body { background: #ffffff; color: #1f2328; }
html.dark body { background: #0d1117; color: #e6edf3; }
html.dark a { color: #58a6ff; }
.block { padding: 0.25rem 0; }
.empty-paragraph { min-height: 1.5em; }
pre { padding: 0.75rem; overflow-x: auto; border-radius: 6px; }
html.light pre { background: #f6f8fa; }
html.dark pre { background: #161b22; }
blockquote { margin: 0; padding-left: 1rem; border-left: 3px solid #8b949e; }
</style>
</head>
<body>
{{- if .Name}}
<nav><a href="/">All files</a></nav>
<article data-name="{{.Name}}">
{{- range .Blocks}}
<section class="block">{{.}}</section>
{{- end}}
</article>
{{- else}}
<h1>Files</h1>
<ul>
{{- range .Files}}
<li><a href="/files/{{.}}">{{.}}</a></li>
{{- else}}
<li>No markdown files yet.</li>
{{- end}}
</ul>
{{- end}}
<script>
(function () {
  var name = {{.Name}};
  var es = new EventSource("/api/events");
  es.addEventListener("file.updated", function (e) {
    if (name && JSON.parse(e.data).name === name) location.reload();
  });
  es.addEventListener("file.deleted", function (e) {
    if (name && JSON.parse(e.data).name === name) location.href = "/";
  });
  es.addEventListener("files.changed", function () {
    if (!name) location.reload();
  });
})();
</script>
</body>
</html>
`))
