package render

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownHTML = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)
	htmlPolicy = newPolicy()
)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	// GFM task lists render as disabled checkboxes.
	p.AllowAttrs("type", "checked", "disabled").OnElements("input")
	return p
}

// HTML renders src as sanitized HTML wrapped in a markdown-content div.
// Blank input yields an empty paragraph so the block keeps its height.
func HTML(src string) template.HTML {
	if strings.TrimSpace(src) == "" {
		return template.HTML(`<p class="empty-paragraph">&nbsp;</p>`)
	}
	var b bytes.Buffer
	if err := markdownHTML.Convert([]byte(src), &b); err != nil {
		return template.HTML(`<p class="error-message">` + ErrorPlaceholder + `</p>`)
	}
	clean := htmlPolicy.SanitizeBytes(b.Bytes())
	return template.HTML(`<div class="markdown-content">` + string(clean) + `</div>`)
}
