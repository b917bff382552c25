// Package outline extracts frontmatter, headings, wikilinks and tags from a
// markdown file without splitting it into blocks.
package outline

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	headingRe  = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
)

// Heading is one ATX heading of the file.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Outline summarizes a markdown file.
type Outline struct {
	Title       string         `json:"title"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Headings    []Heading      `json:"headings"`
	Links       []string       `json:"links"`
	Tags        []string       `json:"tags"`
	Words       int            `json:"words"`
}

// Parse reads text. Invalid frontmatter is treated as body.
func Parse(text string) Outline {
	fm, body := splitFrontmatter(text)
	prose := stripCode(body)

	o := Outline{
		Frontmatter: fm,
		Headings:    headings(prose),
		Links:       links(prose),
		Tags:        tags(prose, fm),
		Words:       len(strings.Fields(prose)),
	}
	o.Title = title(fm, o.Headings)
	return o
}

// TitleOr returns the outline title, or fallback when the file has none.
func (o Outline) TitleOr(fallback string) string {
	if o.Title != "" {
		return o.Title
	}
	return fallback
}

// splitFrontmatter separates a leading YAML block between --- lines.
func splitFrontmatter(text string) (map[string]any, string) {
	const delim = "---"
	trimmed := strings.TrimLeft(text, "\r\n")
	if !strings.HasPrefix(trimmed, delim+"\n") {
		return nil, text
	}
	rest := trimmed[len(delim)+1:]
	if strings.HasPrefix(rest, delim) {
		return nil, strings.TrimLeft(rest[len(delim):], "\r\n")
	}
	idx := strings.Index(rest, "\n"+delim)
	if idx < 0 {
		return nil, text
	}

	var fm map[string]any
	if err := yaml.Unmarshal([]byte(rest[:idx]), &fm); err != nil {
		return nil, text
	}
	body := strings.TrimLeft(rest[idx+1+len(delim):], "\r\n")
	return fm, body
}

// stripCode drops fenced code so comments inside it are not read as headings.
func stripCode(body string) string {
	var out []string
	fenced := false
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			fenced = !fenced
			continue
		}
		if !fenced {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func headings(prose string) []Heading {
	out := []Heading{}
	for _, line := range strings.Split(prose, "\n") {
		m := headingRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		out = append(out, Heading{Level: len(m[1]), Text: m[2]})
	}
	return out
}

// links returns wikilink targets in order of first use. [[Target|Alias]]
// yields Target.
func links(prose string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, m := range wikilinkRe.FindAllStringSubmatch(prose, -1) {
		target, _, _ := strings.Cut(m[1], "|")
		target = strings.TrimSpace(target)
		if target == "" || seen[target] {
			continue
		}
		seen[target] = true
		out = append(out, target)
	}
	return out
}

// tags merges the frontmatter "tags" list with inline #tags. Heading markers
// never match since they are followed by a space.
func tags(prose string, fm map[string]any) []string {
	seen := map[string]bool{}
	out := []string{}
	add := func(t string) {
		t = strings.TrimSpace(t)
		if t != "" && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	if list, ok := fm["tags"].([]any); ok {
		for _, item := range list {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	}
	for _, m := range tagRe.FindAllStringSubmatch(prose, -1) {
		add(m[1])
	}
	return out
}

// title prefers the frontmatter title, then the first level-one heading.
func title(fm map[string]any, hs []Heading) string {
	if s, ok := fm["title"].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	for _, h := range hs {
		if h.Level == 1 {
			return h.Text
		}
	}
	return ""
}
