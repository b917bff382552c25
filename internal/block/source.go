package block

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	headingRe  = regexp.MustCompile(`^#{1,6}\s`)
	bulletRe   = regexp.MustCompile(`^\s*[-*+]\s`)
	numberedRe = regexp.MustCompile(`^\s*\d+[.)]\s`)
	todoRe     = regexp.MustCompile(`^\s*[-*+]\s\[[ xX]\]\s`)
	quoteRe    = regexp.MustCompile(`^\s*>`)
)

// Source returns the markdown the renderer receives for b in view mode.
// The block's type marker is applied unless the content already has one;
// the stored content is never changed.
func Source(b Block) string {
	c := b.Content
	switch b.Type {
	case TypeHeading1:
		return heading(c, "# ")
	case TypeHeading2:
		return heading(c, "## ")
	case TypeHeading3:
		return heading(c, "### ")
	case TypeBulletList:
		return eachLine(c, bulletRe, func(int) string { return "- " })
	case TypeNumberedList:
		return eachLine(c, numberedRe, func(i int) string { return strconv.Itoa(i+1) + ". " })
	case TypeTodoList:
		return eachLine(c, todoRe, func(int) string { return "- [ ] " })
	case TypeQuote:
		return eachLine(c, quoteRe, func(int) string { return "> " })
	case TypeCode:
		if strings.HasPrefix(strings.TrimSpace(c), "```") {
			return c
		}
		return "```\n" + c + "\n```"
	default:
		return c
	}
}

func heading(c, marker string) string {
	if headingRe.MatchString(c) {
		return c
	}
	return marker + c
}

func eachLine(c string, has *regexp.Regexp, marker func(int) string) string {
	lines := strings.Split(c, "\n")
	for i, l := range lines {
		if l == "" || has.MatchString(l) {
			continue
		}
		lines[i] = marker(i) + l
	}
	return strings.Join(lines, "\n")
}
