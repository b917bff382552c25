package block

import "strings"

// SplitToggle separates a toggle block's first-line summary from its child
// content. The child is trimmed.
func SplitToggle(content string) (summary, child string) {
	if content == "" {
		return "", ""
	}
	first, rest, found := strings.Cut(content, "\n")
	if !found {
		return content, ""
	}
	return first, strings.TrimSpace(rest)
}

// CombineToggle is the inverse of SplitToggle.
func CombineToggle(summary, child string) string {
	if child == "" {
		return summary
	}
	if summary == "" {
		return child
	}
	return summary + "\n" + child
}
