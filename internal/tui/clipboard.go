package tui

import (
	"strings"

	"github.com/atotto/clipboard"
)

// clipboardWrite is swapped out in tests.
var clipboardWrite = func(s string) error {
	return clipboard.WriteAll(strings.ReplaceAll(s, "\r\n", "\n"))
}
