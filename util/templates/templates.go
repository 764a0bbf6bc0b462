// Package templates provides helpers for normalizing cobra help text.
package templates

import (
	"strings"

	"github.com/MakeNowJust/heredoc"
)

// LongDesc normalizes a command's long description: the surrounding blank
// lines and the common leading indentation are stripped so help text can be
// written as an indented raw string next to the command definition.
func LongDesc(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.TrimSpace(heredoc.Doc(s))
}

// Examples normalizes a command's example block to the two-space indent
// cobra renders under the Examples heading.
func Examples(s string) string {
	if len(s) == 0 {
		return s
	}
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(heredoc.Doc(s)), "\n") {
		lines = append(lines, "  "+strings.TrimSpace(line))
	}
	return strings.Join(lines, "\n")
}
