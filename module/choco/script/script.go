// Package script performs surgical edits on install scripts.
//
// Edits are textual. The script is never parsed or reflowed; every byte
// outside the replaced value is preserved exactly, line endings and
// trailing comments included, so hand-maintained scripts survive
// automated updates without diff noise.
package script

import (
	"regexp"
)

// SetField replaces the quoted value of the first assignment to field
// and reports whether such an assignment exists. Matching is case
// insensitive, tolerates an optional leading $ sigil and arbitrary
// spacing around the =, and works on both LF and CRLF files. When the
// field is absent the text comes back unchanged; assignments are never
// inserted.
func SetField(text, field, value string) (string, bool) {
	loc := fieldPattern(field).FindStringSubmatchIndex(text)
	if loc == nil {
		return text, false
	}

	// Submatches: 1 everything through the =, 2 open quote, 3 value,
	// 4 close quote, 5 trailing text. Each original quote is reused on
	// its own side; an absent quote becomes a single quote.
	openQuote := text[loc[4]:loc[5]]
	if openQuote == "" {
		openQuote = "'"
	}
	closeQuote := text[loc[8]:loc[9]]
	if closeQuote == "" {
		closeQuote = "'"
	}

	return text[:loc[3]] + openQuote + value + closeQuote + text[loc[10]:], true
}

// fieldPattern matches one assignment line. The value class excludes
// quotes and line breaks, so the match always stops at the close quote
// or the end of the physical line; \r is excluded explicitly to keep
// CRLF endings out of the captured groups.
func fieldPattern(field string) *regexp.Regexp {
	return regexp.MustCompile(
		`(?im)^([ \t]*\$?` + regexp.QuoteMeta(field) + `[ \t]*=[ \t]*)(['"]?)([^'"\r\n]*)(['"]?)([^\r\n]*)`)
}
