package tui

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// ansiRE matches ANSI escape sequences: CSI (SGR, cursor movement),
// OSC (terminated by ST or BEL), charset designation, and other
// two-byte escapes.
var ansiRE = regexp.MustCompile(`\x1b(?:` +
	`\[[0-9;]*[A-Za-z]` +
	`|` +
	`\].*?(?:\x1b\\|\x07)` +
	`|` +
	`[()][A-B0-2]` +
	`|` +
	`[#()*+\-./][A-Za-z0-9]` +
	`)`)

// Display sanitizes candidate text for terminal rendering. Provider
// titles can carry anything the underlying source held (clipboard
// entries especially), so escape sequences are stripped and invalid
// UTF-8 is replaced before the text reaches the screen.
func Display(s string) string {
	return validUTF8(ansiRE.ReplaceAllString(s, ""))
}

func validUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size <= 1 {
			b.WriteRune(utf8.RuneError)
			i++
		} else {
			b.WriteRune(r)
			i += size
		}
	}
	return b.String()
}

// MiddleTruncate shortens s to maxWidth display columns by replacing
// its middle with an ellipsis. Width-aware, so CJK characters and
// emoji that occupy two columns are handled correctly. Below three
// columns there is no room for head + ellipsis + tail, so the string
// is cut from the right instead.
func MiddleTruncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}

	const ellipsis = "…"
	if maxWidth < 3 {
		return truncateToWidth(s, maxWidth)
	}

	remaining := maxWidth - 1
	head := truncateToWidth(s, (remaining+1)/2)
	tail := truncateRightToWidth(s, remaining/2)
	return head + ellipsis + tail
}

// truncateToWidth returns the longest prefix of s within maxWidth
// display columns.
func truncateToWidth(s string, maxWidth int) string {
	w := 0
	for i, r := range s {
		rw := runewidth.RuneWidth(r)
		if w+rw > maxWidth {
			return s[:i]
		}
		w += rw
	}
	return s
}

// truncateRightToWidth returns the longest suffix of s within maxWidth
// display columns.
func truncateRightToWidth(s string, maxWidth int) string {
	runes := []rune(s)
	w := 0
	start := len(runes)
	for i := len(runes) - 1; i >= 0; i-- {
		rw := runewidth.RuneWidth(runes[i])
		if w+rw > maxWidth {
			break
		}
		w += rw
		start = i
	}
	return string(runes[start:])
}
