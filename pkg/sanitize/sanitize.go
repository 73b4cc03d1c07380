// Package sanitize neutralizes untrusted spreadsheet cell text before it is
// rendered in the terminal. Article titles and log fields come straight from
// uploaded workbooks; a crafted cell can smuggle ANSI escapes or control
// characters into the TUI.
package sanitize

import (
	"strings"
	"unicode/utf8"
)

const DefaultMaxDisplayLength = 256

// String sanitizes s for terminal display and truncates it to maxLen runes.
// Truncation is rune-based: Korean cell text must never be cut mid-rune.
func String(s string, maxLen int) string {
	sanitized := SanitizeForTerminal(s)

	if maxLen <= 0 || utf8.RuneCountInString(sanitized) <= maxLen {
		return sanitized
	}

	runes := []rune(sanitized)
	if maxLen > 3 {
		return string(runes[:maxLen-3]) + "..."
	}
	return string(runes[:maxLen])
}

func SanitizeForTerminal(s string) string {
	if s == "" {
		return s
	}

	needsSanitization := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c == 0x7F || c == 0x1B {
			needsSanitization = true
			break
		}
	}

	if !needsSanitization {
		return s
	}

	var result strings.Builder
	result.Grow(len(s))

	i := 0
	for i < len(s) {
		c := s[i]

		if c == 0x1B && i+1 < len(s) {
			i++
			if i < len(s) && s[i] == '[' {
				i++
				for i < len(s) && !isCSITerminator(s[i]) {
					i++
				}
				if i < len(s) {
					i++
				}
			}
			result.WriteString("[ESC]")
			continue
		}

		switch {
		case c == '\t':
			result.WriteByte(' ')
		case c == '\n':
			result.WriteByte(' ')
		case c == '\r':
			result.WriteString("[CR]")
		case c < 0x20:
			result.WriteString("[CTRL]")
		case c == 0x7F:
			result.WriteString("[DEL]")
		default:
			// Multi-byte UTF-8 sequences pass through byte by byte.
			result.WriteByte(c)
		}
		i++
	}

	return result.String()
}

func isCSITerminator(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '@' || c == '`'
}
