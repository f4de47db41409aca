// Package text turns raw generated text into note-ready formatting.
package text

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	excessNewlines = regexp.MustCompile(`\n{3,}`)
	bulletLine     = regexp.MustCompile(`^[*•-][ \t]`)
	headingLine    = regexp.MustCompile(`^#{1,6}[ \t]`)
)

// Normalize is pure and total. Every step is idempotent, so
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = excessNewlines.ReplaceAllString(s, "\n\n")
	s = spaceBlocks(s)

	return strings.TrimRightFunc(s, unicode.IsSpace)
}

// spaceBlocks puts one blank line before headings and before the first item
// of a list. Items that directly follow another item stay a tight list.
func spaceBlocks(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines)+8)

	for i, line := range lines {
		if i == 0 {
			out = append(out, line)
			continue
		}
		prev := out[len(out)-1]
		if needsGap(prev, line) {
			out = append(out, "")
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func needsGap(prev, line string) bool {
	if strings.TrimSpace(prev) == "" {
		return false
	}
	if headingLine.MatchString(line) {
		return true
	}
	if bulletLine.MatchString(line) {
		return !bulletLine.MatchString(prev)
	}
	return false
}
