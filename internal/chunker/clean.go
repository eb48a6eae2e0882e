package chunker

import (
	"regexp"
	"strings"
)

var (
	blankLinesRE = regexp.MustCompile(`\n{3,}`)
	hspaceRE     = regexp.MustCompile(`[ \t]{2,}`)
)

// Clean normalizes extracted document text before chunking: CRLF to LF,
// runs of three or more newlines collapsed to two, repeated horizontal
// whitespace collapsed, non-printable and non-ASCII bytes stripped.
// Stripping non-ASCII is a known limitation for non-Latin resumes.
func Clean(text string) string {
	s := strings.ReplaceAll(text, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if r < 0x20 || r > 0x7e {
			continue
		}
		b.WriteRune(r)
	}
	s = b.String()

	s = blankLinesRE.ReplaceAllString(s, "\n\n")
	s = hspaceRE.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
