package statute

import (
	"regexp"
	"strings"
)

var (
	horizontalSpace = regexp.MustCompile(`[ \t\f\v]+`)
	blankLineRun    = regexp.MustCompile(`\n{3,}`)
	trailingSpace   = regexp.MustCompile(`(?m)[ \t]+$`)
)

// NormalizeText prepares raw statute text for parsing: CRLF and CR become LF, non-breaking
// spaces become spaces, runs of spaces and tabs collapse to one space and three or more
// newlines collapse to a single blank line.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.NewReplacer("\u00a0", " ", "\u202f", " ", "\u2007", " ").Replace(s)
	s = horizontalSpace.ReplaceAllString(s, " ")
	s = trailingSpace.ReplaceAllString(s, "")
	s = blankLineRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

var (
	// "Straipsnio pakeitimai:", "Straipsnio dalies pakeitimai:", "Papildyta straipsnio dalimi:"
	amendmentHeaderPattern = regexp.MustCompile(`(?m)^[ \t]*(?:[\p{L} ]*pakeitimai|Papildyta[\p{L} ]*|Pripažint[\p{L} ]*netekusi[\p{L} ]*)[ \t]*:[ \t]*$\n?`)
	// "Nr. XIII-198, 2017-01-19, paskelbta TAR 2017-01-26, i. k. 2017-01640"
	amendmentCitationPattern = regexp.MustCompile(`(?m)^[ \t]*Nr\.[ \t]*[\dA-Z]+-\d+[^\n]*(?:i\.[ \t]*k\.|paskelbta|Žin\.)[^\n]*$\n?`)
)

// StripAmendments removes amendment-history headers and their citation lines.
func StripAmendments(s string) string {
	s = amendmentHeaderPattern.ReplaceAllString(s, "")
	s = amendmentCitationPattern.ReplaceAllString(s, "")
	return s
}

// cleanBody turns the raw span after an article header into the article body: trailing
// structural headings are cut, amendment noise is removed and blank lines are collapsed.
func cleanBody(raw string) string {
	if idx := nextHeadingOffset(raw); idx >= 0 {
		raw = raw[:idx]
	}
	raw = StripAmendments(raw)
	raw = blankLineRun.ReplaceAllString(raw, "\n\n")
	return strings.TrimSpace(raw)
}
