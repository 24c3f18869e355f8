package statute

import (
	"regexp"
	"sort"
	"strings"
)

// MarkerKind is the level of a structural heading.
type MarkerKind int

const (
	MarkerPart MarkerKind = iota + 1
	MarkerChapter
	MarkerSection
)

func (k MarkerKind) String() string {
	switch k {
	case MarkerPart:
		return "part"
	case MarkerChapter:
		return "chapter"
	case MarkerSection:
		return "section"
	default:
		return "unknown"
	}
}

// Marker is a structural heading found in a document
type Marker struct {
	Kind   MarkerKind
	Number int
	Title  string
	Offset int
}

var (
	partPattern    = regexp.MustCompile(`(?m)^[ \t]*(\p{Lu}+)[ \t]+DALIS[ \t]*$`)
	chapterPattern = regexp.MustCompile(`(?m)^[ \t]*([IVXLCDM]+)[ \t]+SKYRIUS[ \t]*$`)
	sectionPattern = regexp.MustCompile(`(?m)^[ \t]*(\p{Lu}+)[ \t]+SKIRSNIS[ \t]*$`)
)

type markerFamily struct {
	kind    MarkerKind
	pattern *regexp.Regexp
	resolve func(string) (int, bool)
}

var markerFamilies = []markerFamily{
	{
		kind:    MarkerPart,
		pattern: partPattern,
		resolve: func(s string) (int, bool) { return ordinalValue(feminineOrdinals, s) },
	},
	{
		kind:    MarkerChapter,
		pattern: chapterPattern,
		resolve: romanValue,
	},
	{
		kind:    MarkerSection,
		pattern: sectionPattern,
		resolve: func(s string) (int, bool) { return ordinalValue(masculineOrdinals, s) },
	},
}

// FindMarkers returns every part, chapter and section heading of text ordered by offset.
// Headings whose ordinal or numeral cannot be resolved are ignored.
func FindMarkers(text string) []Marker {
	var markers []Marker

	for _, family := range markerFamilies {
		for _, m := range family.pattern.FindAllStringSubmatchIndex(text, -1) {
			number, ok := family.resolve(text[m[2]:m[3]])
			if !ok {
				continue
			}
			markers = append(markers, Marker{
				Kind:   family.kind,
				Number: number,
				Title:  headingTitle(text, m[1]),
				Offset: m[2],
			})
		}
	}

	sort.SliceStable(markers, func(i, j int) bool {
		return markers[i].Offset < markers[j].Offset
	})
	return markers
}

// headingTitle returns the first non-empty line after pos. A line that is itself a heading or
// an article start is not a title.
func headingTitle(text string, pos int) string {
	rest := text[pos:]
	for rest != "" {
		line, tail, _ := strings.Cut(rest, "\n")
		rest = tail

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if isStructuralLine(line) {
			return ""
		}
		return line
	}
	return ""
}

func isStructuralLine(line string) bool {
	if articleStartPattern.MatchString(line) {
		return true
	}
	for _, family := range markerFamilies {
		if family.pattern.MatchString(line) {
			return true
		}
	}
	return false
}

// nextHeadingOffset returns the offset of the first structural heading in text, or -1.
func nextHeadingOffset(text string) int {
	first := -1
	for _, family := range markerFamilies {
		loc := family.pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if first < 0 || loc[0] < first {
			first = loc[0]
		}
	}
	return first
}
