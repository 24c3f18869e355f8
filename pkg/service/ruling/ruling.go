package ruling

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/darbolex/pkg/domain/model"
)

const (
	// DefaultSubsectionLabel is the employment-law subsection of the Supreme Court bulletin
	DefaultSubsectionLabel = "Bylos, kilusios iš darbo teisinių santykių"

	// DefaultCaseMarker starts every case summary in the bulletin
	DefaultCaseMarker = "Dėl"

	DefaultMinCaseChars = 100

	summaryChars = 400
)

// DefaultSiblingHeadings are the other top-level sections and subsections of the bulletin.
// The employment-law subsection ends where the first of them begins.
var DefaultSiblingHeadings = []string{
	"CIVILINĖS BYLOS",
	"BAUDŽIAMOSIOS BYLOS",
	"ADMINISTRACINIŲ NUSIŽENGIMŲ BYLOS",
	"PROCESO TEISĖS KLAUSIMAI",
	"Bylos, kilusios iš prievolinių teisinių santykių",
	"Bylos, kilusios iš sutartinių teisinių santykių",
	"Bylos, kilusios iš nesutartinių teisinių santykių",
	"Bylos, kilusios iš daiktinių teisinių santykių",
	"Bylos, kilusios iš šeimos teisinių santykių",
	"Bylos, kilusios iš paveldėjimo teisinių santykių",
	"Bylos, kilusios iš intelektinės nuosavybės teisinių santykių",
	"Bylos, kilusios iš bankroto ir restruktūrizavimo teisinių santykių",
	"Bylos dėl proceso teisės normų taikymo",
}

var ErrSubsectionNotFound = goerr.New("subsection heading not found")

var (
	// Docket numbers: e3K-3-99/2021, 3K-3-123-701/2020, eA-1234-442/2019
	caseNumberPattern = regexp.MustCompile(`\be?\d?[A-Z]{1,2}(?:-\d{1,4}){1,3}/\d{4}\b`)

	tocRestPattern = regexp.MustCompile(`^[ \t]*(?:(?:\.{2,}|…+)[ \t.…]*\d*|\d+)[ \t]*$`)
	leaderDots     = regexp.MustCompile(`[ \t]*(?:\.{4,}|…{2,})[ \t]*`)
	pageNumberLine = regexp.MustCompile(`(?m)^[ \t]*\d{1,4}[ \t]*$\n?`)
	blankLineRun   = regexp.MustCompile(`\n{3,}`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
)

// Segmenter isolates one subsection of a bulletin and splits it into cases
type Segmenter struct {
	label        string
	siblings     []string
	caseMarker   string
	minCaseChars int

	headingPattern  *regexp.Regexp
	siblingPatterns []*regexp.Regexp
	markerPattern   *regexp.Regexp
}

// Option configures a Segmenter
type Option func(*Segmenter)

// WithSiblingHeadings replaces the headings that terminate the subsection
func WithSiblingHeadings(headings ...string) Option {
	return func(s *Segmenter) {
		s.siblings = headings
	}
}

// WithCaseMarker sets the word that starts every case heading
func WithCaseMarker(marker string) Option {
	return func(s *Segmenter) {
		s.caseMarker = marker
	}
}

// WithMinCaseChars sets the minimum length of a case in runes
func WithMinCaseChars(n int) Option {
	return func(s *Segmenter) {
		s.minCaseChars = n
	}
}

// New creates a Segmenter for the subsection titled label. An empty label selects
// DefaultSubsectionLabel.
func New(label string, opts ...Option) *Segmenter {
	if label == "" {
		label = DefaultSubsectionLabel
	}
	s := &Segmenter{
		label:        label,
		siblings:     DefaultSiblingHeadings,
		caseMarker:   DefaultCaseMarker,
		minCaseChars: DefaultMinCaseChars,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.headingPattern = regexp.MustCompile(`(?im)^[ \t]*` + regexp.QuoteMeta(s.label) + `([^\n]*)$`)
	for _, heading := range s.siblings {
		if strings.EqualFold(heading, s.label) {
			continue
		}
		s.siblingPatterns = append(s.siblingPatterns,
			regexp.MustCompile(`(?im)^[ \t]*` + regexp.QuoteMeta(heading) + `[ \t]*$`))
	}
	s.markerPattern = regexp.MustCompile(`(?m)^[ \t]*` + regexp.QuoteMeta(s.caseMarker) + `[ \t]`)

	return s
}

// Label returns the subsection label the segmenter looks for
func (s *Segmenter) Label() string {
	return s.label
}

// Isolate returns the cleaned text of the subsection, from its real heading to the next
// sibling heading or the end of the document.
func (s *Segmenter) Isolate(text string) (string, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	start, bodyStart, ok := s.findHeading(text)
	if !ok {
		return "", goerr.Wrap(ErrSubsectionNotFound, "no real subsection heading",
			goerr.V("label", s.label))
	}

	end := len(text)
	if idx := s.findSibling(text[bodyStart:]); idx >= 0 {
		end = bodyStart + idx
	}

	return cleanSpan(text[start:end]), nil
}

// findHeading returns the offset of the first heading occurrence that is not a table of
// contents entry, together with the offset right after that heading line. PDF extraction
// often moves the page number of a contents entry onto its own line, so the next
// non-empty line is checked as well.
func (s *Segmenter) findHeading(text string) (int, int, bool) {
	for _, m := range s.headingPattern.FindAllStringSubmatchIndex(text, -1) {
		if IsTOCEntry(text[m[2]:m[3]]) {
			continue
		}
		if strings.TrimSpace(text[m[2]:m[3]]) == "" && IsTOCEntry(nextNonEmptyLine(text[m[1]:])) {
			continue
		}
		return m[0], m[1], true
	}
	return 0, 0, false
}

func nextNonEmptyLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}

func (s *Segmenter) findSibling(text string) int {
	first := -1
	for _, pattern := range s.siblingPatterns {
		loc := pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if first < 0 || loc[0] < first {
			first = loc[0]
		}
	}
	return first
}

// IsTOCEntry reports whether the rest of a heading line marks a table of contents entry:
// leader dots, optionally followed by a page number, or a bare page number.
func IsTOCEntry(rest string) bool {
	if strings.TrimSpace(rest) == "" {
		return false
	}
	return tocRestPattern.MatchString(rest)
}

func cleanSpan(s string) string {
	s = leaderDots.ReplaceAllString(s, " ")
	s = pageNumberLine.ReplaceAllString(s, "")
	s = blankLineRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Split divides an isolated subsection into cases at every line starting with the case
// marker. Text before the first marker is an introduction and is not a case, unless the
// subsection has no marker at all. The second value counts parts dropped for being shorter
// than the minimum.
func (s *Segmenter) Split(subsection string, source model.DocumentSlug) ([]*model.Case, int) {
	locs := s.markerPattern.FindAllStringIndex(subsection, -1)

	var parts []string
	if len(locs) == 0 {
		parts = []string{subsection}
	}
	for i, loc := range locs {
		end := len(subsection)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		parts = append(parts, subsection[loc[0]:end])
	}

	var cases []*model.Case
	dropped := 0
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if utf8.RuneCountInString(part) < s.minCaseChars {
			if part != "" {
				dropped++
			}
			continue
		}

		title, rest, _ := strings.Cut(part, "\n")
		cases = append(cases, &model.Case{
			CaseNumber:     ExtractCaseNumber(part),
			Title:          strings.TrimSpace(title),
			RawContent:     part,
			Summary:        summarize(rest),
			SourceDocument: source,
			Sequence:       len(cases),
		})
	}
	return cases, dropped
}

// Segment isolates the subsection and splits it into cases. The second value is the
// number of parts dropped by Split.
func (s *Segmenter) Segment(text string, source model.DocumentSlug) ([]*model.Case, int, error) {
	subsection, err := s.Isolate(text)
	if err != nil {
		return nil, 0, err
	}
	cases, dropped := s.Split(subsection, source)
	return cases, dropped, nil
}

// ExtractCaseNumber returns the last docket number in text, or "" when there is none.
func ExtractCaseNumber(text string) string {
	matches := caseNumberPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1]
}

func summarize(s string) string {
	s = strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
	return model.TruncateRunes(s, summaryChars)
}
