package statute

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/secmon-lab/darbolex/pkg/domain/model"
)

const (
	DefaultStatuteMaxArticle    = 300
	DefaultResolutionMaxArticle = 500
	DefaultMinBodyChars         = 20
)

var articleStartPattern = regexp.MustCompile(`(?m)^[ \t]*(\d{1,4})[ \t]+straipsnis\.[ \t]*([^\n]*)$`)

// Parser splits consolidated statute text into articles with their structural context.
type Parser struct {
	maxArticle         int
	bodyAnchor         string
	preambleMaxArticle int
	minBodyChars       int
}

// Option configures a Parser
type Option func(*Parser)

// WithMaxArticle sets the highest article number accepted as a real article start.
func WithMaxArticle(n int) Option {
	return func(p *Parser) {
		p.maxArticle = n
	}
}

// WithBodyAnchor marks where the numbered body of the document begins. Article starts before
// the anchor are kept only when their number is at most preambleMax.
func WithBodyAnchor(anchor string, preambleMax int) Option {
	return func(p *Parser) {
		p.bodyAnchor = anchor
		p.preambleMaxArticle = preambleMax
	}
}

// WithMinBodyChars sets the minimum cleaned body length in runes.
func WithMinBodyChars(n int) Option {
	return func(p *Parser) {
		p.minBodyChars = n
	}
}

// New creates a Parser with the statute defaults.
func New(opts ...Option) *Parser {
	p := &Parser{
		maxArticle:   DefaultStatuteMaxArticle,
		minBodyChars: DefaultMinBodyChars,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stats counts article candidates dropped at each stage of Parse.
type Stats struct {
	Candidates        int
	Noise             int
	OutOfRange        int
	PreambleDiscarded int
	Duplicates        int
	TooShort          int
}

// Dropped is the number of candidates that did not become articles.
func (s Stats) Dropped() int {
	return s.Noise + s.OutOfRange + s.PreambleDiscarded + s.Duplicates + s.TooShort
}

// ParseResult is the output of Parse
type ParseResult struct {
	Articles []*model.Article
	Stats    Stats
}

type articleStart struct {
	number    int
	title     string
	offset    int
	headerEnd int
}

// Parse extracts articles from normalized text. Text without any recognizable article start
// yields an empty result, not an error.
func (p *Parser) Parse(text string) *ParseResult {
	result := &ParseResult{}
	starts := p.retainedStarts(text, &result.Stats)
	markers := FindMarkers(text)

	for i, start := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1].offset
		}

		body := cleanBody(text[start.headerEnd:end])
		if utf8.RuneCountInString(body) < p.minBodyChars {
			result.Stats.TooShort++
			continue
		}

		article := &model.Article{
			Number:          start.number,
			Title:           start.title,
			BodyText:        body,
			CrossReferences: ExtractCrossReferences(body, start.number, p.maxArticle),
			Start:           start.offset,
			End:             end,
		}
		assignHierarchy(article, markers)
		result.Articles = append(result.Articles, article)
	}

	return result
}

func (p *Parser) retainedStarts(text string, stats *Stats) []articleStart {
	bodyStart := -1
	if p.bodyAnchor != "" {
		bodyStart = strings.Index(text, p.bodyAnchor)
	}

	seen := make(map[int]struct{})
	var starts []articleStart

	for _, m := range articleStartPattern.FindAllStringSubmatchIndex(text, -1) {
		stats.Candidates++

		number, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil || number < 1 || number > p.maxArticle {
			stats.OutOfRange++
			continue
		}

		title := strings.TrimSpace(text[m[4]:m[5]])
		if startsWithPunct(title) {
			stats.Noise++
			continue
		}

		if bodyStart >= 0 && m[2] < bodyStart && number > p.preambleMaxArticle {
			stats.PreambleDiscarded++
			continue
		}

		if _, ok := seen[number]; ok {
			stats.Duplicates++
			continue
		}
		seen[number] = struct{}{}

		starts = append(starts, articleStart{
			number:    number,
			title:     title,
			offset:    m[2],
			headerEnd: m[1],
		})
	}

	return starts
}

func startsWithPunct(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r != utf8.RuneError && unicode.IsPunct(r)
}

func assignHierarchy(article *model.Article, markers []Marker) {
	var part, chapter, section *Marker
	for i := range markers {
		m := &markers[i]
		if m.Offset >= article.Start {
			break
		}
		switch m.Kind {
		case MarkerPart:
			part = m
		case MarkerChapter:
			chapter = m
		case MarkerSection:
			section = m
		}
	}

	// Section numbering restarts in every chapter.
	if section != nil && chapter != nil && section.Offset < chapter.Offset {
		section = nil
	}

	if part != nil {
		article.PartNumber = part.Number
		article.PartTitle = part.Title
	}
	if chapter != nil {
		article.ChapterNumber = chapter.Number
		article.ChapterTitle = chapter.Title
	}
	if section != nil {
		article.SectionNumber = section.Number
		article.SectionTitle = section.Title
	}
}
