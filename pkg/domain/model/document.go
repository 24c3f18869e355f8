package model

import (
	"strings"
	"time"
	"unicode"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SourceType is the layout family of a source document
type SourceType string

const (
	SourceTypeStatute    SourceType = "statute"
	SourceTypeRuling     SourceType = "ruling"
	SourceTypeResolution SourceType = "resolution"
	SourceTypeFAQ        SourceType = "faq"
	SourceTypeWebPage    SourceType = "web-page"
)

// ErrInvalidSourceType is returned for unknown source type strings
var ErrInvalidSourceType = goerr.New("invalid source type")

// Validate checks that t is one of the known source types
func (t SourceType) Validate() error {
	switch t {
	case SourceTypeStatute, SourceTypeRuling, SourceTypeResolution, SourceTypeFAQ, SourceTypeWebPage:
		return nil
	}
	return goerr.Wrap(ErrInvalidSourceType, "unknown source type", goerr.V("type", string(t)))
}

// Structured reports whether documents of this type are parsed into articles
func (t SourceType) Structured() bool {
	return t == SourceTypeStatute || t == SourceTypeResolution
}

// DocumentSlug is the ASCII prefix shared by every vector derived from one document
type DocumentSlug string

// Document is one fetched source unit
type Document struct {
	Slug       DocumentSlug
	SourceType SourceType
	SourceID   string // URL or legal-act identifier
	Title      string
	FetchedAt  time.Time
	RawText    string
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify turns an arbitrary identifier (URL, act title, file name) into a DocumentSlug.
// Lithuanian diacritics are folded to ASCII, everything that is not a letter or digit
// becomes a single dash.
func Slugify(s string) DocumentSlug {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}

	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			sb.WriteRune(r)
			dash = false
		case sb.Len() > 0 && !dash:
			sb.WriteByte('-')
			dash = true
		}
	}

	return DocumentSlug(strings.TrimRight(sb.String(), "-"))
}

// Validate checks that the slug is non-empty ASCII without separators used by ID derivation
// backends (slash is a path separator in Firestore).
func (s DocumentSlug) Validate() error {
	if s == "" {
		return goerr.New("document slug is required")
	}
	for _, r := range string(s) {
		if r > unicode.MaxASCII || r == '/' || unicode.IsSpace(r) {
			return goerr.New("document slug must be ASCII without slashes or spaces", goerr.V("slug", string(s)))
		}
	}
	return nil
}
