package model

import (
	"path"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// SourceFormat tells the loader how to turn fetched bytes into text
type SourceFormat string

const (
	SourceFormatText   SourceFormat = "text"
	SourceFormatPDF    SourceFormat = "pdf"
	SourceFormatHTML   SourceFormat = "html"
	SourceFormatNotion SourceFormat = "notion"
)

// NotionScheme prefixes locations that name a Notion page ID
const NotionScheme = "notion:"

var ErrInvalidCorpusEntry = goerr.New("invalid corpus entry")

// ParserOptions tunes the structural parser for one document
type ParserOptions struct {
	MaxArticle         int    `toml:"max_article"`
	BodyAnchor         string `toml:"body_anchor"`
	PreambleMaxArticle int    `toml:"preamble_max_article"`
	MinBodyChars       int    `toml:"min_body_chars"`
}

// RulingOptions tunes case segmentation for one bulletin
type RulingOptions struct {
	SubsectionLabel string   `toml:"subsection_label"`
	SiblingHeadings []string `toml:"sibling_headings"`
	CaseMarker      string   `toml:"case_marker"`
	MinCaseChars    int      `toml:"min_case_chars"`
}

// CorpusEntry describes one document (or one listing of documents) to ingest
type CorpusEntry struct {
	Slug       DocumentSlug `toml:"slug"`
	SourceType SourceType   `toml:"source_type"`
	Location   string       `toml:"location"`
	Title      string       `toml:"title"`
	Format     SourceFormat `toml:"format"`

	// A listing entry is expanded into one document per linked file
	ListingURL  string `toml:"listing_url"`
	LinkPattern string `toml:"link_pattern"`
	MaxPages    int    `toml:"max_pages"`

	Parser ParserOptions `toml:"parser"`
	Ruling RulingOptions `toml:"ruling"`
}

// IsListing reports whether the entry names a paginated listing instead of one document
func (e *CorpusEntry) IsListing() bool {
	return e.ListingURL != ""
}

// Validate checks the entry for required fields and consistent options
func (e *CorpusEntry) Validate() error {
	if err := e.Slug.Validate(); err != nil {
		return goerr.Wrap(ErrInvalidCorpusEntry, err.Error(), goerr.V("slug", string(e.Slug)))
	}
	if err := e.SourceType.Validate(); err != nil {
		return goerr.Wrap(ErrInvalidCorpusEntry, err.Error(), goerr.V("slug", string(e.Slug)))
	}

	switch {
	case e.Location == "" && e.ListingURL == "":
		return goerr.Wrap(ErrInvalidCorpusEntry, "either location or listing_url is required",
			goerr.V("slug", string(e.Slug)))
	case e.Location != "" && e.ListingURL != "":
		return goerr.Wrap(ErrInvalidCorpusEntry, "location and listing_url are exclusive",
			goerr.V("slug", string(e.Slug)))
	}

	if e.IsListing() {
		if e.LinkPattern == "" {
			return goerr.Wrap(ErrInvalidCorpusEntry, "link_pattern is required for listing",
				goerr.V("slug", string(e.Slug)))
		}
		if _, err := regexp.Compile(e.LinkPattern); err != nil {
			return goerr.Wrap(ErrInvalidCorpusEntry, "invalid link_pattern",
				goerr.V("slug", string(e.Slug)),
				goerr.V("pattern", e.LinkPattern))
		}
	}

	switch e.Format {
	case "", SourceFormatText, SourceFormatPDF, SourceFormatHTML, SourceFormatNotion:
	default:
		return goerr.Wrap(ErrInvalidCorpusEntry, "unknown format",
			goerr.V("slug", string(e.Slug)),
			goerr.V("format", string(e.Format)))
	}

	if e.Parser.MaxArticle < 0 || e.Parser.PreambleMaxArticle < 0 || e.Parser.MinBodyChars < 0 {
		return goerr.Wrap(ErrInvalidCorpusEntry, "parser options must not be negative",
			goerr.V("slug", string(e.Slug)))
	}

	return nil
}

// ResolvedFormat returns the configured format or guesses it from the location
func (e *CorpusEntry) ResolvedFormat() SourceFormat {
	if e.Format != "" {
		return e.Format
	}
	return DetectFormat(e.Location)
}

// DetectFormat guesses the format of a location from its scheme and extension
func DetectFormat(location string) SourceFormat {
	if strings.HasPrefix(location, NotionScheme) {
		return SourceFormatNotion
	}

	p := location
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".pdf":
		return SourceFormatPDF
	case ".html", ".htm":
		return SourceFormatHTML
	case ".txt":
		return SourceFormatText
	}

	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return SourceFormatHTML
	}
	return SourceFormatText
}

// linkHashLen is the number of hex digits of the link hash appended to listed slugs
const linkHashLen = 8

// ListedEntry derives the entry of one document found on a listing page. Everything but
// the identity is inherited from the listing entry. The slug carries a short hash of the
// full link because file names repeat across folders and query-string downloads.
func (e *CorpusEntry) ListedEntry(link string) *CorpusEntry {
	child := *e
	child.ListingURL = ""
	child.LinkPattern = ""
	child.MaxPages = 0
	child.Location = link
	child.Format = ""

	p := link
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	name := strings.TrimSuffix(path.Base(p), path.Ext(p))
	child.Slug = DocumentSlug(string(e.Slug) + "-" + string(Slugify(name)) + "-" + ContentHash(link)[:linkHashLen])
	child.Title = strings.TrimSpace(e.Title + " " + name)
	return &child
}
