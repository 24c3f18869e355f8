package interfaces

import (
	"context"
	"regexp"

	"github.com/secmon-lab/darbolex/pkg/domain/model"
)

// SourceLoader turns corpus entries into fetched documents
type SourceLoader interface {
	// Load fetches the entry's location and returns its extracted text
	Load(ctx context.Context, entry *model.CorpusEntry) (*model.Document, error)

	// Crawl walks a paginated listing and returns the links matching pattern
	Crawl(ctx context.Context, listingURL string, pattern *regexp.Regexp, maxPages int) ([]string, error)
}
