package usecase

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/darbolex/pkg/domain/model"
	"github.com/secmon-lab/darbolex/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// RetrievalResult is the output of one hybrid retrieval
type RetrievalResult struct {
	Query          string
	ArticleNumbers []int
	Passages       []*model.Passage
	// NoSources is set when neither direct lookup nor semantic search found anything
	NoSources bool
}

// RetrieveOptions narrows one retrieval
type RetrieveOptions struct {
	// DocType restricts semantic search to one source type; empty searches everything
	DocType model.SourceType
}

// RetrievalUseCase merges direct article lookup with semantic search
type RetrievalUseCase struct {
	*UseCases
}

// NewRetrievalUseCase creates a new RetrievalUseCase instance
func NewRetrievalUseCase(uc *UseCases) *RetrievalUseCase {
	return &RetrievalUseCase{UseCases: uc}
}

// Retrieve runs relevance extraction and semantic search in parallel, fetches the named
// articles by ID and merges both lists. Relevance failures fall back to pure semantic
// search; vector index failures are returned.
func (uc *RetrievalUseCase) Retrieve(ctx context.Context, query string, opts RetrieveOptions) (*RetrievalResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, goerr.Wrap(ErrEmptyQuery, "cannot retrieve")
	}
	if uc.embedder == nil {
		return nil, goerr.Wrap(ErrEmbedderNotConfigured, "cannot retrieve")
	}

	var (
		numbers []int
		matches []*model.Match
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		numbers = uc.articleNumbers(egCtx, query)
		return nil
	})
	eg.Go(func() error {
		vec, err := uc.embedder.Embed(egCtx, query)
		if err != nil {
			return goerr.Wrap(err, "failed to embed query")
		}

		var filter *model.QueryFilter
		if opts.DocType != "" {
			filter = &model.QueryFilter{DocType: opts.DocType}
		}
		matches, err = uc.index.Query(egCtx, vec, uc.topK, filter)
		if err != nil {
			return goerr.Wrap(err, "failed to query vector index", goerr.V("topK", uc.topK))
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	direct, err := uc.fetchArticles(ctx, numbers)
	if err != nil {
		return nil, err
	}

	passages := MergePassages(direct, matches, uc.maxPassages)
	logging.From(ctx).Info("Retrieval finished",
		slog.Any("article_numbers", numbers),
		slog.Int("direct", len(direct)),
		slog.Int("semantic", len(matches)),
		slog.Int("passages", len(passages)),
	)

	return &RetrievalResult{
		Query:          query,
		ArticleNumbers: numbers,
		Passages:       passages,
		NoSources:      len(passages) == 0,
	}, nil
}

func (uc *RetrievalUseCase) articleNumbers(ctx context.Context, query string) []int {
	if uc.relevance == nil {
		return nil
	}
	numbers, err := uc.relevance.ArticleNumbers(ctx, query)
	if err != nil {
		logging.From(ctx).Warn("Relevance extraction failed, using semantic search only",
			slog.Any("error", err))
		return nil
	}
	return numbers
}

// fetchArticles looks up the statute articles by ID, preserving the order of numbers.
// Articles that are not indexed are skipped.
func (uc *RetrievalUseCase) fetchArticles(ctx context.Context, numbers []int) ([]*model.Passage, error) {
	if len(numbers) == 0 {
		return nil, nil
	}

	ids := make([]model.VectorID, len(numbers))
	for i, n := range numbers {
		ids[i] = model.ArticleVectorID(uc.statuteSlug, n)
	}

	found, err := uc.index.Fetch(ctx, ids)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch articles by ID", goerr.V("ids", ids))
	}

	passages := make([]*model.Passage, 0, len(found))
	for _, id := range ids {
		if v, ok := found[id]; ok {
			passages = append(passages, model.NewPassage(v, model.DirectMatchScore, true))
		}
	}
	return passages, nil
}

// MergePassages returns direct passages in their given order followed by semantic matches
// by descending score, without duplicate IDs and capped at limit.
func MergePassages(direct []*model.Passage, semantic []*model.Match, limit int) []*model.Passage {
	if limit < 0 {
		limit = 0
	}

	ranked := make([]*model.Match, len(semantic))
	copy(ranked, semantic)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	seen := make(map[model.VectorID]struct{}, len(direct)+len(ranked))
	merged := make([]*model.Passage, 0, min(limit, len(direct)+len(ranked)))

	for _, p := range direct {
		if len(merged) == limit {
			return merged
		}
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		merged = append(merged, p)
	}

	for i := range ranked {
		if len(merged) == limit {
			break
		}
		m := ranked[i]
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		merged = append(merged, model.NewPassage(&m.IndexedVector, m.Score, false))
	}

	return merged
}
