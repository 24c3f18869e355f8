package usecase

import (
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/darbolex/pkg/domain/interfaces"
	"github.com/secmon-lab/darbolex/pkg/domain/model"
	"github.com/secmon-lab/darbolex/pkg/service/chunker"
	"github.com/secmon-lab/darbolex/pkg/service/embedding"
	"github.com/secmon-lab/darbolex/pkg/service/relevance"
)

const (
	DefaultUpsertBatchSize = 100
	DefaultUpsertMaxTries  = 3
	DefaultTopK            = 10
	DefaultMaxPassages     = 12
	DefaultStatuteSlug     = model.DocumentSlug("darbo-kodeksas")
)

type UseCases struct {
	index     interfaces.VectorIndex
	embedder  embedding.Service
	relevance relevance.Service
	loader    interfaces.SourceLoader
	archive   interfaces.SourceArchive
	notifier  interfaces.Notifier
	chunker   *chunker.Chunker

	statuteSlug     model.DocumentSlug
	upsertBatchSize int
	upsertMaxTries  uint
	newBackOff      func() backoff.BackOff
	topK            int
	maxPassages     int
	now             func() time.Time

	Ingest   *IngestUseCase
	Retrieve *RetrievalUseCase
}

type Option func(*UseCases)

// WithRelevance enables direct article lookup in retrieval
func WithRelevance(svc relevance.Service) Option {
	return func(uc *UseCases) {
		uc.relevance = svc
	}
}

// WithLoader sets the source loader used by ingestion
func WithLoader(loader interfaces.SourceLoader) Option {
	return func(uc *UseCases) {
		uc.loader = loader
	}
}

// WithArchive stores a snapshot of every loaded document
func WithArchive(archive interfaces.SourceArchive) Option {
	return func(uc *UseCases) {
		uc.archive = archive
	}
}

// WithNotifier posts ingestion reports after each run
func WithNotifier(notifier interfaces.Notifier) Option {
	return func(uc *UseCases) {
		uc.notifier = notifier
	}
}

// WithChunker replaces the default chunker
func WithChunker(c *chunker.Chunker) Option {
	return func(uc *UseCases) {
		uc.chunker = c
	}
}

// WithStatuteSlug sets the document whose articles are fetched by number in retrieval
func WithStatuteSlug(slug model.DocumentSlug) Option {
	return func(uc *UseCases) {
		uc.statuteSlug = slug
	}
}

// WithUpsertBatchSize sets how many vectors are written per request
func WithUpsertBatchSize(n int) Option {
	return func(uc *UseCases) {
		uc.upsertBatchSize = n
	}
}

// WithUpsertRetry sets the attempts and the pause between attempts of one upsert batch
func WithUpsertRetry(maxTries uint, interval time.Duration) Option {
	return func(uc *UseCases) {
		uc.upsertMaxTries = maxTries
		uc.newBackOff = func() backoff.BackOff { return backoff.NewConstantBackOff(interval) }
	}
}

// WithTopK sets the number of semantic neighbours requested per query
func WithTopK(k int) Option {
	return func(uc *UseCases) {
		uc.topK = k
	}
}

// WithMaxPassages caps the merged retrieval result
func WithMaxPassages(n int) Option {
	return func(uc *UseCases) {
		uc.maxPassages = n
	}
}

// WithClock replaces time.Now for report and index timestamps
func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(index interfaces.VectorIndex, embedder embedding.Service, opts ...Option) (*UseCases, error) {
	uc := &UseCases{
		index:           index,
		embedder:        embedder,
		statuteSlug:     DefaultStatuteSlug,
		upsertBatchSize: DefaultUpsertBatchSize,
		upsertMaxTries:  DefaultUpsertMaxTries,
		newBackOff:      func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		topK:            DefaultTopK,
		maxPassages:     DefaultMaxPassages,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.index == nil {
		return nil, goerr.New("vector index is required")
	}
	if uc.topK <= 0 || uc.maxPassages <= 0 {
		return nil, goerr.New("topK and maxPassages must be positive",
			goerr.V("topK", uc.topK),
			goerr.V("maxPassages", uc.maxPassages))
	}

	if uc.chunker == nil {
		c, err := chunker.New()
		if err != nil {
			return nil, err
		}
		uc.chunker = c
	}

	uc.Ingest = NewIngestUseCase(uc)
	uc.Retrieve = NewRetrievalUseCase(uc)

	return uc, nil
}
