package usecase_test

import (
	"context"
	"crypto/sha256"
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/secmon-lab/darbolex/pkg/domain/interfaces"
	"github.com/secmon-lab/darbolex/pkg/domain/model"
)

// mockEmbedder derives a small deterministic vector from the input text
type mockEmbedder struct {
	mu      sync.Mutex
	calls   int
	failOn  string
	vectors map[string][]float32
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.failOn != "" && strings.Contains(text, m.failOn) {
		return nil, errors.New("embedding quota exceeded")
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}

	sum := sha256.Sum256([]byte(text))
	v := make([]float32, 4)
	for i := range v {
		v[i] = float32(sum[i]) + 1
	}
	return v, nil
}

func (m *mockEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockRelevance struct {
	numbers []int
	err     error
}

func (m *mockRelevance) ArticleNumbers(ctx context.Context, query string) ([]int, error) {
	return m.numbers, m.err
}

type mockLoader struct {
	docs     map[string]*model.Document
	links    []string
	crawlErr error
}

func (m *mockLoader) Load(ctx context.Context, entry *model.CorpusEntry) (*model.Document, error) {
	doc, ok := m.docs[entry.Location]
	if !ok {
		return nil, errors.New("404 not found")
	}
	copied := *doc
	copied.Slug = entry.Slug
	copied.SourceType = entry.SourceType
	copied.SourceID = entry.Location
	if entry.Title != "" {
		copied.Title = entry.Title
	}
	return &copied, nil
}

func (m *mockLoader) Crawl(ctx context.Context, listingURL string, pattern *regexp.Regexp, maxPages int) ([]string, error) {
	var links []string
	for _, l := range m.links {
		if pattern.MatchString(l) {
			links = append(links, l)
		}
	}
	return links, m.crawlErr
}

type mockNotifier struct {
	reports [][]*model.IngestReport
}

func (m *mockNotifier) NotifyIngest(ctx context.Context, reports []*model.IngestReport) error {
	m.reports = append(m.reports, reports)
	return nil
}

type mockArchive struct {
	saved []model.DocumentSlug
}

func (m *mockArchive) Save(ctx context.Context, doc *model.Document) (string, error) {
	m.saved = append(m.saved, doc.Slug)
	return "gs://test/" + string(doc.Slug), nil
}

// flakyIndex wraps a VectorIndex and fails the first upsertFailures Upsert calls
type flakyIndex struct {
	interfaces.VectorIndex
	upsertFailures int
	upsertCalls    int
	queryErr       error
	fetchErr       error
	batchLimit     int
}

func (f *flakyIndex) Upsert(ctx context.Context, vectors []*model.IndexedVector) error {
	f.upsertCalls++
	if f.upsertFailures != 0 {
		f.upsertFailures--
		return errors.New("index unavailable")
	}
	return f.VectorIndex.Upsert(ctx, vectors)
}

func (f *flakyIndex) Query(ctx context.Context, vector []float32, topK int, filter *model.QueryFilter) ([]*model.Match, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.VectorIndex.Query(ctx, vector, topK, filter)
}

func (f *flakyIndex) Fetch(ctx context.Context, ids []model.VectorID) (map[model.VectorID]*model.IndexedVector, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.VectorIndex.Fetch(ctx, ids)
}

func (f *flakyIndex) BatchLimit() int {
	if f.batchLimit > 0 {
		return f.batchLimit
	}
	return f.VectorIndex.BatchLimit()
}
