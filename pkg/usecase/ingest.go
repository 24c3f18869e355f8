package usecase

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/darbolex/pkg/domain/model"
	"github.com/secmon-lab/darbolex/pkg/service/embedding"
	"github.com/secmon-lab/darbolex/pkg/service/ruling"
	"github.com/secmon-lab/darbolex/pkg/service/statute"
	"github.com/secmon-lab/darbolex/pkg/utils/errutil"
	"github.com/secmon-lab/darbolex/pkg/utils/logging"
)

// IngestOptions controls one ingestion run
type IngestOptions struct {
	Mode   model.IngestMode
	DryRun bool
}

// IngestUseCase turns corpus documents into indexed vectors
type IngestUseCase struct {
	*UseCases
}

// NewIngestUseCase creates a new IngestUseCase instance
func NewIngestUseCase(uc *UseCases) *IngestUseCase {
	return &IngestUseCase{UseCases: uc}
}

// unit is one embeddable piece of a document with its deterministic ID
type unit struct {
	id       model.VectorID
	input    string
	metadata model.VectorMetadata
}

// Run loads every corpus entry, expanding listings, and ingests the resulting documents.
// A document that cannot be loaded or indexed is logged and skipped; the returned error then
// wraps ErrDocumentFailed with the failed slugs while the reports of the others are kept.
func (uc *IngestUseCase) Run(ctx context.Context, entries []*model.CorpusEntry, opts IngestOptions) ([]*model.IngestReport, error) {
	if uc.loader == nil {
		return nil, goerr.Wrap(ErrLoaderNotConfigured, "cannot run ingestion")
	}

	runID := model.NewRunID()
	logger := logging.From(ctx).With(slog.String("run_id", string(runID)))
	ctx = logging.With(ctx, logger)

	docs := uc.expandListings(ctx, entries)
	logger.Info("Ingestion started",
		slog.Int("documents", len(docs)),
		slog.String("mode", string(opts.Mode)),
		slog.Bool("dry_run", opts.DryRun),
	)

	var reports []*model.IngestReport
	var failed []string
	for _, entry := range docs {
		report, err := uc.ingestEntry(ctx, entry, opts)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return reports, goerr.Wrap(ctxErr, "ingestion interrupted", goerr.V("slug", string(entry.Slug)))
			}
			_ = errutil.Handle(ctx, err, "Failed to ingest document")
			failed = append(failed, string(entry.Slug))
			continue
		}
		report.RunID = runID
		reports = append(reports, report)
	}

	if uc.notifier != nil && len(reports) > 0 {
		if err := uc.notifier.NotifyIngest(ctx, reports); err != nil {
			_ = errutil.Handle(ctx, err, "Failed to post ingestion report")
		}
	}

	if len(failed) > 0 {
		return reports, goerr.Wrap(ErrDocumentFailed, "some documents were not ingested",
			goerr.V("run_id", string(runID)),
			goerr.V("slugs", failed))
	}
	return reports, nil
}

// expandListings replaces listing entries with one entry per discovered link. An expanded
// entry whose slug is already taken is skipped, since both would write the same vector IDs.
func (uc *IngestUseCase) expandListings(ctx context.Context, entries []*model.CorpusEntry) []*model.CorpusEntry {
	var docs []*model.CorpusEntry
	seen := make(map[model.DocumentSlug]string)
	add := func(entry *model.CorpusEntry) {
		if prev, ok := seen[entry.Slug]; ok {
			_ = errutil.Handle(ctx, goerr.Wrap(ErrDuplicateDocument, "skipping document",
				goerr.V("slug", string(entry.Slug)),
				goerr.V("location", entry.Location),
				goerr.V("taken_by", prev)),
				"Duplicate document slug")
			return
		}
		seen[entry.Slug] = entry.Location
		docs = append(docs, entry)
	}

	for _, entry := range entries {
		if !entry.IsListing() {
			add(entry)
			continue
		}

		pattern, err := regexp.Compile(entry.LinkPattern)
		if err != nil {
			_ = errutil.Handle(ctx, goerr.Wrap(err, "invalid link pattern", goerr.V("slug", string(entry.Slug))),
				"Skipping listing")
			continue
		}

		links, err := uc.loader.Crawl(ctx, entry.ListingURL, pattern, entry.MaxPages)
		if err != nil {
			_ = errutil.Handle(ctx, err, "Failed to crawl listing")
		}
		logging.From(ctx).Info("Listing expanded",
			slog.String("slug", string(entry.Slug)),
			slog.Int("links", len(links)),
		)
		for _, link := range links {
			add(entry.ListedEntry(link))
		}
	}
	return docs
}

func (uc *IngestUseCase) ingestEntry(ctx context.Context, entry *model.CorpusEntry, opts IngestOptions) (*model.IngestReport, error) {
	doc, err := uc.loader.Load(ctx, entry)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load document", goerr.V("slug", string(entry.Slug)))
	}
	doc.RawText = statute.NormalizeText(doc.RawText)

	if uc.archive != nil && !opts.DryRun {
		uri, err := uc.archive.Save(ctx, doc)
		if err != nil {
			_ = errutil.Handle(ctx, err, "Failed to archive source snapshot")
		} else {
			logging.From(ctx).Debug("Source archived", slog.String("slug", string(doc.Slug)), slog.String("uri", uri))
		}
	}

	return uc.IngestDocument(ctx, entry, doc, opts)
}

// IngestDocument derives the units of one loaded document and synchronises them with the
// vector index. Embedding and upsert failures are counted in the report; index read and
// delete failures abort the document.
func (uc *IngestUseCase) IngestDocument(ctx context.Context, entry *model.CorpusEntry, doc *model.Document, opts IngestOptions) (*model.IngestReport, error) {
	mode := opts.Mode
	if mode == "" {
		mode = model.IngestModeIncremental
	}

	report := &model.IngestReport{
		Document:  doc.Slug,
		Title:     doc.Title,
		Mode:      mode,
		DryRun:    opts.DryRun,
		StartedAt: uc.now(),
	}
	logger := logging.From(ctx).With(slog.String("slug", string(doc.Slug)))

	units, dropped := uc.deriveUnits(ctx, entry, doc)
	report.Candidates = len(units)
	report.Dropped = dropped

	if opts.DryRun {
		report.Duration = uc.now().Sub(report.StartedAt)
		logReport(ctx, report)
		return report, nil
	}
	if uc.embedder == nil {
		return nil, goerr.Wrap(ErrEmbedderNotConfigured, "cannot ingest document", goerr.V("slug", string(doc.Slug)))
	}

	derived := make(map[model.VectorID]struct{}, len(units))
	ids := make([]model.VectorID, len(units))
	for i, u := range units {
		derived[u.id] = struct{}{}
		ids[i] = u.id
	}

	pending := units
	switch mode {
	case model.IngestModeReplace:
		existing, err := uc.index.ListIDs(ctx, doc.Slug)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list existing vectors")
		}
		if err := uc.deleteBatched(ctx, existing); err != nil {
			return nil, err
		}
		report.Deleted += len(existing)

	default:
		stored, err := uc.fetchBatched(ctx, ids)
		if err != nil {
			return nil, err
		}
		pending = nil
		for _, u := range units {
			if v, ok := stored[u.id]; ok && v.Metadata.ContentHash == u.metadata.ContentHash {
				report.Unchanged++
				continue
			}
			pending = append(pending, u)
		}
	}

	vectors := make([]*model.IndexedVector, 0, len(pending))
	for _, u := range pending {
		vec, err := uc.embedder.Embed(ctx, u.input)
		if err != nil {
			if ctx.Err() != nil {
				return nil, goerr.Wrap(ctx.Err(), "embedding interrupted")
			}
			report.EmbedFailures++
			logger.Warn("Failed to embed unit, skipping",
				slog.String("id", string(u.id)),
				slog.Any("error", err),
			)
			continue
		}

		md := u.metadata
		md.IndexedAt = uc.now()
		vectors = append(vectors, &model.IndexedVector{ID: u.id, Embedding: vec, Metadata: md})
		report.Embedded++
	}

	upserted, failures := uc.upsertBatched(ctx, vectors)
	report.Upserted = upserted
	report.UpsertFailures = failures

	if mode == model.IngestModeIncremental {
		existing, err := uc.index.ListIDs(ctx, doc.Slug)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list existing vectors")
		}
		var stale []model.VectorID
		for _, id := range existing {
			if _, ok := derived[id]; !ok {
				stale = append(stale, id)
			}
		}
		if err := uc.deleteBatched(ctx, stale); err != nil {
			return nil, err
		}
		report.Deleted += len(stale)
	}

	report.Duration = uc.now().Sub(report.StartedAt)
	logReport(ctx, report)
	return report, nil
}

// deriveUnits turns a document into embeddable units according to its source type. The
// second value is the number of candidates dropped by parser or segmenter integrity rules.
func (uc *IngestUseCase) deriveUnits(ctx context.Context, entry *model.CorpusEntry, doc *model.Document) ([]*unit, int) {
	logger := logging.From(ctx)

	switch doc.SourceType {
	case model.SourceTypeStatute, model.SourceTypeResolution:
		result := newParser(doc.SourceType, entry.Parser).Parse(doc.RawText)
		logger.Info("Document parsed",
			slog.String("slug", string(doc.Slug)),
			slog.Int("articles", len(result.Articles)),
			slog.Any("stats", result.Stats),
		)
		if len(result.Articles) > 0 {
			return articleUnits(doc, result.Articles), result.Stats.Dropped()
		}
		logger.Warn("No articles found, falling back to chunks", slog.String("slug", string(doc.Slug)))
		units, _ := uc.chunkUnits(doc)
		return units, result.Stats.Dropped()

	case model.SourceTypeRuling:
		cases, dropped, err := newSegmenter(entry.Ruling).Segment(doc.RawText, doc.Slug)
		if err != nil {
			if errors.Is(err, ruling.ErrSubsectionNotFound) {
				logger.Warn("Subsection not found, no cases extracted",
					slog.String("slug", string(doc.Slug)),
					slog.Any("error", err),
				)
				return nil, 0
			}
			_ = errutil.Handle(ctx, err, "Failed to segment ruling bulletin")
			return nil, 0
		}
		return caseUnits(doc, cases), dropped

	default:
		return uc.chunkUnits(doc)
	}
}

func newParser(sourceType model.SourceType, opts model.ParserOptions) *statute.Parser {
	maxArticle := statute.DefaultStatuteMaxArticle
	if sourceType == model.SourceTypeResolution {
		maxArticle = statute.DefaultResolutionMaxArticle
	}
	if opts.MaxArticle > 0 {
		maxArticle = opts.MaxArticle
	}

	parserOpts := []statute.Option{statute.WithMaxArticle(maxArticle)}
	if opts.BodyAnchor != "" {
		parserOpts = append(parserOpts, statute.WithBodyAnchor(opts.BodyAnchor, opts.PreambleMaxArticle))
	}
	if opts.MinBodyChars > 0 {
		parserOpts = append(parserOpts, statute.WithMinBodyChars(opts.MinBodyChars))
	}
	return statute.New(parserOpts...)
}

func newSegmenter(opts model.RulingOptions) *ruling.Segmenter {
	var segOpts []ruling.Option
	if len(opts.SiblingHeadings) > 0 {
		segOpts = append(segOpts, ruling.WithSiblingHeadings(opts.SiblingHeadings...))
	}
	if opts.CaseMarker != "" {
		segOpts = append(segOpts, ruling.WithCaseMarker(opts.CaseMarker))
	}
	if opts.MinCaseChars > 0 {
		segOpts = append(segOpts, ruling.WithMinCaseChars(opts.MinCaseChars))
	}
	return ruling.New(opts.SubsectionLabel, segOpts...)
}

func baseMetadata(doc *model.Document, kind model.UnitKind) model.VectorMetadata {
	return model.VectorMetadata{
		DocType:       doc.SourceType,
		DocumentSlug:  doc.Slug,
		SourceID:      doc.SourceID,
		DocumentTitle: doc.Title,
		UnitKind:      kind,
	}
}

func newUnit(id model.VectorID, input, text string, md model.VectorMetadata) *unit {
	md.Text = model.TruncateRunes(text, model.MaxMetadataTextChars)
	md.ContentHash = model.ContentHash(input)
	return &unit{id: id, input: input, metadata: md}
}

func articleUnits(doc *model.Document, articles []*model.Article) []*unit {
	units := make([]*unit, 0, len(articles))
	for _, a := range articles {
		md := baseMetadata(doc, model.UnitKindArticle)
		md.ArticleNumber = a.Number
		md.ArticleTitle = a.Title
		md.PartTitle = a.PartTitle
		md.ChapterTitle = a.ChapterTitle
		md.SectionTitle = a.SectionTitle
		md.CrossReferences = model.JoinInts(a.CrossReferences)

		units = append(units, newUnit(
			model.ArticleVectorID(doc.Slug, a.Number),
			embedding.ArticleInput(doc.Title, a),
			a.Heading()+"\n"+a.BodyText,
			md,
		))
	}
	return units
}

func caseUnits(doc *model.Document, cases []*model.Case) []*unit {
	units := make([]*unit, 0, len(cases))
	for _, c := range cases {
		md := baseMetadata(doc, model.UnitKindCase)
		md.CaseNumber = c.CaseNumber
		md.CaseTitle = c.Title

		units = append(units, newUnit(
			model.CaseVectorID(doc.Slug, c.Sequence),
			embedding.CaseInput(doc.Title, c),
			c.EmbeddingText(),
			md,
		))
	}
	return units
}

func (uc *IngestUseCase) chunkUnits(doc *model.Document) ([]*unit, int) {
	chunks, dropped := uc.chunker.Split(string(doc.Slug), doc.RawText)
	units := make([]*unit, 0, len(chunks))
	for _, c := range chunks {
		md := baseMetadata(doc, model.UnitKindChunk)
		md.ChunkIndex = c.Index
		md.TotalChunks = c.TotalChunks

		units = append(units, newUnit(
			model.ChunkVectorID(doc.Slug, c.Index),
			embedding.ChunkInput(doc.Title, c),
			c.Text,
			md,
		))
	}
	return units, dropped
}

// Purge deletes every vector derived from slug and returns the number of deleted vectors.
// It is used when a document is removed from the corpus.
func (uc *IngestUseCase) Purge(ctx context.Context, slug model.DocumentSlug) (int, error) {
	if err := slug.Validate(); err != nil {
		return 0, err
	}

	ids, err := uc.index.ListIDs(ctx, slug)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list vectors", goerr.V("slug", slug))
	}
	if err := uc.deleteBatched(ctx, ids); err != nil {
		return 0, goerr.Wrap(err, "failed to purge document", goerr.V("slug", slug))
	}

	logging.From(ctx).Info("Document purged",
		slog.String("slug", string(slug)),
		slog.Int("deleted", len(ids)),
	)
	return len(ids), nil
}

func (uc *IngestUseCase) batchSize(limit int) int {
	if limit <= 0 || limit > uc.index.BatchLimit() {
		return uc.index.BatchLimit()
	}
	return limit
}

func (uc *IngestUseCase) fetchBatched(ctx context.Context, ids []model.VectorID) (map[model.VectorID]*model.IndexedVector, error) {
	stored := make(map[model.VectorID]*model.IndexedVector, len(ids))
	size := uc.batchSize(0)
	for i := 0; i < len(ids); i += size {
		got, err := uc.index.Fetch(ctx, ids[i:min(i+size, len(ids))])
		if err != nil {
			return nil, goerr.Wrap(err, "failed to fetch stored vectors", goerr.V("offset", i))
		}
		for id, v := range got {
			stored[id] = v
		}
	}
	return stored, nil
}

func (uc *IngestUseCase) deleteBatched(ctx context.Context, ids []model.VectorID) error {
	size := uc.batchSize(0)
	for i := 0; i < len(ids); i += size {
		if err := uc.index.DeleteMany(ctx, ids[i:min(i+size, len(ids))]); err != nil {
			return goerr.Wrap(err, "failed to delete vectors", goerr.V("offset", i))
		}
	}
	return nil
}

// upsertBatched writes vectors in batches, retrying each batch. A batch that still fails is
// skipped and counted.
func (uc *IngestUseCase) upsertBatched(ctx context.Context, vectors []*model.IndexedVector) (upserted, failures int) {
	size := uc.batchSize(uc.upsertBatchSize)
	for i := 0; i < len(vectors); i += size {
		batch := vectors[i:min(i+size, len(vectors))]

		op := func() (struct{}, error) {
			return struct{}{}, uc.index.Upsert(ctx, batch)
		}
		notify := func(err error, wait time.Duration) {
			logging.From(ctx).Warn("Retrying upsert batch",
				slog.Int("offset", i),
				slog.Int("size", len(batch)),
				slog.Duration("wait", wait),
				slog.Any("error", err),
			)
		}

		_, err := backoff.Retry(ctx, op,
			backoff.WithBackOff(uc.newBackOff()),
			backoff.WithMaxTries(uc.upsertMaxTries),
			backoff.WithNotify(notify),
		)
		if err != nil {
			failures += len(batch)
			_ = errutil.Handle(ctx, goerr.Wrap(err, "upsert batch failed, skipping",
				goerr.V("offset", i),
				goerr.V("size", len(batch))), "Failed to upsert vectors")
			continue
		}
		upserted += len(batch)
	}
	return upserted, failures
}

func logReport(ctx context.Context, r *model.IngestReport) {
	logging.From(ctx).Info("Document ingested",
		slog.String("slug", string(r.Document)),
		slog.String("mode", string(r.Mode)),
		slog.Bool("dry_run", r.DryRun),
		slog.Int("candidates", r.Candidates),
		slog.Int("unchanged", r.Unchanged),
		slog.Int("embedded", r.Embedded),
		slog.Int("embed_failures", r.EmbedFailures),
		slog.Int("upserted", r.Upserted),
		slog.Int("upsert_failures", r.UpsertFailures),
		slog.Int("deleted", r.Deleted),
		slog.Int("dropped", r.Dropped),
		slog.Duration("duration", r.Duration),
	)
}
