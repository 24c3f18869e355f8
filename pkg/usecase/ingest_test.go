package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/darbolex/pkg/domain/model"
	"github.com/secmon-lab/darbolex/pkg/repository/memory"
	"github.com/secmon-lab/darbolex/pkg/usecase"
)

const statuteText = `PIRMOJI DALIS
BENDROSIOS NUOSTATOS

I SKYRIUS
PAGRINDINĖS NUOSTATOS

1 straipsnis. Darbo kodekso paskirtis
Šis kodeksas reglamentuoja darbo santykius ir su jais susijusius santykius.

2 straipsnis. Darbo teisės principai
Darbo santykių reglamentavimas grindžiamas principais, nurodytais šio kodekso 1 straipsnyje.

3 straipsnis. Darbo teisės šaltiniai
Darbo santykius reglamentuoja šis kodeksas, kiti įstatymai ir kolektyvinės sutartys.
`

const bulletinText = `CIVILINĖS BYLOS

Bylos, kilusios iš darbo teisinių santykių

Dėl darbuotojo atleidimo iš darbo už šiurkštų darbo pareigų pažeidimą
Kasacinis teismas išaiškino, kad darbdavys, prieš nutraukdamas darbo sutartį, privalo įvertinti pažeidimo sunkumą, kaltės formą ir ankstesnį darbuotojo elgesį. Nutartis civilinėje byloje Nr. e3K-3-99/2021

Dėl išbandymo laikotarpio ir darbo sutarties nutraukimo išbandymo metu
Teismas nurodė, kad išbandymo metu darbo sutartis gali būti nutraukta įspėjus prieš tris darbo dienas, jeigu išbandymo rezultatai darbdaviui yra nepatenkinami.

Bylos, kilusios iš šeimos teisinių santykių

Dėl išlaikymo priteisimo nepilnamečiui vaikui
Šis tekstas nepriklauso darbo teisės poskyriui ir neturi būti įtrauktas į darbo bylų sąrašą jokiu atveju.
`

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestUseCases(t *testing.T, idx *flakyIndex, embedder *mockEmbedder, opts ...usecase.Option) *usecase.UseCases {
	t.Helper()
	base := []usecase.Option{
		usecase.WithClock(func() time.Time { return fixedNow }),
		usecase.WithUpsertRetry(2, 0),
	}
	uc, err := usecase.New(idx, embedder, append(base, opts...)...)
	gt.NoError(t, err).Required()
	return uc
}

func statuteEntry() *model.CorpusEntry {
	return &model.CorpusEntry{
		Slug:       "darbo-kodeksas",
		SourceType: model.SourceTypeStatute,
		Location:   "dk.txt",
		Title:      "Lietuvos Respublikos darbo kodeksas",
	}
}

func statuteDocument(text string) *model.Document {
	return &model.Document{
		Slug:       "darbo-kodeksas",
		SourceType: model.SourceTypeStatute,
		SourceID:   "dk.txt",
		Title:      "Lietuvos Respublikos darbo kodeksas",
		RawText:    text,
	}
}

func TestIngestDocumentIdempotent(t *testing.T) {
	ctx := context.Background()
	idx := &flakyIndex{VectorIndex: memory.New()}
	embedder := &mockEmbedder{}
	uc := newTestUseCases(t, idx, embedder)

	first, err := uc.Ingest.IngestDocument(ctx, statuteEntry(), statuteDocument(statuteText), usecase.IngestOptions{})
	gt.NoError(t, err).Required()
	gt.Value(t, first.Mode).Equal(model.IngestModeIncremental)
	gt.Value(t, first.Candidates).Equal(3)
	gt.Value(t, first.Embedded).Equal(3)
	gt.Value(t, first.Upserted).Equal(3)
	gt.Value(t, first.Unchanged).Equal(0)

	ids, err := idx.ListIDs(ctx, "darbo-kodeksas")
	gt.NoError(t, err).Required()
	gt.Value(t, ids).Equal([]model.VectorID{
		"darbo-kodeksas-str-1",
		"darbo-kodeksas-str-2",
		"darbo-kodeksas-str-3",
	})

	stored, err := idx.Fetch(ctx, []model.VectorID{"darbo-kodeksas-str-2"})
	gt.NoError(t, err).Required()
	md := stored["darbo-kodeksas-str-2"].Metadata
	gt.Value(t, md.ArticleNumber).Equal(2)
	gt.Value(t, md.ArticleTitle).Equal("Darbo teisės principai")
	gt.Value(t, md.PartTitle).Equal("BENDROSIOS NUOSTATOS")
	gt.Value(t, md.ChapterTitle).Equal("PAGRINDINĖS NUOSTATOS")
	gt.Value(t, md.CrossReferences).Equal("1")
	gt.Value(t, md.IndexedAt).Equal(fixedNow)
	gt.String(t, md.Text).Contains("2 straipsnis. Darbo teisės principai")

	calls := embedder.Calls()
	second, err := uc.Ingest.IngestDocument(ctx, statuteEntry(), statuteDocument(statuteText), usecase.IngestOptions{})
	gt.NoError(t, err).Required()
	gt.Value(t, second.Unchanged).Equal(3)
	gt.Value(t, second.Embedded).Equal(0)
	gt.Value(t, second.Upserted).Equal(0)
	gt.Value(t, second.Deleted).Equal(0)
	gt.Value(t, embedder.Calls()).Equal(calls)

	ids, err = idx.ListIDs(ctx, "darbo-kodeksas")
	gt.NoError(t, err).Required()
	gt.Value(t, len(ids)).Equal(3)
}

func TestIngestDocumentIncrementalChanges(t *testing.T) {
	ctx := context.Background()
	idx := &flakyIndex{VectorIndex: memory.New()}
	uc := newTestUseCases(t, idx, &mockEmbedder{})

	_, err := uc.Ingest.IngestDocument(ctx, statuteEntry(), statuteDocument(statuteText), usecase.IngestOptions{})
	gt.NoError(t, err).Required()

	// Article 2 amended, article 3 repealed
	changed := strings.Replace(statuteText, "grindžiamas principais", "grindžiamas naujais principais", 1)
	changed = changed[:strings.Index(changed, "3 straipsnis.")]

	report, err := uc.Ingest.IngestDocument(ctx, statuteEntry(), statuteDocument(changed), usecase.IngestOptions{})
	gt.NoError(t, err).Required()
	gt.Value(t, report.Candidates).Equal(2)
	gt.Value(t, report.Unchanged).Equal(1)
	gt.Value(t, report.Embedded).Equal(1)
	gt.Value(t, report.Deleted).Equal(1)

	ids, err := idx.ListIDs(ctx, "darbo-kodeksas")
	gt.NoError(t, err).Required()
	gt.Value(t, ids).Equal([]model.VectorID{"darbo-kodeksas-str-1", "darbo-kodeksas-str-2"})
}

func TestIngestDocumentReplace(t *testing.T) {
	ctx := context.Background()
	idx := &flakyIndex{VectorIndex: memory.New()}
	embedder := &mockEmbedder{}
	uc := newTestUseCases(t, idx, embedder)

	_, err := uc.Ingest.IngestDocument(ctx, statuteEntry(), statuteDocument(statuteText), usecase.IngestOptions{})
	gt.NoError(t, err).Required()

	report, err := uc.Ingest.IngestDocument(ctx, statuteEntry(), statuteDocument(statuteText),
		usecase.IngestOptions{Mode: model.IngestModeReplace})
	gt.NoError(t, err).Required()
	gt.Value(t, report.Deleted).Equal(3)
	gt.Value(t, report.Unchanged).Equal(0)
	gt.Value(t, report.Embedded).Equal(3)
	gt.Value(t, report.Upserted).Equal(3)
	gt.Value(t, embedder.Calls()).Equal(6)
}

func TestIngestDocumentFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("embedding failure skips the unit", func(t *testing.T) {
		idx := &flakyIndex{VectorIndex: memory.New()}
		uc := newTestUseCases(t, idx, &mockEmbedder{failOn: "Darbo teisės šaltiniai"})

		report, err := uc.Ingest.IngestDocument(ctx, statuteEntry(), statuteDocument(statuteText), usecase.IngestOptions{})
		gt.NoError(t, err).Required()
		gt.Value(t, report.EmbedFailures).Equal(1)
		gt.Value(t, report.Embedded).Equal(2)
		gt.Value(t, report.Upserted).Equal(2)
		gt.Bool(t, report.Failed()).True()
	})

	t.Run("upsert batch is retried", func(t *testing.T) {
		idx := &flakyIndex{VectorIndex: memory.New(), upsertFailures: 1}
		uc := newTestUseCases(t, idx, &mockEmbedder{})

		report, err := uc.Ingest.IngestDocument(ctx, statuteEntry(), statuteDocument(statuteText), usecase.IngestOptions{})
		gt.NoError(t, err).Required()
		gt.Value(t, report.Upserted).Equal(3)
		gt.Value(t, report.UpsertFailures).Equal(0)
		gt.Value(t, idx.upsertCalls).Equal(2)
	})

	t.Run("exhausted batch is skipped and counted", func(t *testing.T) {
		idx := &flakyIndex{VectorIndex: memory.New(), upsertFailures: -1, batchLimit: 2}
		uc := newTestUseCases(t, idx, &mockEmbedder{})

		report, err := uc.Ingest.IngestDocument(ctx, statuteEntry(), statuteDocument(statuteText), usecase.IngestOptions{})
		gt.NoError(t, err).Required()
		gt.Value(t, report.Upserted).Equal(0)
		gt.Value(t, report.UpsertFailures).Equal(3)
		// two batches, two tries each
		gt.Value(t, idx.upsertCalls).Equal(4)
	})
}

func TestIngestDocumentUnits(t *testing.T) {
	ctx := context.Background()

	t.Run("statute without articles falls back to chunks", func(t *testing.T) {
		idx := &flakyIndex{VectorIndex: memory.New()}
		uc := newTestUseCases(t, idx, &mockEmbedder{})

		doc := statuteDocument("Šiame dokumente nėra numeruotų straipsnių, tik ilgas aiškinamasis tekstas apie darbo santykius.")
		report, err := uc.Ingest.IngestDocument(ctx, statuteEntry(), doc, usecase.IngestOptions{})
		gt.NoError(t, err).Required()
		gt.Value(t, report.Candidates).Equal(1)

		ids, err := idx.ListIDs(ctx, "darbo-kodeksas")
		gt.NoError(t, err).Required()
		gt.Value(t, ids).Equal([]model.VectorID{"darbo-kodeksas-chunk-0"})
	})

	t.Run("ruling bulletin yields cases of the subsection only", func(t *testing.T) {
		idx := &flakyIndex{VectorIndex: memory.New()}
		uc := newTestUseCases(t, idx, &mockEmbedder{})

		entry := &model.CorpusEntry{Slug: "lat-apzvalga-2021", SourceType: model.SourceTypeRuling, Location: "b.pdf"}
		doc := &model.Document{Slug: "lat-apzvalga-2021", SourceType: model.SourceTypeRuling, Title: "Teismų praktika", RawText: bulletinText}

		report, err := uc.Ingest.IngestDocument(ctx, entry, doc, usecase.IngestOptions{})
		gt.NoError(t, err).Required()
		gt.Value(t, report.Candidates).Equal(2)

		got, err := idx.Fetch(ctx, []model.VectorID{"lat-apzvalga-2021-case-0", "lat-apzvalga-2021-case-1"})
		gt.NoError(t, err).Required()
		gt.Value(t, len(got)).Equal(2)
		gt.Value(t, got["lat-apzvalga-2021-case-0"].Metadata.CaseNumber).Equal("e3K-3-99/2021")
		gt.Value(t, got["lat-apzvalga-2021-case-1"].Metadata.CaseNumber).Equal("")
		gt.String(t, got["lat-apzvalga-2021-case-0"].Metadata.Text).Contains("Bylos Nr. e3K-3-99/2021")
	})

	t.Run("short cases and chunks are reported as dropped", func(t *testing.T) {
		idx := &flakyIndex{VectorIndex: memory.New()}
		uc := newTestUseCases(t, idx, &mockEmbedder{})

		text := strings.Replace(bulletinText,
			"\nBylos, kilusios iš šeimos",
			"\nDėl trumpo\n\nBylos, kilusios iš šeimos", 1)
		entry := &model.CorpusEntry{Slug: "lat-apzvalga-2023", SourceType: model.SourceTypeRuling, Location: "d.pdf"}
		doc := &model.Document{Slug: "lat-apzvalga-2023", SourceType: model.SourceTypeRuling, RawText: text}

		report, err := uc.Ingest.IngestDocument(ctx, entry, doc, usecase.IngestOptions{})
		gt.NoError(t, err).Required()
		gt.Value(t, report.Candidates).Equal(2)
		gt.Value(t, report.Dropped).Equal(1)

		faqEntry := &model.CorpusEntry{Slug: "vdi-duk", SourceType: model.SourceTypeFAQ, Location: "duk.html"}
		faq := &model.Document{Slug: "vdi-duk", SourceType: model.SourceTypeFAQ, RawText: "Per trumpas atsakymas."}

		report, err = uc.Ingest.IngestDocument(ctx, faqEntry, faq, usecase.IngestOptions{})
		gt.NoError(t, err).Required()
		gt.Value(t, report.Candidates).Equal(0)
		gt.Value(t, report.Dropped).Equal(1)
	})

	t.Run("bulletin without the subsection yields no cases", func(t *testing.T) {
		idx := &flakyIndex{VectorIndex: memory.New()}
		uc := newTestUseCases(t, idx, &mockEmbedder{})

		entry := &model.CorpusEntry{Slug: "lat-kita", SourceType: model.SourceTypeRuling, Location: "c.pdf"}
		doc := &model.Document{Slug: "lat-kita", SourceType: model.SourceTypeRuling, RawText: "BAUDŽIAMOSIOS BYLOS\n\nDėl kažko kito"}

		report, err := uc.Ingest.IngestDocument(ctx, entry, doc, usecase.IngestOptions{})
		gt.NoError(t, err).Required()
		gt.Value(t, report.Candidates).Equal(0)
	})

	t.Run("dry run leaves the index untouched", func(t *testing.T) {
		idx := &flakyIndex{VectorIndex: memory.New()}
		embedder := &mockEmbedder{}
		uc := newTestUseCases(t, idx, embedder)

		report, err := uc.Ingest.IngestDocument(ctx, statuteEntry(), statuteDocument(statuteText), usecase.IngestOptions{DryRun: true})
		gt.NoError(t, err).Required()
		gt.Value(t, report.Candidates).Equal(3)
		gt.Value(t, report.Upserted).Equal(0)
		gt.Value(t, embedder.Calls()).Equal(0)

		ids, err := idx.ListIDs(ctx, "darbo-kodeksas")
		gt.NoError(t, err).Required()
		gt.Value(t, len(ids)).Equal(0)
	})
}

func TestIngestRun(t *testing.T) {
	ctx := context.Background()
	idx := &flakyIndex{VectorIndex: memory.New()}
	notifier := &mockNotifier{}
	archive := &mockArchive{}
	loader := &mockLoader{
		docs: map[string]*model.Document{
			"dk.txt":                           {RawText: "1 straipsnis. Paskirtis\r\nŠis kodeksas reglamentuoja darbo santykius."},
			"https://www.lat.lt/data/2021.pdf": {RawText: bulletinText},
			"https://www.lat.lt/data/2022.pdf": {RawText: bulletinText},
		},
		links: []string{
			"https://www.lat.lt/data/2021.pdf",
			"https://www.lat.lt/data/2022.pdf",
			"https://www.lat.lt/apie",
		},
	}

	uc := newTestUseCases(t, idx, &mockEmbedder{},
		usecase.WithLoader(loader),
		usecase.WithNotifier(notifier),
		usecase.WithArchive(archive),
	)

	entries := []*model.CorpusEntry{
		statuteEntry(),
		{
			Slug:        "lat",
			SourceType:  model.SourceTypeRuling,
			Title:       "LAT apžvalga",
			ListingURL:  "https://www.lat.lt/apzvalgos?page={page}",
			LinkPattern: `\.pdf$`,
		},
		{Slug: "dingusi", SourceType: model.SourceTypeFAQ, Location: "https://vdi.lt/missing"},
	}

	reports, err := uc.Ingest.Run(ctx, entries, usecase.IngestOptions{})
	gt.Error(t, err).Is(usecase.ErrDocumentFailed)
	gt.Array(t, reports).Length(3).Required()

	gt.Value(t, reports[0].Document).Equal(model.DocumentSlug("darbo-kodeksas"))
	gt.Value(t, reports[1].Document).Equal(model.DocumentSlug("lat-2021-e0eed6f4"))
	gt.Value(t, reports[2].Document).Equal(model.DocumentSlug("lat-2022-d21f9c8f"))
	gt.Value(t, reports[1].Candidates).Equal(2)
	gt.Value(t, reports[0].RunID).Equal(reports[2].RunID)

	gt.Array(t, notifier.reports).Length(1).Required()
	gt.Array(t, notifier.reports[0]).Length(3)
	gt.Value(t, archive.saved).Equal([]model.DocumentSlug{"darbo-kodeksas", "lat-2021-e0eed6f4", "lat-2022-d21f9c8f"})

	// CRLF was normalised before parsing
	got, err := idx.Fetch(ctx, []model.VectorID{"darbo-kodeksas-str-1"})
	gt.NoError(t, err).Required()
	gt.Bool(t, strings.Contains(got["darbo-kodeksas-str-1"].Metadata.Text, "\r")).False()
}

func TestIngestRunListedBulletinsKeepSeparateVectors(t *testing.T) {
	ctx := context.Background()
	idx := &flakyIndex{VectorIndex: memory.New()}
	loader := &mockLoader{
		docs: map[string]*model.Document{
			"https://www.lat.lt/download?id=101": {RawText: bulletinText},
			"https://www.lat.lt/download?id=202": {RawText: bulletinText},
		},
		links: []string{
			"https://www.lat.lt/download?id=101",
			"https://www.lat.lt/download?id=202",
			"https://www.lat.lt/download?id=101",
		},
	}
	uc := newTestUseCases(t, idx, &mockEmbedder{}, usecase.WithLoader(loader))

	entries := []*model.CorpusEntry{{
		Slug:        "lat-biuletenis",
		SourceType:  model.SourceTypeRuling,
		ListingURL:  "https://www.lat.lt/apzvalgos?page={page}",
		LinkPattern: `download`,
	}}

	// the repeated link is skipped instead of ingested twice
	reports, err := uc.Ingest.Run(ctx, entries, usecase.IngestOptions{})
	gt.NoError(t, err).Required()
	gt.Array(t, reports).Length(2).Required()
	gt.Bool(t, reports[0].Document != reports[1].Document).True()

	for _, r := range reports {
		ids, err := idx.ListIDs(ctx, r.Document)
		gt.NoError(t, err).Required()
		gt.Array(t, ids).Length(2)
	}

	// a second incremental run leaves both bulletins in place
	reports, err = uc.Ingest.Run(ctx, entries, usecase.IngestOptions{})
	gt.NoError(t, err).Required()
	for _, r := range reports {
		gt.Value(t, r.Deleted).Equal(0)
		gt.Value(t, r.Unchanged).Equal(2)
		ids, err := idx.ListIDs(ctx, r.Document)
		gt.NoError(t, err).Required()
		gt.Array(t, ids).Length(2)
	}
}

func TestIngestRunWithoutLoader(t *testing.T) {
	uc := newTestUseCases(t, &flakyIndex{VectorIndex: memory.New()}, &mockEmbedder{})
	_, err := uc.Ingest.Run(context.Background(), nil, usecase.IngestOptions{})
	gt.Error(t, err).Is(usecase.ErrLoaderNotConfigured)
}

func TestPurge(t *testing.T) {
	ctx := context.Background()
	idx := &flakyIndex{VectorIndex: memory.New(), batchLimit: 2}
	uc := newTestUseCases(t, idx, &mockEmbedder{})

	_, err := uc.Ingest.IngestDocument(ctx, statuteEntry(), statuteDocument(statuteText), usecase.IngestOptions{})
	gt.NoError(t, err).Required()
	gt.NoError(t, idx.Upsert(ctx, []*model.IndexedVector{
		articleVector("darbo-kodeksas-2", 1, []float32{1, 0, 0, 0}),
	})).Required()

	deleted, err := uc.Ingest.Purge(ctx, "darbo-kodeksas")
	gt.NoError(t, err).Required()
	gt.Value(t, deleted).Equal(3)

	ids, err := idx.ListIDs(ctx, "darbo-kodeksas")
	gt.NoError(t, err).Required()
	gt.Value(t, len(ids)).Equal(0)

	// a slug sharing the prefix is untouched
	ids, err = idx.ListIDs(ctx, "darbo-kodeksas-2")
	gt.NoError(t, err).Required()
	gt.Value(t, len(ids)).Equal(1)

	t.Run("unknown document deletes nothing", func(t *testing.T) {
		deleted, err := uc.Ingest.Purge(ctx, "nera")
		gt.NoError(t, err).Required()
		gt.Value(t, deleted).Equal(0)
	})

	t.Run("invalid slug is rejected", func(t *testing.T) {
		_, err := uc.Ingest.Purge(ctx, "")
		gt.Value(t, err).NotNil()
	})
}
