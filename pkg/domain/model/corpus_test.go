package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/darbolex/pkg/domain/model"
)

func TestCorpusEntryValidate(t *testing.T) {
	valid := func() *model.CorpusEntry {
		return &model.CorpusEntry{
			Slug:       "dk",
			SourceType: model.SourceTypeStatute,
			Location:   "https://www.e-tar.lt/portal/lt/legalAct/f6d686707e7011e6b969d7ae07280e89/asr",
		}
	}

	testCases := map[string]struct {
		modify  func(e *model.CorpusEntry)
		wantErr bool
	}{
		"valid":                 {func(e *model.CorpusEntry) {}, false},
		"missing slug":          {func(e *model.CorpusEntry) { e.Slug = "" }, true},
		"bad source type":       {func(e *model.CorpusEntry) { e.SourceType = "law" }, true},
		"no location":           {func(e *model.CorpusEntry) { e.Location = "" }, true},
		"both locations":        {func(e *model.CorpusEntry) { e.ListingURL = "https://www.lat.lt/?page={page}" }, true},
		"unknown format":        {func(e *model.CorpusEntry) { e.Format = "docx" }, true},
		"negative parser value": {func(e *model.CorpusEntry) { e.Parser.MaxArticle = -1 }, true},
		"listing without pattern": {func(e *model.CorpusEntry) {
			e.Location = ""
			e.ListingURL = "https://www.lat.lt/?page={page}"
		}, true},
		"listing with bad pattern": {func(e *model.CorpusEntry) {
			e.Location = ""
			e.ListingURL = "https://www.lat.lt/?page={page}"
			e.LinkPattern = "(["
		}, true},
		"listing": {func(e *model.CorpusEntry) {
			e.Location = ""
			e.ListingURL = "https://www.lat.lt/?page={page}"
			e.LinkPattern = `\.pdf$`
		}, false},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			e := valid()
			tc.modify(e)
			err := e.Validate()
			if tc.wantErr {
				gt.Error(t, err).Is(model.ErrInvalidCorpusEntry)
			} else {
				gt.NoError(t, err)
			}
		})
	}
}

func TestDetectFormat(t *testing.T) {
	testCases := map[string]model.SourceFormat{
		"notion:0123456789abcdef":              model.SourceFormatNotion,
		"https://www.lat.lt/data/apzvalga.pdf": model.SourceFormatPDF,
		"https://x.lt/a.PDF?download=1":        model.SourceFormatPDF,
		"https://vdi.lt/duk":                   model.SourceFormatHTML,
		"./testdata/faq.html":                  model.SourceFormatHTML,
		"./testdata/dk.txt":                    model.SourceFormatText,
		"./testdata/dk":                        model.SourceFormatText,
	}

	for location, want := range testCases {
		t.Run(location, func(t *testing.T) {
			gt.Value(t, model.DetectFormat(location)).Equal(want)
		})
	}
}

func TestListedEntry(t *testing.T) {
	listing := &model.CorpusEntry{
		Slug:        "lat",
		SourceType:  model.SourceTypeRuling,
		Title:       "LAT apžvalga",
		ListingURL:  "https://www.lat.lt/?page={page}",
		LinkPattern: `\.pdf$`,
		MaxPages:    3,
		Ruling:      model.RulingOptions{CaseMarker: "Dėl"},
	}

	child := listing.ListedEntry("https://www.lat.lt/data/Apžvalga_Nr_45.pdf?v=2")
	gt.Value(t, child.Slug).Equal(model.DocumentSlug("lat-apzvalga-nr-45-417e8d7b"))
	gt.Value(t, child.Location).Equal("https://www.lat.lt/data/Apžvalga_Nr_45.pdf?v=2")
	gt.Value(t, child.ListingURL).Equal("")
	gt.Value(t, child.Ruling.CaseMarker).Equal("Dėl")
	gt.Value(t, child.ResolvedFormat()).Equal(model.SourceFormatPDF)
	gt.Bool(t, child.IsListing()).False()
	gt.NoError(t, child.Validate())
}

func TestListedEntryDistinctLinks(t *testing.T) {
	listing := &model.CorpusEntry{
		Slug:        "lat-biuletenis",
		SourceType:  model.SourceTypeRuling,
		ListingURL:  "https://www.lat.lt/?page={page}",
		LinkPattern: `download|\.pdf$`,
	}

	testCases := map[string][2]string{
		"query string only": {
			"https://www.lat.lt/download?id=101",
			"https://www.lat.lt/download?id=202",
		},
		"same file name in different folders": {
			"https://www.lat.lt/2020/01/praktika.pdf",
			"https://www.lat.lt/2021/07/praktika.pdf",
		},
	}

	for name, links := range testCases {
		t.Run(name, func(t *testing.T) {
			a := listing.ListedEntry(links[0])
			b := listing.ListedEntry(links[1])
			gt.Bool(t, a.Slug != b.Slug).True()
			gt.Bool(t, model.CaseVectorID(a.Slug, 0) != model.CaseVectorID(b.Slug, 0)).True()
			gt.NoError(t, a.Slug.Validate())

			// same link, same slug across runs
			gt.Value(t, listing.ListedEntry(links[0]).Slug).Equal(a.Slug)
		})
	}

	gt.Value(t, listing.ListedEntry("https://www.lat.lt/download?id=101").Slug).
		Equal(model.DocumentSlug("lat-biuletenis-download-02826d29"))
}
