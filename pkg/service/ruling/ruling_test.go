package ruling_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/darbolex/pkg/service/ruling"
)

const bulletin = `TEISMŲ PRAKTIKOS APŽVALGA

TURINYS
CIVILINĖS BYLOS ........ 3
Bylos, kilusios iš darbo teisinių santykių ........ 5
Bylos dėl proceso teisės normų taikymo ........ 9

CIVILINĖS BYLOS

Bylos, kilusios iš sutartinių teisinių santykių

Dėl nuomos sutarties nutraukimo
Kasacinis teismas pažymėjo, kad nuomos sutartis gali būti nutraukta tik esant įstatyme nurodytiems pagrindams. Nutartis civilinėje byloje Nr. e3K-3-12/2021.

3

BYLOS, KILUSIOS IŠ DARBO TEISINIŲ SANTYKIŲ

Dėl darbo sutarties nutraukimo darbdavio iniciatyva
Kasacinis teismas, remdamasis ankstesne praktika (byla Nr. 3K-3-123-701/2020), išaiškino, kad darbdavys privalo įrodyti darbo sutarties nutraukimo pagrindą. Lietuvos Aukščiausiojo Teismo 2021 m. kovo 3 d. nutartis civilinėje byloje Nr. e3K-3-99/2021.

4

Dėl išbandymo laikotarpio
Darbdavys gali nutraukti darbo sutartį išbandymo laikotarpiu, jeigu darbuotojas neišlaiko išbandymo, tačiau privalo apie tai įspėti darbuotoją prieš tris darbo dienas.

Dėl trumpo

Bylos dėl proceso teisės normų taikymo

Dėl bylinėjimosi išlaidų
Bylinėjimosi išlaidos paskirstomos proporcingai patenkintų reikalavimų daliai. Nutartis civilinėje byloje Nr. e3K-3-200/2022.
`

func TestSegment(t *testing.T) {
	cases, dropped, err := ruling.New("").Segment(bulletin, "lat-apzvalga-2021")
	gt.NoError(t, err).Required()
	gt.Array(t, cases).Length(2).Required()

	t.Run("short parts are counted as dropped", func(t *testing.T) {
		gt.Value(t, dropped).Equal(1)
	})

	t.Run("docket number prefers last occurrence", func(t *testing.T) {
		gt.Value(t, cases[0].Title).Equal("Dėl darbo sutarties nutraukimo darbdavio iniciatyva")
		gt.Value(t, cases[0].CaseNumber).Equal("e3K-3-99/2021")
		gt.Value(t, cases[0].Sequence).Equal(0)
		gt.Value(t, string(cases[0].SourceDocument)).Equal("lat-apzvalga-2021")
		gt.Bool(t, strings.HasPrefix(cases[0].EmbeddingText(), "Bylos Nr. e3K-3-99/2021\n")).True()
	})

	t.Run("case without docket number keeps empty identifier", func(t *testing.T) {
		gt.Value(t, cases[1].Title).Equal("Dėl išbandymo laikotarpio")
		gt.Value(t, cases[1].CaseNumber).Equal("")
		gt.Value(t, cases[1].Sequence).Equal(1)
		gt.Value(t, cases[1].EmbeddingText()).Equal(cases[1].RawContent)
		gt.Bool(t, strings.HasPrefix(cases[1].Summary, "Darbdavys gali nutraukti")).True()
	})

	t.Run("cases never cross into sibling subsections", func(t *testing.T) {
		for _, c := range cases {
			gt.Bool(t, strings.Contains(c.RawContent, "Bylinėjimosi")).False()
			gt.Bool(t, strings.Contains(c.RawContent, "nuomos sutartis")).False()
		}
	})

	t.Run("page numbers are stripped", func(t *testing.T) {
		gt.Bool(t, strings.Contains(cases[0].RawContent, "\n4\n")).False()
		gt.Bool(t, strings.HasSuffix(cases[0].RawContent, "e3K-3-99/2021.")).True()
	})
}

func TestIsolate(t *testing.T) {
	t.Run("skips table of contents entry", func(t *testing.T) {
		sub, err := ruling.New("").Isolate(bulletin)
		gt.NoError(t, err).Required()
		gt.Bool(t, strings.HasPrefix(sub, "BYLOS, KILUSIOS IŠ DARBO TEISINIŲ SANTYKIŲ")).True()
		gt.Bool(t, strings.Contains(sub, "........")).False()
	})

	t.Run("skips contents entry with page number on the next line", func(t *testing.T) {
		body := strings.Repeat("Darbdavys privalo įrodyti atleidimo pagrindą. ", 7)
		text := "TURINYS\n" +
			"Bylos, kilusios iš darbo teisinių santykių\n12\n" +
			"Bylos dėl proceso teisės normų taikymo\n30\n\n" +
			"Bylos, kilusios iš darbo teisinių santykių\n\n" +
			"Dėl atleidimo iš darbo\n" + body + "\n\n" +
			"Bylos dėl proceso teisės normų taikymo\n"

		cases, _, err := ruling.New("").Segment(text, "lat-apzvalga")
		gt.NoError(t, err).Required()
		gt.Array(t, cases).Length(1).Required()
		gt.Value(t, cases[0].Title).Equal("Dėl atleidimo iš darbo")
	})

	t.Run("contents entry with leader dots on the next line", func(t *testing.T) {
		text := "Bylos, kilusios iš darbo teisinių santykių\n........ 5\n"
		_, err := ruling.New("").Isolate(text)
		gt.Error(t, err).Is(ruling.ErrSubsectionNotFound)
	})

	t.Run("only table of contents occurrence", func(t *testing.T) {
		text := "TURINYS\nBylos, kilusios iš darbo teisinių santykių ........ 5\n"
		_, err := ruling.New("").Isolate(text)
		gt.Error(t, err).Is(ruling.ErrSubsectionNotFound)
	})

	t.Run("label missing", func(t *testing.T) {
		_, err := ruling.New("").Isolate("Visai kitas dokumentas")
		gt.Bool(t, errors.Is(err, ruling.ErrSubsectionNotFound)).True()
	})

	t.Run("runs to end without sibling", func(t *testing.T) {
		text := "Darbo bylos\nDėl atostogų\nTekstas iki pabaigos."
		sub, err := ruling.New("Darbo bylos", ruling.WithSiblingHeadings()).Isolate(text)
		gt.NoError(t, err).Required()
		gt.Bool(t, strings.HasSuffix(sub, "Tekstas iki pabaigos.")).True()
	})
}

func TestSplit(t *testing.T) {
	t.Run("custom marker and minimum", func(t *testing.T) {
		text := "Įvadas\nDėl A bylos tekstas\nDėl B\n"
		seg := ruling.New("Darbo bylos", ruling.WithMinCaseChars(10))
		cases, dropped := seg.Split(text, "doc")
		gt.Array(t, cases).Length(1).Required()
		gt.Value(t, cases[0].Title).Equal("Dėl A bylos tekstas")
		gt.Value(t, dropped).Equal(1)
	})

	t.Run("no marker yields whole subsection", func(t *testing.T) {
		seg := ruling.New("Darbo bylos", ruling.WithCaseMarker("Byla"), ruling.WithMinCaseChars(5))
		cases, _ := seg.Split("Vienintelė nutartis Nr. 3K-3-1/2020", "doc")
		gt.Array(t, cases).Length(1).Required()
		gt.Value(t, cases[0].CaseNumber).Equal("3K-3-1/2020")
	})
}

func TestExtractCaseNumber(t *testing.T) {
	testCases := map[string]struct {
		text string
		want string
	}{
		"electronic docket":     {"byloje Nr. e3K-3-99/2021.", "e3K-3-99/2021"},
		"three groups":          {"byla Nr. 3K-3-123-701/2020", "3K-3-123-701/2020"},
		"two letter class":      {"byla Nr. eA-1234-442/2019", "eA-1234-442/2019"},
		"criminal docket":       {"byla Nr. 2K-7-1/2020", "2K-7-1/2020"},
		"last occurrence":       {"Nr. 3K-3-1/2019 ir vėliau Nr. e3K-3-99/2021", "e3K-3-99/2021"},
		"no docket":             {"byla be numerio", ""},
		"plain number":          {"įsakymas Nr. 12/2020", ""},
		"lowercase not a class": {"Nr. k-1/2020", ""},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			gt.Value(t, ruling.ExtractCaseNumber(tc.text)).Equal(tc.want)
		})
	}
}

func TestIsTOCEntry(t *testing.T) {
	testCases := map[string]struct {
		rest string
		want bool
	}{
		"leader dots with page": {" ........ 12", true},
		"ellipsis":              {" …… 7", true},
		"bare page number":      {" 12", true},
		"empty":                 {"", false},
		"text":                  {" ypatumai", false},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			gt.Value(t, ruling.IsTOCEntry(tc.rest)).Equal(tc.want)
		})
	}
}
