package statute_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/darbolex/pkg/service/statute"
)

func TestFindMarkers(t *testing.T) {
	markers := statute.FindMarkers(statute.NormalizeText(labourCode))

	type want struct {
		kind   statute.MarkerKind
		number int
		title  string
	}
	expected := []want{
		{statute.MarkerPart, 1, "BENDROSIOS NUOSTATOS"},
		{statute.MarkerChapter, 1, "DARBO TEISĖS REGLAMENTAVIMAS"},
		{statute.MarkerPart, 2, "INDIVIDUALIEJI DARBO SANTYKIAI"},
		{statute.MarkerChapter, 2, "DARBO SUTARTIS"},
		{statute.MarkerSection, 1, "DARBO SUTARTIES SUDARYMAS"},
		{statute.MarkerSection, 2, "DARBO SUTARTIES VYKDYMAS"},
		{statute.MarkerChapter, 3, "DARBO LAIKAS"},
	}

	gt.Array(t, markers).Length(len(expected)).Required()
	for i, w := range expected {
		gt.Value(t, markers[i].Kind).Equal(w.kind)
		gt.Value(t, markers[i].Number).Equal(w.number)
		gt.Value(t, markers[i].Title).Equal(w.title)
		if i > 0 {
			gt.Bool(t, markers[i-1].Offset < markers[i].Offset).True()
		}
	}
}

func TestFindMarkersIgnoresUnknownOrdinals(t *testing.T) {
	markers := statute.FindMarkers("BENDROJI DALIS\nTitulas\n\nIIII SKYRIUS\nTitulas")
	gt.Array(t, markers).Length(0)
}

func TestHeadingTitle(t *testing.T) {
	gt.Value(t, statute.HeadingTitle("I SKYRIUS\n\nBENDROSIOS NUOSTATOS\n", 9)).Equal("BENDROSIOS NUOSTATOS")
	gt.Value(t, statute.HeadingTitle("I SKYRIUS\n1 straipsnis. Paskirtis\n", 9)).Equal("")
	gt.Value(t, statute.HeadingTitle("I SKYRIUS", 9)).Equal("")
}

func TestRomanValue(t *testing.T) {
	testCases := []struct {
		input string
		want  int
		ok    bool
	}{
		{"I", 1, true},
		{"IV", 4, true},
		{"IX", 9, true},
		{"XIV", 14, true},
		{"XL", 40, true},
		{"XCIX", 99, true},
		{"IIII", 0, false},
		{"VX", 0, false},
		{"", 0, false},
		{"ABC", 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, ok := statute.RomanValue(tc.input)
			gt.Value(t, ok).Equal(tc.ok)
			gt.Value(t, got).Equal(tc.want)
		})
	}
}

func TestOrdinals(t *testing.T) {
	n, ok := statute.FeminineOrdinal("TREČIOJI")
	gt.Bool(t, ok).True()
	gt.Value(t, n).Equal(3)

	n, ok = statute.MasculineOrdinal("Dešimtasis")
	gt.Bool(t, ok).True()
	gt.Value(t, n).Equal(10)

	_, ok = statute.FeminineOrdinal("PIRMASIS")
	gt.Bool(t, ok).False()
}
