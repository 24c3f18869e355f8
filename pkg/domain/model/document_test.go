package model_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/darbolex/pkg/domain/model"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  model.DocumentSlug
	}{
		{input: "Darbo kodeksas", want: "darbo-kodeksas"},
		{input: "Lietuvos Aukščiausiojo Teismo praktika Nr. 55", want: "lietuvos-auksciausiojo-teismo-praktika-nr-55"},
		{input: "https://www.e-tar.lt/portal/lt/legalAct/f6d686707e7011e6b969d7ae07280e89", want: "https-www-e-tar-lt-portal-lt-legalact-f6d686707e7011e6b969d7ae07280e89"},
		{input: "  ŽŪŲĘĖĮŠČĄ  ", want: "zuueeisca"},
		{input: "---", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			gt.Value(t, model.Slugify(tt.input)).Equal(tt.want)
		})
	}
}

func TestDocumentSlug_Validate(t *testing.T) {
	gt.NoError(t, model.DocumentSlug("darbo-kodeksas").Validate())
	gt.Error(t, model.DocumentSlug("").Validate())
	gt.Error(t, model.DocumentSlug("a/b").Validate())
	gt.Error(t, model.DocumentSlug("kodeksas ž").Validate())
}

func TestSourceType_Validate(t *testing.T) {
	for _, st := range []model.SourceType{
		model.SourceTypeStatute, model.SourceTypeRuling, model.SourceTypeResolution,
		model.SourceTypeFAQ, model.SourceTypeWebPage,
	} {
		gt.NoError(t, st.Validate())
	}

	err := model.SourceType("pdf").Validate()
	gt.Bool(t, errors.Is(err, model.ErrInvalidSourceType)).True()

	gt.Bool(t, model.SourceTypeStatute.Structured()).True()
	gt.Bool(t, model.SourceTypeResolution.Structured()).True()
	gt.Bool(t, model.SourceTypeFAQ.Structured()).False()
}
