package model

// Passage is one retrieved unit handed to the answer-generation layer
type Passage struct {
	ID     VectorID
	Score  float64
	Direct bool // fetched by structural ID rather than similarity
	Text   string

	DocType       SourceType
	DocumentSlug  DocumentSlug
	DocumentTitle string
	SourceID      string
	ArticleNumber int
	ArticleTitle  string
	ChapterTitle  string
	CaseNumber    string
	CaseTitle     string
}

// NewPassage builds a passage from a stored vector
func NewPassage(v *IndexedVector, score float64, direct bool) *Passage {
	md := v.Metadata
	return &Passage{
		ID:            v.ID,
		Score:         score,
		Direct:        direct,
		Text:          md.Text,
		DocType:       md.DocType,
		DocumentSlug:  md.DocumentSlug,
		DocumentTitle: md.DocumentTitle,
		SourceID:      md.SourceID,
		ArticleNumber: md.ArticleNumber,
		ArticleTitle:  md.ArticleTitle,
		ChapterTitle:  md.ChapterTitle,
		CaseNumber:    md.CaseNumber,
		CaseTitle:     md.CaseTitle,
	}
}
