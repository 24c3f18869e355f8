package model

// Case is one adjudicated matter extracted from a court-practice bulletin
type Case struct {
	CaseNumber     string // empty when no docket number could be extracted
	Title          string
	RawContent     string
	Summary        string
	SourceDocument DocumentSlug
	Sequence       int
}

// EmbeddingText is the text sent to the embedding service. The docket number is put in
// front so that identifier-bearing queries land on the right case.
func (c *Case) EmbeddingText() string {
	if c.CaseNumber == "" {
		return c.RawContent
	}
	return "Bylos Nr. " + c.CaseNumber + "\n" + c.RawContent
}
