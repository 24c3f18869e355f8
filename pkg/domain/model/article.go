package model

import "strconv"

// Article is one numbered provision of a statute or resolution. Start and End are byte
// offsets into the normalised document text; End is the start of the next retained article
// (or the end of the text).
type Article struct {
	Number   int
	Title    string
	BodyText string

	PartNumber    int
	PartTitle     string
	ChapterNumber int
	ChapterTitle  string
	SectionNumber int
	SectionTitle  string

	CrossReferences []int

	Start int
	End   int
}

// Heading renders the article number and title the way the source prints it
func (a *Article) Heading() string {
	if a.Title == "" {
		return strconv.Itoa(a.Number) + " straipsnis."
	}
	return strconv.Itoa(a.Number) + " straipsnis. " + a.Title
}
