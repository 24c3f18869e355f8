package embedding

import (
	"strconv"
	"strings"

	"github.com/secmon-lab/darbolex/pkg/domain/model"
)

// ArticleInput renders an article with its document and hierarchy headers so that the
// vector carries structural context.
func ArticleInput(documentTitle string, a *model.Article) string {
	var sb strings.Builder
	writeHeader(&sb, "Dokumentas", documentTitle)
	writeHeader(&sb, "Dalis", a.PartTitle)
	writeHeader(&sb, "Skyrius", a.ChapterTitle)
	writeHeader(&sb, "Skirsnis", a.SectionTitle)
	writeHeader(&sb, "Straipsnis", a.Heading())
	sb.WriteString("\n")
	sb.WriteString(a.BodyText)
	return model.TruncateRunes(sb.String(), model.MaxEmbeddingInputChars)
}

// CaseInput renders a court case with its bulletin title and docket number
func CaseInput(documentTitle string, c *model.Case) string {
	var sb strings.Builder
	writeHeader(&sb, "Dokumentas", documentTitle)
	writeHeader(&sb, "Byla", c.Title)
	sb.WriteString("\n")
	sb.WriteString(c.EmbeddingText())
	return model.TruncateRunes(sb.String(), model.MaxEmbeddingInputChars)
}

// ChunkInput renders a chunk with its document title and position
func ChunkInput(documentTitle string, c *model.Chunk) string {
	var sb strings.Builder
	writeHeader(&sb, "Dokumentas", documentTitle)
	writeHeader(&sb, "Fragmentas", strconv.Itoa(c.Index+1)+"/"+strconv.Itoa(c.TotalChunks))
	sb.WriteString("\n")
	sb.WriteString(c.Text)
	return model.TruncateRunes(sb.String(), model.MaxEmbeddingInputChars)
}

func writeHeader(sb *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	sb.WriteString("[")
	sb.WriteString(label)
	sb.WriteString(": ")
	sb.WriteString(value)
	sb.WriteString("]\n")
}
