package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

const (
	// EmbeddingDimension is the dimension of every stored vector
	EmbeddingDimension = 768

	// MaxEmbeddingInputChars bounds the text sent to the embedding service
	MaxEmbeddingInputChars = 8000

	// MaxMetadataTextChars bounds the preview text stored next to a vector. Retrieval works on
	// this truncated copy, never on the full source text.
	MaxMetadataTextChars = 4000

	// DirectMatchScore is assigned to passages fetched by structural ID
	DirectMatchScore = 1.0
)

// UnitKind is the granularity a vector was derived from
type UnitKind string

const (
	UnitKindArticle UnitKind = "str"
	UnitKindChunk   UnitKind = "chunk"
	UnitKindCase    UnitKind = "case"
)

// VectorID is the deterministic identifier of an IndexedVector
type VectorID string

// NewVectorID derives the ID of a unit. It is a pure function of its inputs; re-ingesting the
// same document always produces the same IDs, so upserts overwrite instead of duplicating.
func NewVectorID(slug DocumentSlug, kind UnitKind, position int) VectorID {
	return VectorID(string(slug) + "-" + string(kind) + "-" + strconv.Itoa(position))
}

// ArticleVectorID returns `{slug}-str-{number}`
func ArticleVectorID(slug DocumentSlug, number int) VectorID {
	return NewVectorID(slug, UnitKindArticle, number)
}

// ChunkVectorID returns `{slug}-chunk-{index}`
func ChunkVectorID(slug DocumentSlug, index int) VectorID {
	return NewVectorID(slug, UnitKindChunk, index)
}

// CaseVectorID returns `{slug}-case-{index}`
func CaseVectorID(slug DocumentSlug, index int) VectorID {
	return NewVectorID(slug, UnitKindCase, index)
}

// BelongsTo reports whether id was derived from slug
func (id VectorID) BelongsTo(slug DocumentSlug) bool {
	rest, ok := strings.CutPrefix(string(id), string(slug)+"-")
	if !ok {
		return false
	}
	for _, kind := range []UnitKind{UnitKindArticle, UnitKindChunk, UnitKindCase} {
		if pos, ok := strings.CutPrefix(rest, string(kind)+"-"); ok {
			_, err := strconv.Atoi(pos)
			return err == nil
		}
	}
	return false
}

// VectorMetadata is the denormalised payload stored next to a vector. All values are
// scalars or short strings.
type VectorMetadata struct {
	DocType       SourceType
	DocumentSlug  DocumentSlug
	SourceID      string
	DocumentTitle string
	UnitKind      UnitKind

	ArticleNumber   int
	ArticleTitle    string
	PartTitle       string
	ChapterTitle    string
	SectionTitle    string
	CrossReferences string // comma separated article numbers

	CaseNumber string
	CaseTitle  string

	ChunkIndex  int
	TotalChunks int

	Text        string // truncated to MaxMetadataTextChars
	ContentHash string // hash of the embedding input
	IndexedAt   time.Time
}

// IndexedVector is the unit stored in the vector index
type IndexedVector struct {
	ID        VectorID
	Embedding []float32
	Metadata  VectorMetadata
}

// Match is a vector returned by a similarity query; Score is cosine similarity in [0,1]
type Match struct {
	IndexedVector
	Score float64
}

// QueryFilter narrows a similarity query by metadata
type QueryFilter struct {
	DocType SourceType
}

// ContentHash returns a stable hash of an embedding input
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// TruncateRunes cuts s to at most n runes
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// JoinInts renders numbers as "1,2,3"
func JoinInts(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
