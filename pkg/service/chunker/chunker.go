package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/darbolex/pkg/domain/model"
)

const (
	DefaultWindowTokens  = 800
	DefaultOverlapTokens = 100
	DefaultMinChars      = 50

	// CharsPerToken approximates the embedding tokenizer for Lithuanian prose
	CharsPerToken = 4
)

// Preferred break points, best first
var separators = []string{". ", ".\n", "\n\n", "\n", ", "}

var ErrInvalidWindow = goerr.New("invalid chunk window")

// Chunker splits long text into overlapping windows that end on natural boundaries.
type Chunker struct {
	size     int
	overlap  int
	minChars int
}

// Option configures a Chunker
type Option func(*Chunker)

// WithWindowTokens sets the window size in tokens
func WithWindowTokens(n int) Option {
	return func(c *Chunker) {
		c.size = n * CharsPerToken
	}
}

// WithOverlapTokens sets the overlap between consecutive windows in tokens
func WithOverlapTokens(n int) Option {
	return func(c *Chunker) {
		c.overlap = n * CharsPerToken
	}
}

// WithMinChars sets the minimum length of an emitted chunk in runes
func WithMinChars(n int) Option {
	return func(c *Chunker) {
		c.minChars = n
	}
}

// New creates a Chunker. The overlap must be less than half the window, otherwise a window
// snapped back to its midpoint would not advance.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		size:     DefaultWindowTokens * CharsPerToken,
		overlap:  DefaultOverlapTokens * CharsPerToken,
		minChars: DefaultMinChars,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.size <= 0 || c.overlap < 0 || c.overlap*2 >= c.size {
		return nil, goerr.Wrap(ErrInvalidWindow, "overlap must be less than half of window",
			goerr.V("window", c.size),
			goerr.V("overlap", c.overlap))
	}
	return c, nil
}

// WindowChars is the character budget of a chunk
func (c *Chunker) WindowChars() int { return c.size }

// OverlapChars is the overlap between consecutive windows
func (c *Chunker) OverlapChars() int { return c.overlap }

// Split cuts text into chunks. Each chunk is at most WindowChars runes long and chunks
// below the minimum length are dropped; the second value counts the dropped non-blank
// windows.
func (c *Chunker) Split(parentID, text string) ([]*model.Chunk, int) {
	runes := []rune(text)
	n := len(runes)

	var chunks []*model.Chunk
	dropped := 0
	prevEnd := -1

	for start := 0; start < n; {
		end := min(start+c.size, n)
		if end < n {
			end = c.snap(runes, start, end)
		}

		piece := strings.TrimSpace(string(runes[start:end]))
		if size := utf8.RuneCountInString(piece); size > 0 && size < c.minChars {
			dropped++
		} else if size >= c.minChars {
			overlap := 0
			if prevEnd > start {
				overlap = prevEnd - start
			}
			chunks = append(chunks, &model.Chunk{
				ParentID:                parentID,
				Index:                   len(chunks),
				Text:                    piece,
				CharOverlapWithPrevious: overlap,
				Start:                   start,
				End:                     end,
			})
			prevEnd = end
		}

		if end >= n {
			break
		}
		next := end - c.overlap
		if next <= start {
			break
		}
		start = next
	}

	for _, chunk := range chunks {
		chunk.TotalChunks = len(chunks)
	}
	return chunks, dropped
}

// snap moves end back to the most preferred break found in the window, accepting only
// breaks in its second half.
func (c *Chunker) snap(runes []rune, start, end int) int {
	window := string(runes[start:end])
	half := (end - start) / 2

	for _, sep := range separators {
		idx := strings.LastIndex(window, sep)
		if idx < 0 {
			continue
		}
		cut := utf8.RuneCountInString(window[:idx+len(sep)])
		if cut >= half {
			return start + cut
		}
	}
	return end
}
