package model

// Chunk is an overlapping window of a longer text. Start and End are rune offsets into the
// parent text, before trimming.
type Chunk struct {
	ParentID                string
	Index                   int
	TotalChunks             int
	Text                    string
	CharOverlapWithPrevious int
	Start                   int
	End                     int
}
