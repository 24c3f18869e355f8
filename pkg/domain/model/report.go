package model

import (
	"time"

	"github.com/google/uuid"
)

// IngestMode selects how an ingestion run treats vectors already in the index
type IngestMode string

const (
	// IngestModeIncremental skips units whose content hash is unchanged and deletes stale IDs
	IngestModeIncremental IngestMode = "incremental"
	// IngestModeReplace deletes every vector of the document before upserting
	IngestModeReplace IngestMode = "replace"
)

// RunID identifies one ingestion run in logs and reports
type RunID string

// NewRunID returns a random run ID
func NewRunID() RunID {
	return RunID(uuid.NewString())
}

// IngestReport summarises the ingestion of one document
type IngestReport struct {
	RunID    RunID
	Document DocumentSlug
	Title    string
	Mode     IngestMode
	DryRun   bool

	// Candidates is the number of units derived from the document
	Candidates     int
	Unchanged      int
	Embedded       int
	EmbedFailures  int
	Upserted       int
	UpsertFailures int
	Deleted        int
	// Dropped counts candidates discarded by the parser or segmenter integrity rules
	Dropped int

	StartedAt time.Time
	Duration  time.Duration
}

// Failed reports whether any unit could not be embedded or written
func (r *IngestReport) Failed() bool {
	return r.EmbedFailures > 0 || r.UpsertFailures > 0
}
