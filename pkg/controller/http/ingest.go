package http

import (
	"context"
	"net/http"
)

// IngestTrigger starts a background re-ingestion of the corpus
type IngestTrigger interface {
	// Trigger returns false when a run is already active
	Trigger(ctx context.Context) bool
}

func ingestHandler(trigger IngestTrigger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !trigger.Trigger(r.Context()) {
			writeJSON(w, r, http.StatusConflict, map[string]string{"status": "running"})
			return
		}
		writeJSON(w, r, http.StatusAccepted, map[string]string{"status": "started"})
	}
}
