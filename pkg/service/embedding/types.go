package embedding

import "context"

// Service turns text into normalised embedding vectors
type Service interface {
	// Embed returns a unit-length vector of the configured dimension. Calls are paced by
	// the service's limiter; Embed blocks until a slot is available or ctx is done.
	Embed(ctx context.Context, text string) ([]float32, error)
}
