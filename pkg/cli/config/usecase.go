package config

import (
	"log/slog"

	"github.com/secmon-lab/darbolex/pkg/domain/model"
	"github.com/secmon-lab/darbolex/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Retrieval holds tuning knobs of ingestion and retrieval
type Retrieval struct {
	topK            int
	maxPassages     int
	upsertBatchSize int
	statuteSlug     string
}

func (x *Retrieval) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "top-k",
			Usage:       "Number of semantic matches requested from the vector index",
			Category:    "Retrieval",
			Value:       usecase.DefaultTopK,
			Sources:     cli.EnvVars("DARBOLEX_TOP_K"),
			Destination: &x.topK,
		},
		&cli.IntFlag{
			Name:        "max-passages",
			Usage:       "Maximum number of passages returned by one retrieval",
			Category:    "Retrieval",
			Value:       usecase.DefaultMaxPassages,
			Sources:     cli.EnvVars("DARBOLEX_MAX_PASSAGES"),
			Destination: &x.maxPassages,
		},
		&cli.IntFlag{
			Name:        "upsert-batch-size",
			Usage:       "Number of vectors written per upsert call",
			Category:    "Retrieval",
			Value:       usecase.DefaultUpsertBatchSize,
			Sources:     cli.EnvVars("DARBOLEX_UPSERT_BATCH_SIZE"),
			Destination: &x.upsertBatchSize,
		},
		&cli.StringFlag{
			Name:        "statute-slug",
			Usage:       "Slug of the statute whose articles are fetched by number (overrides the corpus file)",
			Category:    "Retrieval",
			Sources:     cli.EnvVars("DARBOLEX_STATUTE_SLUG"),
			Destination: &x.statuteSlug,
		},
	}
}

func (x Retrieval) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("top_k", x.topK),
		slog.Int("max_passages", x.maxPassages),
		slog.Int("upsert_batch_size", x.upsertBatchSize),
		slog.String("statute_slug", x.statuteSlug),
	)
}

// Options converts the flags into usecase options. fallbackSlug is used when
// --statute-slug is not set.
func (x *Retrieval) Options(fallbackSlug model.DocumentSlug) []usecase.Option {
	opts := []usecase.Option{
		usecase.WithTopK(x.topK),
		usecase.WithMaxPassages(x.maxPassages),
		usecase.WithUpsertBatchSize(x.upsertBatchSize),
	}

	switch {
	case x.statuteSlug != "":
		opts = append(opts, usecase.WithStatuteSlug(model.DocumentSlug(x.statuteSlug)))
	case fallbackSlug != "":
		opts = append(opts, usecase.WithStatuteSlug(fallbackSlug))
	}
	return opts
}
