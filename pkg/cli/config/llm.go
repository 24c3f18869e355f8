package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/m-mizutani/gollem/llm/openai"
	"github.com/secmon-lab/darbolex/pkg/service/embedding"
	"github.com/secmon-lab/darbolex/pkg/service/relevance"
	"github.com/urfave/cli/v3"
)

// LLM holds configuration for the LLM client used for embeddings and relevance extraction
type LLM struct {
	provider string

	geminiProject        string
	geminiLocation       string
	geminiModel          string
	geminiEmbeddingModel string

	openaiAPIKey         string
	openaiModel          string
	openaiEmbeddingModel string

	embedInterval  time.Duration
	maxArticleRefs int
	noRelevance    bool
}

func (x *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm-provider",
			Usage:       "LLM provider (gemini, openai)",
			Category:    "LLM",
			Value:       "gemini",
			Sources:     cli.EnvVars("DARBOLEX_LLM_PROVIDER"),
			Destination: &x.provider,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini API",
			Category:    "LLM",
			Sources:     cli.EnvVars("DARBOLEX_GEMINI_PROJECT"),
			Destination: &x.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini API",
			Category:    "LLM",
			Value:       "us-central1",
			Sources:     cli.EnvVars("DARBOLEX_GEMINI_LOCATION"),
			Destination: &x.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model for relevance extraction",
			Category:    "LLM",
			Sources:     cli.EnvVars("DARBOLEX_GEMINI_MODEL"),
			Destination: &x.geminiModel,
		},
		&cli.StringFlag{
			Name:        "gemini-embedding-model",
			Usage:       "Gemini embedding model",
			Category:    "LLM",
			Sources:     cli.EnvVars("DARBOLEX_GEMINI_EMBEDDING_MODEL"),
			Destination: &x.geminiEmbeddingModel,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key",
			Category:    "LLM",
			Sources:     cli.EnvVars("DARBOLEX_OPENAI_API_KEY"),
			Destination: &x.openaiAPIKey,
		},
		&cli.StringFlag{
			Name:        "openai-model",
			Usage:       "OpenAI model for relevance extraction",
			Category:    "LLM",
			Sources:     cli.EnvVars("DARBOLEX_OPENAI_MODEL"),
			Destination: &x.openaiModel,
		},
		&cli.StringFlag{
			Name:        "openai-embedding-model",
			Usage:       "OpenAI embedding model",
			Category:    "LLM",
			Sources:     cli.EnvVars("DARBOLEX_OPENAI_EMBEDDING_MODEL"),
			Destination: &x.openaiEmbeddingModel,
		},
		&cli.DurationFlag{
			Name:        "embed-interval",
			Usage:       "Minimum pause between two embedding calls",
			Category:    "LLM",
			Value:       embedding.DefaultInterval,
			Sources:     cli.EnvVars("DARBOLEX_EMBED_INTERVAL"),
			Destination: &x.embedInterval,
		},
		&cli.IntFlag{
			Name:        "max-article-refs",
			Usage:       "Maximum number of article numbers extracted from a question",
			Category:    "LLM",
			Value:       relevance.DefaultMaxNumbers,
			Sources:     cli.EnvVars("DARBOLEX_MAX_ARTICLE_REFS"),
			Destination: &x.maxArticleRefs,
		},
		&cli.BoolFlag{
			Name:        "no-relevance",
			Usage:       "Disable article relevance extraction (semantic search only)",
			Category:    "LLM",
			Sources:     cli.EnvVars("DARBOLEX_NO_RELEVANCE"),
			Destination: &x.noRelevance,
		},
	}
}

func (x LLM) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("provider", x.provider),
		slog.String("gemini_project", x.geminiProject),
		slog.String("gemini_location", x.geminiLocation),
		slog.Int("openai_api_key.len", len(x.openaiAPIKey)),
		slog.Duration("embed_interval", x.embedInterval),
		slog.Bool("relevance", !x.noRelevance),
	)
}

// Configure creates the LLM client. Missing credentials are an error.
func (x *LLM) Configure(ctx context.Context) (gollem.LLMClient, error) {
	switch x.provider {
	case "gemini":
		if x.geminiProject == "" {
			return nil, goerr.Wrap(ErrMissingCredential, "--gemini-project is required for gemini provider")
		}

		var opts []gemini.Option
		if x.geminiModel != "" {
			opts = append(opts, gemini.WithModel(x.geminiModel))
		}
		if x.geminiEmbeddingModel != "" {
			opts = append(opts, gemini.WithEmbeddingModel(x.geminiEmbeddingModel))
		}
		client, err := gemini.New(ctx, x.geminiProject, x.geminiLocation, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Gemini client")
		}
		return client, nil

	case "openai":
		if x.openaiAPIKey == "" {
			return nil, goerr.Wrap(ErrMissingCredential, "--openai-api-key is required for openai provider")
		}

		var opts []openai.Option
		if x.openaiModel != "" {
			opts = append(opts, openai.WithModel(x.openaiModel))
		}
		if x.openaiEmbeddingModel != "" {
			opts = append(opts, openai.WithEmbeddingModel(x.openaiEmbeddingModel))
		}
		client, err := openai.New(ctx, x.openaiAPIKey, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create OpenAI client")
		}
		return client, nil

	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid LLM provider", goerr.V("provider", x.provider))
	}
}

// Embedder wraps client into the embedding service
func (x *LLM) Embedder(client gollem.LLMClient) (embedding.Service, error) {
	return embedding.New(client, embedding.WithInterval(x.embedInterval))
}

// Relevance wraps client into the relevance service, or returns nil when disabled
func (x *LLM) Relevance(client gollem.LLMClient) (relevance.Service, error) {
	if x.noRelevance {
		return nil, nil
	}
	return relevance.New(client, relevance.WithMaxNumbers(x.maxArticleRefs))
}
