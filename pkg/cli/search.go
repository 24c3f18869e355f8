package cli

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/darbolex/pkg/cli/config"
	"github.com/secmon-lab/darbolex/pkg/domain/model"
	"github.com/secmon-lab/darbolex/pkg/usecase"
	"github.com/secmon-lab/darbolex/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdSearch() *cli.Command {
	var (
		docType  string
		asJSON   bool
		full     bool
		indexCfg config.VectorIndex
		llmCfg   config.LLM
		tuning   config.Retrieval
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "doc-type",
			Usage:       "Restrict semantic search to one source type (statute, ruling, resolution, faq, web-page)",
			Destination: &docType,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "Print the retrieval result as JSON",
			Destination: &asJSON,
		},
		&cli.BoolFlag{
			Name:        "full",
			Usage:       "Print full passage text instead of a preview",
			Destination: &full,
		},
	}
	flags = append(flags, indexCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, tuning.Flags()...)

	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"q"},
		Usage:     "Run hybrid retrieval for a question and print the passages",
		ArgsUsage: "<question>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			query := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(query) == "" {
				return goerr.Wrap(usecase.ErrEmptyQuery, "question argument is required")
			}

			opts := usecase.RetrieveOptions{DocType: model.SourceType(docType)}
			if opts.DocType != "" {
				if err := opts.DocType.Validate(); err != nil {
					return err
				}
			}

			uc, closer, err := newRetrievalUseCases(ctx, &indexCfg, &llmCfg, &tuning, "")
			if err != nil {
				return err
			}
			defer closer()

			result, err := uc.Retrieve.Retrieve(ctx, query, opts)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return goerr.Wrap(err, "failed to encode retrieval result")
				}
				return nil
			}

			printRetrieval(w, result, full)
			return nil
		},
	}
}

// newRetrievalUseCases builds the use cases needed by search and serve. The returned
// function closes the vector index.
func newRetrievalUseCases(ctx context.Context, indexCfg *config.VectorIndex, llmCfg *config.LLM, tuning *config.Retrieval, statuteSlug model.DocumentSlug, extra ...usecase.Option) (*usecase.UseCases, func(), error) {
	llmClient, err := llmCfg.Configure(ctx)
	if err != nil {
		return nil, nil, err
	}
	embedder, err := llmCfg.Embedder(llmClient)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create embedding service")
	}
	relevanceSvc, err := llmCfg.Relevance(llmClient)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create relevance service")
	}

	index, err := indexCfg.Configure(ctx)
	if err != nil {
		return nil, nil, err
	}
	closer := func() { safe.Close(ctx, index) }

	ucOpts := tuning.Options(statuteSlug)
	if relevanceSvc != nil {
		ucOpts = append(ucOpts, usecase.WithRelevance(relevanceSvc))
	}
	ucOpts = append(ucOpts, extra...)

	uc, err := usecase.New(index, embedder, ucOpts...)
	if err != nil {
		closer()
		return nil, nil, goerr.Wrap(err, "failed to create use cases")
	}
	return uc, closer, nil
}
