package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/darbolex/pkg/cli/config"
	"github.com/secmon-lab/darbolex/pkg/domain/model"
	"github.com/secmon-lab/darbolex/pkg/service/embedding"
	"github.com/secmon-lab/darbolex/pkg/usecase"
	"github.com/secmon-lab/darbolex/pkg/utils/logging"
	"github.com/secmon-lab/darbolex/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdIngest() *cli.Command {
	var (
		slugs     []string
		replace   bool
		dryRun    bool
		corpusCfg config.Corpus
		indexCfg  config.VectorIndex
		llmCfg    config.LLM
		sourceCfg config.Source
		archCfg   config.Archive
		slackCfg  config.Slack
		tuning    config.Retrieval
	)

	flags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "slug",
			Aliases:     []string{"s"},
			Usage:       "Ingest only the named documents (repeatable)",
			Destination: &slugs,
		},
		&cli.BoolFlag{
			Name:        "replace",
			Usage:       "Delete every stored vector of a document and re-embed it from scratch",
			Destination: &replace,
		},
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Load and parse documents, report counts, and leave the index untouched",
			Destination: &dryRun,
		},
	}
	flags = append(flags, corpusCfg.Flags()...)
	flags = append(flags, indexCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, sourceCfg.Flags()...)
	flags = append(flags, archCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, tuning.Flags()...)

	return &cli.Command{
		Name:    "ingest",
		Aliases: []string{"i"},
		Usage:   "Load corpus documents and synchronise their vectors with the index",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			corpus, err := corpusCfg.Configure()
			if err != nil {
				return err
			}
			entries, err := corpus.Select(slugs)
			if err != nil {
				return err
			}

			// Credentials are checked before any document is fetched
			var embedder embedding.Service
			if !dryRun {
				llmClient, err := llmCfg.Configure(ctx)
				if err != nil {
					return err
				}
				embedder, err = llmCfg.Embedder(llmClient)
				if err != nil {
					return goerr.Wrap(err, "failed to create embedding service")
				}
			}

			index, err := indexCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer safe.Close(ctx, index)

			loader, err := sourceCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to create source loader")
			}

			ucOpts := []usecase.Option{usecase.WithLoader(loader)}
			ucOpts = append(ucOpts, tuning.Options(corpus.StatuteSlug)...)

			if !dryRun {
				arch, err := archCfg.Configure(ctx)
				if err != nil {
					return goerr.Wrap(err, "failed to create source archive")
				}
				if arch != nil {
					defer safe.Close(ctx, arch)
					ucOpts = append(ucOpts, usecase.WithArchive(arch))
				}

				notifier, err := slackCfg.Configure()
				if err != nil {
					return goerr.Wrap(err, "failed to create Slack notifier")
				}
				if notifier != nil {
					ucOpts = append(ucOpts, usecase.WithNotifier(notifier))
				}
			}

			uc, err := usecase.New(index, embedder, ucOpts...)
			if err != nil {
				return goerr.Wrap(err, "failed to create use cases")
			}

			mode := model.IngestModeIncremental
			if replace {
				mode = model.IngestModeReplace
			}

			logger.Info("Ingest configuration",
				"documents", len(entries),
				"mode", mode,
				"dry_run", dryRun,
				"index", indexCfg,
				"llm", llmCfg,
				"source", sourceCfg,
				"archive", archCfg,
				"slack", slackCfg,
				"retrieval", tuning,
			)

			reports, err := uc.Ingest.Run(ctx, entries, usecase.IngestOptions{Mode: mode, DryRun: dryRun})
			printReports(c.Root().Writer, reports)
			return err
		},
	}
}
