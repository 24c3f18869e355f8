package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/darbolex/pkg/cli/config"
	httpctrl "github.com/secmon-lab/darbolex/pkg/controller/http"
	"github.com/secmon-lab/darbolex/pkg/domain/model"
	"github.com/secmon-lab/darbolex/pkg/service/worker"
	"github.com/secmon-lab/darbolex/pkg/usecase"
	"github.com/secmon-lab/darbolex/pkg/utils/logging"
	"github.com/secmon-lab/darbolex/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		addr             string
		apiToken         string
		reingestInterval time.Duration
		ingestAPI        bool
		corpusCfg        config.Corpus
		indexCfg         config.VectorIndex
		llmCfg           config.LLM
		sourceCfg        config.Source
		archCfg          config.Archive
		slackCfg         config.Slack
		tuning           config.Retrieval
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       "127.0.0.1:8080",
			Sources:     cli.EnvVars("DARBOLEX_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "api-token",
			Usage:       "Bearer token required on /api routes; open when empty",
			Sources:     cli.EnvVars("DARBOLEX_API_TOKEN"),
			Destination: &apiToken,
		},
		&cli.DurationFlag{
			Name:        "reingest-interval",
			Usage:       "Run incremental ingestion of the corpus periodically; disabled when zero",
			Sources:     cli.EnvVars("DARBOLEX_REINGEST_INTERVAL"),
			Destination: &reingestInterval,
		},
		&cli.BoolFlag{
			Name:        "ingest-api",
			Usage:       "Enable POST /api/ingest to trigger incremental ingestion",
			Sources:     cli.EnvVars("DARBOLEX_INGEST_API"),
			Destination: &ingestAPI,
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
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Serve the retrieval API over HTTP",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			reingest := reingestInterval > 0 || ingestAPI

			var (
				corpus *config.CorpusFile
				ucOpts []usecase.Option
				slug   model.DocumentSlug
			)
			if reingest {
				var err error
				corpus, err = corpusCfg.Configure()
				if err != nil {
					return err
				}
				slug = corpus.StatuteSlug

				ingestOpts, closeIngest, err := ingestionOptions(ctx, &sourceCfg, &archCfg, &slackCfg)
				if err != nil {
					return err
				}
				defer closeIngest()
				ucOpts = append(ucOpts, ingestOpts...)
			}

			uc, closer, err := newRetrievalUseCases(ctx, &indexCfg, &llmCfg, &tuning, slug, ucOpts...)
			if err != nil {
				return err
			}
			defer closer()

			var httpOpts []httpctrl.Options
			if apiToken != "" {
				httpOpts = append(httpOpts, httpctrl.WithAPIToken(apiToken))
			}

			if reingest {
				job := func(ctx context.Context) error {
					_, err := uc.Ingest.Run(ctx, corpus.Documents, usecase.IngestOptions{Mode: model.IngestModeIncremental})
					return err
				}
				w := worker.NewReingestWorker(job, reingestInterval)
				w.Start(ctx)
				defer w.Stop()

				if ingestAPI {
					httpOpts = append(httpOpts, httpctrl.WithIngestTrigger(w))
				}
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc.Retrieve, httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server",
					"addr", addr,
					"auth", apiToken != "",
					"reingest_interval", reingestInterval,
					"ingest_api", ingestAPI,
					"index", indexCfg,
					"llm", llmCfg,
					"retrieval", tuning,
				)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)
			case <-ctx.Done():
				logging.Default().Info("Context cancelled, shutting down")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server")
			}
			logging.Default().Info("Server stopped")
			return nil
		},
	}
}

// ingestionOptions builds the loader, archive and notifier used by ingestion. The returned
// function closes the archive.
func ingestionOptions(ctx context.Context, sourceCfg *config.Source, archCfg *config.Archive, slackCfg *config.Slack) ([]usecase.Option, func(), error) {
	closer := func() {}

	loader, err := sourceCfg.Configure()
	if err != nil {
		return nil, closer, goerr.Wrap(err, "failed to create source loader")
	}
	opts := []usecase.Option{usecase.WithLoader(loader)}

	notifier, err := slackCfg.Configure()
	if err != nil {
		return nil, closer, goerr.Wrap(err, "failed to create Slack notifier")
	}
	if notifier != nil {
		opts = append(opts, usecase.WithNotifier(notifier))
	}

	arch, err := archCfg.Configure(ctx)
	if err != nil {
		return nil, closer, goerr.Wrap(err, "failed to create source archive")
	}
	if arch != nil {
		closer = func() { safe.Close(ctx, arch) }
		opts = append(opts, usecase.WithArchive(arch))
	}

	return opts, closer, nil
}
