package cli

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/darbolex/pkg/cli/config"
	"github.com/secmon-lab/darbolex/pkg/domain/model"
	"github.com/secmon-lab/darbolex/pkg/utils/logging"
	"github.com/secmon-lab/darbolex/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var indexCfg config.VectorIndex
	var dryRun bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Preview changes without applying (firestore only)",
			Destination: &dryRun,
		},
	}
	flags = append(flags, indexCfg.Flags()...)

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Create vector index schema (Firestore indexes or PostgreSQL table)",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logging.Default().Info("Migrate configuration", "index", indexCfg, "dryRun", dryRun)

			switch indexCfg.Backend() {
			case config.BackendFirestore:
				return migrateFirestore(ctx, &indexCfg, dryRun)

			case config.BackendPostgres:
				idx, err := indexCfg.ConfigurePostgres(ctx)
				if err != nil {
					return err
				}
				defer safe.Close(ctx, idx)

				if err := idx.Migrate(ctx); err != nil {
					return goerr.Wrap(err, "failed to migrate postgres schema")
				}
				logging.Default().Info("PostgreSQL schema is ready")
				return nil

			case config.BackendMemory:
				logging.Default().Info("In-memory index needs no migration")
				return nil

			default:
				return goerr.Wrap(config.ErrUnsupportedBackend, "cannot migrate",
					goerr.V(config.BackendKey, indexCfg.Backend()))
			}
		},
	}
}

func migrateFirestore(ctx context.Context, indexCfg *config.VectorIndex, dryRun bool) error {
	logger := logging.Default()

	if indexCfg.ProjectID() == "" {
		return goerr.Wrap(config.ErrMissingCredential, "firestore-project-id is required")
	}
	databaseID := indexCfg.DatabaseID()
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := fireconf.New(ctx, indexCfg.ProjectID(), databaseID,
		getIndexConfig(indexCfg.Collection()),
		fireconf.WithLogger(logger),
		fireconf.WithDryRun(dryRun),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to create fireconf client")
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close fireconf client", "error", err.Error())
		}
	}()

	if dryRun {
		logger.Info("Dry run mode - previewing changes")
	} else {
		logger.Info("Applying migrations")
	}
	if err := client.Migrate(ctx); err != nil {
		return goerr.Wrap(err, "failed to apply migrations",
			goerr.V("collection", indexCfg.Collection()),
			goerr.V("dry_run", dryRun))
	}
	logger.Info("Migrations applied successfully", "dry_run", dryRun)
	return nil
}

// getIndexConfig returns the Firestore index configuration of the vector collection
func getIndexConfig(collection string) *fireconf.Config {
	vector := fireconf.IndexField{
		Path: "Embedding",
		Vector: &fireconf.VectorConfig{
			Dimension: model.EmbeddingDimension,
		},
	}

	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: collection,
				Indexes: []fireconf.Index{
					// Unfiltered FindNearest
					{
						Fields: []fireconf.IndexField{vector},
					},
					// FindNearest filtered by DocType
					{
						Fields: []fireconf.IndexField{
							{Path: "DocType", Order: fireconf.OrderAscending},
							vector,
						},
					},
				},
			},
		},
	}
}
