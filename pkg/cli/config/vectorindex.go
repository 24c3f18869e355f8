package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/darbolex/pkg/domain/interfaces"
	"github.com/secmon-lab/darbolex/pkg/repository/firestore"
	"github.com/secmon-lab/darbolex/pkg/repository/memory"
	"github.com/secmon-lab/darbolex/pkg/repository/postgres"
	"github.com/secmon-lab/darbolex/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const (
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
	BackendMemory    = "memory"
)

// VectorIndex holds CLI flags for the vector index backend
type VectorIndex struct {
	backend    string
	projectID  string
	databaseID string
	collection string
	dsn        string
	table      string
}

// Flags returns CLI flags for vector index configuration
func (x *VectorIndex) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "index-backend",
			Usage:       "Vector index backend (firestore, postgres or memory)",
			Category:    "Vector index",
			Value:       BackendFirestore,
			Sources:     cli.EnvVars("DARBOLEX_INDEX_BACKEND"),
			Destination: &x.backend,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Category:    "Vector index",
			Sources:     cli.EnvVars("DARBOLEX_FIRESTORE_PROJECT_ID"),
			Destination: &x.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Category:    "Vector index",
			Sources:     cli.EnvVars("DARBOLEX_FIRESTORE_DATABASE_ID"),
			Destination: &x.databaseID,
		},
		&cli.StringFlag{
			Name:        "firestore-collection",
			Usage:       "Firestore collection holding the vectors",
			Category:    "Vector index",
			Value:       firestore.DefaultCollection,
			Sources:     cli.EnvVars("DARBOLEX_FIRESTORE_COLLECTION"),
			Destination: &x.collection,
		},
		&cli.StringFlag{
			Name:        "postgres-dsn",
			Usage:       "PostgreSQL connection string (required when using postgres backend)",
			Category:    "Vector index",
			Sources:     cli.EnvVars("DARBOLEX_POSTGRES_DSN"),
			Destination: &x.dsn,
		},
		&cli.StringFlag{
			Name:        "postgres-table",
			Usage:       "PostgreSQL table holding the vectors",
			Category:    "Vector index",
			Value:       postgres.DefaultTable,
			Sources:     cli.EnvVars("DARBOLEX_POSTGRES_TABLE"),
			Destination: &x.table,
		},
	}
}

func (x VectorIndex) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", x.backend),
		slog.String("project_id", x.projectID),
		slog.String("database_id", x.databaseID),
		slog.String("collection", x.collection),
		slog.Int("dsn.len", len(x.dsn)),
		slog.String("table", x.table),
	)
}

// Backend returns the configured backend type
func (x *VectorIndex) Backend() string {
	return x.backend
}

// ProjectID returns the Firestore project ID
func (x *VectorIndex) ProjectID() string {
	return x.projectID
}

// DatabaseID returns the Firestore database ID
func (x *VectorIndex) DatabaseID() string {
	return x.databaseID
}

// Collection returns the Firestore collection name
func (x *VectorIndex) Collection() string {
	if x.collection == "" {
		return firestore.DefaultCollection
	}
	return x.collection
}

// Configure initializes the vector index for the configured backend.
// The caller is responsible for calling Close() on the returned index.
func (x *VectorIndex) Configure(ctx context.Context) (interfaces.VectorIndex, error) {
	switch x.backend {
	case BackendFirestore:
		if x.projectID == "" {
			return nil, goerr.Wrap(ErrMissingCredential, "firestore-project-id is required when using firestore backend")
		}
		idx, err := firestore.New(ctx, x.projectID, x.databaseID, firestore.WithCollection(x.Collection()))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore vector index")
		}
		logging.Default().Info("Using Firestore vector index",
			"project_id", x.projectID,
			"database_id", x.databaseID,
			"collection", x.Collection(),
		)
		return idx, nil

	case BackendPostgres:
		idx, err := x.ConfigurePostgres(ctx)
		if err != nil {
			return nil, err
		}
		return idx, nil

	case BackendMemory:
		logging.Default().Info("Using in-memory vector index (development mode)")
		return memory.New(), nil

	default:
		return nil, goerr.Wrap(ErrUnsupportedBackend, "invalid vector index backend", goerr.V(BackendKey, x.backend))
	}
}

// ConfigurePostgres connects to PostgreSQL without the interface wrapping, for schema migration
func (x *VectorIndex) ConfigurePostgres(ctx context.Context) (*postgres.VectorIndex, error) {
	if x.dsn == "" {
		return nil, goerr.Wrap(ErrMissingCredential, "postgres-dsn is required when using postgres backend")
	}

	var opts []postgres.Option
	if x.table != "" {
		opts = append(opts, postgres.WithTable(x.table))
	}
	idx, err := postgres.New(ctx, x.dsn, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize postgres vector index")
	}
	logging.Default().Info("Using PostgreSQL vector index", "table", x.table)
	return idx, nil
}
