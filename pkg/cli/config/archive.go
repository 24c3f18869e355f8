package config

import (
	"context"
	"log/slog"

	"github.com/secmon-lab/darbolex/pkg/service/archive"
	"github.com/urfave/cli/v3"
)

// Archive holds configuration for raw source snapshots in Cloud Storage
type Archive struct {
	bucket string
	prefix string
}

func (x *Archive) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "archive-bucket",
			Usage:       "Cloud Storage bucket for source snapshots; disabled when empty",
			Category:    "Archive",
			Sources:     cli.EnvVars("DARBOLEX_ARCHIVE_BUCKET"),
			Destination: &x.bucket,
		},
		&cli.StringFlag{
			Name:        "archive-prefix",
			Usage:       "Object name prefix for source snapshots",
			Category:    "Archive",
			Sources:     cli.EnvVars("DARBOLEX_ARCHIVE_PREFIX"),
			Destination: &x.prefix,
		},
	}
}

func (x Archive) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("bucket", x.bucket),
		slog.String("prefix", x.prefix),
	)
}

// Configure creates the archive, or returns nil when no bucket is set
func (x *Archive) Configure(ctx context.Context) (*archive.Archive, error) {
	if x.bucket == "" {
		return nil, nil
	}
	return archive.New(ctx, x.bucket, archive.WithPrefix(x.prefix))
}
