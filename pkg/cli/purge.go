package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/darbolex/pkg/cli/config"
	"github.com/secmon-lab/darbolex/pkg/domain/model"
	"github.com/secmon-lab/darbolex/pkg/usecase"
	"github.com/secmon-lab/darbolex/pkg/utils/logging"
	"github.com/secmon-lab/darbolex/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdPurge() *cli.Command {
	var (
		slugs    []string
		indexCfg config.VectorIndex
	)

	flags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "slug",
			Aliases:     []string{"s"},
			Usage:       "Document whose vectors are deleted (repeatable)",
			Required:    true,
			Destination: &slugs,
		},
	}
	flags = append(flags, indexCfg.Flags()...)

	return &cli.Command{
		Name:  "purge",
		Usage: "Delete every vector of documents removed from the corpus",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			index, err := indexCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer safe.Close(ctx, index)

			// Purging never embeds, so no LLM client is needed
			uc, err := usecase.New(index, nil)
			if err != nil {
				return goerr.Wrap(err, "failed to create use cases")
			}

			logging.Default().Info("Purge configuration", "slugs", slugs, "index", indexCfg)

			w := c.Root().Writer
			for _, slug := range slugs {
				deleted, err := uc.Ingest.Purge(ctx, model.DocumentSlug(slug))
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(w, "%s %d vector(s) deleted\n", headColor.Sprint(slug), deleted)
			}
			return nil
		},
	}
}
