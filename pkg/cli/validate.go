package cli

import (
	"context"
	"fmt"

	"github.com/secmon-lab/darbolex/pkg/cli/config"
	"github.com/secmon-lab/darbolex/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var corpusCfg config.Corpus

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the corpus definition file",
		Flags:   corpusCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			corpus, err := corpusCfg.Configure()
			if err != nil {
				return err
			}

			logging.Default().Info("Corpus validation passed",
				"corpus", corpusCfg,
				"document_count", len(corpus.Documents),
				"statute_slug", corpus.StatuteSlug,
			)

			w := c.Root().Writer
			for _, entry := range corpus.Documents {
				location := entry.Location
				if entry.IsListing() {
					location = entry.ListingURL + " " + dimColor.Sprintf("(listing, %s)", entry.LinkPattern)
				}
				_, _ = fmt.Fprintf(w, "%s %s %s\n", headColor.Sprint(entry.Slug), entry.SourceType, location)
			}
			return nil
		},
	}
}
