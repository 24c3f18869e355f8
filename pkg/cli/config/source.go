package config

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/secmon-lab/darbolex/pkg/service/notion"
	"github.com/secmon-lab/darbolex/pkg/service/source"
	"github.com/urfave/cli/v3"
)

// Source holds configuration for fetching corpus documents
type Source struct {
	notionToken  string
	timeout      time.Duration
	maxTries     int
	pageInterval time.Duration
}

func (x *Source) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "notion-token",
			Usage:       "Notion API token (enables notion:<page-id> locations)",
			Category:    "Source",
			Sources:     cli.EnvVars("DARBOLEX_NOTION_TOKEN"),
			Destination: &x.notionToken,
		},
		&cli.DurationFlag{
			Name:        "fetch-timeout",
			Usage:       "Timeout of one HTTP fetch",
			Category:    "Source",
			Value:       60 * time.Second,
			Sources:     cli.EnvVars("DARBOLEX_FETCH_TIMEOUT"),
			Destination: &x.timeout,
		},
		&cli.IntFlag{
			Name:        "fetch-max-tries",
			Usage:       "Attempts per HTTP fetch before the document is skipped",
			Category:    "Source",
			Value:       source.DefaultMaxTries,
			Sources:     cli.EnvVars("DARBOLEX_FETCH_MAX_TRIES"),
			Destination: &x.maxTries,
		},
		&cli.DurationFlag{
			Name:        "page-interval",
			Usage:       "Pause between two listing page fetches",
			Category:    "Source",
			Value:       source.DefaultPageInterval,
			Sources:     cli.EnvVars("DARBOLEX_PAGE_INTERVAL"),
			Destination: &x.pageInterval,
		},
	}
}

func (x Source) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("notion", x.notionToken != ""),
		slog.Duration("timeout", x.timeout),
		slog.Int("max_tries", x.maxTries),
		slog.Duration("page_interval", x.pageInterval),
	)
}

// Configure creates the source loader
func (x *Source) Configure() (*source.Loader, error) {
	opts := []source.Option{
		source.WithHTTPClient(&http.Client{Timeout: x.timeout}),
		source.WithPageInterval(x.pageInterval),
	}
	if x.maxTries > 0 {
		opts = append(opts, source.WithMaxTries(uint(x.maxTries)))
	}

	if x.notionToken != "" {
		svc, err := notion.New(x.notionToken)
		if err != nil {
			return nil, err
		}
		opts = append(opts, source.WithNotion(svc))
	}

	return source.New(opts...), nil
}
