package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/darbolex/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

// CorpusFile is the TOML corpus definition
//
//	statute_slug = "darbo-kodeksas"
//
//	[[document]]
//	slug = "darbo-kodeksas"
//	source_type = "statute"
//	location = "https://e-seimas.lrs.lt/..."
type CorpusFile struct {
	// StatuteSlug names the document whose articles are fetched by number during retrieval
	StatuteSlug model.DocumentSlug   `toml:"statute_slug"`
	Documents   []*model.CorpusEntry `toml:"document"`
}

// Validate checks every entry and rejects duplicate slugs
func (c *CorpusFile) Validate() error {
	if len(c.Documents) == 0 {
		return goerr.Wrap(ErrInvalidConfig, "corpus has no document")
	}

	seen := make(map[model.DocumentSlug]bool, len(c.Documents))
	for i, entry := range c.Documents {
		if err := entry.Validate(); err != nil {
			return goerr.Wrap(err, "invalid document", goerr.V(EntryIndexKey, i))
		}
		if seen[entry.Slug] {
			return goerr.Wrap(ErrDuplicateSlug, "slug is used twice",
				goerr.V(SlugKey, string(entry.Slug)),
				goerr.V(EntryIndexKey, i))
		}
		seen[entry.Slug] = true
	}

	if c.StatuteSlug != "" {
		if err := c.StatuteSlug.Validate(); err != nil {
			return goerr.Wrap(ErrInvalidConfig, "invalid statute_slug", goerr.V(SlugKey, string(c.StatuteSlug)))
		}
	}
	return nil
}

// Select returns the entries named by slugs, in corpus order. No slugs selects everything.
func (c *CorpusFile) Select(slugs []string) ([]*model.CorpusEntry, error) {
	if len(slugs) == 0 {
		return c.Documents, nil
	}

	want := make(map[model.DocumentSlug]bool, len(slugs))
	for _, s := range slugs {
		want[model.DocumentSlug(s)] = true
	}

	var selected []*model.CorpusEntry
	for _, entry := range c.Documents {
		if want[entry.Slug] {
			selected = append(selected, entry)
			delete(want, entry.Slug)
		}
	}
	for slug := range want {
		return nil, goerr.Wrap(ErrUnknownSlug, "cannot select document", goerr.V(SlugKey, string(slug)))
	}
	return selected, nil
}

// LoadCorpus reads and validates a corpus file
func LoadCorpus(path string) (*CorpusFile, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "corpus file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read corpus file", goerr.V(ConfigPathKey, path))
	}

	var corpus CorpusFile
	if err := toml.Unmarshal(data, &corpus); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, err.Error(), goerr.V(ConfigPathKey, path))
	}

	if err := corpus.Validate(); err != nil {
		return nil, goerr.Wrap(err, "corpus validation failed", goerr.V(ConfigPathKey, path))
	}

	return &corpus, nil
}

// Corpus holds the CLI flag naming the corpus file
type Corpus struct {
	path string
}

func (x *Corpus) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "corpus",
			Aliases:     []string{"c"},
			Usage:       "Path to the corpus definition file (TOML)",
			Value:       "corpus.toml",
			Sources:     cli.EnvVars("DARBOLEX_CORPUS"),
			Destination: &x.path,
		},
	}
}

func (x Corpus) LogValue() slog.Value {
	return slog.GroupValue(slog.String("path", x.path))
}

// Configure loads the corpus file
func (x *Corpus) Configure() (*CorpusFile, error) {
	return LoadCorpus(x.path)
}
