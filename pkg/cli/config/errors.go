package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound     = goerr.New("configuration file not found")
	ErrInvalidConfig      = goerr.New("invalid configuration")
	ErrDuplicateSlug      = goerr.New("duplicate document slug")
	ErrUnknownSlug        = goerr.New("document slug is not in the corpus")
	ErrMissingCredential  = goerr.New("required credential is not set")
	ErrUnsupportedBackend = goerr.New("unsupported vector index backend")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	SlugKey       = "slug"
	EntryIndexKey = "entry_index"
	BackendKey    = "backend"
)
