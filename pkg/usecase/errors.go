package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for use case layer
var (
	ErrLoaderNotConfigured   = goerr.New("source loader is not configured")
	ErrEmbedderNotConfigured = goerr.New("embedding service is not configured")
	ErrDocumentFailed        = goerr.New("document ingestion failed")
	ErrEmptyQuery            = goerr.New("query is empty")
	ErrDuplicateDocument     = goerr.New("document slug is already taken in this run")
)
