package archive

import (
	"context"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/darbolex/pkg/domain/model"
)

// objectWriter opens one object of the bucket for writing
type objectWriter interface {
	NewWriter(ctx context.Context, name string, attrs objectAttrs) io.WriteCloser
}

type objectAttrs struct {
	ContentType string
	Metadata    map[string]string
}

// Archive stores a text snapshot of every fetched source document in a GCS bucket
type Archive struct {
	bucket string
	prefix string
	writer objectWriter
	closer io.Closer
}

// Option configures an Archive
type Option func(*Archive)

// WithPrefix sets the object name prefix, e.g. "snapshots/"
func WithPrefix(prefix string) Option {
	return func(a *Archive) {
		a.prefix = prefix
	}
}

// New creates an Archive writing to bucket with application default credentials
func New(ctx context.Context, bucket string, opts ...Option) (*Archive, error) {
	if bucket == "" {
		return nil, goerr.New("archive bucket is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	a := &Archive{
		bucket: bucket,
		writer: &gcsWriter{bucket: client.Bucket(bucket)},
		closer: client,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Save writes the raw text of doc and returns its gs:// URI
func (a *Archive) Save(ctx context.Context, doc *model.Document) (string, error) {
	name := ObjectName(a.prefix, doc)
	w := a.writer.NewWriter(ctx, name, objectAttrs{
		ContentType: "text/plain; charset=utf-8",
		Metadata: map[string]string{
			"source_type": string(doc.SourceType),
			"source_id":   doc.SourceID,
			"title":       doc.Title,
		},
	})

	if _, err := io.Copy(w, strings.NewReader(doc.RawText)); err != nil {
		_ = w.Close()
		return "", goerr.Wrap(err, "failed to write snapshot", goerr.V("object", name))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize snapshot", goerr.V("object", name))
	}

	return "gs://" + a.bucket + "/" + name, nil
}

// Close releases the storage client
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// ObjectName returns `{prefix}{slug}/{fetched at, UTC}.txt`
func ObjectName(prefix string, doc *model.Document) string {
	stamp := doc.FetchedAt.UTC().Format("20060102T150405Z")
	return prefix + path.Join(string(doc.Slug), stamp+".txt")
}

type gcsWriter struct {
	bucket *storage.BucketHandle
}

func (g *gcsWriter) NewWriter(ctx context.Context, name string, attrs objectAttrs) io.WriteCloser {
	w := g.bucket.Object(name).NewWriter(ctx)
	w.ContentType = attrs.ContentType
	w.Metadata = attrs.Metadata
	return w
}
