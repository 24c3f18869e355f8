package postgres

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pgvector/pgvector-go"
	"github.com/secmon-lab/darbolex/pkg/domain/interfaces"
	"github.com/secmon-lab/darbolex/pkg/domain/model"
)

const (
	// DefaultTable holds one row per indexed vector
	DefaultTable = "vectors"

	// BatchLimit bounds the statements queued in one pgx batch
	BatchLimit = 500
)

// VectorIndex stores vectors in a PostgreSQL table with a pgvector column
type VectorIndex struct {
	pool  *pgxpool.Pool
	table string
}

var _ interfaces.VectorIndex = &VectorIndex{}

type Option func(*VectorIndex)

// WithTable overrides the table name
func WithTable(name string) Option {
	return func(x *VectorIndex) {
		x.table = name
	}
}

// New connects to dsn and returns a vector index. The schema is created by Migrate.
func New(ctx context.Context, dsn string, opts ...Option) (*VectorIndex, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to PostgreSQL")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, goerr.Wrap(err, "failed to ping PostgreSQL")
	}

	x := &VectorIndex{
		pool:  pool,
		table: DefaultTable,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x, nil
}

func (x *VectorIndex) ident() string {
	return pgx.Identifier{x.table}.Sanitize()
}

func (x *VectorIndex) indexIdent(suffix string) string {
	return pgx.Identifier{x.table + "_" + suffix}.Sanitize()
}

// Migrate creates the pgvector extension, the table and its indexes when missing
func (x *VectorIndex) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS ` + x.ident() + ` (
			id            TEXT PRIMARY KEY,
			document_slug TEXT NOT NULL,
			doc_type      TEXT NOT NULL,
			embedding     vector(` + strconv.Itoa(model.EmbeddingDimension) + `) NOT NULL,
			metadata      JSONB NOT NULL,
			indexed_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS ` + x.indexIdent("slug_idx") + ` ON ` + x.ident() + ` (document_slug)`,
		`CREATE INDEX IF NOT EXISTS ` + x.indexIdent("doc_type_idx") + ` ON ` + x.ident() + ` (doc_type)`,
		`CREATE INDEX IF NOT EXISTS ` + x.indexIdent("embedding_idx") + ` ON ` + x.ident() +
			` USING hnsw (embedding vector_cosine_ops)`,
	}

	for _, stmt := range statements {
		if _, err := x.pool.Exec(ctx, stmt); err != nil {
			return goerr.Wrap(err, "failed to migrate vector table", goerr.V("table", x.table))
		}
	}
	return nil
}

func (x *VectorIndex) Upsert(ctx context.Context, vectors []*model.IndexedVector) error {
	if len(vectors) == 0 {
		return nil
	}

	query := `INSERT INTO ` + x.ident() + ` (id, document_slug, doc_type, embedding, metadata, indexed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			document_slug = EXCLUDED.document_slug,
			doc_type = EXCLUDED.doc_type,
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata,
			indexed_at = EXCLUDED.indexed_at`

	batch := &pgx.Batch{}
	for _, v := range vectors {
		md, err := json.Marshal(v.Metadata)
		if err != nil {
			return goerr.Wrap(err, "failed to marshal vector metadata", goerr.V("id", v.ID))
		}
		batch.Queue(query,
			string(v.ID),
			string(v.Metadata.DocumentSlug),
			string(v.Metadata.DocType),
			pgvector.NewVector(v.Embedding),
			md,
			v.Metadata.IndexedAt,
		)
	}

	br := x.pool.SendBatch(ctx, batch)
	defer br.Close()

	for _, v := range vectors {
		if _, err := br.Exec(); err != nil {
			return goerr.Wrap(err, "failed to upsert vector", goerr.V("id", v.ID))
		}
	}
	return nil
}

func (x *VectorIndex) Query(ctx context.Context, vector []float32, topK int, filter *model.QueryFilter) ([]*model.Match, error) {
	if topK <= 0 {
		return nil, nil
	}

	args := []any{pgvector.NewVector(vector), topK}
	where := ""
	if filter != nil && filter.DocType != "" {
		args = append(args, string(filter.DocType))
		where = "WHERE doc_type = $3"
	}

	query := `SELECT id, embedding, metadata, embedding <=> $1 AS distance
		FROM ` + x.ident() + ` ` + where + `
		ORDER BY embedding <=> $1
		LIMIT $2`

	rows, err := x.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query nearest vectors")
	}
	defer rows.Close()

	matches := make([]*model.Match, 0, topK)
	for rows.Next() {
		var distance float64
		v, err := scanVector(rows, &distance)
		if err != nil {
			return nil, err
		}
		matches = append(matches, &model.Match{
			IndexedVector: *v,
			Score:         distanceToScore(distance),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate nearest vectors")
	}

	return matches, nil
}

func (x *VectorIndex) Fetch(ctx context.Context, ids []model.VectorID) (map[model.VectorID]*model.IndexedVector, error) {
	result := make(map[model.VectorID]*model.IndexedVector, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := x.pool.Query(ctx,
		`SELECT id, embedding, metadata FROM `+x.ident()+` WHERE id = ANY($1)`, idStrings(ids))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch vectors", goerr.V("count", len(ids)))
	}
	defer rows.Close()

	for rows.Next() {
		v, err := scanVector(rows)
		if err != nil {
			return nil, err
		}
		result[v.ID] = v
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate fetched vectors")
	}

	return result, nil
}

func (x *VectorIndex) DeleteMany(ctx context.Context, ids []model.VectorID) error {
	if len(ids) == 0 {
		return nil
	}

	if _, err := x.pool.Exec(ctx, `DELETE FROM `+x.ident()+` WHERE id = ANY($1)`, idStrings(ids)); err != nil {
		return goerr.Wrap(err, "failed to delete vectors", goerr.V("count", len(ids)))
	}
	return nil
}

func (x *VectorIndex) ListIDs(ctx context.Context, slug model.DocumentSlug) ([]model.VectorID, error) {
	rows, err := x.pool.Query(ctx,
		`SELECT id FROM `+x.ident()+` WHERE document_slug = $1 ORDER BY id`, string(slug))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list vector IDs", goerr.V("slug", slug))
	}
	defer rows.Close()

	var ids []model.VectorID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, goerr.Wrap(err, "failed to scan vector ID")
		}
		ids = append(ids, model.VectorID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate vector IDs", goerr.V("slug", slug))
	}

	return ids, nil
}

func (x *VectorIndex) BatchLimit() int {
	return BatchLimit
}

func (x *VectorIndex) Close() error {
	x.pool.Close()
	return nil
}

func scanVector(rows pgx.Rows, extra ...any) (*model.IndexedVector, error) {
	var (
		id        string
		embedding pgvector.Vector
		metadata  []byte
	)
	dest := append([]any{&id, &embedding, &metadata}, extra...)
	if err := rows.Scan(dest...); err != nil {
		return nil, goerr.Wrap(err, "failed to scan vector row")
	}

	v := &model.IndexedVector{
		ID:        model.VectorID(id),
		Embedding: embedding.Slice(),
	}
	if err := json.Unmarshal(metadata, &v.Metadata); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal vector metadata", goerr.V("id", id))
	}
	return v, nil
}

func idStrings(ids []model.VectorID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

// distanceToScore turns a cosine distance in [0,2] into a similarity in [0,1]
func distanceToScore(d float64) float64 {
	s := 1 - d
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}
