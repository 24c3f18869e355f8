package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/darbolex/pkg/domain/interfaces"
	"github.com/secmon-lab/darbolex/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrIndexNotMigrated is returned by Query when Firestore has no vector index for the
// collection yet
var ErrIndexNotMigrated = goerr.New("vector index is not migrated, run the migrate command")

const (
	// DefaultCollection holds one document per indexed vector
	DefaultCollection = "vectors"

	// BatchLimit is the Firestore write batch limit
	BatchLimit = 500

	// getAllLimit bounds the document references passed to one GetAll call
	getAllLimit = 100

	distanceField = "VectorDistance"
)

// vectorDoc is the Firestore document representation of model.IndexedVector.
// Embedding is stored as firestore.Vector32 so that FindNearest vector search works.
type vectorDoc struct {
	ID        string             `firestore:"ID"`
	Embedding firestore.Vector32 `firestore:"Embedding"`

	DocType       string `firestore:"DocType"`
	DocumentSlug  string `firestore:"DocumentSlug"`
	SourceID      string `firestore:"SourceID"`
	DocumentTitle string `firestore:"DocumentTitle"`
	UnitKind      string `firestore:"UnitKind"`

	ArticleNumber   int    `firestore:"ArticleNumber"`
	ArticleTitle    string `firestore:"ArticleTitle"`
	PartTitle       string `firestore:"PartTitle"`
	ChapterTitle    string `firestore:"ChapterTitle"`
	SectionTitle    string `firestore:"SectionTitle"`
	CrossReferences string `firestore:"CrossReferences"`

	CaseNumber string `firestore:"CaseNumber"`
	CaseTitle  string `firestore:"CaseTitle"`

	ChunkIndex  int `firestore:"ChunkIndex"`
	TotalChunks int `firestore:"TotalChunks"`

	Text        string    `firestore:"Text"`
	ContentHash string    `firestore:"ContentHash"`
	IndexedAt   time.Time `firestore:"IndexedAt"`

	// Set by FindNearest only
	VectorDistance float64 `firestore:"VectorDistance,omitempty"`
}

func toVectorDoc(v *model.IndexedVector) *vectorDoc {
	md := v.Metadata
	return &vectorDoc{
		ID:              string(v.ID),
		Embedding:       firestore.Vector32(v.Embedding),
		DocType:         string(md.DocType),
		DocumentSlug:    string(md.DocumentSlug),
		SourceID:        md.SourceID,
		DocumentTitle:   md.DocumentTitle,
		UnitKind:        string(md.UnitKind),
		ArticleNumber:   md.ArticleNumber,
		ArticleTitle:    md.ArticleTitle,
		PartTitle:       md.PartTitle,
		ChapterTitle:    md.ChapterTitle,
		SectionTitle:    md.SectionTitle,
		CrossReferences: md.CrossReferences,
		CaseNumber:      md.CaseNumber,
		CaseTitle:       md.CaseTitle,
		ChunkIndex:      md.ChunkIndex,
		TotalChunks:     md.TotalChunks,
		Text:            md.Text,
		ContentHash:     md.ContentHash,
		IndexedAt:       md.IndexedAt,
	}
}

func fromVectorDoc(d *vectorDoc) *model.IndexedVector {
	v := &model.IndexedVector{
		ID: model.VectorID(d.ID),
		Metadata: model.VectorMetadata{
			DocType:         model.SourceType(d.DocType),
			DocumentSlug:    model.DocumentSlug(d.DocumentSlug),
			SourceID:        d.SourceID,
			DocumentTitle:   d.DocumentTitle,
			UnitKind:        model.UnitKind(d.UnitKind),
			ArticleNumber:   d.ArticleNumber,
			ArticleTitle:    d.ArticleTitle,
			PartTitle:       d.PartTitle,
			ChapterTitle:    d.ChapterTitle,
			SectionTitle:    d.SectionTitle,
			CrossReferences: d.CrossReferences,
			CaseNumber:      d.CaseNumber,
			CaseTitle:       d.CaseTitle,
			ChunkIndex:      d.ChunkIndex,
			TotalChunks:     d.TotalChunks,
			Text:            d.Text,
			ContentHash:     d.ContentHash,
			IndexedAt:       d.IndexedAt,
		},
	}
	if len(d.Embedding) > 0 {
		v.Embedding = []float32(d.Embedding)
	}
	return v
}

func docToVector(doc *firestore.DocumentSnapshot) (*model.IndexedVector, float64, error) {
	var d vectorDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, 0, err
	}
	return fromVectorDoc(&d), d.VectorDistance, nil
}

// VectorIndex stores vectors in a Firestore collection and searches them with FindNearest
type VectorIndex struct {
	client     *firestore.Client
	collection string
}

var _ interfaces.VectorIndex = &VectorIndex{}

type Option func(*VectorIndex)

// WithCollection overrides the collection name
func WithCollection(name string) Option {
	return func(x *VectorIndex) {
		x.collection = name
	}
}

// New creates a Firestore vector index. An empty databaseID selects the default database.
func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*VectorIndex, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	x := &VectorIndex{
		client:     client,
		collection: DefaultCollection,
	}
	for _, opt := range opts {
		opt(x)
	}

	return x, nil
}

// Collection returns the collection name, used by index migration
func (x *VectorIndex) Collection() string {
	return x.collection
}

func (x *VectorIndex) vectors() *firestore.CollectionRef {
	return x.client.Collection(x.collection)
}

func (x *VectorIndex) Upsert(ctx context.Context, vectors []*model.IndexedVector) error {
	if len(vectors) == 0 {
		return nil
	}

	bulkWriter := x.client.BulkWriter(ctx)
	defer bulkWriter.End()

	jobs := make([]*firestore.BulkWriterJob, 0, len(vectors))
	for _, v := range vectors {
		job, err := bulkWriter.Set(x.vectors().Doc(string(v.ID)), toVectorDoc(v))
		if err != nil {
			return goerr.Wrap(err, "failed to add Set operation to bulk writer", goerr.V("id", v.ID))
		}
		jobs = append(jobs, job)
	}

	// Flush and wait for all operations to complete
	bulkWriter.Flush()

	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return goerr.Wrap(err, "failed to write vector", goerr.V("id", vectors[i].ID))
		}
	}

	return nil
}

func (x *VectorIndex) Query(ctx context.Context, vector []float32, topK int, filter *model.QueryFilter) ([]*model.Match, error) {
	if topK <= 0 {
		return nil, nil
	}

	query := x.vectors().Query
	if filter != nil && filter.DocType != "" {
		query = query.Where("DocType", "==", string(filter.DocType))
	}

	vq := query.FindNearest("Embedding", firestore.Vector32(vector), topK, firestore.DistanceMeasureCosine,
		&firestore.FindNearestOptions{DistanceResultField: distanceField})

	iter := vq.Documents(ctx)
	defer iter.Stop()

	matches := make([]*model.Match, 0, topK)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if status.Code(err) == codes.FailedPrecondition {
			return nil, goerr.Wrap(ErrIndexNotMigrated, "vector search rejected",
				goerr.V("collection", x.collection),
				goerr.V("cause", err.Error()))
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate vector search results")
		}

		v, distance, err := docToVector(doc)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal vector from vector search", goerr.V("id", doc.Ref.ID))
		}

		matches = append(matches, &model.Match{
			IndexedVector: *v,
			Score:         distanceToScore(distance),
		})
	}

	return matches, nil
}

func (x *VectorIndex) Fetch(ctx context.Context, ids []model.VectorID) (map[model.VectorID]*model.IndexedVector, error) {
	result := make(map[model.VectorID]*model.IndexedVector, len(ids))

	for i := 0; i < len(ids); i += getAllLimit {
		batch := ids[i:min(i+getAllLimit, len(ids))]

		refs := make([]*firestore.DocumentRef, len(batch))
		for j, id := range batch {
			refs[j] = x.vectors().Doc(string(id))
		}

		docs, err := x.client.GetAll(ctx, refs)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to batch get vectors", goerr.V("count", len(batch)))
		}

		for idx, doc := range docs {
			if !doc.Exists() {
				// Missing vectors are not included in the result map
				continue
			}

			v, _, err := docToVector(doc)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to unmarshal vector", goerr.V("id", batch[idx]))
			}
			result[batch[idx]] = v
		}
	}

	return result, nil
}

func (x *VectorIndex) DeleteMany(ctx context.Context, ids []model.VectorID) error {
	if len(ids) == 0 {
		return nil
	}

	bulkWriter := x.client.BulkWriter(ctx)
	defer bulkWriter.End()

	jobs := make([]*firestore.BulkWriterJob, 0, len(ids))
	for _, id := range ids {
		job, err := bulkWriter.Delete(x.vectors().Doc(string(id)))
		if err != nil {
			return goerr.Wrap(err, "failed to add Delete operation to bulk writer", goerr.V("id", id))
		}
		jobs = append(jobs, job)
	}

	bulkWriter.Flush()

	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return goerr.Wrap(err, "failed to delete vector", goerr.V("id", ids[i]))
		}
	}

	return nil
}

func (x *VectorIndex) ListIDs(ctx context.Context, slug model.DocumentSlug) ([]model.VectorID, error) {
	iter := x.vectors().
		Where("DocumentSlug", "==", string(slug)).
		Select().
		Documents(ctx)
	defer iter.Stop()

	var ids []model.VectorID
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate vector IDs", goerr.V("slug", slug))
		}
		ids = append(ids, model.VectorID(doc.Ref.ID))
	}

	return ids, nil
}

func (x *VectorIndex) BatchLimit() int {
	return BatchLimit
}

func (x *VectorIndex) Close() error {
	if x.client != nil {
		return x.client.Close()
	}
	return nil
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
