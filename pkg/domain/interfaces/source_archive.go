package interfaces

import (
	"context"

	"github.com/secmon-lab/darbolex/pkg/domain/model"
)

// SourceArchive keeps a snapshot of every fetched source document
type SourceArchive interface {
	Save(ctx context.Context, doc *model.Document) (string, error)
}
