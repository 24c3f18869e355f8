package interfaces

import (
	"context"

	"github.com/secmon-lab/darbolex/pkg/domain/model"
)

// Notifier delivers operator-facing messages about ingestion runs
type Notifier interface {
	NotifyIngest(ctx context.Context, reports []*model.IngestReport) error
}
