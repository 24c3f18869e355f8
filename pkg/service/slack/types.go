package slack

import (
	"context"

	"github.com/secmon-lab/darbolex/pkg/domain/model"
	"github.com/slack-go/slack"
)

// Service provides interface to Slack API for operator notifications
type Service interface {
	// PostMessage posts a Block Kit message to a channel and returns the message timestamp.
	// The text parameter is used as a fallback for notifications.
	PostMessage(ctx context.Context, channelID string, blocks []slack.Block, text string) (string, error)

	// NotifyIngest posts a summary of ingestion reports to the configured channel
	NotifyIngest(ctx context.Context, reports []*model.IngestReport) error
}
