package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/darbolex/pkg/domain/model"
	"github.com/slack-go/slack"
)

// maxReportFields is the Slack limit of fields per section block
const maxReportFields = 10

// client implements Service interface
type client struct {
	api       *slack.Client
	channelID string
}

// Option is a functional option for client configuration
type Option func(*clientConfig)

type clientConfig struct {
	apiURL string
}

// WithAPIURL overrides the Slack API endpoint
func WithAPIURL(url string) Option {
	return func(c *clientConfig) {
		c.apiURL = url
	}
}

// New creates a new Slack service with the provided bot token. Reports are posted to channelID.
func New(token, channelID string, opts ...Option) (Service, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}
	if channelID == "" {
		return nil, goerr.New("Slack channel ID is required")
	}

	var cfg clientConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var apiOpts []slack.Option
	if cfg.apiURL != "" {
		apiOpts = append(apiOpts, slack.OptionAPIURL(cfg.apiURL))
	}

	return &client{
		api:       slack.New(token, apiOpts...),
		channelID: channelID,
	}, nil
}

// PostMessage posts a Block Kit message to a channel and returns the message timestamp
func (c *client) PostMessage(ctx context.Context, channelID string, blocks []slack.Block, text string) (string, error) {
	_, ts, err := c.api.PostMessageContext(ctx, channelID,
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return "", goerr.Wrap(err, "failed to post Slack message", goerr.V("channelID", channelID))
	}
	return ts, nil
}

// NotifyIngest posts one message summarising every report of a run
func (c *client) NotifyIngest(ctx context.Context, reports []*model.IngestReport) error {
	if len(reports) == 0 {
		return nil
	}

	blocks, text := BuildIngestBlocks(reports)
	if _, err := c.PostMessage(ctx, c.channelID, blocks, text); err != nil {
		return goerr.Wrap(err, "failed to notify ingestion result",
			goerr.V("runID", string(reports[0].RunID)))
	}
	return nil
}

// BuildIngestBlocks renders ingestion reports as Block Kit blocks and a plain-text fallback
func BuildIngestBlocks(reports []*model.IngestReport) ([]slack.Block, string) {
	var embedded, upserted, deleted, failures int
	for _, r := range reports {
		embedded += r.Embedded
		upserted += r.Upserted
		deleted += r.Deleted
		failures += r.EmbedFailures + r.UpsertFailures
	}

	icon := ":white_check_mark:"
	if failures > 0 {
		icon = ":warning:"
	}
	title := fmt.Sprintf("%s Ingestion %s finished: %d document(s)", icon, reports[0].RunID, len(reports))
	summary := fmt.Sprintf("embedded %d, upserted %d, deleted %d, failures %d", embedded, upserted, deleted, failures)

	blocks := []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, "*"+title+"*\n"+summary, false, false), nil, nil),
	}

	var fields []*slack.TextBlockObject
	for i, r := range reports {
		if i == maxReportFields {
			break
		}
		fields = append(fields, slack.NewTextBlockObject(slack.MarkdownType, reportLine(r), false, false))
	}
	if len(fields) > 0 {
		blocks = append(blocks, slack.NewSectionBlock(nil, fields, nil))
	}
	if rest := len(reports) - maxReportFields; rest > 0 {
		blocks = append(blocks, slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("and %d more document(s)", rest), false, false)))
	}

	return blocks, title + "\n" + summary
}

func reportLine(r *model.IngestReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%s*", r.Document)
	if r.DryRun {
		sb.WriteString(" (dry run)")
	}
	fmt.Fprintf(&sb, "\n%d units, %d unchanged, %d embedded, %d upserted, %d deleted",
		r.Candidates, r.Unchanged, r.Embedded, r.Upserted, r.Deleted)
	if r.Failed() {
		fmt.Fprintf(&sb, "\nfailures: embed %d, upsert %d", r.EmbedFailures, r.UpsertFailures)
	}
	return sb.String()
}
