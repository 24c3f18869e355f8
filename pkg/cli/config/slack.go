package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/darbolex/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds configuration for ingestion report notifications
type Slack struct {
	botToken  string
	channelID string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token (for posting ingestion reports)",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("DARBOLEX_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-channel-id",
			Usage:       "Slack channel ID receiving ingestion reports",
			Category:    "Slack",
			Destination: &x.channelID,
			Sources:     cli.EnvVars("DARBOLEX_SLACK_CHANNEL_ID"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.String("channel-id", x.channelID),
	)
}

// IsConfigured checks if Slack notification is enabled
func (x *Slack) IsConfigured() bool {
	return x.botToken != "" || x.channelID != ""
}

// Configure creates the Slack service, or returns nil when Slack is not configured.
// Setting only one of token and channel is an error.
func (x *Slack) Configure() (slack.Service, error) {
	if !x.IsConfigured() {
		return nil, nil
	}
	if x.botToken == "" || x.channelID == "" {
		return nil, goerr.Wrap(ErrMissingCredential, "both --slack-bot-token and --slack-channel-id are required")
	}
	return slack.New(x.botToken, x.channelID)
}
