package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bnra/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds the bot credentials used to post run summaries
type Slack struct {
	botToken string
	channel  string
	apiURL   string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token (for posting run summaries)",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("BNRA_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Slack channel ID to post run summaries to (overrides [notify] channel)",
			Category:    "Slack",
			Destination: &x.channel,
			Sources:     cli.EnvVars("BNRA_SLACK_CHANNEL"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.String("channel", x.channel),
	)
}

// BotToken returns the Slack bot token
func (x *Slack) BotToken() string {
	return x.botToken
}

// Channel returns the channel from the flag, or fallback when the flag is empty
func (x *Slack) Channel(fallback string) string {
	if x.channel != "" {
		return x.channel
	}
	return fallback
}

// IsConfigured checks if a bot token is set
func (x *Slack) IsConfigured() bool {
	return x.botToken != ""
}

// Configure creates the Slack service. It returns nil when no bot token is set.
func (x *Slack) Configure() (slack.Service, error) {
	if !x.IsConfigured() {
		return nil, nil
	}

	var opts []slack.Option
	if x.apiURL != "" {
		opts = append(opts, slack.WithAPIURL(x.apiURL))
	}
	svc, err := slack.New(x.botToken, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize slack service")
	}
	return svc, nil
}
