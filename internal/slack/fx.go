package slack

import (
	"github.com/pelshen/namedraw/internal/config"
	"go.uber.org/fx"
)

func provideClient(cfg config.Config) (*Client, error) {
	return New(cfg.Slack.BotToken)
}

var Module = fx.Module("slack.client",
	fx.Provide(provideClient),
)
