package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/pelshen/namedraw/internal/analytics"
	"github.com/pelshen/namedraw/internal/clock"
	"github.com/pelshen/namedraw/internal/config"
	"github.com/pelshen/namedraw/internal/installation"
	"github.com/pelshen/namedraw/internal/migration"
	"github.com/pelshen/namedraw/internal/observability"
	"github.com/pelshen/namedraw/internal/ratelimit"
	"github.com/pelshen/namedraw/internal/scheduler"
	"github.com/pelshen/namedraw/internal/server"
	"github.com/pelshen/namedraw/internal/slack"
	"github.com/pelshen/namedraw/internal/usage"
	"github.com/pelshen/namedraw/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Domains
		analytics.Module,
		usage.Module,
		installation.Module,
		slack.Module,
		ratelimit.Module,
		scheduler.Module,

		server.Module,
	)
	app.Run()
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
