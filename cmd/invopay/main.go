package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invopay/internal/clock"
	"github.com/smallbiznis/invopay/internal/config"
	"github.com/smallbiznis/invopay/internal/migration"
	"github.com/smallbiznis/invopay/internal/observability"
	"github.com/smallbiznis/invopay/internal/server"
	"github.com/smallbiznis/invopay/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
