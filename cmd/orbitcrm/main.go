package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/orbitcrm/orbitcrm/internal/config"
	"github.com/orbitcrm/orbitcrm/internal/migration"
	"github.com/orbitcrm/orbitcrm/internal/server"
	"github.com/orbitcrm/orbitcrm/pkg/db"
	"github.com/orbitcrm/orbitcrm/pkg/log"
)

func main() {
	app := fx.New(
		config.Module,
		log.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func newSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
