package main

import (
	"os"

	"github.com/kutbudev/gtm-mcp/internal/cli/commands"
	"github.com/kutbudev/gtm-mcp/internal/mcp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

// Version will be set during build with ldflags
var Version = "1.0.0"

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	mcp.Version = Version

	app := &cli.App{
		Name:    "gtm-mcp",
		Usage:   "Google Tag Manager tools for MCP clients",
		Version: Version,
		Commands: []*cli.Command{
			// Server
			commands.NewServeCommand(),
			commands.NewMcpCommand(),

			// Authorization
			commands.NewAuthCommand(),
			commands.NewStatusCommand(),
			commands.NewRefreshCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("gtm-mcp failed")
	}
}
