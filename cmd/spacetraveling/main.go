package main

import (
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/dfryer1193/spacetraveling/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// CLI definition & global flags
type CLI struct {
	Config string `short:"c" help:"Configuration file path (optional; environment variables always apply)" type:"path"`

	Serve ServeCmd `cmd:"" default:"1" help:"Serve the blog over HTTP"`
	Build BuildCmd `cmd:"" help:"Generate the static site"`
	Posts PostsCmd `cmd:"" help:"List every published post"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("spacetraveling"),
		kong.Description("Blog front-end for a Prismic repository."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load(cli.Config)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogging(cfg.Log)

	if err := ctx.Run(cfg); err != nil {
		log.Fatal().Err(err).Str("command", ctx.Command()).Msg("Command failed")
	}
}

func setupLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
