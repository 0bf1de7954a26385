package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/dfryer1193/spacetraveling/internal/build"
	"github.com/dfryer1193/spacetraveling/internal/config"
	"github.com/dfryer1193/spacetraveling/internal/metrics"
	"github.com/rs/zerolog/log"
)

type BuildCmd struct {
	Output string `short:"o" help:"Output directory for the generated site" default:"./out" type:"path"`
}

func (c *BuildCmd) Run(cfg *config.Config) error {
	if cfg.Prismic.AccessToken != "" {
		log.Warn().Msg("Built pages embed next_page URLs, which carry the Prismic access token")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, err := newContentSource(cfg, metrics.NoopRecorder{})
	if err != nil {
		return err
	}

	postService := newPostService(cfg, source, nil, metrics.NoopRecorder{}, true)
	defer postService.Close()

	// Static pages follow next_page themselves; there is no API to proxy through.
	renderer, err := newRenderer(cfg, "")
	if err != nil {
		return err
	}

	_, err = build.NewBuilder(postService, renderer, metrics.NoopRecorder{}).Build(ctx, c.Output)
	return err
}
