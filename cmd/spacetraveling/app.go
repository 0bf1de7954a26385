package main

import (
	"fmt"

	"github.com/dfryer1193/spacetraveling/blog/application"
	"github.com/dfryer1193/spacetraveling/blog/domain"
	"github.com/dfryer1193/spacetraveling/internal/config"
	"github.com/dfryer1193/spacetraveling/internal/metrics"
	"github.com/dfryer1193/spacetraveling/internal/view"
	"github.com/dfryer1193/spacetraveling/shared/cms"
	"github.com/dfryer1193/spacetraveling/shared/prismic"
)

// newContentSource builds the Prismic content source from configuration.
func newContentSource(cfg *config.Config, recorder metrics.Recorder) (*cms.PrismicContentSource, error) {
	client, err := prismic.NewClient(
		cfg.Prismic.Endpoint,
		cfg.Prismic.AccessToken,
		prismic.NewHTTPClient(cfg.Prismic.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create prismic client: %w", err)
	}

	return cms.NewPrismicContentSource(client, cfg.Prismic.DocumentType, cfg.PrismicLang(), recorder), nil
}

// newPostService builds the post service. keepCursorToken is only set for
// static builds, whose pages follow next_page from the browser.
func newPostService(cfg *config.Config, source domain.ContentSource, snapshots domain.SnapshotRepository, recorder metrics.Recorder, keepCursorToken bool) *application.PostService {
	revalidate := cfg.Site.Revalidate
	if snapshots == nil {
		revalidate = 0
	}

	return application.NewPostService(source, snapshots, application.PostServiceConfig{
		DocumentType:    cfg.Prismic.DocumentType,
		PageSize:        cfg.Prismic.PageSize,
		Revalidate:      revalidate,
		FetchTimeout:    cfg.Prismic.Timeout,
		KeepCursorToken: keepCursorToken,
		Recorder:        recorder,
	})
}

// newRenderer builds the page renderer. loadMoreEndpoint is empty for static builds.
func newRenderer(cfg *config.Config, loadMoreEndpoint string) (*view.Renderer, error) {
	return view.NewRenderer(view.Options{
		SiteTitle:        cfg.Site.Title,
		BaseURL:          cfg.Site.BaseURL,
		Locale:           cfg.LocaleTag(),
		Intro:            cfg.Site.Intro,
		LoadMoreEndpoint: loadMoreEndpoint,
	})
}
