// Package build generates the static site: the listing page, one page per
// post and the 404 page.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dfryer1193/spacetraveling/blog/domain"
	"github.com/dfryer1193/spacetraveling/internal/metrics"
	"github.com/rs/zerolog/log"
)

// PostSource provides the posts to render.
type PostSource interface {
	FirstPage(ctx context.Context) (domain.ListingPage, error)
	PostUIDs(ctx context.Context) ([]string, error)
	GetPost(ctx context.Context, uid string) (*domain.PostDetail, error)
}

// PageRenderer renders the HTML pages.
type PageRenderer interface {
	Home(w io.Writer, page domain.ListingPage) error
	Post(w io.Writer, post *domain.PostDetail) error
	NotFound(w io.Writer) error
}

// Result summarizes a build.
type Result struct {
	Posts   int
	Skipped []string
}

type Builder struct {
	source   PostSource
	pages    PageRenderer
	recorder metrics.Recorder
}

func NewBuilder(source PostSource, pages PageRenderer, recorder metrics.Recorder) *Builder {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Builder{source: source, pages: pages, recorder: recorder}
}

// Build writes the site into outputDir. Posts listed but gone by the time
// they are fetched are skipped; any other failure aborts the build.
func (b *Builder) Build(ctx context.Context, outputDir string) (*Result, error) {
	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	first, err := b.source.FirstPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load first page: %w", err)
	}
	if err := writePage(filepath.Join(outputDir, "index.html"), func(w io.Writer) error {
		return b.pages.Home(w, first)
	}); err != nil {
		return nil, err
	}
	b.recorder.IncPagesBuilt("home")

	uids, err := b.source.PostUIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	result := &Result{}
	for _, uid := range uids {
		if !safeSlug(uid) {
			log.Warn().Str("uid", uid).Msg("Skipping post with unsafe uid")
			result.Skipped = append(result.Skipped, uid)
			continue
		}

		post, err := b.source.GetPost(ctx, uid)
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn().Str("uid", uid).Msg("Skipping post removed during the build")
			result.Skipped = append(result.Skipped, uid)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load post %q: %w", uid, err)
		}

		if err := writePage(filepath.Join(outputDir, "post", uid, "index.html"), func(w io.Writer) error {
			return b.pages.Post(w, post)
		}); err != nil {
			return nil, err
		}
		b.recorder.IncPagesBuilt("post")
		result.Posts++
	}

	if err := writePage(filepath.Join(outputDir, "404.html"), b.pages.NotFound); err != nil {
		return nil, err
	}
	b.recorder.IncPagesBuilt("not_found")

	log.Info().Int("posts", result.Posts).Int("skipped", len(result.Skipped)).Str("output", outputDir).Msg("Site built")
	return result, nil
}

func writePage(path string, render func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := render(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	return f.Close()
}

// safeSlug rejects uids that would escape the post directory.
func safeSlug(uid string) bool {
	return uid != "" && uid != "." && uid != ".." && !strings.ContainsAny(uid, `/\`)
}
