package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dfryer1193/spacetraveling/api"
	"github.com/dfryer1193/spacetraveling/internal/config"
	"github.com/dfryer1193/spacetraveling/internal/metrics"
	"github.com/dfryer1193/spacetraveling/internal/view"
)

type PostsCmd struct {
	JSON bool `help:"Print the posts as JSON"`
}

func (c *PostsCmd) Run(cfg *config.Config) error {
	ctx := context.Background()

	source, err := newContentSource(cfg, metrics.NoopRecorder{})
	if err != nil {
		return err
	}
	postService := newPostService(cfg, source, nil, metrics.NoopRecorder{}, false)
	defer postService.Close()

	posts, err := postService.AllPosts(ctx)
	if err != nil {
		return err
	}

	if c.JSON {
		out := make([]api.PostSummary, 0, len(posts))
		for _, p := range posts {
			out = append(out, api.NewPostSummary(p))
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	dates := view.NewDateFormatter(cfg.LocaleTag())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "UID\tDATE\tAUTHOR\tTITLE")
	for _, p := range posts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.UID, dates.Format(p.FirstPublicationDate), p.Author, p.Title)
	}
	return w.Flush()
}
