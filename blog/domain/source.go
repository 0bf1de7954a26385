package domain

import (
	"context"

	"github.com/dfryer1193/spacetraveling/shared/prismic"
)

// ContentSource defines the interface for reading posts from the CMS.
// This allows the application to be decoupled from a specific implementation.
type ContentSource interface {
	// QueryPosts returns the first page of documents of the post type.
	QueryPosts(ctx context.Context, opts prismic.QueryOptions) (*prismic.SearchResponse, error)
	// GetPostByUID returns ErrNotFound if no post has the given uid.
	GetPostByUID(ctx context.Context, uid string) (*prismic.Document, error)
	// FetchPage fetches a next_page URL previously returned by the CMS.
	FetchPage(ctx context.Context, pageURL string) (*prismic.SearchResponse, error)
}
