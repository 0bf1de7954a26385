package rest

import (
	"context"
	"io"
	"net/http"

	"github.com/dfryer1193/spacetraveling/blog/application"
	"github.com/dfryer1193/spacetraveling/blog/domain"
	"github.com/gin-gonic/gin"
)

// PostReader is the read side of the post service used by the handlers.
type PostReader interface {
	FirstPage(ctx context.Context) (domain.ListingPage, error)
	ResumeListing(cursor string) *application.Listing
	GetPost(ctx context.Context, uid string) (*domain.PostDetail, error)
}

// PageRenderer renders the HTML pages.
type PageRenderer interface {
	Home(w io.Writer, page domain.ListingPage) error
	Post(w io.Writer, post *domain.PostDetail) error
	NotFound(w io.Writer) error
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	posts PostReader
	pages PageRenderer
	db    Pinger
}

func NewHandlers(posts PostReader, pages PageRenderer, db Pinger) *Handlers {
	return &Handlers{posts: posts, pages: pages, db: db}
}

// NewApi registers the site pages, the JSON API and the operational endpoints.
// metrics may be nil.
func NewApi(router *gin.Engine, h *Handlers, metrics http.Handler) {
	router.GET("/", h.HomePage)
	router.GET("/post/:slug", h.PostPage)

	postsV1 := router.Group("posts/v1")
	{
		postsV1.GET("/", h.GetPosts)
		postsV1.GET("/:postId", h.GetPost)
	}

	router.GET("/healthz", h.Health)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	router.NoRoute(h.NotFoundPage)
}
