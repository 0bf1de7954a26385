package rest

import (
	"net/http"

	"github.com/dfryer1193/spacetraveling/api"
	"github.com/dfryer1193/spacetraveling/blog/application"
	"github.com/gin-gonic/gin"
)

// GetPosts serves one listing page. Without a cursor it returns the first
// page; with one it loads the page the cursor points at. Every request resumes
// a fresh listing, so overlapping loads are only held off by the page script.
func (h *Handlers) GetPosts(c *gin.Context) {
	cursor := c.Query("cursor")
	if cursor == "" {
		page, err := h.posts.FirstPage(c.Request.Context())
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, api.NewListingPage(page))
		return
	}

	listing := h.posts.ResumeListing(cursor)
	defer listing.Close()

	if _, err := listing.LoadMore(c.Request.Context()); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewListingPage(listing.Page()))
}

func (h *Handlers) GetPost(c *gin.Context) {
	postId := c.Param("postId")

	post, err := h.posts.GetPost(c.Request.Context(), postId)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewPostDetail(post, application.EstimateReadingTime(post.Content)))
}

// Health pings the snapshot database.
func (h *Handlers) Health(c *gin.Context) {
	if h.db != nil {
		if err := h.db.Ping(c.Request.Context()); err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, api.Error{Error: "database unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
