package rest

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/dfryer1193/spacetraveling/blog/domain"
	"github.com/gin-gonic/gin"
)

const htmlContentType = "text/html; charset=utf-8"

func (h *Handlers) HomePage(c *gin.Context) {
	page, err := h.posts.FirstPage(c.Request.Context())
	if err != nil {
		h.errorPage(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.pages.Home(&buf, page); err != nil {
		h.errorPage(c, err)
		return
	}
	c.Data(http.StatusOK, htmlContentType, buf.Bytes())
}

func (h *Handlers) PostPage(c *gin.Context) {
	post, err := h.posts.GetPost(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.errorPage(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.pages.Post(&buf, post); err != nil {
		h.errorPage(c, err)
		return
	}
	c.Data(http.StatusOK, htmlContentType, buf.Bytes())
}

func (h *Handlers) NotFoundPage(c *gin.Context) {
	h.errorPage(c, domain.ErrNotFound)
}

// errorPage renders the 404 page for missing posts and a plain status page otherwise.
func (h *Handlers) errorPage(c *gin.Context, err error) {
	status := statusFor(err)
	if !errors.Is(err, domain.ErrNotFound) {
		_ = c.Error(err)
		c.Data(status, "text/plain; charset=utf-8", []byte(messageFor(status)))
		c.Abort()
		return
	}

	var buf bytes.Buffer
	if renderErr := h.pages.NotFound(&buf); renderErr != nil {
		_ = c.Error(renderErr)
		c.Data(http.StatusNotFound, "text/plain; charset=utf-8", []byte(messageFor(http.StatusNotFound)))
		c.Abort()
		return
	}
	c.Data(http.StatusNotFound, htmlContentType, buf.Bytes())
	c.Abort()
}
