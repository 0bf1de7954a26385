package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/dfryer1193/spacetraveling/api"
	"github.com/dfryer1193/spacetraveling/blog/domain"
	"github.com/gin-gonic/gin"
)

// statusFor maps a service error onto the HTTP status returned to clients.
func statusFor(err error) int {
	var netErr *domain.NetworkError
	var malformedErr *domain.MalformedResponseError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidCursor):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &malformedErr), errors.As(err, &netErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func messageFor(status int) string {
	switch status {
	case http.StatusNotFound:
		return "post not found"
	case http.StatusBadRequest:
		return "invalid cursor"
	case http.StatusGatewayTimeout:
		return "the CMS did not answer in time"
	case http.StatusBadGateway:
		return "failed to load posts from the CMS"
	}
	return "internal server error"
}

// abortWithError records err for the request log and answers with a JSON error body.
func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, api.Error{Error: messageFor(status)})
}
