package http

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	eventAPIUpdate   = "api-update"
	eventTestTrigger = "test-trigger"

	maxPayloadBytes = 1 << 20
)

var ErrEmptySecret = errors.New("webhook secret is not set")

// Invalidator drops cached posts of changed CMS documents.
type Invalidator interface {
	Invalidate(ctx context.Context, documentIDs []string) error
}

// prismicPayload is the body Prismic posts on publication changes.
type prismicPayload struct {
	Type      string   `json:"type"`
	Secret    string   `json:"secret"`
	Domain    string   `json:"domain"`
	APIURL    string   `json:"apiUrl"`
	Documents []string `json:"documents"`
}

type WebhookHandler struct {
	webhookSecret []byte
	postService   Invalidator
}

func NewWebhookHandler(secret string, postService Invalidator) (*WebhookHandler, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	return &WebhookHandler{
		webhookSecret: []byte(secret),
		postService:   postService,
	}, nil
}

func (h *WebhookHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/webhook/prismic", h.HandlePrismicWebhook)
}

func (h *WebhookHandler) HandlePrismicWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPayloadBytes)

	var payload prismicPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if subtle.ConstantTimeCompare([]byte(payload.Secret), h.webhookSecret) != 1 {
		log.Warn().Str("domain", payload.Domain).Msg("Rejected webhook with invalid secret")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid secret"})
		return
	}

	switch payload.Type {
	case eventTestTrigger:
		log.Info().Str("domain", payload.Domain).Msg("Received webhook test trigger")
	case eventAPIUpdate:
		if err := h.postService.Invalidate(c.Request.Context(), payload.Documents); err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "error handling event"})
			return
		}
		log.Info().Strs("documents", payload.Documents).Msg("Invalidated posts of updated documents")
	default:
		log.Debug().Str("type", payload.Type).Msg("Ignoring webhook event")
	}

	c.Status(http.StatusNoContent)
}
