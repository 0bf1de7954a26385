package cms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dfryer1193/spacetraveling/blog/domain"
	"github.com/dfryer1193/spacetraveling/internal/metrics"
	"github.com/dfryer1193/spacetraveling/shared/prismic"
)

var _ domain.ContentSource = (*PrismicContentSource)(nil)

// PrismicContentSource is an implementation of domain.ContentSource that uses the Prismic API.
type PrismicContentSource struct {
	client   *prismic.Client
	docType  string
	lang     string
	recorder metrics.Recorder
}

// NewPrismicContentSource creates a new PrismicContentSource reading documents of docType.
func NewPrismicContentSource(client *prismic.Client, docType string, lang string, recorder metrics.Recorder) *PrismicContentSource {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &PrismicContentSource{
		client:   client,
		docType:  docType,
		lang:     lang,
		recorder: recorder,
	}
}

// QueryPosts fetches the first page of documents of the post type.
func (p *PrismicContentSource) QueryPosts(ctx context.Context, opts prismic.QueryOptions) (*prismic.SearchResponse, error) {
	op := fmt.Sprintf("querying documents of type %s", p.docType)
	if opts.Lang == "" {
		opts.Lang = p.lang
	}

	start := time.Now()
	resp, err := p.client.Query(ctx, []prismic.Predicate{prismic.At("document.type", p.docType)}, opts)
	err = handlePrismicError(op, p.client.Endpoint(), err)
	p.recorder.ObserveCMSRequest("query", time.Since(start), resultOf(err))
	return resp, err
}

// GetPostByUID fetches a single post by its uid.
func (p *PrismicContentSource) GetPostByUID(ctx context.Context, uid string) (*prismic.Document, error) {
	op := fmt.Sprintf("getting %s %q", p.docType, uid)

	start := time.Now()
	doc, err := p.client.GetByUID(ctx, p.docType, uid, prismic.QueryOptions{Lang: p.lang})
	err = handlePrismicError(op, p.client.Endpoint(), err)
	p.recorder.ObserveCMSRequest("get_by_uid", time.Since(start), resultOf(err))
	return doc, err
}

// FetchPage fetches a pagination URL handed out by a previous query.
func (p *PrismicContentSource) FetchPage(ctx context.Context, pageURL string) (*prismic.SearchResponse, error) {
	op := "fetching next page"

	start := time.Now()
	resp, err := p.client.Get(ctx, pageURL)
	err = handlePrismicError(op, prismic.RedactURL(pageURL), err)
	p.recorder.ObserveCMSRequest("fetch_page", time.Since(start), resultOf(err))
	return resp, err
}

// handlePrismicError maps an error from the Prismic client onto the domain error taxonomy.
func handlePrismicError(op string, target string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, prismic.ErrNoDocument) {
		return fmt.Errorf("prismic: %s: %w", op, domain.ErrNotFound)
	}

	if errors.Is(err, prismic.ErrForeignURL) {
		return fmt.Errorf("prismic: %s: %w: %v", op, domain.ErrInvalidCursor, err)
	}

	var decodeErr *prismic.DecodeError
	if errors.As(err, &decodeErr) {
		return &domain.MalformedResponseError{URL: decodeErr.URL, Err: fmt.Errorf("%s: %w", op, decodeErr.Err)}
	}

	var apiErr *prismic.APIError
	if errors.As(err, &apiErr) {
		return &domain.NetworkError{
			URL:        apiErr.URL,
			StatusCode: apiErr.StatusCode,
			Err:        fmt.Errorf("%s failed: %s", op, apiErr.Message),
		}
	}

	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("prismic: %s: %w", op, err)
	}

	return &domain.NetworkError{URL: target, Err: fmt.Errorf("%s failed: %w", op, err)}
}

func resultOf(err error) metrics.ResultLabel {
	var netErr *domain.NetworkError
	var malformedErr *domain.MalformedResponseError
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, domain.ErrNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, domain.ErrInvalidCursor):
		return metrics.ResultRejected
	case errors.Is(err, context.Canceled):
		return metrics.ResultCanceled
	case errors.As(err, &malformedErr):
		return metrics.ResultMalformed
	case errors.As(err, &netErr):
		return metrics.ResultNetwork
	}
	return metrics.ResultNetwork
}
