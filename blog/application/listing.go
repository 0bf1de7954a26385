package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dfryer1193/spacetraveling/blog/domain"
	"github.com/dfryer1193/spacetraveling/internal/metrics"
	"github.com/dfryer1193/spacetraveling/shared/prismic"
)

// ErrListingClosed is returned by LoadMore after Close.
var ErrListingClosed = errors.New("listing is closed")

var errRepeatedCursor = errors.New("next_page points back at the page just fetched")

// ListingState is the pagination state of a Listing.
type ListingState int

const (
	StateIdle ListingState = iota
	StateLoading
	StateLoaded
	StateError
)

func (s ListingState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	}
	return fmt.Sprintf("ListingState(%d)", int(s))
}

// PageFetcher fetches a pagination URL handed out by the content source.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) (*prismic.SearchResponse, error)
}

// Listing accumulates post summaries page by page. Results are append-only:
// pages are concatenated in the order they arrive and never sorted or deduplicated.
type Listing struct {
	fetcher         PageFetcher
	timeout         time.Duration
	recorder        metrics.Recorder
	keepCursorToken bool

	mu       sync.Mutex
	results  []domain.PostSummary
	nextPage string
	state    ListingState
	lastErr  error
	cancel   context.CancelFunc
	closed   bool
}

// ListingOption configures a Listing.
type ListingOption func(*Listing)

// WithFetchTimeout bounds every page fetch.
func WithFetchTimeout(d time.Duration) ListingOption {
	return func(l *Listing) { l.timeout = d }
}

// WithCursorToken keeps the access token in next_page cursors. Only pages
// whose browser follows next_page itself need it.
func WithCursorToken() ListingOption {
	return func(l *Listing) { l.keepCursorToken = true }
}

// WithListingRecorder sets the metrics recorder.
func WithListingRecorder(r metrics.Recorder) ListingOption {
	return func(l *Listing) {
		if r != nil {
			l.recorder = r
		}
	}
}

// NewListing creates a Listing seeded with the first page.
func NewListing(fetcher PageFetcher, first domain.ListingPage, opts ...ListingOption) *Listing {
	l := &Listing{
		fetcher:  fetcher,
		recorder: metrics.NoopRecorder{},
		results:  slices.Clone(first.Results),
		nextPage: first.NextPage,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadMore fetches the page at the current cursor and appends its summaries.
// It is a no-op when there are no more pages and fails with
// domain.ErrLoadInProgress while another load is in flight. On failure the
// results and cursor are left untouched, so the call can be retried.
func (l *Listing) LoadMore(ctx context.Context) (int, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return 0, ErrListingClosed
	}
	if l.nextPage == "" {
		l.mu.Unlock()
		return 0, nil
	}
	if l.state == StateLoading {
		l.mu.Unlock()
		l.recorder.IncListingLoad(metrics.ResultRejected)
		return 0, domain.ErrLoadInProgress
	}

	cursor := l.nextPage
	var fetchCtx context.Context
	var cancel context.CancelFunc
	if l.timeout > 0 {
		fetchCtx, cancel = context.WithTimeout(ctx, l.timeout)
	} else {
		fetchCtx, cancel = context.WithCancel(ctx)
	}
	l.state = StateLoading
	l.cancel = cancel
	l.mu.Unlock()

	page, err := l.fetch(fetchCtx, cursor)
	cancel()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancel = nil

	if err != nil {
		l.state = StateError
		l.lastErr = err
		l.recorder.IncListingLoad(loadResult(err))
		return 0, err
	}

	l.results = append(l.results, page.Results...)
	l.nextPage = page.NextPage
	l.state = StateLoaded
	l.lastErr = nil
	l.recorder.IncListingLoad(metrics.ResultSuccess)
	return len(page.Results), nil
}

func (l *Listing) fetch(ctx context.Context, cursor string) (domain.ListingPage, error) {
	resp, err := l.fetcher.FetchPage(ctx, cursor)
	if err != nil {
		return domain.ListingPage{}, err
	}

	page, err := projectPage(resp, l.keepCursorToken)
	if err != nil {
		return domain.ListingPage{}, &domain.MalformedResponseError{URL: prismic.RedactURL(cursor), Err: err}
	}
	if page.NextPage != "" && prismic.StripToken(page.NextPage) == prismic.StripToken(cursor) {
		return domain.ListingPage{}, &domain.MalformedResponseError{URL: prismic.RedactURL(cursor), Err: errRepeatedCursor}
	}
	return page, nil
}

// Drain loads pages until the cursor is exhausted.
func (l *Listing) Drain(ctx context.Context) error {
	for !l.Done() {
		if _, err := l.LoadMore(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close cancels an in-flight load and prevents further loads.
func (l *Listing) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	if l.cancel != nil {
		l.cancel()
	}
}

// Results returns a copy of the summaries loaded so far.
func (l *Listing) Results() []domain.PostSummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.results)
}

// NextPage returns the cursor of the next page, or "" when there is none.
func (l *Listing) NextPage() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nextPage
}

// Done reports whether every page has been loaded.
func (l *Listing) Done() bool {
	return l.NextPage() == ""
}

// State returns the current pagination state.
func (l *Listing) State() ListingState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Err returns the error of the last failed load, if the listing is in StateError.
func (l *Listing) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

// Page returns a snapshot of the listing as a ListingPage.
func (l *Listing) Page() domain.ListingPage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return domain.ListingPage{
		Results:  slices.Clone(l.results),
		NextPage: l.nextPage,
	}
}

func loadResult(err error) metrics.ResultLabel {
	var malformed *domain.MalformedResponseError
	switch {
	case errors.Is(err, context.Canceled):
		return metrics.ResultCanceled
	case errors.Is(err, domain.ErrInvalidCursor):
		return metrics.ResultRejected
	case errors.As(err, &malformed):
		return metrics.ResultMalformed
	}
	return metrics.ResultNetwork
}
