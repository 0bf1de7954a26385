package application

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/dfryer1193/spacetraveling/blog/domain"
)

func uids(posts []domain.PostSummary) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.UID
	}
	return out
}

func TestListing_LoadMoreWithoutCursorIsNoop(t *testing.T) {
	source := newFakeSource()
	first := domain.ListingPage{Results: []domain.PostSummary{{UID: "a", Title: "A"}}}
	listing := NewListing(source, first)

	n, err := listing.LoadMore(context.Background())
	if err != nil {
		t.Fatalf("LoadMore() error = %v", err)
	}
	if n != 0 {
		t.Errorf("LoadMore() appended %d, want 0", n)
	}
	if got := source.fetches.Load(); got != 0 {
		t.Errorf("fetches = %d, want 0", got)
	}
	if got := uids(listing.Results()); !slices.Equal(got, []string{"a"}) {
		t.Errorf("Results() = %v, want [a]", got)
	}
	if listing.State() != StateIdle {
		t.Errorf("State() = %v, want %v", listing.State(), StateIdle)
	}
}

func TestListing_LoadMoreAppendsNextPage(t *testing.T) {
	source := newFakeSource()
	source.pages["T1"] = page("", summaryDoc("b", "B"))

	first := domain.ListingPage{
		Results:  []domain.PostSummary{{UID: "a", Title: "A"}},
		NextPage: "T1",
	}
	listing := NewListing(source, first)

	n, err := listing.LoadMore(context.Background())
	if err != nil {
		t.Fatalf("LoadMore() error = %v", err)
	}
	if n != 1 {
		t.Errorf("LoadMore() appended %d, want 1", n)
	}
	if got := uids(listing.Results()); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Results() = %v, want [a b]", got)
	}
	if !listing.Done() {
		t.Errorf("NextPage() = %q, want empty", listing.NextPage())
	}
	if listing.State() != StateLoaded {
		t.Errorf("State() = %v, want %v", listing.State(), StateLoaded)
	}

	// The cursor is exhausted, so no further request is issued.
	if _, err := listing.LoadMore(context.Background()); err != nil {
		t.Fatalf("second LoadMore() error = %v", err)
	}
	if got := source.fetches.Load(); got != 1 {
		t.Errorf("fetches = %d, want 1", got)
	}
	if got := len(listing.Results()); got != 2 {
		t.Errorf("len(Results()) = %d, want 2", got)
	}
}

func TestListing_PreservesResponseOrderAndDuplicates(t *testing.T) {
	source := newFakeSource()
	source.pages["p2"] = page("p3", summaryDoc("z", "Z"), summaryDoc("a", "A"))
	source.pages["p3"] = page("", summaryDoc("a", "A again"))

	listing := NewListing(source, domain.ListingPage{
		Results:  []domain.PostSummary{{UID: "m", Title: "M"}},
		NextPage: "p2",
	})

	if err := listing.Drain(context.Background()); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}

	want := []string{"m", "z", "a", "a"}
	if got := uids(listing.Results()); !slices.Equal(got, want) {
		t.Errorf("Results() = %v, want %v", got, want)
	}
}

func TestListing_ProjectsOnlySummaryFields(t *testing.T) {
	source := newFakeSource()
	source.pages["T1"] = page("", postDoc("X1", "b", map[string]any{
		"title":    "B",
		"subtitle": "sub",
		"author":   "Ana",
		"banner":   map[string]any{"url": "https://images.prismic.io/b.png"},
		"content":  []any{map[string]any{"heading": "h", "body": []any{}}},
		"extra":    "ignored",
	}))

	listing := NewListing(source, domain.ListingPage{NextPage: "T1"})
	if _, err := listing.LoadMore(context.Background()); err != nil {
		t.Fatalf("LoadMore() error = %v", err)
	}

	results := listing.Results()
	if len(results) != 1 {
		t.Fatalf("len(Results()) = %d, want 1", len(results))
	}

	got := results[0]
	published := time.Date(2021, 3, 25, 19, 25, 28, 0, time.UTC)
	if got.UID != "b" || got.Title != "B" || got.Subtitle != "sub" || got.Author != "Ana" {
		t.Errorf("summary = %+v", got)
	}
	if got.FirstPublicationDate == nil || !got.FirstPublicationDate.Equal(published) {
		t.Errorf("FirstPublicationDate = %v, want %v", got.FirstPublicationDate, published)
	}
}

func TestListing_ErrorLeavesStateIntactAndAllowsRetry(t *testing.T) {
	source := newFakeSource()
	source.pages["T1"] = page("", summaryDoc("b", "B"))
	source.setErr(&domain.NetworkError{URL: "T1", StatusCode: 503, Err: errors.New("unavailable")})

	listing := NewListing(source, domain.ListingPage{
		Results:  []domain.PostSummary{{UID: "a"}},
		NextPage: "T1",
	})

	_, err := listing.LoadMore(context.Background())
	var netErr *domain.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("LoadMore() error = %v, want *NetworkError", err)
	}
	if listing.State() != StateError {
		t.Errorf("State() = %v, want %v", listing.State(), StateError)
	}
	if listing.Err() == nil {
		t.Error("Err() = nil, want the load error")
	}
	if got := uids(listing.Results()); !slices.Equal(got, []string{"a"}) {
		t.Errorf("Results() = %v, want [a]", got)
	}
	if listing.NextPage() != "T1" {
		t.Errorf("NextPage() = %q, want T1", listing.NextPage())
	}

	source.setErr(nil)
	if _, err := listing.LoadMore(context.Background()); err != nil {
		t.Fatalf("retry LoadMore() error = %v", err)
	}
	if got := uids(listing.Results()); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Results() after retry = %v, want [a b]", got)
	}
	if listing.Err() != nil {
		t.Errorf("Err() after retry = %v, want nil", listing.Err())
	}
}

func TestListing_MalformedRecordFailsPage(t *testing.T) {
	source := newFakeSource()
	source.pages["T1"] = page("T2", summaryDoc("b", "B"), postDoc("X2", "", map[string]any{"title": "no uid"}))

	listing := NewListing(source, domain.ListingPage{NextPage: "T1"})

	_, err := listing.LoadMore(context.Background())
	var malformed *domain.MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("LoadMore() error = %v, want *MalformedResponseError", err)
	}
	var validation *domain.ValidationError
	if !errors.As(err, &validation) || validation.Field != "uid" {
		t.Errorf("LoadMore() error = %v, want a ValidationError on uid", err)
	}
	if len(listing.Results()) != 0 {
		t.Errorf("Results() = %v, want empty", listing.Results())
	}
	if listing.NextPage() != "T1" {
		t.Errorf("NextPage() = %q, want T1", listing.NextPage())
	}
}

func TestListing_ConcurrentLoadMoreIsRejected(t *testing.T) {
	source := newFakeSource()
	source.pages["T1"] = page("", summaryDoc("b", "B"))
	source.block = make(chan struct{})
	source.started = make(chan struct{}, 1)

	listing := NewListing(source, domain.ListingPage{NextPage: "T1"})

	done := make(chan error, 1)
	go func() {
		_, err := listing.LoadMore(context.Background())
		done <- err
	}()
	<-source.started

	if listing.State() != StateLoading {
		t.Errorf("State() = %v, want %v", listing.State(), StateLoading)
	}
	if _, err := listing.LoadMore(context.Background()); !errors.Is(err, domain.ErrLoadInProgress) {
		t.Errorf("concurrent LoadMore() error = %v, want ErrLoadInProgress", err)
	}

	close(source.block)
	if err := <-done; err != nil {
		t.Fatalf("first LoadMore() error = %v", err)
	}
	if got := source.fetches.Load(); got != 1 {
		t.Errorf("fetches = %d, want 1", got)
	}
	if got := uids(listing.Results()); !slices.Equal(got, []string{"b"}) {
		t.Errorf("Results() = %v, want [b]", got)
	}
}

func TestListing_CloseCancelsInFlightLoad(t *testing.T) {
	source := newFakeSource()
	source.pages["T1"] = page("", summaryDoc("b", "B"))
	source.block = make(chan struct{})
	source.started = make(chan struct{}, 1)

	listing := NewListing(source, domain.ListingPage{NextPage: "T1"})

	done := make(chan error, 1)
	go func() {
		_, err := listing.LoadMore(context.Background())
		done <- err
	}()
	<-source.started

	listing.Close()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("LoadMore() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("LoadMore() did not return after Close()")
	}

	if len(listing.Results()) != 0 {
		t.Errorf("Results() = %v, want empty", listing.Results())
	}
	if _, err := listing.LoadMore(context.Background()); !errors.Is(err, ErrListingClosed) {
		t.Errorf("LoadMore() after Close() error = %v, want ErrListingClosed", err)
	}
}

func TestListing_FetchTimeout(t *testing.T) {
	source := newFakeSource()
	source.pages["T1"] = page("")
	source.block = make(chan struct{})

	listing := NewListing(source, domain.ListingPage{NextPage: "T1"}, WithFetchTimeout(10*time.Millisecond))

	_, err := listing.LoadMore(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("LoadMore() error = %v, want context.DeadlineExceeded", err)
	}
	if listing.State() != StateError {
		t.Errorf("State() = %v, want %v", listing.State(), StateError)
	}
}

func TestListing_DropsCursorToken(t *testing.T) {
	const cursor = "https://repo.cdn.prismic.io/api/v2/documents/search?page=2&ref=MASTER"
	const next = "https://repo.cdn.prismic.io/api/v2/documents/search?access_token=SECRET_TOKEN&page=3&ref=MASTER"

	source := newFakeSource()
	source.pages[cursor] = page(next, summaryDoc("b", "B"))

	listing := NewListing(source, domain.ListingPage{NextPage: cursor})
	if _, err := listing.LoadMore(context.Background()); err != nil {
		t.Fatalf("LoadMore() error = %v", err)
	}
	if strings.Contains(listing.NextPage(), "access_token") {
		t.Errorf("NextPage() = %q, want it without the access token", listing.NextPage())
	}
	if want := "https://repo.cdn.prismic.io/api/v2/documents/search?page=3&ref=MASTER"; listing.NextPage() != want {
		t.Errorf("NextPage() = %q, want %q", listing.NextPage(), want)
	}

	kept := NewListing(source, domain.ListingPage{NextPage: cursor}, WithCursorToken())
	if _, err := kept.LoadMore(context.Background()); err != nil {
		t.Fatalf("LoadMore() error = %v", err)
	}
	if kept.NextPage() != next {
		t.Errorf("NextPage() with WithCursorToken = %q, want %q", kept.NextPage(), next)
	}
}

func TestListing_RepeatedCursorStopsDrain(t *testing.T) {
	source := newFakeSource()
	source.pages["T1"] = page("T2", summaryDoc("a", "A"))
	source.pages["T2"] = page("T2", summaryDoc("b", "B"))

	listing := NewListing(source, domain.ListingPage{NextPage: "T1"})

	err := listing.Drain(context.Background())
	var malformed *domain.MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("Drain() error = %v, want *MalformedResponseError", err)
	}
	if !errors.Is(err, errRepeatedCursor) {
		t.Errorf("Drain() error = %v, want errRepeatedCursor", err)
	}
	if got := source.fetches.Load(); got != 2 {
		t.Errorf("fetches = %d, want 2", got)
	}
	if got := uids(listing.Results()); !slices.Equal(got, []string{"a"}) {
		t.Errorf("Results() = %v, want [a]", got)
	}
	if listing.NextPage() != "T2" {
		t.Errorf("NextPage() = %q, want T2 kept for a retry", listing.NextPage())
	}
}

func TestListing_RepeatedCursorIgnoresToken(t *testing.T) {
	const cursor = "https://repo.cdn.prismic.io/api/v2/documents/search?page=2"

	source := newFakeSource()
	source.pages[cursor] = page(cursor+"&access_token=SECRET_TOKEN", summaryDoc("a", "A"))

	listing := NewListing(source, domain.ListingPage{NextPage: cursor}, WithCursorToken())
	if _, err := listing.LoadMore(context.Background()); !errors.Is(err, errRepeatedCursor) {
		t.Errorf("LoadMore() error = %v, want errRepeatedCursor", err)
	}
}

func TestListingState_String(t *testing.T) {
	if StateLoading.String() != "loading" {
		t.Errorf("StateLoading.String() = %q, want loading", StateLoading.String())
	}
	if ListingState(42).String() != "ListingState(42)" {
		t.Errorf("ListingState(42).String() = %q", ListingState(42).String())
	}
}
