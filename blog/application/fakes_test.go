package application

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dfryer1193/spacetraveling/blog/domain"
	"github.com/dfryer1193/spacetraveling/shared/prismic"
)

const testPublicationDate = "2021-03-25T19:25:28+0000"

func strPtr(s string) *string { return &s }

// postDoc builds a raw posts document with the given data map.
func postDoc(id, uid string, data map[string]any) prismic.Document {
	raw, err := json.Marshal(data)
	if err != nil {
		panic(err)
	}
	return prismic.Document{
		ID:                   id,
		UID:                  uid,
		Type:                 "posts",
		FirstPublicationDate: strPtr(testPublicationDate),
		Data:                 raw,
	}
}

func summaryDoc(uid, title string) prismic.Document {
	return postDoc("id-"+uid, uid, map[string]any{
		"title":    title,
		"subtitle": "Subtitle of " + title,
		"author":   "Ana",
	})
}

func page(next string, docs ...prismic.Document) *prismic.SearchResponse {
	resp := &prismic.SearchResponse{Results: docs}
	if next != "" {
		resp.NextPage = strPtr(next)
	}
	return resp
}

// fakeSource is an in-memory domain.ContentSource.
type fakeSource struct {
	mu    sync.Mutex
	first *prismic.SearchResponse
	pages map[string]*prismic.SearchResponse
	docs  map[string]*prismic.Document
	err   error

	// block, when set, is waited on by FetchPage before answering.
	block chan struct{}
	// started is signalled when FetchPage begins.
	started chan struct{}

	fetches   atomic.Int32
	gets      atomic.Int32
	lastQuery prismic.QueryOptions
}

var _ domain.ContentSource = (*fakeSource)(nil)

func newFakeSource() *fakeSource {
	return &fakeSource{
		pages: make(map[string]*prismic.SearchResponse),
		docs:  make(map[string]*prismic.Document),
	}
}

func (f *fakeSource) QueryPosts(ctx context.Context, opts prismic.QueryOptions) (*prismic.SearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = opts
	if f.err != nil {
		return nil, f.err
	}
	if f.first == nil {
		return page(""), nil
	}
	return f.first, nil
}

func (f *fakeSource) GetPostByUID(ctx context.Context, uid string) (*prismic.Document, error) {
	f.gets.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	doc, ok := f.docs[uid]
	if !ok {
		return nil, fmt.Errorf("getting posts %q: %w", uid, domain.ErrNotFound)
	}
	return doc, nil
}

func (f *fakeSource) FetchPage(ctx context.Context, pageURL string) (*prismic.SearchResponse, error) {
	f.fetches.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, fmt.Errorf("fetching %s: %w", pageURL, ctx.Err())
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	resp, ok := f.pages[pageURL]
	if !ok {
		return nil, &domain.NetworkError{URL: pageURL, StatusCode: 404, Err: fmt.Errorf("no such page")}
	}
	return resp, nil
}

func (f *fakeSource) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeSource) setDoc(doc prismic.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[doc.UID] = &doc
}

func (f *fakeSource) deleteDoc(uid string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, uid)
}

// fakeSnapshots is an in-memory domain.SnapshotRepository.
type fakeSnapshots struct {
	mu    sync.Mutex
	snaps map[string]domain.PostSnapshot
}

var _ domain.SnapshotRepository = (*fakeSnapshots)(nil)

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{snaps: make(map[string]domain.PostSnapshot)}
}

func (f *fakeSnapshots) SaveSnapshot(ctx context.Context, s *domain.PostSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snaps[s.UID] = *s
	return nil
}

func (f *fakeSnapshots) GetSnapshot(ctx context.Context, uid string) (*domain.PostSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.snaps[uid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (f *fakeSnapshots) DeleteSnapshot(ctx context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.snaps, uid)
	return nil
}

func (f *fakeSnapshots) DeleteByDocumentIDs(ctx context.Context, ids []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var uids []string
	for uid, s := range f.snaps {
		for _, id := range ids {
			if s.DocumentID == id {
				uids = append(uids, uid)
				delete(f.snaps, uid)
				break
			}
		}
	}
	return uids, nil
}

func (f *fakeSnapshots) ListStale(ctx context.Context, before time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var uids []string
	for uid, s := range f.snaps {
		if s.FetchedAt.Before(before) {
			uids = append(uids, uid)
		}
	}
	return uids, nil
}

func (f *fakeSnapshots) has(uid string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.snaps[uid]
	return ok
}

func (f *fakeSnapshots) age(uid string, fetchedAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.snaps[uid]
	s.FetchedAt = fetchedAt
	f.snaps[uid] = s
}
