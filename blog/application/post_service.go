package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dfryer1193/spacetraveling/blog/domain"
	"github.com/dfryer1193/spacetraveling/internal/metrics"
	"github.com/dfryer1193/spacetraveling/shared/prismic"
	"github.com/rs/zerolog/log"
)

const (
	defaultDocumentType = "posts"
	defaultPageSize     = 1
)

// PostServiceConfig holds the tunables of a PostService.
type PostServiceConfig struct {
	// DocumentType is the Prismic custom type of posts.
	DocumentType string
	// PageSize is the number of summaries requested per listing page.
	PageSize int
	// Revalidate is the maximum age of a post snapshot. Zero disables snapshots.
	Revalidate time.Duration
	// FetchTimeout bounds every listing page fetch.
	FetchTimeout time.Duration
	// KeepCursorToken leaves the access token in next_page cursors, for
	// static pages that fetch them from the browser.
	KeepCursorToken bool
	Recorder        metrics.Recorder
}

type PostService struct {
	source    domain.ContentSource
	snapshots domain.SnapshotRepository

	docType      string
	pageSize     int
	revalidate   time.Duration
	fetchTimeout time.Duration
	keepToken    bool
	recorder     metrics.Recorder
	now          func() time.Time

	// Service lifecycle context - cancelled when Close() is called
	ctx    context.Context
	cancel context.CancelFunc
	wg     *sync.WaitGroup
}

// NewPostService creates a PostService. snapshots may be nil, in which case
// every post is fetched from the CMS on access.
func NewPostService(source domain.ContentSource, snapshots domain.SnapshotRepository, cfg PostServiceConfig) *PostService {
	if cfg.DocumentType == "" {
		cfg.DocumentType = defaultDocumentType
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.Recorder == nil {
		cfg.Recorder = metrics.NoopRecorder{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}
	return &PostService{
		source:       source,
		snapshots:    snapshots,
		docType:      cfg.DocumentType,
		pageSize:     cfg.PageSize,
		revalidate:   cfg.Revalidate,
		fetchTimeout: cfg.FetchTimeout,
		keepToken:    cfg.KeepCursorToken,
		recorder:     cfg.Recorder,
		now:          time.Now,
		ctx:          ctx,
		cancel:       cancel,
		wg:           &wg,
	}
}

// Close gracefully shuts down the PostService by cancelling all background workers
func (s *PostService) Close() error {
	s.cancel()
	s.wg.Wait()

	return nil
}

// FirstPage queries the first page of post summaries.
func (s *PostService) FirstPage(ctx context.Context) (domain.ListingPage, error) {
	resp, err := s.source.QueryPosts(ctx, prismic.QueryOptions{
		Fetch: []string{
			s.docType + ".title",
			s.docType + ".subtitle",
			s.docType + ".author",
		},
		PageSize: s.pageSize,
	})
	if err != nil {
		return domain.ListingPage{}, fmt.Errorf("failed to query first page: %w", err)
	}

	page, err := projectPage(resp, s.keepToken)
	if err != nil {
		return domain.ListingPage{}, &domain.MalformedResponseError{URL: "first page of " + s.docType, Err: err}
	}
	return page, nil
}

// NewListing starts a listing from the first page.
func (s *PostService) NewListing(ctx context.Context) (*Listing, error) {
	first, err := s.FirstPage(ctx)
	if err != nil {
		return nil, err
	}
	return NewListing(s.source, first, s.listingOptions()...), nil
}

// ResumeListing returns an empty listing positioned at cursor, the next_page
// of a listing loaded elsewhere.
func (s *PostService) ResumeListing(cursor string) *Listing {
	return NewListing(s.source, domain.ListingPage{NextPage: cursor}, s.listingOptions()...)
}

func (s *PostService) listingOptions() []ListingOption {
	opts := []ListingOption{
		WithFetchTimeout(s.fetchTimeout),
		WithListingRecorder(s.recorder),
	}
	if s.keepToken {
		opts = append(opts, WithCursorToken())
	}
	return opts
}

// AllPosts drains a listing and returns every post summary in listing order.
func (s *PostService) AllPosts(ctx context.Context) ([]domain.PostSummary, error) {
	listing, err := s.NewListing(ctx)
	if err != nil {
		return nil, err
	}
	defer listing.Close()

	if err := listing.Drain(ctx); err != nil {
		return nil, fmt.Errorf("failed to load all posts: %w", err)
	}
	return listing.Results(), nil
}

// PostUIDs returns the uid of every post, for static path generation.
func (s *PostService) PostUIDs(ctx context.Context) ([]string, error) {
	posts, err := s.AllPosts(ctx)
	if err != nil {
		return nil, err
	}

	uids := make([]string, 0, len(posts))
	for _, p := range posts {
		uids = append(uids, p.UID)
	}
	return uids, nil
}

// GetPost returns the post with the given uid. A fresh snapshot is served as
// is; a stale one is refetched, and served anyway if the refetch fails for any
// reason other than the post being gone.
func (s *PostService) GetPost(ctx context.Context, uid string) (*domain.PostDetail, error) {
	if !s.snapshotsEnabled() {
		post, _, err := s.fetchPost(ctx, uid)
		return post, err
	}

	snap, err := s.snapshots.GetSnapshot(ctx, uid)
	switch {
	case err == nil && !snap.Stale(s.now(), s.revalidate):
		s.recorder.IncSnapshotLookup(metrics.SnapshotHit)
		return snap.Post, nil
	case err == nil:
		s.recorder.IncSnapshotLookup(metrics.SnapshotStale)
	case errors.Is(err, domain.ErrNotFound):
		s.recorder.IncSnapshotLookup(metrics.SnapshotMiss)
		snap = nil
	default:
		log.Error().Err(err).Str("uid", uid).Msg("Failed to read post snapshot")
		s.recorder.IncSnapshotLookup(metrics.SnapshotMiss)
		snap = nil
	}

	post, docID, err := s.fetchPost(ctx, uid)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			if snap != nil {
				if delErr := s.snapshots.DeleteSnapshot(ctx, uid); delErr != nil {
					log.Error().Err(delErr).Str("uid", uid).Msg("Failed to delete snapshot of removed post")
				}
			}
			return nil, err
		}
		if snap != nil {
			log.Warn().Err(err).Str("uid", uid).Time("fetchedAt", snap.FetchedAt).Msg("Serving stale post after refetch failure")
			return snap.Post, nil
		}
		return nil, err
	}

	s.saveSnapshot(ctx, uid, docID, post)
	return post, nil
}

// Invalidate drops the snapshots of the given CMS documents and refetches the
// affected posts in the background. It returns once the snapshots are gone.
// Workers use the service's lifecycle context, not the caller's.
func (s *PostService) Invalidate(ctx context.Context, documentIDs []string) error {
	if !s.snapshotsEnabled() || len(documentIDs) == 0 {
		return nil
	}

	uids, err := s.snapshots.DeleteByDocumentIDs(ctx, documentIDs)
	if err != nil {
		return fmt.Errorf("failed to invalidate %d documents: %w", len(documentIDs), err)
	}

	for _, uid := range uids {
		s.wg.Go(func() {
			s.refresh(s.ctx, uid)
		})
	}

	return nil
}

// RevalidateStale refetches every snapshot older than the revalidation
// interval and returns how many posts were refreshed.
func (s *PostService) RevalidateStale(ctx context.Context) (int, error) {
	if !s.snapshotsEnabled() {
		return 0, nil
	}

	uids, err := s.snapshots.ListStale(ctx, s.now().Add(-s.revalidate))
	if err != nil {
		return 0, fmt.Errorf("failed to list stale snapshots: %w", err)
	}

	refreshed := 0
	for _, uid := range uids {
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}
		if s.refresh(ctx, uid) {
			refreshed++
		}
	}
	return refreshed, nil
}

// refresh refetches a post and replaces its snapshot. Posts that no longer
// exist lose their snapshot.
func (s *PostService) refresh(ctx context.Context, uid string) bool {
	post, docID, err := s.fetchPost(ctx, uid)
	if errors.Is(err, domain.ErrNotFound) {
		if err := s.snapshots.DeleteSnapshot(ctx, uid); err != nil {
			log.Error().Err(err).Str("uid", uid).Msg("Failed to delete snapshot of removed post")
		}
		return false
	}
	if err != nil {
		log.Error().Err(err).Str("uid", uid).Msg("Failed to refresh post")
		return false
	}

	return s.saveSnapshot(ctx, uid, docID, post)
}

func (s *PostService) fetchPost(ctx context.Context, uid string) (*domain.PostDetail, string, error) {
	doc, err := s.source.GetPostByUID(ctx, uid)
	if err != nil {
		return nil, "", err
	}

	post, err := ProjectDetail(doc)
	if err != nil {
		return nil, "", &domain.MalformedResponseError{URL: s.docType + "/" + uid, Err: err}
	}
	return post, doc.ID, nil
}

func (s *PostService) saveSnapshot(ctx context.Context, uid, docID string, post *domain.PostDetail) bool {
	err := s.snapshots.SaveSnapshot(ctx, &domain.PostSnapshot{
		UID:        uid,
		DocumentID: docID,
		Post:       post,
		FetchedAt:  s.now(),
	})
	if err != nil {
		log.Error().Err(err).Str("uid", uid).Msg("Failed to save post snapshot")
		return false
	}
	return true
}

func (s *PostService) snapshotsEnabled() bool {
	return s.snapshots != nil && s.revalidate > 0
}
