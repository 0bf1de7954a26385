package domain

import (
	"context"
	"time"
)

// PostSnapshot is the last projection of a post fetched from the CMS.
// Snapshots let detail pages be revalidated instead of refetched on every view.
type PostSnapshot struct {
	UID        string
	DocumentID string
	Post       *PostDetail
	FetchedAt  time.Time
}

// Stale reports whether the snapshot is older than maxAge at now.
func (s *PostSnapshot) Stale(now time.Time, maxAge time.Duration) bool {
	return now.Sub(s.FetchedAt) >= maxAge
}

type SnapshotRepository interface {
	// SaveSnapshot inserts or replaces the snapshot of a post
	SaveSnapshot(ctx context.Context, s *PostSnapshot) error

	// GetSnapshot returns ErrNotFound if the post has no snapshot
	GetSnapshot(ctx context.Context, uid string) (*PostSnapshot, error)

	// DeleteSnapshot removes the snapshot of a post, if any
	DeleteSnapshot(ctx context.Context, uid string) error

	// DeleteByDocumentIDs removes the snapshots of the given CMS documents and
	// returns the uids that were removed
	DeleteByDocumentIDs(ctx context.Context, ids []string) ([]string, error)

	// ListStale returns the uids of snapshots fetched before the given time
	ListStale(ctx context.Context, before time.Time) ([]string, error)
}
