package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dfryer1193/spacetraveling/blog/domain"
	"github.com/dfryer1193/spacetraveling/shared/db"
	"github.com/dfryer1193/spacetraveling/shared/prismic/richtext"
)

var _ domain.SnapshotRepository = (*SQLiteSnapshotRepository)(nil)

// SQLiteSnapshotRepository implements domain.SnapshotRepository using SQL database (SQLite).
// Posts are stored as JSON; fetched_at is unix milliseconds so it orders numerically.
type SQLiteSnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new SQLiteSnapshotRepository from a standard sql.DB
func NewSnapshotRepository(db *sql.DB) *SQLiteSnapshotRepository {
	return &SQLiteSnapshotRepository{
		db: db,
	}
}

const upsertSnapshotQuery = `
	INSERT INTO post_snapshots (uid, document_id, payload, fetched_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(uid) DO UPDATE SET
		document_id = excluded.document_id,
		payload = excluded.payload,
		fetched_at = excluded.fetched_at
`

// SaveSnapshot inserts or replaces the snapshot of a post
func (r *SQLiteSnapshotRepository) SaveSnapshot(ctx context.Context, s *domain.PostSnapshot) error {
	if s == nil || s.Post == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}

	if s.UID == "" {
		return fmt.Errorf("snapshot uid cannot be empty")
	}

	payload, err := json.Marshal(newPostPayload(s.Post))
	if err != nil {
		return fmt.Errorf("failed to encode snapshot of %q: %w", s.UID, err)
	}

	executor := db.GetExecutor(ctx, r.db)
	_, err = executor.ExecContext(ctx, upsertSnapshotQuery,
		s.UID,
		s.DocumentID,
		string(payload),
		s.FetchedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}

	return nil
}

const getSnapshotQuery = `
	SELECT uid, document_id, payload, fetched_at
	FROM post_snapshots
	WHERE uid = ?
`

// GetSnapshot retrieves the snapshot of a post by uid
func (r *SQLiteSnapshotRepository) GetSnapshot(ctx context.Context, uid string) (*domain.PostSnapshot, error) {
	if uid == "" {
		return nil, fmt.Errorf("snapshot uid cannot be empty")
	}

	var row snapshotRow
	err := db.GetExecutor(ctx, r.db).QueryRowContext(ctx, getSnapshotQuery, uid).Scan(
		&row.UID,
		&row.DocumentID,
		&row.Payload,
		&row.FetchedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot of %q: %w", uid, domain.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	return row.toDomain()
}

const deleteSnapshotQuery = `DELETE FROM post_snapshots WHERE uid = ?`

// DeleteSnapshot removes the snapshot of a post, if any
func (r *SQLiteSnapshotRepository) DeleteSnapshot(ctx context.Context, uid string) error {
	if uid == "" {
		return fmt.Errorf("snapshot uid cannot be empty")
	}

	_, err := db.GetExecutor(ctx, r.db).ExecContext(ctx, deleteSnapshotQuery, uid)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	return nil
}

// DeleteByDocumentIDs removes the snapshots of the given CMS documents within a
// transaction and returns the uids that were removed
func (r *SQLiteSnapshotRepository) DeleteByDocumentIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	var uids []string
	err := db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, r.db)

		rows, err := executor.QueryContext(txCtx,
			"SELECT uid FROM post_snapshots WHERE document_id IN ("+placeholders+") ORDER BY uid", args...)
		if err != nil {
			return fmt.Errorf("failed to find snapshots: %w", err)
		}
		uids, err = scanUIDs(rows)
		if err != nil {
			return err
		}

		_, err = executor.ExecContext(txCtx,
			"DELETE FROM post_snapshots WHERE document_id IN ("+placeholders+")", args...)
		if err != nil {
			return fmt.Errorf("failed to delete snapshots: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return uids, nil
}

const listStaleQuery = `
	SELECT uid FROM post_snapshots
	WHERE fetched_at < ?
	ORDER BY fetched_at ASC
`

// ListStale returns the uids of snapshots fetched before the given time, oldest first
func (r *SQLiteSnapshotRepository) ListStale(ctx context.Context, before time.Time) ([]string, error) {
	rows, err := db.GetExecutor(ctx, r.db).QueryContext(ctx, listStaleQuery, before.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to list stale snapshots: %w", err)
	}
	return scanUIDs(rows)
}

func scanUIDs(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	uids := make([]string, 0)
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot uid: %w", err)
		}
		uids = append(uids, uid)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}

	return uids, nil
}

// snapshotRow is a private struct used to scan database rows
type snapshotRow struct {
	UID        string `db:"uid"`
	DocumentID string `db:"document_id"`
	Payload    string `db:"payload"`
	FetchedAt  int64  `db:"fetched_at"`
}

func (sr *snapshotRow) toDomain() (*domain.PostSnapshot, error) {
	var payload postPayload
	if err := json.Unmarshal([]byte(sr.Payload), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot of %q: %w", sr.UID, err)
	}

	return &domain.PostSnapshot{
		UID:        sr.UID,
		DocumentID: sr.DocumentID,
		Post:       payload.toDomain(),
		FetchedAt:  time.UnixMilli(sr.FetchedAt).UTC(),
	}, nil
}

// postPayload is the stored JSON shape of a domain.PostDetail.
type postPayload struct {
	UID                  string           `json:"uid"`
	FirstPublicationDate *time.Time       `json:"first_publication_date,omitempty"`
	Title                string           `json:"title"`
	Subtitle             string           `json:"subtitle,omitempty"`
	Author               string           `json:"author,omitempty"`
	BannerURL            string           `json:"banner_url,omitempty"`
	Content              []contentPayload `json:"content"`
}

type contentPayload struct {
	Heading string            `json:"heading"`
	Body    richtext.RichText `json:"body"`
}

func newPostPayload(p *domain.PostDetail) postPayload {
	payload := postPayload{
		UID:                  p.UID,
		FirstPublicationDate: p.FirstPublicationDate,
		Title:                p.Title,
		Subtitle:             p.Subtitle,
		Author:               p.Author,
		BannerURL:            p.BannerURL,
		Content:              make([]contentPayload, 0, len(p.Content)),
	}
	for _, c := range p.Content {
		payload.Content = append(payload.Content, contentPayload{Heading: c.Heading, Body: c.Body})
	}
	return payload
}

func (pp *postPayload) toDomain() *domain.PostDetail {
	post := &domain.PostDetail{
		UID:                  pp.UID,
		FirstPublicationDate: pp.FirstPublicationDate,
		Title:                pp.Title,
		Subtitle:             pp.Subtitle,
		Author:               pp.Author,
		BannerURL:            pp.BannerURL,
		Content:              make([]domain.ContentBlock, 0, len(pp.Content)),
	}
	for _, c := range pp.Content {
		post.Content = append(post.Content, domain.ContentBlock{Heading: c.Heading, Body: c.Body})
	}
	return post
}
