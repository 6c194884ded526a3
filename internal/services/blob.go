package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/dimitrije/unity-admin/internal/database"
	"github.com/dimitrije/unity-admin/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrBlobNotFound = errors.New("blob not found")

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// BlobService is the object store: uploads land as pending and become
// committed once the record referencing them is written.
type BlobService struct {
	db      *database.DB
	baseURL string
}

func NewBlobService(db *database.DB, baseURL string) *BlobService {
	return &BlobService{db: db, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *BlobService) Upload(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO blobs (key, content_type, size, data, state)
		VALUES ($1, $2, $3, $4, $5)
	`, key, contentType, int64(len(data)), data, models.BlobPending)
	if err != nil {
		return fmt.Errorf("failed to upload blob: %w", err)
	}
	return nil
}

// DownloadURL is the public address a stored key is served from.
func (s *BlobService) DownloadURL(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/api/v1/files/" + strings.Join(segments, "/")
}

func (s *BlobService) Commit(ctx context.Context, key string) error {
	tag, err := s.db.Pool.Exec(ctx, `UPDATE blobs SET state = $1 WHERE key = $2`, models.BlobCommitted, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBlobNotFound
	}
	return nil
}

// Discard removes a blob that never got committed.
func (s *BlobService) Discard(ctx context.Context, key string) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM blobs WHERE key = $1 AND state = $2`, key, models.BlobPending)
	return err
}

func (s *BlobService) Delete(ctx context.Context, key string) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM blobs WHERE key = $1`, key)
	return err
}

func (s *BlobService) Get(ctx context.Context, key string) (*models.Blob, error) {
	var b models.Blob
	err := s.db.Pool.QueryRow(ctx, `
		SELECT key, content_type, size, data, state, created_at
		FROM blobs WHERE key = $1 AND state = $2
	`, key, models.BlobCommitted).Scan(&b.Key, &b.ContentType, &b.Size, &b.Data, &b.State, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// SweepOrphans deletes pending blobs older than olderThan and returns how many went.
func (s *BlobService) SweepOrphans(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := s.db.Pool.Exec(ctx, `
		DELETE FROM blobs WHERE state = $1 AND created_at < $2
	`, models.BlobPending, time.Now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// NewsImageKey builds the storage key for an uploaded news image. The random
// part keeps same-named uploads in the same millisecond apart.
func NewsImageKey(now time.Time, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "image"
	}
	return fmt.Sprintf("news-images/%d-%s-%s", now.UnixMilli(), uuid.NewString()[:8], name)
}
