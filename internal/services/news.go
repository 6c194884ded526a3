package services

import (
	"context"
	"errors"

	"github.com/dimitrije/unity-admin/internal/database"
	"github.com/dimitrije/unity-admin/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNewsNotFound    = errors.New("news item not found")
	ErrVersionConflict = errors.New("version conflict: news item has been modified")
)

const newsColumns = `id, title, content, image_url, image_key, category, priority, school_code, target_user_types,
	author_email, author_id, author_role, version, created_at, updated_at`

// NewsService is the document store for the news collection.
type NewsService struct {
	db *database.DB
}

func NewNewsService(db *database.DB) *NewsService {
	return &NewsService{db: db}
}

// List returns news ordered by creation time, newest first.
func (s *NewsService) List(ctx context.Context, filter models.NewsFilter) ([]models.NewsItem, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if filter.SchoolCode != "" {
		rows, err = s.db.Pool.Query(ctx, `
			SELECT `+newsColumns+`
			FROM news WHERE school_code = $1
			ORDER BY created_at DESC
		`, filter.SchoolCode)
	} else {
		rows, err = s.db.Pool.Query(ctx, `
			SELECT `+newsColumns+`
			FROM news
			ORDER BY created_at DESC
		`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.NewsItem{}
	for rows.Next() {
		var n models.NewsItem
		if err := scanNews(rows, &n); err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

func (s *NewsService) GetByID(ctx context.Context, id uuid.UUID) (*models.NewsItem, error) {
	var n models.NewsItem
	err := scanNews(s.db.Pool.QueryRow(ctx, `
		SELECT `+newsColumns+`
		FROM news WHERE id = $1
	`, id), &n)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNewsNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Create stores a new item. Id, version and timestamps are assigned by the store.
func (s *NewsService) Create(ctx context.Context, item *models.NewsItem) (*models.NewsItem, error) {
	var n models.NewsItem
	err := scanNews(s.db.Pool.QueryRow(ctx, `
		INSERT INTO news (title, content, image_url, image_key, category, priority, school_code,
			target_user_types, author_email, author_id, author_role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+newsColumns,
		item.Title, item.Content, item.ImageURL, item.ImageKey, item.Category, item.Priority,
		item.SchoolCode, item.TargetUserTypes, item.AuthorEmail, item.AuthorID, item.AuthorRole,
	), &n)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Update overwrites the editable fields of item when the stored version still
// equals expectedVersion. Author fields and created_at are left untouched.
func (s *NewsService) Update(ctx context.Context, item *models.NewsItem, expectedVersion int) (*models.NewsItem, error) {
	var n models.NewsItem
	err := scanNews(s.db.Pool.QueryRow(ctx, `
		UPDATE news
		SET title = $1, content = $2, image_url = $3, image_key = $4, category = $5, priority = $6,
			school_code = $7, target_user_types = $8,
			version = version + 1, updated_at = GREATEST(NOW(), updated_at)
		WHERE id = $9 AND version = $10
		RETURNING `+newsColumns,
		item.Title, item.Content, item.ImageURL, item.ImageKey, item.Category, item.Priority,
		item.SchoolCode, item.TargetUserTypes, item.ID, expectedVersion,
	), &n)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.checkVersionConflict(ctx, item.ID, expectedVersion, err)
		}
		return nil, err
	}
	return &n, nil
}

func (s *NewsService) checkVersionConflict(ctx context.Context, id uuid.UUID, expectedVersion int, originalErr error) error {
	var currentVersion int
	err := s.db.Pool.QueryRow(ctx, `SELECT version FROM news WHERE id = $1`, id).Scan(&currentVersion)
	if err != nil {
		return ErrNewsNotFound
	}
	if currentVersion != expectedVersion {
		return ErrVersionConflict
	}
	return originalErr
}

func (s *NewsService) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM news WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNewsNotFound
	}
	return nil
}

func scanNews(row pgx.Row, n *models.NewsItem) error {
	return row.Scan(
		&n.ID, &n.Title, &n.Content, &n.ImageURL, &n.ImageKey, &n.Category, &n.Priority, &n.SchoolCode,
		&n.TargetUserTypes, &n.AuthorEmail, &n.AuthorID, &n.AuthorRole, &n.Version,
		&n.CreatedAt, &n.UpdatedAt,
	)
}
