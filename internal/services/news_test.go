package services

import (
	"context"
	"testing"
	"time"

	"github.com/dimitrije/unity-admin/internal/database"
	"github.com/dimitrije/unity-admin/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var newsRowColumns = []string{
	"id", "title", "content", "image_url", "image_key", "category", "priority", "school_code", "target_user_types",
	"author_email", "author_id", "author_role", "version", "created_at", "updated_at",
}

func setupNewsService(t *testing.T) (*NewsService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewNewsService(&database.DB{Pool: mock}), mock
}

func newsRow(rows *pgxmock.Rows, n models.NewsItem) *pgxmock.Rows {
	return rows.AddRow(
		n.ID, n.Title, n.Content, n.ImageURL, n.ImageKey, n.Category, n.Priority, n.SchoolCode, n.TargetUserTypes,
		n.AuthorEmail, n.AuthorID, n.AuthorRole, n.Version, n.CreatedAt, n.UpdatedAt,
	)
}

func sampleNews(school string) models.NewsItem {
	now := time.Now()
	return models.NewsItem{
		ID:              uuid.New(),
		Title:           "Exam Schedule",
		Content:         "Exams start Monday",
		Priority:        models.PriorityNormal,
		SchoolCode:      school,
		TargetUserTypes: models.DefaultAudience(),
		AuthorEmail:     "admin@unity.school",
		AuthorID:        uuid.New(),
		AuthorRole:      models.RoleAdmin,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestNewsService_List_Unfiltered(t *testing.T) {
	svc, mock := setupNewsService(t)
	a, b := sampleNews("SCH1"), sampleNews("SCH2")

	rows := newsRow(newsRow(pgxmock.NewRows(newsRowColumns), a), b)
	mock.ExpectQuery(`SELECT .+ FROM news\s+ORDER BY created_at DESC`).
		WillReturnRows(rows)

	items, err := svc.List(context.Background(), models.NewsFilter{})

	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewsService_List_BySchool(t *testing.T) {
	svc, mock := setupNewsService(t)
	a := sampleNews("SCH1")

	mock.ExpectQuery(`SELECT .+ FROM news WHERE school_code = \$1\s+ORDER BY created_at DESC`).
		WithArgs("SCH1").
		WillReturnRows(newsRow(pgxmock.NewRows(newsRowColumns), a))

	items, err := svc.List(context.Background(), models.NewsFilter{SchoolCode: "SCH1"})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, a.ID, items[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewsService_List_EmptyIsNotNil(t *testing.T) {
	svc, mock := setupNewsService(t)

	mock.ExpectQuery(`SELECT .+ FROM news`).
		WithArgs("SCH9").
		WillReturnRows(pgxmock.NewRows(newsRowColumns))

	items, err := svc.List(context.Background(), models.NewsFilter{SchoolCode: "SCH9"})

	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestNewsService_GetByID_NotFound(t *testing.T) {
	svc, mock := setupNewsService(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM news WHERE id`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.GetByID(context.Background(), id)

	assert.ErrorIs(t, err, ErrNewsNotFound)
}

func TestNewsService_Create(t *testing.T) {
	svc, mock := setupNewsService(t)
	n := sampleNews("SCH1")

	mock.ExpectQuery(`INSERT INTO news`).
		WithArgs(n.Title, n.Content, n.ImageURL, n.ImageKey, n.Category, n.Priority, n.SchoolCode,
			n.TargetUserTypes, n.AuthorEmail, n.AuthorID, n.AuthorRole).
		WillReturnRows(newsRow(pgxmock.NewRows(newsRowColumns), n))

	created, err := svc.Create(context.Background(), &n)

	require.NoError(t, err)
	assert.Equal(t, n.ID, created.ID)
	assert.Equal(t, 1, created.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewsService_Update(t *testing.T) {
	svc, mock := setupNewsService(t)
	n := sampleNews("SCH1")
	n.Title = "Exam Schedule (revised)"
	stored := n
	stored.Version = 2

	mock.ExpectQuery(`UPDATE news`).
		WithArgs(n.Title, n.Content, n.ImageURL, n.ImageKey, n.Category, n.Priority, n.SchoolCode,
			n.TargetUserTypes, n.ID, 1).
		WillReturnRows(newsRow(pgxmock.NewRows(newsRowColumns), stored))

	updated, err := svc.Update(context.Background(), &n, 1)

	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "Exam Schedule (revised)", updated.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewsService_Update_VersionConflict(t *testing.T) {
	svc, mock := setupNewsService(t)
	n := sampleNews("SCH1")

	mock.ExpectQuery(`UPDATE news`).
		WithArgs(n.Title, n.Content, n.ImageURL, n.ImageKey, n.Category, n.Priority, n.SchoolCode,
			n.TargetUserTypes, n.ID, 1).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT version FROM news WHERE id`).
		WithArgs(n.ID).
		WillReturnRows(pgxmock.NewRows([]string{"version"}).AddRow(3))

	_, err := svc.Update(context.Background(), &n, 1)

	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewsService_Update_Deleted(t *testing.T) {
	svc, mock := setupNewsService(t)
	n := sampleNews("SCH1")

	mock.ExpectQuery(`UPDATE news`).
		WithArgs(n.Title, n.Content, n.ImageURL, n.ImageKey, n.Category, n.Priority, n.SchoolCode,
			n.TargetUserTypes, n.ID, 1).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT version FROM news WHERE id`).
		WithArgs(n.ID).
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.Update(context.Background(), &n, 1)

	assert.ErrorIs(t, err, ErrNewsNotFound)
}

func TestNewsService_Delete(t *testing.T) {
	svc, mock := setupNewsService(t)
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM news WHERE id`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	assert.NoError(t, svc.Delete(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewsService_Delete_NotFound(t *testing.T) {
	svc, mock := setupNewsService(t)
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM news WHERE id`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, svc.Delete(context.Background(), id), ErrNewsNotFound)
}
