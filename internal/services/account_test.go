package services

import (
	"context"
	"testing"
	"time"

	"github.com/dimitrije/unity-admin/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var accountColumns = []string{"id", "email", "password_hash", "display_name", "photo_url", "created_at"}

func setupAccountService(t *testing.T) (*AccountService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	return NewAccountService(db).WithCost(bcrypt.MinCost), mock
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAccountService_Create(t *testing.T) {
	svc, mock := setupAccountService(t)
	id := uuid.New()

	mock.ExpectQuery(`INSERT INTO accounts`).
		WithArgs("teacher@unity.school", pgxmock.AnyArg(), "Ms Teacher").
		WillReturnRows(pgxmock.NewRows(accountColumns).
			AddRow(id, "teacher@unity.school", "hash", "Ms Teacher", "", time.Now()))

	account, err := svc.Create(context.Background(), "  Teacher@Unity.School ", "correct-horse", "Ms Teacher")

	require.NoError(t, err)
	assert.Equal(t, id, account.ID)
	assert.Equal(t, "teacher@unity.school", account.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountService_Create_ShortPassword(t *testing.T) {
	svc, mock := setupAccountService(t)

	_, err := svc.Create(context.Background(), "a@b.c", "short", "")

	assert.ErrorIs(t, err, ErrPasswordTooShort)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountService_Authenticate_Success(t *testing.T) {
	svc, mock := setupAccountService(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM accounts WHERE email`).
		WithArgs("admin@unity.school").
		WillReturnRows(pgxmock.NewRows(accountColumns).
			AddRow(id, "admin@unity.school", hashPassword(t, "s3cret-pass"), "Admin", "", time.Now()))

	account, err := svc.Authenticate(context.Background(), "admin@unity.school", "s3cret-pass")

	require.NoError(t, err)
	assert.Equal(t, id, account.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountService_Authenticate_WrongPassword(t *testing.T) {
	svc, mock := setupAccountService(t)

	mock.ExpectQuery(`SELECT .+ FROM accounts WHERE email`).
		WithArgs("admin@unity.school").
		WillReturnRows(pgxmock.NewRows(accountColumns).
			AddRow(uuid.New(), "admin@unity.school", hashPassword(t, "s3cret-pass"), "Admin", "", time.Now()))

	_, err := svc.Authenticate(context.Background(), "admin@unity.school", "wrong-pass")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAccountService_Authenticate_UnknownEmail(t *testing.T) {
	svc, mock := setupAccountService(t)

	mock.ExpectQuery(`SELECT .+ FROM accounts WHERE email`).
		WithArgs("nobody@unity.school").
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.Authenticate(context.Background(), "nobody@unity.school", "whatever1")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAccountService_GetByID_NotFound(t *testing.T) {
	svc, mock := setupAccountService(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM accounts WHERE id`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.GetByID(context.Background(), id)

	assert.ErrorIs(t, err, ErrAccountNotFound)
}
