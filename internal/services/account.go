package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dimitrije/unity-admin/internal/database"
	"github.com/dimitrije/unity-admin/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountNotFound    = errors.New("account not found")
	ErrPasswordTooShort   = errors.New("password must contain at least 8 characters")
)

const minPasswordLength = 8

// AccountService is the credential side of the session store.
type AccountService struct {
	db   *database.DB
	cost int
}

func NewAccountService(db *database.DB) *AccountService {
	return &AccountService{db: db, cost: bcrypt.DefaultCost}
}

// WithCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *AccountService) WithCost(cost int) *AccountService {
	s.cost = cost
	return s
}

func (s *AccountService) Create(ctx context.Context, email, password, displayName string) (*models.Account, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if len(password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var account models.Account
	err = s.db.Pool.QueryRow(ctx, `
		INSERT INTO accounts (email, password_hash, display_name)
		VALUES ($1, $2, $3)
		RETURNING id, email, password_hash, display_name, photo_url, created_at
	`, email, string(hash), displayName).Scan(
		&account.ID, &account.Email, &account.PasswordHash,
		&account.DisplayName, &account.PhotoURL, &account.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return &account, nil
}

// Authenticate checks a password against the stored hash. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	account, err := s.GetByEmail(ctx, email)
	if errors.Is(err, ErrAccountNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

func (s *AccountService) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, email, password_hash, display_name, photo_url, created_at
		FROM accounts WHERE id = $1
	`, id).Scan(
		&account.ID, &account.Email, &account.PasswordHash,
		&account.DisplayName, &account.PhotoURL, &account.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *AccountService) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, email, password_hash, display_name, photo_url, created_at
		FROM accounts WHERE email = $1
	`, normalizeEmail(email)).Scan(
		&account.ID, &account.Email, &account.PasswordHash,
		&account.DisplayName, &account.PhotoURL, &account.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
