package services

import (
	"context"
	"errors"
	"time"

	"github.com/dimitrije/unity-admin/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrSessionNotFound = errors.New("session not found or expired")

// TokenService persists sessions as hashed refresh tokens.
type TokenService struct {
	db *database.DB
}

func NewTokenService(db *database.DB) *TokenService {
	return &TokenService{db: db}
}

func (s *TokenService) StoreSession(ctx context.Context, sessionID, accountID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO sessions (id, account_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
	`, sessionID, accountID, tokenHash, expiresAt)
	return err
}

// ValidateRefreshToken returns the account and session that own a live refresh token hash.
func (s *TokenService) ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, uuid.UUID, error) {
	var accountID, sessionID uuid.UUID
	err := s.db.Pool.QueryRow(ctx, `
		SELECT account_id, id FROM sessions
		WHERE token_hash = $1 AND expires_at > NOW()
	`, tokenHash).Scan(&accountID, &sessionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, uuid.Nil, ErrSessionNotFound
	}
	return accountID, sessionID, err
}

// RotateRefreshToken swaps the token hash of a session, keeping its id.
func (s *TokenService) RotateRefreshToken(ctx context.Context, sessionID uuid.UUID, oldHash, newHash string, expiresAt time.Time) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE sessions SET token_hash = $1, expires_at = $2
		WHERE id = $3 AND token_hash = $4
	`, newHash, expiresAt, sessionID, oldHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// SessionAccount returns the account behind a live session.
func (s *TokenService) SessionAccount(ctx context.Context, sessionID uuid.UUID) (uuid.UUID, error) {
	var accountID uuid.UUID
	err := s.db.Pool.QueryRow(ctx, `
		SELECT account_id FROM sessions
		WHERE id = $1 AND expires_at > NOW()
	`, sessionID).Scan(&accountID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrSessionNotFound
	}
	return accountID, err
}

func (s *TokenService) RevokeSession(ctx context.Context, sessionID uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID)
	return err
}

func (s *TokenService) RevokeAllSessions(ctx context.Context, accountID uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM sessions WHERE account_id = $1`, accountID)
	return err
}

func (s *TokenService) CleanupExpired(ctx context.Context) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	return err
}
