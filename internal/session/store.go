package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dimitrije/unity-admin/internal/models"
	"github.com/dimitrije/unity-admin/internal/services"
	"github.com/google/uuid"
)

var (
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrSessionEnded        = errors.New("session has ended")
)

type EventType string

const (
	SignedIn  EventType = "signed_in"
	Refreshed EventType = "refreshed"
	SignedOut EventType = "signed_out"
)

// Event is delivered to listeners after the store has committed the change.
type Event struct {
	Type            EventType
	User            models.SessionUser
	IsExplicitLogin bool
}

type Listener func(ctx context.Context, ev Event)

type Accounts interface {
	Authenticate(ctx context.Context, email, password string) (*models.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

type Sessions interface {
	StoreSession(ctx context.Context, sessionID, accountID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, uuid.UUID, error)
	RotateRefreshToken(ctx context.Context, sessionID uuid.UUID, oldHash, newHash string, expiresAt time.Time) error
	SessionAccount(ctx context.Context, sessionID uuid.UUID) (uuid.UUID, error)
	RevokeSession(ctx context.Context, sessionID uuid.UUID) error
}

type Tokens interface {
	GenerateTokenPair(userID, sessionID uuid.UUID, email string) (*services.TokenPair, error)
	ValidateRefreshToken(tokenString string) (uuid.UUID, uuid.UUID, error)
	RefreshExpiry() time.Duration
}

// SignInResult is a fresh token pair and the user it was issued to.
type SignInResult struct {
	User   models.SessionUser
	Tokens *services.TokenPair
}

// Store is the session store: credential sign-in, refresh, sign-out and change events.
type Store struct {
	accounts Accounts
	sessions Sessions
	tokens   Tokens
	logger   *slog.Logger

	mu        sync.RWMutex
	listeners map[int]Listener
	nextID    int
}

func NewStore(accounts Accounts, sessions Sessions, tokens Tokens, logger *slog.Logger) *Store {
	return &Store{
		accounts:  accounts,
		sessions:  sessions,
		tokens:    tokens,
		logger:    logger,
		listeners: make(map[int]Listener),
	}
}

// OnSessionChange registers fn and returns a func that removes it.
func (s *Store) OnSessionChange(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	account, err := s.accounts.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	sessionID := uuid.New()
	pair, err := s.tokens.GenerateTokenPair(account.ID, sessionID, account.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	expiresAt := time.Now().Add(s.tokens.RefreshExpiry())
	if err := s.sessions.StoreSession(ctx, sessionID, account.ID, services.HashToken(pair.RefreshToken), expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	user := sessionUser(account, sessionID)
	s.logger.Info("signed in", "user_id", user.ID, "session_id", sessionID)
	s.emit(ctx, Event{Type: SignedIn, User: user, IsExplicitLogin: true})

	return &SignInResult{User: user, Tokens: pair}, nil
}

// Refresh rotates the refresh token of a live session.
func (s *Store) Refresh(ctx context.Context, refreshToken string) (*SignInResult, error) {
	userID, sessionID, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	oldHash := services.HashToken(refreshToken)
	accountID, storedID, err := s.sessions.ValidateRefreshToken(ctx, oldHash)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if accountID != userID || storedID != sessionID {
		return nil, ErrInvalidRefreshToken
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	pair, err := s.tokens.GenerateTokenPair(account.ID, sessionID, account.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	expiresAt := time.Now().Add(s.tokens.RefreshExpiry())
	if err := s.sessions.RotateRefreshToken(ctx, sessionID, oldHash, services.HashToken(pair.RefreshToken), expiresAt); err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	user := sessionUser(account, sessionID)
	s.emit(ctx, Event{Type: Refreshed, User: user})

	return &SignInResult{User: user, Tokens: pair}, nil
}

// SignOut ends a session. Ending an already ended session is not an error.
func (s *Store) SignOut(ctx context.Context, user models.SessionUser) error {
	if err := s.sessions.RevokeSession(ctx, user.SessionID); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	s.logger.Info("signed out", "user_id", user.ID, "session_id", user.SessionID)
	s.emit(ctx, Event{Type: SignedOut, User: user})
	return nil
}

// Lookup returns the user of a live session, or ErrSessionEnded.
func (s *Store) Lookup(ctx context.Context, sessionID uuid.UUID) (*models.SessionUser, error) {
	accountID, err := s.sessions.SessionAccount(ctx, sessionID)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return nil, ErrSessionEnded
		}
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			return nil, ErrSessionEnded
		}
		return nil, err
	}

	user := sessionUser(account, sessionID)
	return &user, nil
}

// emit calls listeners synchronously, outside the lock.
func (s *Store) emit(ctx context.Context, ev Event) {
	s.mu.RLock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(ctx, ev)
	}
}

func sessionUser(a *models.Account, sessionID uuid.UUID) models.SessionUser {
	return models.SessionUser{
		ID:          a.ID,
		SessionID:   sessionID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		PhotoURL:    a.PhotoURL,
	}
}
