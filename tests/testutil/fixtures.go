package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dimitrije/unity-admin/internal/database"
	"github.com/dimitrije/unity-admin/internal/models"
	"github.com/dimitrije/unity-admin/internal/services"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the password of every fixture account
const DefaultPassword = "password123"

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateAccount creates a test account with DefaultPassword
func (f *Fixtures) CreateAccount(t *testing.T, opts ...AccountOption) *models.Account {
	t.Helper()
	f.counter++

	account := &models.Account{
		Email:       fmt.Sprintf("user%d@unity.school", f.counter),
		DisplayName: fmt.Sprintf("Test User %d", f.counter),
	}
	for _, opt := range opts {
		opt(account)
	}

	svc := services.NewAccountService(f.db).WithCost(bcrypt.MinCost)
	created, err := svc.Create(context.Background(), account.Email, DefaultPassword, account.DisplayName)
	if err != nil {
		t.Fatalf("failed to create account: %v", err)
	}
	return created
}

// AccountOption configures a test account
type AccountOption func(*models.Account)

// WithEmail sets the account's email
func WithEmail(email string) AccountOption {
	return func(a *models.Account) {
		a.Email = email
	}
}

// WithDisplayName sets the account's display name
func WithDisplayName(name string) AccountOption {
	return func(a *models.Account) {
		a.DisplayName = name
	}
}

// CreateProfile stores a profile for an account
func (f *Fixtures) CreateProfile(t *testing.T, account *models.Account, role, schoolCode string) *models.Profile {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	p, err := services.NewProfileService(f.db).CreateIfAbsent(context.Background(), &models.Profile{
		UserID:       account.ID,
		Email:        account.Email,
		Role:         role,
		SchoolCode:   schoolCode,
		DisplayName:  account.DisplayName,
		CreatedAt:    now,
		LastActiveAt: now,
	})
	if err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	return p
}

// CreateNews stores a news item authored by the profile's owner
func (f *Fixtures) CreateNews(t *testing.T, author *models.Profile, opts ...NewsOption) *models.NewsItem {
	t.Helper()
	f.counter++

	item := &models.NewsItem{
		Title:           fmt.Sprintf("News %d", f.counter),
		Content:         fmt.Sprintf("Content %d", f.counter),
		Priority:        models.PriorityNormal,
		SchoolCode:      author.SchoolCode,
		TargetUserTypes: models.DefaultAudience(),
		AuthorEmail:     author.Email,
		AuthorID:        author.UserID,
		AuthorRole:      author.Role,
	}
	for _, opt := range opts {
		opt(item)
	}

	created, err := services.NewNewsService(f.db).Create(context.Background(), item)
	if err != nil {
		t.Fatalf("failed to create news: %v", err)
	}
	return created
}

// NewsOption configures a test news item
type NewsOption func(*models.NewsItem)

// WithTitle sets the news title
func WithTitle(title string) NewsOption {
	return func(n *models.NewsItem) {
		n.Title = title
	}
}

// WithSchoolCode sets the news school code
func WithSchoolCode(code string) NewsOption {
	return func(n *models.NewsItem) {
		n.SchoolCode = code
	}
}

// CreateSession stores a live session for an account
func (f *Fixtures) CreateSession(t *testing.T, accountID uuid.UUID, tokenHash string, expiresAt time.Time) uuid.UUID {
	t.Helper()

	sessionID := uuid.New()
	if err := services.NewTokenService(f.db).StoreSession(context.Background(), sessionID, accountID, tokenHash, expiresAt); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return sessionID
}
