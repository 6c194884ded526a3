package handlers

import (
	"context"

	"github.com/dimitrije/unity-admin/internal/models"
	"github.com/dimitrije/unity-admin/internal/services"
	"github.com/dimitrije/unity-admin/internal/session"
	"github.com/dimitrije/unity-admin/internal/sse"
	"github.com/google/uuid"
)

// SessionContextInterface defines the methods used by handlers from session.Context
type SessionContextInterface interface {
	Login(ctx context.Context, email, password string) (*session.LoginResult, error)
	Logout(ctx context.Context, user models.SessionUser) error
}

// SessionStoreInterface defines the methods used by handlers from session.Store
type SessionStoreInterface interface {
	Refresh(ctx context.Context, refreshToken string) (*session.SignInResult, error)
}

// FeedServiceInterface defines the methods used by handlers from FeedManager
type FeedServiceInterface interface {
	List(ctx context.Context, actor models.Actor) ([]models.NewsItem, error)
	Create(ctx context.Context, actor models.Actor, input services.NewsInput, image *services.ImageUpload) (*models.NewsItem, error)
	Update(ctx context.Context, actor models.Actor, id uuid.UUID, input services.NewsInput, image *services.ImageUpload) (*models.NewsItem, error)
	Delete(ctx context.Context, actor models.Actor, id uuid.UUID, confirm func() bool) error
}

// BlobServiceInterface defines the methods used by handlers from BlobService
type BlobServiceInterface interface {
	Get(ctx context.Context, key string) (*models.Blob, error)
}

// HubInterface defines the methods used by handlers from the Hub
type HubInterface interface {
	Register(client *sse.Client)
	Unregister(client *sse.Client)
}
