package testutil

import (
	"context"

	"github.com/dimitrije/unity-admin/internal/models"
	"github.com/dimitrije/unity-admin/internal/services"
	"github.com/dimitrije/unity-admin/internal/session"
	"github.com/dimitrije/unity-admin/internal/sse"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockSessionContext mocks session.Context
type MockSessionContext struct {
	mock.Mock
}

func (m *MockSessionContext) Login(ctx context.Context, email, password string) (*session.LoginResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.LoginResult), args.Error(1)
}

func (m *MockSessionContext) Logout(ctx context.Context, user models.SessionUser) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockSessionContext) Current(ctx context.Context, sessionID uuid.UUID) (*session.State, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.State), args.Error(1)
}

// MockSessionStore mocks session.Store
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Refresh(ctx context.Context, refreshToken string) (*session.SignInResult, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.SignInResult), args.Error(1)
}

// MockFeedService mocks services.FeedManager
type MockFeedService struct {
	mock.Mock
}

func (m *MockFeedService) List(ctx context.Context, actor models.Actor) ([]models.NewsItem, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.NewsItem), args.Error(1)
}

func (m *MockFeedService) Create(ctx context.Context, actor models.Actor, input services.NewsInput, image *services.ImageUpload) (*models.NewsItem, error) {
	args := m.Called(ctx, actor, input, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NewsItem), args.Error(1)
}

func (m *MockFeedService) Update(ctx context.Context, actor models.Actor, id uuid.UUID, input services.NewsInput, image *services.ImageUpload) (*models.NewsItem, error) {
	args := m.Called(ctx, actor, id, input, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NewsItem), args.Error(1)
}

// Delete records whether confirm() answered yes as the last argument.
func (m *MockFeedService) Delete(ctx context.Context, actor models.Actor, id uuid.UUID, confirm func() bool) error {
	confirmed := confirm != nil && confirm()
	args := m.Called(ctx, actor, id, confirmed)
	return args.Error(0)
}

// MockBlobService mocks services.BlobService
type MockBlobService struct {
	mock.Mock
}

func (m *MockBlobService) Get(ctx context.Context, key string) (*models.Blob, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Blob), args.Error(1)
}

// MockSSEHub mocks the SSE Hub
type MockSSEHub struct {
	mock.Mock
}

func (m *MockSSEHub) Register(client *sse.Client) {
	m.Called(client)
}

func (m *MockSSEHub) Unregister(client *sse.Client) {
	m.Called(client)
}
