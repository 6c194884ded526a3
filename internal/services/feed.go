package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dimitrije/unity-admin/internal/authz"
	"github.com/dimitrije/unity-admin/internal/models"
	"github.com/google/uuid"
)

var (
	ErrPermissionDenied   = errors.New("you do not have permission to modify this news item")
	ErrSchoolCodeRequired = errors.New("school code is required")
	ErrNotConfirmed       = errors.New("deletion must be confirmed")
	ErrImageTooLarge      = errors.New("image is too large")
	ErrUnsupportedImage   = errors.New("only PNG, JPEG, GIF or WebP images can be attached")
)

// Raster formats accepted for uploads, as sniffed from the bytes.
var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// VersionConflictError reports the version a stale update lost against.
type VersionConflictError struct {
	CurrentVersion int
}

func (e *VersionConflictError) Error() string {
	return ErrVersionConflict.Error()
}

func (e *VersionConflictError) Is(target error) bool {
	return target == ErrVersionConflict
}

// Change kinds published after a successful mutation.
const (
	NewsCreated = "news_created"
	NewsUpdated = "news_updated"
	NewsDeleted = "news_deleted"
)

// NewsInput is the editable part of a news item.
type NewsInput struct {
	Title           string   `json:"title" validate:"notblank"`
	Content         string   `json:"content" validate:"notblank"`
	ImageURL        string   `json:"image_url" validate:"omitempty,url"`
	Category        string   `json:"category" validate:"max=255"`
	Priority        string   `json:"priority" validate:"oneof=high normal low"`
	SchoolCode      string   `json:"school_code" validate:"notblank,max=100"`
	TargetUserTypes []string `json:"target_user_types" validate:"dive,oneof=student teacher parent"`

	// Update only.
	RemoveImage bool `json:"-"`
	Version     int  `json:"-"`
}

// ImageUpload is an attached file. Its type is sniffed from Data.
type ImageUpload struct {
	Filename string
	Data     []byte
}

type NewsStore interface {
	List(ctx context.Context, filter models.NewsFilter) ([]models.NewsItem, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.NewsItem, error)
	Create(ctx context.Context, item *models.NewsItem) (*models.NewsItem, error)
	Update(ctx context.Context, item *models.NewsItem, expectedVersion int) (*models.NewsItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) error
	DownloadURL(key string) string
	Commit(ctx context.Context, key string) error
	Discard(ctx context.Context, key string) error
	Delete(ctx context.Context, key string) error
}

// NewsNotifier fans a change out to viewers. previousSchoolCode is set when an
// update moved the item away from that school.
type NewsNotifier interface {
	PublishNews(kind string, item models.NewsItem, previousSchoolCode string)
}

// FeedManager applies school scoping and author/admin permissions to the news collection.
type FeedManager struct {
	news          NewsStore
	blobs         ObjectStore
	notifier      NewsNotifier
	logger        *slog.Logger
	maxImageBytes int64
	now           func() time.Time
}

func NewFeedManager(news NewsStore, blobs ObjectStore, notifier NewsNotifier, maxImageBytes int64, logger *slog.Logger) *FeedManager {
	return &FeedManager{
		news:          news,
		blobs:         blobs,
		notifier:      notifier,
		logger:        logger,
		maxImageBytes: maxImageBytes,
		now:           time.Now,
	}
}

// List returns the news visible to actor, newest first.
func (m *FeedManager) List(ctx context.Context, actor models.Actor) ([]models.NewsItem, error) {
	filter := models.NewsFilter{}
	if !actor.IsAdmin() {
		if actor.SchoolCode == "" {
			return nil, ErrSchoolCodeRequired
		}
		filter.SchoolCode = actor.SchoolCode
	}

	items, err := m.news.List(ctx, filter)
	if err != nil {
		m.logger.Error("list news", "user_id", actor.UserID, "error", err)
		return nil, fmt.Errorf("failed to list news: %w", err)
	}
	return items, nil
}

func (m *FeedManager) Create(ctx context.Context, actor models.Actor, input NewsInput, image *ImageUpload) (*models.NewsItem, error) {
	if err := m.checkInput(actor, &input); err != nil {
		return nil, err
	}

	imageKey, err := m.storeImage(ctx, image)
	if err != nil {
		return nil, err
	}
	if imageKey != "" {
		input.ImageURL = m.blobs.DownloadURL(imageKey)
	}

	created, err := m.news.Create(ctx, &models.NewsItem{
		Title:           input.Title,
		Content:         input.Content,
		ImageURL:        input.ImageURL,
		ImageKey:        imageKey,
		Category:        input.Category,
		Priority:        input.Priority,
		SchoolCode:      input.SchoolCode,
		TargetUserTypes: input.TargetUserTypes,
		AuthorEmail:     actor.Email,
		AuthorID:        actor.UserID,
		AuthorRole:      actor.Role,
	})
	if err != nil {
		m.discardImage(ctx, imageKey)
		m.logger.Error("create news", "user_id", actor.UserID, "error", err)
		return nil, fmt.Errorf("failed to save news: %w", err)
	}

	m.commitImage(ctx, imageKey)
	m.logger.Info("news created", "id", created.ID, "user_id", actor.UserID, "school_code", created.SchoolCode)
	m.publish(NewsCreated, created, "")
	return created, nil
}

// Update re-reads the stored item to authorize, then overwrites its editable
// fields. A zero input.Version means "whatever was just read".
func (m *FeedManager) Update(ctx context.Context, actor models.Actor, id uuid.UUID, input NewsInput, image *ImageUpload) (*models.NewsItem, error) {
	current, err := m.news.GetByID(ctx, id)
	if err != nil {
		return nil, m.readError(actor, id, err)
	}
	if !authz.CanMutate(actor, current) {
		return nil, ErrPermissionDenied
	}
	if err := m.checkInput(actor, &input); err != nil {
		return nil, err
	}

	imageKey, err := m.storeImage(ctx, image)
	if err != nil {
		return nil, err
	}
	// The item owns a blob only when it was uploaded through it; a URL typed
	// in by the client never carries a key.
	ownedKey := ""
	switch {
	case imageKey != "":
		input.ImageURL = m.blobs.DownloadURL(imageKey)
		ownedKey = imageKey
	case input.RemoveImage:
		input.ImageURL = ""
	case input.ImageURL == "" || input.ImageURL == current.ImageURL:
		input.ImageURL = current.ImageURL
		ownedKey = current.ImageKey
	}

	expected := input.Version
	if expected == 0 {
		expected = current.Version
	}

	next := *current
	next.Title = input.Title
	next.Content = input.Content
	next.ImageURL = input.ImageURL
	next.ImageKey = ownedKey
	next.Category = input.Category
	next.Priority = input.Priority
	next.SchoolCode = input.SchoolCode
	next.TargetUserTypes = input.TargetUserTypes

	updated, err := m.news.Update(ctx, &next, expected)
	if err != nil {
		m.discardImage(ctx, imageKey)
		if errors.Is(err, ErrVersionConflict) {
			return nil, m.conflict(ctx, id)
		}
		if errors.Is(err, ErrNewsNotFound) {
			return nil, err
		}
		m.logger.Error("update news", "id", id, "user_id", actor.UserID, "error", err)
		return nil, fmt.Errorf("failed to save news: %w", err)
	}

	m.commitImage(ctx, imageKey)
	if current.ImageKey != updated.ImageKey {
		m.releaseImage(ctx, current.ImageKey)
	}
	m.logger.Info("news updated", "id", updated.ID, "user_id", actor.UserID, "version", updated.Version)
	previousSchool := ""
	if current.SchoolCode != updated.SchoolCode {
		previousSchool = current.SchoolCode
	}
	m.publish(NewsUpdated, updated, previousSchool)
	return updated, nil
}

// Delete authorizes against a fresh read, then asks confirm before deleting.
func (m *FeedManager) Delete(ctx context.Context, actor models.Actor, id uuid.UUID, confirm func() bool) error {
	current, err := m.news.GetByID(ctx, id)
	if err != nil {
		return m.readError(actor, id, err)
	}
	if !authz.CanMutate(actor, current) {
		return ErrPermissionDenied
	}
	if confirm == nil || !confirm() {
		return ErrNotConfirmed
	}

	if err := m.news.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNewsNotFound) {
			return err
		}
		m.logger.Error("delete news", "id", id, "user_id", actor.UserID, "error", err)
		return fmt.Errorf("failed to delete news: %w", err)
	}

	m.releaseImage(ctx, current.ImageKey)
	m.logger.Info("news deleted", "id", id, "user_id", actor.UserID)
	m.publish(NewsDeleted, current, "")
	return nil
}

// checkInput fills defaults, validates and applies the school scoping rules.
func (m *FeedManager) checkInput(actor models.Actor, input *NewsInput) error {
	if !actor.IsAdmin() && actor.SchoolCode == "" {
		return ErrSchoolCodeRequired
	}

	if input.Priority == "" {
		input.Priority = models.PriorityNormal
	}
	if len(input.TargetUserTypes) == 0 {
		input.TargetUserTypes = models.DefaultAudience()
	}

	if err := validateStruct(input); err != nil {
		return err
	}

	if !actor.IsAdmin() && input.SchoolCode != actor.SchoolCode {
		return ErrPermissionDenied
	}
	return nil
}

func (m *FeedManager) conflict(ctx context.Context, id uuid.UUID) error {
	conflict := &VersionConflictError{}
	if current, err := m.news.GetByID(ctx, id); err == nil {
		conflict.CurrentVersion = current.Version
	}
	return conflict
}

func (m *FeedManager) readError(actor models.Actor, id uuid.UUID, err error) error {
	if errors.Is(err, ErrNewsNotFound) {
		return err
	}
	m.logger.Error("read news", "id", id, "user_id", actor.UserID, "error", err)
	return fmt.Errorf("failed to read news: %w", err)
}

// storeImage uploads image as a pending blob and returns its key, or "" when there is none.
func (m *FeedManager) storeImage(ctx context.Context, image *ImageUpload) (string, error) {
	if image == nil || len(image.Data) == 0 {
		return "", nil
	}
	if m.maxImageBytes > 0 && int64(len(image.Data)) > m.maxImageBytes {
		return "", ErrImageTooLarge
	}
	// the client's content type is not trusted
	contentType := http.DetectContentType(image.Data)
	if !allowedImageTypes[contentType] {
		return "", ErrUnsupportedImage
	}

	key := NewsImageKey(m.now(), image.Filename)
	if err := m.blobs.Upload(ctx, key, contentType, image.Data); err != nil {
		m.logger.Error("upload image", "key", key, "error", err)
		return "", fmt.Errorf("error uploading image: %w", err)
	}
	return key, nil
}

func (m *FeedManager) commitImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := m.blobs.Commit(ctx, key); err != nil {
		m.logger.Error("commit image", "key", key, "error", err)
	}
}

func (m *FeedManager) discardImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := m.blobs.Discard(ctx, key); err != nil {
		m.logger.Warn("discard image, left for sweep", "key", key, "error", err)
	}
}

// releaseImage deletes a blob owned by an item that no longer references it.
func (m *FeedManager) releaseImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := m.blobs.Delete(ctx, key); err != nil {
		m.logger.Warn("release image", "key", key, "error", err)
	}
}

func (m *FeedManager) publish(kind string, item *models.NewsItem, previousSchoolCode string) {
	if m.notifier == nil || item == nil {
		return
	}
	m.notifier.PublishNews(kind, *item, previousSchoolCode)
}
