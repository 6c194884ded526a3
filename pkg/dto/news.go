package dto

import (
	"time"

	"github.com/dimitrije/unity-admin/internal/models"
	"github.com/google/uuid"
)

type NewsRequest struct {
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	ImageURL        string   `json:"image_url"`
	Category        string   `json:"category"`
	Priority        string   `json:"priority"`
	SchoolCode      string   `json:"school_code"`
	TargetUserTypes []string `json:"target_user_types"`
	RemoveImage     bool     `json:"remove_image"`
	Version         int      `json:"version"`
}

type NewsResponse struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	ImageURL        string    `json:"image_url"`
	Category        string    `json:"category"`
	Priority        string    `json:"priority"`
	SchoolCode      string    `json:"school_code"`
	TargetUserTypes []string  `json:"target_user_types"`
	AuthorEmail     string    `json:"author_email"`
	AuthorID        uuid.UUID `json:"author_id"`
	AuthorRole      string    `json:"author_role"`
	Version         int       `json:"version"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	CanEdit         bool      `json:"can_edit"`
}

func NewNewsResponse(n *models.NewsItem, canEdit bool) NewsResponse {
	return NewsResponse{
		ID:              n.ID,
		Title:           n.Title,
		Content:         n.Content,
		ImageURL:        n.ImageURL,
		Category:        n.Category,
		Priority:        n.Priority,
		SchoolCode:      n.SchoolCode,
		TargetUserTypes: n.TargetUserTypes,
		AuthorEmail:     n.AuthorEmail,
		AuthorID:        n.AuthorID,
		AuthorRole:      n.AuthorRole,
		Version:         n.Version,
		CreatedAt:       n.CreatedAt,
		UpdatedAt:       n.UpdatedAt,
		CanEdit:         canEdit,
	}
}

type NewsListResponse struct {
	Items  []NewsResponse `json:"items"`
	Notice string         `json:"notice,omitempty"`
}

type FieldErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrorResponse struct {
	Message string               `json:"message"`
	Fields  []FieldErrorResponse `json:"fields"`
}
