package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PriorityHigh   = "high"
	PriorityNormal = "normal"
	PriorityLow    = "low"
)

const (
	AudienceStudent = "student"
	AudienceTeacher = "teacher"
	AudienceParent  = "parent"
)

// DefaultAudience returns a fresh copy of the audience used when none is given.
func DefaultAudience() []string {
	return []string{AudienceStudent, AudienceTeacher, AudienceParent}
}

type NewsItem struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	ImageURL        string    `json:"image_url"`
	// ImageKey is set only when the blob behind ImageURL was uploaded for this item.
	ImageKey        string    `json:"-"`
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
}

// NewsFilter narrows a news listing. An empty SchoolCode means no filter.
type NewsFilter struct {
	SchoolCode string
}

const (
	BlobPending   = "pending"
	BlobCommitted = "committed"
)

type Blob struct {
	Key         string
	ContentType string
	Size        int64
	Data        []byte
	State       string
	CreatedAt   time.Time
}
