package dto

import (
	"time"

	"github.com/dimitrije/unity-admin/internal/models"
	"github.com/google/uuid"
)

type ProfileResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	SchoolCode   string    `json:"school_code"`
	DisplayName  string    `json:"display_name"`
	PhotoURL     string    `json:"photo_url"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

func NewProfileResponse(p *models.Profile) *ProfileResponse {
	if p == nil {
		return nil
	}
	return &ProfileResponse{
		UserID:       p.UserID,
		Email:        p.Email,
		Role:         p.Role,
		SchoolCode:   p.SchoolCode,
		DisplayName:  p.DisplayName,
		PhotoURL:     p.PhotoURL,
		CreatedAt:    p.CreatedAt,
		LastActiveAt: p.LastActiveAt,
	}
}

type MeResponse struct {
	UserID      uuid.UUID        `json:"user_id"`
	SessionID   uuid.UUID        `json:"session_id"`
	Email       string           `json:"email"`
	DisplayName string           `json:"display_name"`
	Role        string           `json:"role"`
	IsAdmin     bool             `json:"is_admin"`
	Profile     *ProfileResponse `json:"profile"`
}
