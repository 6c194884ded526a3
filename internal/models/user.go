package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile roles. Anything other than RoleAdmin is a non-admin role.
const (
	RoleAdmin   = "ADMIN"
	RoleTeacher = "TEACHER"
	RoleStaff   = "STAFF"
)

var AllRoles = []string{RoleAdmin, RoleTeacher, RoleStaff}

// Account is the credential record behind a session.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	PhotoURL     string    `json:"photo_url"`
	CreatedAt    time.Time `json:"created_at"`
}

// SessionUser is what the session store knows about a signed-in user.
type SessionUser struct {
	ID          uuid.UUID
	SessionID   uuid.UUID
	Email       string
	DisplayName string
	PhotoURL    string
}

type Profile struct {
	UserID       uuid.UUID `json:"user_id"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	SchoolCode   string    `json:"school_code"`
	DisplayName  string    `json:"display_name"`
	PhotoURL     string    `json:"photo_url"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Actor is the acting user of a feed operation.
type Actor struct {
	UserID     uuid.UUID
	Email      string
	Role       string
	SchoolCode string
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func ActorFromProfile(p *Profile) Actor {
	return Actor{
		UserID:     p.UserID,
		Email:      p.Email,
		Role:       p.Role,
		SchoolCode: p.SchoolCode,
	}
}
