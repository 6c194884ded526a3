package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/dimitrije/unity-admin/internal/models"
	"github.com/dimitrije/unity-admin/internal/services"
	"github.com/dimitrije/unity-admin/internal/session"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const (
	UserIDKey       = "user_id"
	UserEmailKey    = "user_email"
	SessionIDKey    = "session_id"
	SessionStateKey = "session_state"
)

type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*services.Claims, error)
}

type SessionSource interface {
	Current(ctx context.Context, sessionID uuid.UUID) (*session.State, error)
}

// Auth accepts a bearer access token whose session is still live and whose
// profile has been resolved.
func Auth(jwtService TokenValidator, sessions SessionSource) drift.HandlerFunc {
	return func(c *drift.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Unauthorized("missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			c.Unauthorized("invalid authorization header format")
			return
		}

		claims, err := jwtService.ValidateAccessToken(parts[1])
		if err != nil {
			c.Unauthorized("invalid or expired token")
			return
		}

		state, err := sessions.Current(c.Request.Context(), claims.SessionID)
		if err != nil {
			switch {
			case errors.Is(err, session.ErrSessionEnded):
				c.Unauthorized("session has ended")
			case errors.Is(err, session.ErrSessionUnresolved):
				_ = c.JSON(503, map[string]string{
					"code":    "PROFILE_UNAVAILABLE",
					"message": "profile is not available yet, retry shortly",
				})
			default:
				c.InternalServerError("failed to load session")
			}
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)
		c.Set(SessionIDKey, claims.SessionID)
		c.Set(SessionStateKey, state)

		c.Next()
	}
}

func GetUserID(c *drift.Context) uuid.UUID {
	if id, ok := c.Get(UserIDKey); ok {
		if uid, ok := id.(uuid.UUID); ok {
			return uid
		}
	}
	return uuid.Nil
}

func GetUserEmail(c *drift.Context) string {
	if email, ok := c.Get(UserEmailKey); ok {
		if e, ok := email.(string); ok {
			return e
		}
	}
	return ""
}

func GetSessionID(c *drift.Context) uuid.UUID {
	if id, ok := c.Get(SessionIDKey); ok {
		if sid, ok := id.(uuid.UUID); ok {
			return sid
		}
	}
	return uuid.Nil
}

func GetState(c *drift.Context) *session.State {
	if v, ok := c.Get(SessionStateKey); ok {
		if state, ok := v.(*session.State); ok {
			return state
		}
	}
	return nil
}

// GetActor returns the acting user, and false outside an authenticated route.
func GetActor(c *drift.Context) (models.Actor, bool) {
	state := GetState(c)
	if state == nil {
		return models.Actor{}, false
	}
	return state.Actor(), true
}
