package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dimitrije/unity-admin/internal/models"
	"github.com/dimitrije/unity-admin/internal/services"
	"github.com/dimitrije/unity-admin/internal/session"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSessions answers Current from a fixed state or error.
type stubSessions struct {
	state *session.State
	err   error
	asked uuid.UUID
}

func (s *stubSessions) Current(_ context.Context, sessionID uuid.UUID) (*session.State, error) {
	s.asked = sessionID
	return s.state, s.err
}

func newTestJWTService() *services.JWTService {
	return services.NewJWTService("test-secret-key", 15*time.Minute, 24*time.Hour)
}

func generateTestToken(t *testing.T, jwtSvc *services.JWTService, userID, sessionID uuid.UUID, email string) string {
	t.Helper()
	pair, err := jwtSvc.GenerateTokenPair(userID, sessionID, email)
	require.NoError(t, err)
	return pair.AccessToken
}

func teacherState(userID, sessionID uuid.UUID) *session.State {
	return &session.State{
		User: models.SessionUser{ID: userID, SessionID: sessionID, Email: "test@example.com"},
		Role: models.RoleTeacher,
		Profile: &models.Profile{
			UserID: userID, Email: "test@example.com", Role: models.RoleTeacher, SchoolCode: "SCH1",
		},
	}
}

func newProtectedApp(jwtSvc TokenValidator, sessions SessionSource, handler drift.HandlerFunc) http.Handler {
	app := drift.New()
	app.Use(Auth(jwtSvc, sessions))
	if handler == nil {
		handler = func(c *drift.Context) {
			_ = c.JSON(http.StatusOK, map[string]string{"status": "ok"})
		}
	}
	app.Get("/protected", handler)
	return app
}

func serve(app http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func TestAuth_MissingAuthorizationHeader(t *testing.T) {
	app := newProtectedApp(newTestJWTService(), &stubSessions{}, nil)

	rec := serve(app, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing authorization header")
}

func TestAuth_InvalidAuthorizationFormat(t *testing.T) {
	app := newProtectedApp(newTestJWTService(), &stubSessions{}, nil)

	for _, header := range []string{"Token some-token", "Bearer", "Bearer "} {
		t.Run(header, func(t *testing.T) {
			rec := serve(app, header)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "invalid authorization header format")
		})
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	app := newProtectedApp(newTestJWTService(), &stubSessions{}, nil)

	rec := serve(app, "Bearer invalid-token")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired token")
}

func TestAuth_ExpiredToken(t *testing.T) {
	jwtSvc := services.NewJWTService("test-secret-key", 1*time.Millisecond, 24*time.Hour)
	token := generateTestToken(t, jwtSvc, uuid.New(), uuid.New(), "test@example.com")

	// Wait for token to expire
	time.Sleep(10 * time.Millisecond)

	rec := serve(newProtectedApp(jwtSvc, &stubSessions{}, nil), "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired token")
}

func TestAuth_WrongSecret(t *testing.T) {
	jwtSvc1 := services.NewJWTService("secret-1", 15*time.Minute, 24*time.Hour)
	jwtSvc2 := services.NewJWTService("secret-2", 15*time.Minute, 24*time.Hour)
	token := generateTestToken(t, jwtSvc1, uuid.New(), uuid.New(), "test@example.com")

	rec := serve(newProtectedApp(jwtSvc2, &stubSessions{}, nil), "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_RefreshTokenRejected(t *testing.T) {
	jwtSvc := newTestJWTService()
	pair, err := jwtSvc.GenerateTokenPair(uuid.New(), uuid.New(), "test@example.com")
	require.NoError(t, err)

	rec := serve(newProtectedApp(jwtSvc, &stubSessions{}, nil), "Bearer "+pair.RefreshToken)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_ValidToken(t *testing.T) {
	jwtSvc := newTestJWTService()
	userID, sessionID := uuid.New(), uuid.New()
	email := "test@example.com"
	token := generateTestToken(t, jwtSvc, userID, sessionID, email)
	sessions := &stubSessions{state: teacherState(userID, sessionID)}

	var (
		extractedUserID    uuid.UUID
		extractedSessionID uuid.UUID
		extractedEmail     string
		actor              models.Actor
		hasActor           bool
	)
	app := newProtectedApp(jwtSvc, sessions, func(c *drift.Context) {
		extractedUserID = GetUserID(c)
		extractedSessionID = GetSessionID(c)
		extractedEmail = GetUserEmail(c)
		actor, hasActor = GetActor(c)
		_ = c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	rec := serve(app, "Bearer "+token)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, extractedUserID)
	assert.Equal(t, sessionID, extractedSessionID)
	assert.Equal(t, sessionID, sessions.asked)
	assert.Equal(t, email, extractedEmail)
	require.True(t, hasActor)
	assert.Equal(t, "SCH1", actor.SchoolCode)
	assert.Equal(t, models.RoleTeacher, actor.Role)
}

func TestAuth_BearerCaseInsensitive(t *testing.T) {
	jwtSvc := newTestJWTService()
	userID, sessionID := uuid.New(), uuid.New()
	token := generateTestToken(t, jwtSvc, userID, sessionID, "test@example.com")
	app := newProtectedApp(jwtSvc, &stubSessions{state: teacherState(userID, sessionID)}, nil)

	for _, bearer := range []string{"bearer", "BEARER", "BeArEr"} {
		t.Run(bearer, func(t *testing.T) {
			rec := serve(app, bearer+" "+token)

			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestAuth_SessionErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"ended", session.ErrSessionEnded, http.StatusUnauthorized, "session has ended"},
		{"unresolved", session.ErrSessionUnresolved, http.StatusServiceUnavailable, "PROFILE_UNAVAILABLE"},
		{"store failure", errors.New("connection reset"), http.StatusInternalServerError, "failed to load session"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jwtSvc := newTestJWTService()
			token := generateTestToken(t, jwtSvc, uuid.New(), uuid.New(), "test@example.com")
			reached := false
			app := newProtectedApp(jwtSvc, &stubSessions{err: tt.err}, func(c *drift.Context) {
				reached = true
			})

			rec := serve(app, "Bearer "+token)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			assert.False(t, reached)
		})
	}
}

func TestGetters_NotSet(t *testing.T) {
	app := drift.New()

	var (
		extractedUserID uuid.UUID
		extractedEmail  string
		state           *session.State
		hasActor        bool
	)
	app.Get("/test", func(c *drift.Context) {
		extractedUserID = GetUserID(c)
		extractedEmail = GetUserEmail(c)
		state = GetState(c)
		_, hasActor = GetActor(c)
		_ = c.JSON(http.StatusOK, nil)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, uuid.Nil, extractedUserID)
	assert.Equal(t, "", extractedEmail)
	assert.Nil(t, state)
	assert.False(t, hasActor)
}
