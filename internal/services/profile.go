package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dimitrije/unity-admin/internal/config"
	"github.com/dimitrije/unity-admin/internal/database"
	"github.com/dimitrije/unity-admin/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrProfileNotFound = errors.New("profile not found")

const profileColumns = `user_id, email, role, school_code, display_name, photo_url, created_at, last_active_at`

type ProfileService struct {
	db *database.DB
}

func NewProfileService(db *database.DB) *ProfileService {
	return &ProfileService{db: db}
}

func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	return scanProfile(s.db.Pool.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM profiles WHERE user_id = $1
	`, userID))
}

// CreateIfAbsent inserts p unless a profile already exists for the user and
// returns whichever row is stored afterwards.
func (s *ProfileService) CreateIfAbsent(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO profiles (user_id, email, role, school_code, display_name, photo_url, created_at, last_active_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO NOTHING
	`, p.UserID, p.Email, p.Role, p.SchoolCode, p.DisplayName, p.PhotoURL, p.CreatedAt, p.LastActiveAt)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, p.UserID)
}

// MarkLogin records an explicit login: last-active time and the current email.
func (s *ProfileService) MarkLogin(ctx context.Context, userID uuid.UUID, email string, at time.Time) (*models.Profile, error) {
	return scanProfile(s.db.Pool.QueryRow(ctx, `
		UPDATE profiles SET last_active_at = $1, email = $2
		WHERE user_id = $3
		RETURNING `+profileColumns,
		at, email, userID))
}

// Assign sets role and school code for the profile with the given email.
// An empty schoolCode keeps the current one.
func (s *ProfileService) Assign(ctx context.Context, email, role, schoolCode string) (*models.Profile, error) {
	return scanProfile(s.db.Pool.QueryRow(ctx, `
		UPDATE profiles
		SET role = $1, school_code = COALESCE(NULLIF($2, ''), school_code)
		WHERE email = $3
		RETURNING `+profileColumns,
		role, schoolCode, normalizeEmail(email)))
}

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(
		&p.UserID, &p.Email, &p.Role, &p.SchoolCode,
		&p.DisplayName, &p.PhotoURL, &p.CreatedAt, &p.LastActiveAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type ProfileStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	CreateIfAbsent(ctx context.Context, p *models.Profile) (*models.Profile, error)
	MarkLogin(ctx context.Context, userID uuid.UUID, email string, at time.Time) (*models.Profile, error)
}

// ProfileResolver fetches or seeds the profile behind a session.
type ProfileResolver struct {
	profiles ProfileStore
	defaults config.ProfileConfig
	logger   *slog.Logger
	now      func() time.Time
}

func NewProfileResolver(profiles ProfileStore, defaults config.ProfileConfig, logger *slog.Logger) *ProfileResolver {
	return &ProfileResolver{
		profiles: profiles,
		defaults: defaults,
		logger:   logger,
		now:      time.Now,
	}
}

// Resolve returns the user's profile, creating the default one on first sight.
// Only an explicit login refreshes last-active and email. Store failures are
// logged and reported as a nil profile.
func (r *ProfileResolver) Resolve(ctx context.Context, user models.SessionUser, isExplicitLogin bool) *models.Profile {
	if user.ID == uuid.Nil {
		return nil
	}

	profile, err := r.profiles.Get(ctx, user.ID)
	switch {
	case errors.Is(err, ErrProfileNotFound):
		now := r.now().UTC()
		created, err := r.profiles.CreateIfAbsent(ctx, &models.Profile{
			UserID:       user.ID,
			Email:        user.Email,
			Role:         r.defaults.DefaultRole,
			SchoolCode:   r.defaults.DefaultSchoolCode,
			DisplayName:  user.DisplayName,
			PhotoURL:     user.PhotoURL,
			CreatedAt:    now,
			LastActiveAt: now,
		})
		if err != nil {
			r.logger.Error("create profile", "user_id", user.ID, "error", err)
			return nil
		}
		r.logger.Info("profile created", "user_id", user.ID, "role", created.Role, "school_code", created.SchoolCode)
		return created
	case err != nil:
		r.logger.Error("load profile", "user_id", user.ID, "error", err)
		return nil
	}

	if !isExplicitLogin {
		return profile
	}

	email := user.Email
	if email == "" {
		email = profile.Email
	}
	updated, err := r.profiles.MarkLogin(ctx, user.ID, email, r.now().UTC())
	if err != nil {
		r.logger.Error("update profile last active", "user_id", user.ID, "error", err)
		return nil
	}
	return updated
}
