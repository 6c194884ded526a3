package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dimitrije/unity-admin/internal/config"
	"github.com/dimitrije/unity-admin/internal/database"
	"github.com/dimitrije/unity-admin/internal/models"
	"github.com/dimitrije/unity-admin/internal/services"
)

func main() {
	if len(os.Args) < 3 || len(os.Args) > 4 {
		fmt.Println("Usage: set-role <email> <ADMIN|TEACHER|STAFF> [school code]")
		os.Exit(1)
	}

	email := os.Args[1]
	role := strings.ToUpper(os.Args[2])
	schoolCode := ""
	if len(os.Args) == 4 {
		schoolCode = strings.TrimSpace(os.Args[3])
	}

	if !models.IsValidRole(role) {
		log.Fatalf("Unknown role %q, expected one of %s", role, strings.Join(models.AllRoles, ", "))
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	profiles := services.NewProfileService(db)

	profile, err := profiles.Assign(ctx, email, role, schoolCode)
	if errors.Is(err, services.ErrProfileNotFound) {
		// never signed in yet: seed the profile from the account
		profile, err = seedProfile(ctx, db, profiles, cfg.Profile, email, role, schoolCode)
	}
	if err != nil {
		log.Fatalf("Failed to assign role: %v", err)
	}

	fmt.Printf("%s is now %s at school %q\n", profile.Email, profile.Role, profile.SchoolCode)
}

func seedProfile(ctx context.Context, db *database.DB, profiles *services.ProfileService, defaults config.ProfileConfig, email, role, schoolCode string) (*models.Profile, error) {
	account, err := services.NewAccountService(db).GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if schoolCode == "" {
		schoolCode = defaults.DefaultSchoolCode
	}

	now := time.Now().UTC()
	if _, err := profiles.CreateIfAbsent(ctx, &models.Profile{
		UserID:       account.ID,
		Email:        account.Email,
		Role:         role,
		SchoolCode:   schoolCode,
		DisplayName:  account.DisplayName,
		PhotoURL:     account.PhotoURL,
		CreatedAt:    now,
		LastActiveAt: now,
	}); err != nil {
		return nil, err
	}
	return profiles.Assign(ctx, email, role, schoolCode)
}
