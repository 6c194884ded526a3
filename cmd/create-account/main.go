package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dimitrije/unity-admin/internal/config"
	"github.com/dimitrije/unity-admin/internal/database"
	"github.com/dimitrije/unity-admin/internal/services"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: create-account <email> <password> [display name]")
		os.Exit(1)
	}

	email, password := os.Args[1], os.Args[2]
	displayName := strings.Join(os.Args[3:], " ")

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

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	account, err := services.NewAccountService(db).Create(ctx, email, password, displayName)
	if err != nil {
		log.Fatalf("Failed to create account: %v", err)
	}

	fmt.Printf("Created account %s (%s)\n", account.Email, account.ID)
}
