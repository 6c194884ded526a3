package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dimitrije/unity-admin/internal/config"
	"github.com/dimitrije/unity-admin/internal/database"
	"github.com/dimitrije/unity-admin/internal/handlers"
	authmw "github.com/dimitrije/unity-admin/internal/middleware"
	"github.com/dimitrije/unity-admin/internal/services"
	"github.com/dimitrije/unity-admin/internal/session"
	"github.com/dimitrije/unity-admin/internal/sse"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Error("run migrations", "error", err)
		os.Exit(1)
	}

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	accountService := services.NewAccountService(db)
	tokenService := services.NewTokenService(db)
	profileService := services.NewProfileService(db)
	newsService := services.NewNewsService(db)
	blobService := services.NewBlobService(db, cfg.BaseURL)
	resolver := services.NewProfileResolver(profileService, cfg.Profile, log)

	hub := sse.NewHub()
	go hub.Run()

	sessionStore := session.NewStore(accountService, tokenService, jwtService, log)
	unsubscribe := sessionStore.OnSessionChange(func(_ context.Context, ev session.Event) {
		if ev.Type == session.SignedOut {
			hub.CloseSession(ev.User.SessionID)
		}
	})
	defer unsubscribe()

	sessionContext := session.NewContext(sessionStore, resolver, cfg.SessionCacheTTL, log)
	sessionContext.Start()
	defer sessionContext.Close()

	feed := services.NewFeedManager(newsService, blobService, hub, cfg.Storage.MaxImageBytes, log)

	authHandler := handlers.NewAuthHandler(sessionContext, sessionStore)
	newsHandler := handlers.NewNewsHandler(feed, cfg.Storage.MaxImageBytes, log)
	filesHandler := handlers.NewFilesHandler(blobService)
	pagesHandler := handlers.NewPagesHandler()
	sseHandler := handlers.NewSSEHandler(hub)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.RefreshToken)

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService, sessionContext))

	protected.Post("/auth/logout", authHandler.Logout)
	protected.Get("/auth/me", authHandler.Me)

	protected.Get("/news", newsHandler.List)
	protected.Post("/news", newsHandler.Create)
	protected.Put("/news/:id", newsHandler.Update)
	protected.Delete("/news/:id", newsHandler.Delete)
	protected.Get("/events", sseHandler.Connect)

	protected.Get("/dashboard", pagesHandler.Dashboard)
	protected.Get("/settings", pagesHandler.Settings)
	protected.Get("/users", pagesHandler.Users)

	api.Get("/files/:folder/:name", filesHandler.Download)

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	go runMaintenance(ctx, log, tokenService, blobService, cfg.Storage.OrphanBlobTTL)

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Info("server starting", "addr", addr)
		if err := app.Run(addr); err != nil {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")
}

// runMaintenance drops expired sessions and uploads that never got committed.
func runMaintenance(ctx context.Context, log *slog.Logger, tokens *services.TokenService, blobs *services.BlobService, orphanTTL time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := tokens.CleanupExpired(ctx); err != nil {
				log.Warn("cleanup expired sessions", "error", err)
			}
			n, err := blobs.SweepOrphans(ctx, orphanTTL)
			if err != nil {
				log.Warn("sweep orphan blobs", "error", err)
				continue
			}
			if n > 0 {
				log.Info("swept orphan blobs", "count", n)
			}
		}
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
