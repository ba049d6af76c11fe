package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"lexiquest/internal/badges"
	"lexiquest/internal/config"
	"lexiquest/internal/content"
	"lexiquest/internal/database"
	"lexiquest/internal/handlers"
	"lexiquest/internal/remote"
	"lexiquest/internal/security"
	"lexiquest/internal/service"
	"lexiquest/internal/store"
	syncer "lexiquest/internal/sync"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := godotenv.Load(); err != nil {
		zap.S().Debug("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()
	if cfg.SessionSecret == "" {
		zap.S().Fatal("SESSION_SECRET is required")
	}

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		zap.S().Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	zap.S().Infow("Database connection established", "type", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		zap.S().Fatalf("Failed to run migrations: %v", err)
	}

	st := store.New(db)
	if err := checkSchemaVersion(st); err != nil {
		zap.S().Fatalf("Schema check failed: %v", err)
	}

	client := remote.NewClient(cfg)

	// Vocabulary catalog: prefer the backend's copy, fall back to the
	// bundled seed so the app works fully offline.
	cache := content.NewCache()
	loadUnits(cache, client, cfg.ContentPath)

	// Badge catalog follows the same pattern
	catalog := loadBadges(client)

	var reconciler *syncer.Reconciler
	if client.Configured() {
		reconciler = syncer.NewReconciler(st, client)
	} else {
		zap.S().Info("No remote configured, running offline only")
	}

	// Services
	registry := service.NewRegistry(st, cache, catalog, reconciler)
	profileService := service.NewProfileService(st)
	digestService, err := service.NewDigestService(cfg.AWSRegion, cfg.DigestFromEmail, cfg.DigestFromName)
	if err != nil {
		zap.S().Fatalf("Failed to initialize digest service: %v", err)
	}

	// Handlers
	tokens := security.NewTokenManager(cfg.SessionSecret, cfg.SessionDuration)
	limiter := security.NewRateLimiter(10, time.Minute)
	middleware := handlers.NewMiddleware(tokens, limiter)

	mux := http.NewServeMux()
	handlers.NewProgressHandler(registry, cache, middleware).RegisterRoutes(mux)
	handlers.NewProfileHandler(profileService, registry, tokens, middleware).RegisterRoutes(mux)
	handlers.NewMultiplayerHandler(client, middleware).RegisterRoutes(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handlers.Logging(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	digestStop := make(chan struct{})
	if digestService.IsEnabled() {
		go runWeeklyDigest(st, registry, digestService, cfg.DigestSendHour, digestStop)
	}

	go func() {
		zap.S().Infow("Server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.S().Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.S().Info("Server shutting down")
	close(digestStop)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zap.S().Errorw("Shutdown failed", "error", err)
	}
}

// checkSchemaVersion stamps a fresh database and refuses to run against one
// written by a newer build, whose payloads this build cannot parse safely.
func checkSchemaVersion(st *store.Store) error {
	version, err := st.SchemaVersion()
	if err != nil {
		return err
	}
	switch {
	case version == 0:
		return st.SetSchemaVersion(store.CurrentSchemaVersion)
	case version > store.CurrentSchemaVersion:
		return fmt.Errorf("database schema version %d is newer than this build's %d", version, store.CurrentSchemaVersion)
	}
	return nil
}

func loadUnits(cache *content.Cache, client *remote.Client, seedPath string) {
	if client.Configured() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		units, err := client.FetchUnitCatalog(ctx)
		if err == nil {
			cache.Load(units)
			zap.S().Infow("Loaded unit catalog from remote", "units", len(units))
			return
		}
		zap.S().Warnw("Failed to fetch remote unit catalog, using seed", "error", err)
	}

	if err := content.LoadFromFile(cache, seedPath); err != nil {
		zap.S().Warnw("Failed to load unit catalog seed", "path", seedPath, "error", err)
		return
	}
	zap.S().Infow("Loaded unit catalog from seed", "units", cache.Len())
}

func loadBadges(client *remote.Client) *badges.Catalog {
	list := badges.DefaultCatalog()
	if client.Configured() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if remoteList, err := client.FetchBadgeCatalog(ctx); err == nil && len(remoteList) > 0 {
			list = remoteList
			zap.S().Infow("Loaded badge catalog from remote", "badges", len(list))
		} else if err != nil {
			zap.S().Warnw("Failed to fetch remote badge catalog, using defaults", "error", err)
		}
	}

	catalog, err := badges.NewCatalog(list)
	if err != nil {
		zap.S().Fatalf("Failed to build badge catalog: %v", err)
	}
	return catalog
}

// runWeeklyDigest mails every local profile's summary once a week, on Sunday
// at the configured hour.
func runWeeklyDigest(st *store.Store, registry *service.Registry, digest *service.DigestService, sendHour int, stop <-chan struct{}) {
	ticker := time.NewTicker(30 * time.Minute)
	defer ticker.Stop()

	var lastSent string
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			day := now.Format("2006-01-02")
			if now.Weekday() != time.Sunday || now.Hour() < sendHour || lastSent == day {
				continue
			}
			lastSent = day
			sendDigests(st, registry, digest)
		}
	}
}

func sendDigests(st *store.Store, registry *service.Registry, digest *service.DigestService) {
	ids, err := st.ProfileIDs()
	if err != nil {
		zap.S().Errorw("Failed to list profiles for digest", "error", err)
		return
	}

	for _, id := range ids {
		profile, err := st.Profile(id)
		if err != nil {
			zap.S().Errorw("Failed to load profile for digest", "profile_id", id, "error", err)
			continue
		}

		settings, err := st.Settings(id)
		if err != nil || settings.DigestEmail == "" {
			continue
		}

		svc, err := registry.Progress(id)
		if err != nil {
			continue
		}
		stats, err := svc.Stats()
		if err != nil {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := digest.SendWeeklyDigest(ctx, settings.DigestEmail, profile, stats); err != nil {
			zap.S().Errorw("Failed to send digest", "profile_id", id, "error", err)
		}
		cancel()
	}
}
