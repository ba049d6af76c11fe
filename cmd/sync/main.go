package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"lexiquest/internal/config"
	"lexiquest/internal/database"
	"lexiquest/internal/models"
	"lexiquest/internal/remote"
	"lexiquest/internal/store"
	syncer "lexiquest/internal/sync"
)

func main() {
	// Define subcommands
	runCmd := flag.NewFlagSet("run", flag.ExitOnError)
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)

	// Run flags
	runProfile := runCmd.String("profile", "", "Profile id to reconcile (default: every local profile)")

	// Export flags
	exportOutput := exportCmd.String("output", "", "Output file path (default: export_YYYYMMDD_HHMMSS.json)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

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

	// Initialize database
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		zap.S().Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		zap.S().Fatalf("Failed to run migrations: %v", err)
	}

	st := store.New(db)

	switch os.Args[1] {
	case "run":
		runCmd.Parse(os.Args[2:])
		handleRun(cfg, st, *runProfile)

	case "export":
		exportCmd.Parse(os.Args[2:])
		handleExport(st, *exportOutput)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleRun(cfg *config.Config, st *store.Store, profileID string) {
	client := remote.NewClient(cfg)
	if !client.Configured() {
		zap.S().Fatal("REMOTE_BASE_URL is not configured, nothing to sync against")
	}
	reconciler := syncer.NewReconciler(st, client)

	ids := []string{profileID}
	if profileID == "" {
		var err error
		ids, err = st.ProfileIDs()
		if err != nil {
			zap.S().Fatalf("Failed to list profiles: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for _, id := range ids {
		action, err := reconciler.Reconcile(ctx, id)
		if err != nil {
			zap.S().Errorw("Reconcile failed", "profile_id", id, "error", err)
			continue
		}
		zap.S().Infow("Reconcile finished", "profile_id", id, "action", action)
	}
}

// profileExport is the on-disk shape of one exported profile.
type profileExport struct {
	Profile   models.UserProfile     `json:"profile"`
	Stats     models.UserStats       `json:"stats"`
	SRS       models.SRSMap          `json:"srsData"`
	Bookmarks []string               `json:"bookmarks"`
	Quests    models.DailyQuestState `json:"quests"`
	Settings  models.AppSettings     `json:"settings"`
}

func handleExport(st *store.Store, outputPath string) {
	// Generate default filename if not provided
	if outputPath == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputPath = fmt.Sprintf("export_%s.json", timestamp)
	}

	// Ensure directory exists
	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			zap.S().Fatalf("Failed to create output directory: %v", err)
		}
	}

	ids, err := st.ProfileIDs()
	if err != nil {
		zap.S().Fatalf("Failed to list profiles: %v", err)
	}

	exports := make(map[string]profileExport, len(ids))
	for _, id := range ids {
		export, err := collectProfile(st, id)
		if err != nil {
			zap.S().Fatalf("Failed to collect profile %s: %v", id, err)
		}
		exports[id] = export
	}

	file, err := os.Create(outputPath)
	if err != nil {
		zap.S().Fatalf("Failed to create output file: %v", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(exports); err != nil {
		zap.S().Fatalf("Export failed: %v", err)
	}

	zap.S().Infow("Export complete", "path", outputPath, "profiles", len(exports))
}

func collectProfile(st *store.Store, id string) (profileExport, error) {
	profile, err := st.Profile(id)
	if err != nil {
		return profileExport{}, err
	}
	stats, err := st.Stats(id)
	if err != nil {
		return profileExport{}, err
	}
	srsMap, err := st.SRSMap(id)
	if err != nil {
		return profileExport{}, err
	}
	bookmarks, err := st.Bookmarks(id)
	if err != nil {
		return profileExport{}, err
	}
	quests, _, err := st.QuestState(id)
	if err != nil {
		return profileExport{}, err
	}
	settings, err := st.Settings(id)
	if err != nil {
		return profileExport{}, err
	}

	return profileExport{
		Profile:   profile,
		Stats:     stats,
		SRS:       srsMap,
		Bookmarks: bookmarks,
		Quests:    quests,
		Settings:  settings,
	}, nil
}

func printUsage() {
	fmt.Println("LexiQuest Sync Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  sync run [options]       Reconcile local profiles with the backend")
	fmt.Println("  sync export [options]    Export local profile data to JSON file")
	fmt.Println()
	fmt.Println("Run Options:")
	fmt.Println("  -profile <id>     Profile id to reconcile (default: every local profile)")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>    Output file path (default: export_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DB_TYPE           Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH           SQLite database path (default: ./lexiquest.db)")
	fmt.Println("  DB_URL            PostgreSQL or MySQL connection URL")
	fmt.Println("  REMOTE_BASE_URL   Backend endpoint used by 'run'")
}
