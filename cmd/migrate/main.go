package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stemsi/student-dashboard/internal/config"
	"github.com/stemsi/student-dashboard/internal/database"
	"github.com/stemsi/student-dashboard/internal/grading"
	"github.com/stemsi/student-dashboard/internal/logger"
	"github.com/stemsi/student-dashboard/internal/service"
)

func main() {
	var migrationDir string
	flag.StringVar(&migrationDir, "path", "migrations", "Path to migration files")
	flag.Parse()

	// Load config
	cfg := config.Load()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		return
	}

	command := args[0]
	if command == "legacy-json" {
		path := cfg.LegacyJSONPath
		if len(args) > 1 {
			path = args[1]
		}
		migrateLegacyJSON(cfg, path)
		return
	}

	if cfg.DatabaseDriver != config.DriverPostgres {
		log.Fatalf("SQL migrations target PostgreSQL; DATABASE_DRIVER is %q (SQLite tables are created on startup)", cfg.DatabaseDriver)
	}
	dbURL := cfg.DatabaseURL
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	sourceURL := fmt.Sprintf("file://%s", migrationDir)

	m, err := migrate.New(sourceURL, dbURL)
	if err != nil {
		log.Fatalf("Migration failed to initialize: %v", err)
	}
	defer m.Close()

	switch command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("Up failed: %v", err)
		}
		fmt.Println("Migrated up successfully")
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("Down failed: %v", err)
		}
		fmt.Println("Migrated down successfully")
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.Fatalf("Version failed: %v", err)
		}
		fmt.Printf("Version: %d, Dirty: %t\n", version, dirty)
	case "force":
		if len(args) < 2 {
			log.Fatal("force requires version argument")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatalf("Invalid version: %v", err)
		}
		if err := m.Force(v); err != nil {
			log.Fatalf("Force failed: %v", err)
		}
		fmt.Printf("Forced version to %d\n", v)
	default:
		printUsage()
	}
}

// migrateLegacyJSON merges a legacy data.json into whichever store
// DATABASE_DRIVER selects.
func migrateLegacyJSON(cfg *config.Config, path string) {
	zl := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	store, err := database.OpenStore(ctx, cfg, zl)
	if err != nil {
		log.Fatalf("Open store failed: %v", err)
	}
	defer store.Close()

	svc := service.NewStudentService(store.Students, grading.NewScheme(cfg.Subjects, cfg.MaxMarksPerSubject), store.StatisticsCache(), zl)
	n, err := svc.MigrateLegacyJSON(ctx, path)
	if err != nil {
		log.Fatalf("Legacy migration failed: %v", err)
	}
	fmt.Printf("Migrated %d students from %s\n", n, path)
}

func printUsage() {
	fmt.Println("Usage: migrate [flags] <command>")
	fmt.Println("Commands: up, down, version, force <version>, legacy-json [path]")
	fmt.Println("Flags:")
	flag.PrintDefaults()
}
