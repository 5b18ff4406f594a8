package main

import (
	"context"
	"os"

	"github.com/stemsi/student-dashboard/internal/config"
	"github.com/stemsi/student-dashboard/internal/console"
	"github.com/stemsi/student-dashboard/internal/database"
	"github.com/stemsi/student-dashboard/internal/grading"
	"github.com/stemsi/student-dashboard/internal/logger"
	"github.com/stemsi/student-dashboard/internal/service"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	// Logs go to stderr so they never interleave with the menu.
	log := logger.SetupWithWriter(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	ctx := context.Background()

	// ─── Open Record Store ─────────────────────────────────────────────
	store, err := database.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open record store")
	}
	defer store.Close()

	scheme := grading.NewScheme(cfg.Subjects, cfg.MaxMarksPerSubject)
	studentService := service.NewStudentService(store.Students, scheme, store.StatisticsCache(), log)

	if _, err := studentService.MigrateLegacyJSON(ctx, cfg.LegacyJSONPath); err != nil {
		log.Warn().Err(err).Str("path", cfg.LegacyJSONPath).Msg("Legacy data migration failed")
	}

	// ─── Run Menu ──────────────────────────────────────────────────────
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	c := console.New(studentService, os.Stdin, os.Stdout, interactive, log)
	if err := c.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Console failed")
	}
}
