package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"deckster-be/internal/config"
	"deckster-be/internal/pkg/logger"
	"deckster-be/internal/repository/unitofwork"
	"deckster-be/internal/service"
	"deckster-be/pkg/database"
	"deckster-be/pkg/filestore"

	"github.com/fatih/color"
)

// Operator CLI for the abandoned-session sweep. Runs as a dry run by
// default; pass -purge to delete.
func main() {
	purge := flag.Bool("purge", false, "actually delete instead of reporting candidates")
	flag.Parse()

	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("DB connection failed: %v", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	store := filestore.NewGeminiClient(cfg.Gemini.APIKey)

	cleanupService := service.NewCleanupService(uowFactory, store, cfg.Cleanup.ThresholdHours, sysLogger)

	ctx := context.Background()

	if !*purge {
		report, err := cleanupService.DryRun(ctx)
		if err != nil {
			log.Fatalf("Dry run failed: %v", err)
		}
		color.Cyan("Dry run (threshold %dh): %d candidate sessions", report.ThresholdHours, len(report.CandidateIds))
		for _, id := range report.CandidateIds {
			fmt.Println("  " + id)
		}
		color.Yellow("Re-run with -purge to delete them.")
		return
	}

	report, err := cleanupService.Purge(ctx)
	if err != nil {
		log.Fatalf("Purge failed: %v", err)
	}

	color.Green("Purge complete (threshold %dh)", report.ThresholdHours)
	fmt.Printf("  sessions: %d\n", report.SessionsDeleted)
	fmt.Printf("  messages: %d\n", report.MessagesDeleted)
	fmt.Printf("  files:    %d\n", report.FilesDeleted)
	fmt.Printf("  caches:   %d\n", report.CachesDeleted)
	fmt.Printf("  stores:   %d (failed: %d)\n", report.StoresDeleted, report.StoreDeleteFails)
	if len(report.Errors) > 0 {
		color.Red("%d sessions hit errors:", len(report.Errors))
		for _, e := range report.Errors {
			fmt.Println("  " + e)
		}
	}
}
