// Command sync-report mirrors an outcome report CSV into a Notion
// database. Re-running for the same run ID replaces the run's pages.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/omhartigan/billpayer-recon/internal/logger"
	"github.com/omhartigan/billpayer-recon/internal/notionreport"
	"github.com/omhartigan/billpayer-recon/internal/report"
)

func main() {
	reportPath := flag.String("report", "transaction_report.csv", "Path to the outcome report CSV")
	runID := flag.String("run-id", "", "Run ID the report belongs to")
	notionToken := flag.String("notion-token", os.Getenv("NOTION_TOKEN"), "Notion integration token (or set NOTION_TOKEN env)")
	notionDB := flag.String("notion-db-id", os.Getenv("NOTION_DATABASE_ID"), "Notion database ID (or set NOTION_DATABASE_ID env)")
	dryRun := flag.Bool("dry-run", false, "Log what would change without writing to Notion")
	flag.Parse()

	log := logger.New()
	if *runID == "" {
		log.Fatal().Msg("-run-id is required")
	}
	if *notionToken == "" || *notionDB == "" {
		log.Fatal().Msg("Notion token and database ID are required")
	}

	records, err := report.ReadFile(*reportPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read report")
	}
	log.Info().Int("records", len(records)).Str("report", *reportPath).Msg("Report loaded")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	client := notionreport.NewNotionClient(*notionToken)
	if err := notionreport.SyncReport(ctx, client, *notionDB, *runID, time.Now(), records, *dryRun); err != nil {
		log.Fatal().Err(err).Msg("Notion sync failed")
	}
	log.Info().Str("run_id", *runID).Msg("Report synced to Notion")
}
