package notionreport

import (
	"context"
	"fmt"
	"time"

	"github.com/jomei/notionapi"

	"github.com/omhartigan/billpayer-recon/internal/logger"
	"github.com/omhartigan/billpayer-recon/internal/recon"
)

// SyncReport mirrors one run's outcome records into a Notion database.
// Pages belonging to the same run id from an earlier sync are archived
// first, so re-running the sync is idempotent. With dryRun set, the changes
// are logged but nothing is written.
func SyncReport(ctx context.Context, client NotionService, databaseID, runID string, runTime time.Time, records []recon.OutcomeRecord, dryRun bool) error {
	log := logger.FromContext(ctx)

	log.Info().
		Str("run_id", runID).
		Int("records", len(records)).
		Bool("dry_run", dryRun).
		Msg("Starting report sync to Notion")

	pages, err := queryAllPages(ctx, client, databaseID)
	if err != nil {
		return fmt.Errorf("SyncReport: %w", err)
	}

	// Archive any pages from a previous sync of this run.
	var deleted int
	for _, page := range pages {
		if extractRunID(page) != runID {
			continue
		}
		if dryRun {
			log.Info().Str("page_id", string(page.ID)).Msg("[DRY RUN] Would archive stale page")
			deleted++
			continue
		}
		if err := client.DeletePage(ctx, string(page.ID)); err != nil {
			log.Warn().Err(err).Str("page_id", string(page.ID)).Msg("Failed to archive stale page")
			continue
		}
		deleted++
	}
	if deleted > 0 {
		log.Info().Int("deleted", deleted).Msg("Archived stale pages for run")
	}

	var created int
	for seq, rec := range records {
		props := OutcomeToNotionProperties(runID, runTime, seq+1, rec)
		if dryRun {
			log.Info().
				Str("bill_payer", rec.BillPayer).
				Str("type", string(rec.Operation)).
				Msg("[DRY RUN] Would create page")
			created++
			continue
		}
		if _, err := client.CreatePage(ctx, databaseID, props); err != nil {
			return fmt.Errorf("SyncReport: creating page for record %d: %w", seq, err)
		}
		created++
	}

	log.Info().Int("created", created).Msg("Report sync finished")
	return nil
}

// queryAllPages pages through the whole database.
func queryAllPages(ctx context.Context, client NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := client.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}
