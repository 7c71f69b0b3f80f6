// Package bqaudit persists run outcome records to a BigQuery audit table.
// The table is append-only: each run inserts one row per outcome record,
// keyed by run id, so past reconciliation runs stay queryable after the
// local report files are gone.
package bqaudit

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/omhartigan/billpayer-recon/internal/recon"
)

const (
	datasetID = "reconciliation"
	tableID   = "run_outcomes"
)

// OutcomeRow is one audit row in reconciliation.run_outcomes.
type OutcomeRow struct {
	RecordID string `bigquery:"record_id"` // REQUIRED
	RunID    string `bigquery:"run_id"`    // REQUIRED

	RunDate civil.Date `bigquery:"run_date"` // REQUIRED
	Branch  string     `bigquery:"branch"`   // NULLABLE

	BillPayer string   `bigquery:"bill_payer"` // REQUIRED
	Operation string   `bigquery:"operation"`  // REQUIRED
	Amount    *big.Rat `bigquery:"amount"`     // REQUIRED NUMERIC
	Status    string   `bigquery:"status"`     // REQUIRED
	Detail    string   `bigquery:"detail"`     // NULLABLE

	RecordedTS time.Time `bigquery:"recorded_ts"` // REQUIRED
}

// Writer writes audit rows with a shared BigQuery client.
type Writer struct {
	client    *bigquery.Client
	projectID string
}

// NewWriter creates an audit writer for the given project. It assumes
// Application Default Credentials are configured.
func NewWriter(ctx context.Context, projectID string) (*Writer, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewWriter: creating client: %w", err)
	}
	return &Writer{client: client, projectID: projectID}, nil
}

// Close closes the BigQuery client connection.
func (w *Writer) Close() error {
	if w.client != nil {
		return w.client.Close()
	}
	return nil
}

// InsertOutcomes streams one run's outcome records into the audit table.
func (w *Writer) InsertOutcomes(ctx context.Context, runID, branch string, records []recon.OutcomeRecord) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now()
	runDate := civil.DateOf(now)

	rows := make([]*OutcomeRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, &OutcomeRow{
			RecordID:   uuid.NewString(),
			RunID:      runID,
			RunDate:    runDate,
			Branch:     branch,
			BillPayer:  rec.BillPayer,
			Operation:  string(rec.Operation),
			Amount:     new(big.Rat).SetFloat64(rec.Amount),
			Status:     string(rec.Status),
			Detail:     rec.Detail,
			RecordedTS: now,
		})
	}

	inserter := w.client.Dataset(datasetID).Table(tableID).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertOutcomes: inserting %d rows: %w", len(rows), err)
	}
	return nil
}

// ListRunOutcomes retrieves the audit rows of one run, in recorded order.
func (w *Writer) ListRunOutcomes(ctx context.Context, runID string) ([]*OutcomeRow, error) {
	q := w.client.Query(fmt.Sprintf(`
		SELECT
			record_id,
			run_id,
			run_date,
			branch,
			bill_payer,
			operation,
			amount,
			status,
			detail,
			recorded_ts
		FROM `+"`%s.%s.%s`"+`
		WHERE run_id = @run_id
		ORDER BY recorded_ts
	`, w.projectID, datasetID, tableID))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListRunOutcomes: reading query: %w", err)
	}

	var rows []*OutcomeRow
	for {
		var row OutcomeRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListRunOutcomes: iterating: %w", err)
		}
		rows = append(rows, &row)
	}

	return rows, nil
}
