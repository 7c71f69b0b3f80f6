// Package report renders the outcome of a reconciliation run as the final
// CSV artifact. The report is written once, fully, at the end of a run;
// partial progress is only visible in the debug log.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/omhartigan/billpayer-recon/internal/recon"
)

// Header is the column layout of the report artifact.
var Header = []string{"Bill Payer", "Type", "Amount", "Status", "Notes"}

// WriteFile writes the full report to path, replacing any previous file.
func WriteFile(path string, records []recon.OutcomeRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("WriteFile: create %q: %w", path, err)
	}
	defer f.Close()

	if err := Write(f, records); err != nil {
		return fmt.Errorf("WriteFile: %q: %w", path, err)
	}
	return f.Close()
}

// Write renders records as CSV in the order they were attempted.
func Write(w io.Writer, records []recon.OutcomeRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("Write: header: %w", err)
	}
	for i, rec := range records {
		row := []string{
			rec.BillPayer,
			string(rec.Operation),
			strconv.FormatFloat(rec.Amount, 'f', 2, 64),
			string(rec.Status),
			rec.Detail,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("Write: record %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
