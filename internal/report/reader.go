package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/omhartigan/billpayer-recon/internal/recon"
)

// ReadFile loads a previously written report back into outcome records, for
// tools that post-process a finished run.
func ReadFile(path string) ([]recon.OutcomeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ReadFile: open %q: %w", path, err)
	}
	defer f.Close()

	records, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("ReadFile: %q: %w", path, err)
	}
	return records, nil
}

// Read parses report CSV back into outcome records.
func Read(r io.Reader) ([]recon.OutcomeRecord, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("Read: reading header: %w", err)
	}
	if len(header) != len(Header) {
		return nil, fmt.Errorf("Read: header has %d columns, want %d", len(header), len(Header))
	}

	var records []recon.OutcomeRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("Read: line %d: %w", line, err)
		}

		amount, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("Read: line %d: invalid amount %q: %w", line, row[2], err)
		}

		records = append(records, recon.OutcomeRecord{
			BillPayer: row[0],
			Operation: recon.OperationType(row[1]),
			Amount:    amount,
			Status:    recon.OutcomeStatus(row[3]),
			Detail:    row[4],
		})
	}

	return records, nil
}
