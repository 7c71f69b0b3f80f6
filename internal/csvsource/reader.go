// Package csvsource reads the ledger export that feeds a reconciliation
// run. The expected columns are Bill Payer, Amount, Date, Note and
// Is Returned; everything is whitespace-trimmed on read and a UTF-8 BOM on
// the first header is tolerated, since the exports come from spreadsheet
// tools.
package csvsource

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/omhartigan/billpayer-recon/internal/recon"
)

const (
	colBillPayer  = "Bill Payer"
	colAmount     = "Amount"
	colDate       = "Date"
	colNote       = "Note"
	colIsReturned = "Is Returned"
)

// ReadFile loads transaction rows from a CSV file.
func ReadFile(path string) ([]recon.TransactionRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ReadFile: open %q: %w", path, err)
	}
	defer f.Close()

	rows, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("ReadFile: %q: %w", path, err)
	}
	return rows, nil
}

// Read parses transaction rows from CSV data. Rows keep input order. A
// missing or empty Amount becomes 0; Is Returned is true only for a
// case-insensitive "yes".
func Read(r io.Reader) ([]recon.TransactionRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("Read: reading header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		index[strings.TrimSpace(name)] = i
	}
	if _, ok := index[colBillPayer]; !ok {
		return nil, fmt.Errorf("Read: missing required column %q", colBillPayer)
	}

	var rows []recon.TransactionRow
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("Read: line %d: %w", line, err)
		}

		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		amountStr := get(colAmount)
		amount := 0.0
		if amountStr != "" {
			amount, err = strconv.ParseFloat(amountStr, 64)
			if err != nil {
				return nil, fmt.Errorf("Read: line %d: invalid amount %q: %w", line, amountStr, err)
			}
			if amount < 0 {
				return nil, fmt.Errorf("Read: line %d: negative amount %q", line, amountStr)
			}
		}

		rows = append(rows, recon.TransactionRow{
			BeneficiaryName: get(colBillPayer),
			Amount:          amount,
			Note:            get(colNote),
			Date:            get(colDate),
			IsReturned:      strings.EqualFold(get(colIsReturned), "yes"),
		})
	}

	return rows, nil
}
