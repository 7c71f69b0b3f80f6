package csvsource

import (
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	input := "\ufeffBill Payer , Amount ,Date,Note,Is Returned\n" +
		" Jane O'Brien , 25.50 ,01/03/2025, March fees ,no\n" +
		"Mary Smith,,02/03/2025,,YES\n" +
		"John Murphy,0,,refund,no\n"

	rows, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	first := rows[0]
	if first.BeneficiaryName != "Jane O'Brien" {
		t.Errorf("row 0 name = %q, want trimmed %q", first.BeneficiaryName, "Jane O'Brien")
	}
	if first.Amount != 25.50 {
		t.Errorf("row 0 amount = %v, want 25.50", first.Amount)
	}
	if first.Note != "March fees" {
		t.Errorf("row 0 note = %q, want trimmed note", first.Note)
	}
	if first.IsReturned {
		t.Error("row 0 should not be returned")
	}

	if rows[1].Amount != 0 {
		t.Errorf("missing amount should default to 0, got %v", rows[1].Amount)
	}
	if !rows[1].IsReturned {
		t.Error("Is Returned should match case-insensitively")
	}

	if rows[2].Amount != 0 || rows[2].IsReturned {
		t.Errorf("row 2 = %+v, want zero amount and not returned", rows[2])
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "missing bill payer column",
			input: "Name,Amount\nJane,5\n",
		},
		{
			name:  "invalid amount",
			input: "Bill Payer,Amount\nJane,abc\n",
		},
		{
			name:  "negative amount",
			input: "Bill Payer,Amount\nJane,-4\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Read(strings.NewReader(tt.input)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestReadPreservesOrder(t *testing.T) {
	input := "Bill Payer,Amount\nC,1\nA,2\nB,3\n"

	rows, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	want := []string{"C", "A", "B"}
	for i, name := range want {
		if rows[i].BeneficiaryName != name {
			t.Errorf("row %d name = %q, want %q", i, rows[i].BeneficiaryName, name)
		}
	}
}
