package gcsreport

import (
	"testing"
	"time"
)

func TestObjectName(t *testing.T) {
	runDate := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		localPath string
		want      string
	}{
		{
			name:      "report csv",
			localPath: "/tmp/out/transaction_report.csv",
			want:      "reports/2025-03-14/run-1/transaction_report.csv",
		},
		{
			name:      "bare filename",
			localPath: "transaction_debug.log",
			want:      "reports/2025-03-14/run-1/transaction_debug.log",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ObjectName("run-1", runDate, tt.localPath)
			if got != tt.want {
				t.Errorf("ObjectName() = %q, want %q", got, tt.want)
			}
		})
	}
}
