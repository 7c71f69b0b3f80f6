// Package gcsreport archives finished run artifacts (the outcome report and
// the debug log) to a GCS bucket, so batch runs leave a trail beyond the
// operator's machine.
package gcsreport

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
)

// ObjectName builds the bucket path for a run artifact:
// reports/<run-date>/<run-id>/<filename>.
func ObjectName(runID string, runDate time.Time, localPath string) string {
	return fmt.Sprintf("reports/%s/%s/%s", runDate.Format("2006-01-02"), runID, filepath.Base(localPath))
}

// UploadFile uploads a local file to a GCS bucket under the given object
// name. It assumes Application Default Credentials are configured.
func UploadFile(ctx context.Context, bucketName, objectName, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open file %q: %w", filePath, err)
	}
	defer f.Close()

	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	obj := client.Bucket(bucketName).Object(objectName)

	w := obj.NewWriter(ctx)
	defer func() {
		// Ensure the writer is closed even on early returns
		_ = w.Close()
	}()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("copy file to GCS writer: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}

	return nil
}
