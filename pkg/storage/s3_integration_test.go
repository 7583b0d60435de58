//go:build integration

package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailmerge/pkg/storage"
)

// Runs against a local S3-compatible server (MinIO or rustfs) with an
// existing "reports" bucket.
func TestS3Storage_UploadFile_Integration(t *testing.T) {
	store, err := storage.New(storage.Config{
		Endpoint:  "http://localhost:9000",
		AccessKey: "admin",
		SecretKey: "admin123",
		Bucket:    "reports",
		PathStyle: true,
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "failed_emails_report.csv")
	require.NoError(t, os.WriteFile(path, []byte("from_email,to_email\na@x.com,b@y.com\n"), 0o600))

	info, err := store.UploadFile(context.Background(), path, storage.WithRunID("integration"))
	require.NoError(t, err)
	require.Contains(t, info.Key, "integration-failed_emails_report.csv")
	require.NotEmpty(t, info.URL)
}
