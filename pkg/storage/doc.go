// Package storage uploads campaign failure reports to S3-compatible
// object storage (AWS S3, MinIO, R2).
//
// Uploads are private; callers receive a pre-signed download URL:
//
//	store, err := storage.New(storage.Config{
//		Bucket:    "reports",
//		AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
//		SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
//	})
//	if err != nil {
//		return err
//	}
//	info, err := store.UploadFile(ctx, "failed_emails_report.xlsx", storage.WithRunID(runID))
//
// Keys have the form {prefix}/{yyyy-mm-dd}/{run id}-{file name}.
// S3 errors are wrapped with the sentinels in errors.go; use errors.Is.
package storage
