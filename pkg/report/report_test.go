package report_test

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dmitrymomot/mailmerge/pkg/mailer"
	"github.com/dmitrymomot/mailmerge/pkg/recipients"
	"github.com/dmitrymomot/mailmerge/pkg/report"
	"github.com/dmitrymomot/mailmerge/pkg/runner"
)

func failure(row int, msg string) runner.JobResult {
	return runner.JobResult{
		Job: recipients.SendJob{
			Row:        row,
			FromEmail:  "alice@example.com",
			Password:   "app-password",
			Salutation: "Dear Bob",
			Signature:  "Alice",
			ToEmail:    "bob@example.com",
			Subject:    "Hello",
			HTMLFile:   "/tmp/t.html",
		},
		Status:      runner.StatusFailed,
		Kind:        mailer.KindSend,
		Err:         errors.New(msg),
		AttemptedAt: time.Now(),
		Attempts:    1,
	}
}

func TestWrite_NoFailures(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "report.xlsx")
	written, err := report.Write(path, nil)
	require.NoError(t, err)
	require.False(t, written)
	require.NoFileExists(t, path)
}

func TestWrite_XLSX(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "report.xlsx")
	written, err := report.Write(path, []runner.JobResult{failure(2, "535 bad credentials")})
	require.NoError(t, err)
	require.True(t, written)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	require.Equal(t, []string{report.SheetName}, f.GetSheetList())
	rows, err := f.GetRows(report.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, report.Header(), rows[0])
	require.Equal(t, []string{
		"alice@example.com", "", "Dear Bob", "Alice", "bob@example.com", "Hello", "/tmp/t.html", "535 bad credentials",
	}, rows[1])
}

func TestWrite_CSVWithCredentials(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "report.csv")
	written, err := report.Write(path, []runner.JobResult{failure(1, "a"), failure(3, "b")}, report.WithCredentials())
	require.NoError(t, err)
	require.True(t, written)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "app-password", rows[1][1])
	require.Equal(t, "a", rows[1][7])
	require.Equal(t, "b", rows[2][7])
}

func TestWrite_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	_, err := report.Write(filepath.Join(t.TempDir(), "report.txt"), []runner.JobResult{failure(1, "x")})
	require.ErrorIs(t, err, report.ErrUnsupportedFormat)
}

func TestWrite_ReportCanBeReloaded(t *testing.T) {
	t.Parallel()

	for _, ext := range []string{".xlsx", ".csv"} {
		t.Run(ext, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "report"+ext)
			_, err := report.Write(path, []runner.JobResult{failure(7, "boom")}, report.WithCredentials())
			require.NoError(t, err)

			jobs, err := recipients.Load(path)
			require.NoError(t, err)
			require.Len(t, jobs, 1)

			want := failure(7, "").Job
			want.Row = 1
			require.Equal(t, want, jobs[0])
		})
	}
}

func TestWrite_MissingTemplateCampaign(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fsys := fstest.MapFS{
		"a.html": &fstest.MapFile{Data: []byte("<p>{sal}</p><p>{signature}</p>")},
	}
	sender := mailer.SenderFunc(func(context.Context, *mailer.Email) error { return nil })
	m := mailer.New(sender, mailer.NewRendererFS(fsys, mailer.RendererConfig{}), mailer.Config{})

	jobs := []recipients.SendJob{
		{Row: 1, FromEmail: "a@x.com", Password: "p", Salutation: "Hi A", Signature: "Me", ToEmail: "a@y.com", Subject: "S", HTMLFile: "/a.html"},
		{Row: 2, FromEmail: "a@x.com", Password: "p", Salutation: "Hi B", Signature: "Me", ToEmail: "b@y.com", Subject: "S", HTMLFile: "/missing.html"},
	}

	summary, err := runner.New(m).Run(context.Background(), jobs)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Sent)
	require.Equal(t, 1, summary.Failed)

	path := filepath.Join(dir, report.DefaultPath)
	written, err := report.Write(path, summary.Failures())
	require.NoError(t, err)
	require.True(t, written)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(report.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "b@y.com", rows[1][4])
	require.Equal(t, "/missing.html", rows[1][6])
	require.Contains(t, rows[1][7], mailer.ErrTemplateNotFound.Error())
}
