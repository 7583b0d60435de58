package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailmerge/pkg/recipients"
)

func TestRun_DryRun(t *testing.T) {
	dir := t.TempDir()
	tpl := filepath.Join(dir, "hello.html")
	require.NoError(t, os.WriteFile(tpl, []byte("<p>{sal}</p>"), 0o600))

	input := filepath.Join(dir, "contacts.csv")
	f, err := os.Create(input)
	require.NoError(t, err)
	w := csv.NewWriter(f)
	require.NoError(t, w.WriteAll([][]string{
		recipients.Columns,
		{"me@example.com", "pw", "Hi Ann", "Bob", "ann@example.com", "Hello", tpl},
		{"me@example.com", "pw", "Hi Cid", "Bob", "cid@example.com", "Hello", filepath.Join(dir, "gone.html")},
	}))
	require.NoError(t, f.Close())

	reportPath := filepath.Join(dir, "failed.csv")
	var stdout, stderr bytes.Buffer
	err = run(context.Background(), []string{
		"-dry-run", "-no-stdin", "-delay", "0.01", "-report", reportPath, input,
	}, strings.NewReader(""), &stdout, &stderr)
	require.NoError(t, err)

	out := stdout.String()
	require.Contains(t, out, "row 1 sent ann@example.com")
	require.Contains(t, out, "row 2 failed cid@example.com")
	require.Contains(t, out, "campaign completed")
	require.Contains(t, out, "failed rows written to "+reportPath)
	require.Contains(t, stderr.String(), "dry run: message not sent")

	jobs, err := recipients.Load(reportPath)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, "cid@example.com", jobs[0].ToEmail)
}

func TestRun_LoadErrorExits(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"-dry-run", "-no-stdin", filepath.Join(t.TempDir(), "missing.xlsx"),
	}, strings.NewReader(""), &stdout, &stderr)
	require.ErrorIs(t, err, recipients.ErrOpenFailed)
}
