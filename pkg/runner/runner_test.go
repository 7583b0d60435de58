package runner_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailmerge/pkg/mailer"
	"github.com/dmitrymomot/mailmerge/pkg/recipients"
	"github.com/dmitrymomot/mailmerge/pkg/runner"
)

type call struct {
	at  time.Time
	row int
}

// fakeMailer records every Send and answers with fn (nil means success).
type fakeMailer struct {
	fn    func(job recipients.SendJob, attempt int) error
	calls []call
	mu    sync.Mutex
}

func (m *fakeMailer) Send(_ context.Context, job recipients.SendJob) error {
	m.mu.Lock()
	m.calls = append(m.calls, call{row: job.Row, at: time.Now()})
	attempt := 0
	for _, c := range m.calls {
		if c.row == job.Row {
			attempt++
		}
	}
	fn := m.fn
	m.mu.Unlock()

	if fn == nil {
		return nil
	}
	return fn(job, attempt)
}

func (m *fakeMailer) rows() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.calls))
	for i, c := range m.calls {
		out[i] = c.row
	}
	return out
}

func makeJobs(n int) []recipients.SendJob {
	jobs := make([]recipients.SendJob, n)
	for i := range jobs {
		jobs[i] = recipients.SendJob{
			Row:       i + 1,
			FromEmail: "alice@example.com",
			ToEmail:   fmt.Sprintf("user%d@example.com", i+1),
			HTMLFile:  "/t.html",
		}
	}
	return jobs
}

func TestRunner_Run_OneResultPerJob(t *testing.T) {
	t.Parallel()

	m := &fakeMailer{fn: func(job recipients.SendJob, _ int) error {
		if job.Row%3 == 0 {
			return mailer.NewSendError(mailer.KindSend, errors.New("550 no such user"))
		}
		return nil
	}}

	r := runner.New(m)
	summary, err := r.Run(context.Background(), makeJobs(7))
	require.NoError(t, err)

	require.Len(t, summary.Results, 7)
	for i, res := range summary.Results {
		require.Equal(t, i+1, res.Job.Row)
		require.Equal(t, 1, res.Attempts)
	}
	require.Equal(t, 5, summary.Sent)
	require.Equal(t, 2, summary.Failed)
	require.Zero(t, summary.Pending)
	require.Equal(t, runner.StateCompleted, summary.State)
	require.Equal(t, runner.StateCompleted, r.State())
	require.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, m.rows())

	failures := summary.Failures()
	require.Len(t, failures, 2)
	require.Equal(t, mailer.KindSend, failures[0].Kind)
	require.Contains(t, failures[0].ErrorMessage(), "550 no such user")
}

func TestRunner_Run_MissingTemplateIsPerJob(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"tpl/ok.html": &fstest.MapFile{Data: []byte("<p>{sal}</p>")},
	}
	var sent atomic.Int32
	sender := mailer.SenderFunc(func(context.Context, *mailer.Email) error {
		sent.Add(1)
		return nil
	})
	m := mailer.New(sender, mailer.NewRendererFS(fsys, mailer.RendererConfig{}), mailer.Config{})

	jobs := []recipients.SendJob{
		{Row: 1, FromEmail: "a@example.com", ToEmail: "b@example.com", Subject: "s", HTMLFile: "/tpl/ok.html"},
		{Row: 2, FromEmail: "a@example.com", ToEmail: "c@example.com", Subject: "s", HTMLFile: "/tpl/missing.html"},
	}

	summary, err := runner.New(m).Run(context.Background(), jobs)
	require.NoError(t, err)

	require.Len(t, summary.Results, 2)
	require.Equal(t, runner.StatusSent, summary.Results[0].Status)
	require.Equal(t, runner.StatusFailed, summary.Results[1].Status)
	require.Equal(t, mailer.KindTemplate, summary.Results[1].Kind)
	require.ErrorIs(t, summary.Results[1].Err, mailer.ErrTemplateNotFound)
	require.Equal(t, int32(1), sent.Load())

	failures := summary.Failures()
	require.Len(t, failures, 1)
	require.Equal(t, jobs[1], failures[0].Job)
}

func TestRunner_Run_HonoursDelay(t *testing.T) {
	t.Parallel()

	const delay = 30 * time.Millisecond
	m := &fakeMailer{}

	start := time.Now()
	summary, err := runner.New(m, runner.WithDelay(delay)).Run(context.Background(), makeJobs(3))
	require.NoError(t, err)
	require.Equal(t, 3, summary.Sent)

	m.mu.Lock()
	defer m.mu.Unlock()
	// No delay before the first attempt.
	require.Less(t, m.calls[0].at.Sub(start), delay)
	for i := 1; i < len(m.calls); i++ {
		require.GreaterOrEqual(t, m.calls[i].at.Sub(m.calls[i-1].at), delay)
	}
	for i := 1; i < len(summary.Results); i++ {
		require.GreaterOrEqual(t, summary.Results[i].AttemptedAt.Sub(summary.Results[i-1].AttemptedAt), delay)
	}
}

func TestRunner_PauseResume(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	inFirst := make(chan struct{})
	m := &fakeMailer{fn: func(job recipients.SendJob, _ int) error {
		if job.Row == 1 {
			close(inFirst)
			<-release
		}
		return nil
	}}

	r := runner.New(m)

	done := make(chan *runner.Summary, 1)
	go func() {
		summary, err := r.Run(context.Background(), makeJobs(4))
		assert.NoError(t, err)
		done <- summary
	}()

	<-inFirst
	require.True(t, r.Pause())
	require.False(t, r.Pause())
	// The in-flight send is not interrupted.
	require.Equal(t, runner.StateRunning, r.State())
	close(release)

	require.Eventually(t, func() bool { return r.State() == runner.StatePaused }, time.Second, time.Millisecond)
	// Nothing is sent while paused.
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, []int{1}, m.rows())
	p := r.Progress()
	require.Equal(t, 1, p.Sent)
	require.Equal(t, 3, p.Pending)

	require.True(t, r.Resume())
	require.False(t, r.Resume())

	summary := <-done
	require.Equal(t, []int{1, 2, 3, 4}, m.rows())
	require.Len(t, summary.Results, 4)
	require.Equal(t, runner.StateCompleted, summary.State)
}

func TestRunner_Stop(t *testing.T) {
	t.Parallel()

	t.Run("while paused leaves remaining jobs pending", func(t *testing.T) {
		t.Parallel()

		var r *runner.Runner
		m := &fakeMailer{fn: func(job recipients.SendJob, _ int) error {
			if job.Row == 2 {
				r.Pause()
			}
			return nil
		}}
		r = runner.New(m)

		done := make(chan *runner.Summary, 1)
		go func() {
			summary, err := r.Run(context.Background(), makeJobs(5))
			assert.NoError(t, err)
			done <- summary
		}()

		require.Eventually(t, func() bool { return r.State() == runner.StatePaused }, time.Second, time.Millisecond)
		r.Stop()

		summary := <-done
		require.Equal(t, runner.StateStopped, summary.State)
		require.Len(t, summary.Results, 2)
		require.Equal(t, 3, summary.Pending)
		require.Equal(t, []int{1, 2}, m.rows())
	})

	t.Run("interrupts the delay", func(t *testing.T) {
		t.Parallel()

		m := &fakeMailer{}
		r := runner.New(m, runner.WithDelay(time.Hour), runner.WithProgress(func(runner.Progress, runner.JobResult) {}))

		done := make(chan *runner.Summary, 1)
		go func() {
			summary, _ := r.Run(context.Background(), makeJobs(3))
			done <- summary
		}()

		require.Eventually(t, func() bool { return r.Progress().Sent == 1 }, time.Second, time.Millisecond)
		r.Stop()

		select {
		case summary := <-done:
			require.Equal(t, runner.StateStopped, summary.State)
			require.Equal(t, 2, summary.Pending)
		case <-time.After(time.Second):
			t.Fatal("stop did not interrupt the delay")
		}
	})

	t.Run("before run", func(t *testing.T) {
		t.Parallel()

		m := &fakeMailer{}
		r := runner.New(m)
		r.Stop()

		summary, err := r.Run(context.Background(), makeJobs(2))
		require.NoError(t, err)
		require.Equal(t, runner.StateStopped, summary.State)
		require.Empty(t, m.rows())
		require.False(t, r.Pause())
	})
}

func TestRunner_ContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	m := &fakeMailer{fn: func(job recipients.SendJob, _ int) error {
		if job.Row == 1 {
			cancel()
		}
		return nil
	}}

	summary, err := runner.New(m).Run(ctx, makeJobs(3))
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	require.Equal(t, runner.StateStopped, summary.State)
	// The send in flight when ctx was cancelled still completed.
	require.Equal(t, 1, summary.Sent)
}

func TestRunner_RunTwice(t *testing.T) {
	t.Parallel()

	r := runner.New(&fakeMailer{})
	_, err := r.Run(context.Background(), makeJobs(1))
	require.NoError(t, err)

	_, err = r.Run(context.Background(), makeJobs(1))
	require.ErrorIs(t, err, runner.ErrAlreadyStarted)

	_, err = runner.New(nil).Run(context.Background(), nil)
	require.ErrorIs(t, err, runner.ErrNoMailer)
}

func TestRunner_EmptyInput(t *testing.T) {
	t.Parallel()

	summary, err := runner.New(&fakeMailer{}).Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, runner.StateCompleted, summary.State)
	require.Empty(t, summary.Results)
}

func TestRunner_Progress(t *testing.T) {
	t.Parallel()

	var seen []runner.Progress
	m := &fakeMailer{fn: func(job recipients.SendJob, _ int) error {
		if job.Row == 2 {
			return errors.New("boom")
		}
		return nil
	}}

	_, err := runner.New(m, runner.WithProgress(func(p runner.Progress, _ runner.JobResult) {
		seen = append(seen, p)
	})).Run(context.Background(), makeJobs(3))
	require.NoError(t, err)

	require.Equal(t, []runner.Progress{
		{State: runner.StateRunning, Total: 3, Sent: 1, Pending: 2},
		{State: runner.StateRunning, Total: 3, Sent: 1, Failed: 1, Pending: 1},
		{State: runner.StateRunning, Total: 3, Sent: 2, Failed: 1, Pending: 0},
	}, seen)
}
