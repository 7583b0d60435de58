// Package runner drives a mail-merge campaign: it walks the loaded jobs in
// order, waits a fixed delay between sends, honours pause/resume/stop
// requests at job boundaries, suspends while the network is down, and
// records exactly one result per attempted job.
//
// State machine:
//
//	idle -> running -> (paused <-> running) -> completed
//	                  running -> suspended -> running   (network loss)
//	            any non-terminal -> stopped              (Stop or ctx cancel)
//
// Typical use:
//
//	r := runner.New(m,
//		runner.WithDelay(5*time.Second),
//		runner.WithNetwork(netwatch.New(netwatch.Config{})),
//		runner.WithProgress(func(p runner.Progress, res runner.JobResult) {
//			fmt.Printf("sent %d, pending %d\n", p.Sent, p.Pending)
//		}),
//	)
//	go func() { <-pauseButton; r.Pause() }()
//	summary, err := r.Run(ctx, jobs)
//
// Failures of individual jobs (a missing template, rejected credentials,
// a refused connection) are recorded in the summary and never stop the run.
package runner
