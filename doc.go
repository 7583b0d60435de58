// Package mailmerge sends personalised emails from a spreadsheet.
//
// Each row of the input names a sender (address and app password), a
// recipient, a subject and an HTML template. The template's {sal} and
// {signature} placeholders are filled from the row, and the message is sent
// over a fresh authenticated session for that row's sender. Rows are sent
// in order with a fixed delay between them; failed rows are collected in a
// report that can be corrected and loaded again.
//
// # Quick Start
//
//	sender, _ := smtp.New(smtp.Config{})
//	m := mailer.New(sender, mailer.NewRenderer(mailer.RendererConfig{}), mailer.Config{})
//
//	c := mailmerge.New("contacts.xlsx", m,
//		mailmerge.WithDelay(5*time.Second),
//		mailmerge.WithNetwork(netwatch.New(netwatch.Config{})),
//		mailmerge.WithReport("failed_emails_report.xlsx"),
//	)
//	res, err := c.Run(ctx)
//
// # Control
//
// [Campaign.Runner] returns the controller driving the run. Its Pause,
// Resume and Stop methods are safe to call from other goroutines, such as a
// keyboard reader or the HTTP API in package control.
//
// # Resuming
//
// With [WithCheckpoint] the index of the next unprocessed row is saved after
// every job. A later campaign over the same file created with resume=true
// skips the rows already processed. A completed campaign clears its
// checkpoint.
//
// # Errors
//
// Only input problems are fatal: Run returns a *recipients.LoadError before
// anything is sent. Per-row failures (missing template, rejected login,
// connection errors) are recorded in the result and in the report.
package mailmerge
