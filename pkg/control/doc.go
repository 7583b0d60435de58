// Package control exposes a running campaign over a small local HTTP API.
//
// Routes:
//
//	GET  /status         progress snapshot as JSON
//	POST /pause          pause before the next job
//	POST /resume         continue a paused campaign
//	POST /stop           stop after the current job
//	GET  /health/live    always OK while the process runs
//	GET  /health/ready   runs the configured checks (network, checkpoint store)
//
// The server is meant for localhost; it has no authentication.
//
//	srv := control.New(r,
//		control.WithAddr("127.0.0.1:8089"),
//		control.WithChecks(control.Checks{"network": watcher.Check}),
//	)
//	go srv.Run(ctx)
package control
