package runner

import "errors"

var (
	// ErrAlreadyStarted indicates Run was called more than once.
	ErrAlreadyStarted = errors.New("runner: already started")

	// ErrNoMailer indicates the runner was built without a mailer.
	ErrNoMailer = errors.New("runner: mailer is required")

	// ErrNetworkOutage ends a run whose network did not come back within
	// the watcher's limit.
	ErrNetworkOutage = errors.New("runner: network outage")
)
