package runner

// State is the run state of a Runner.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateSuspended State = "suspended" // waiting for the network, nested in running
	StateCompleted State = "completed"
	StateStopped   State = "stopped"
)

// Terminal reports whether no further jobs will be processed.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateStopped
}

// Status is the outcome of one job.
type Status string

const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
	// StatusSkipped marks rows before a resumed checkpoint. They were
	// processed by an earlier run and are not attempted again.
	StatusSkipped Status = "skipped"
)
