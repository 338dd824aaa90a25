package domain

// RunStatus defines the current mode of a tutorial run.
type RunStatus string

const (
	StatusPending    RunStatus = "pending"    // Start not called yet
	StatusActive     RunStatus = "active"     // Waiting for interactions
	StatusTerminated RunStatus = "terminated" // End step reached
	StatusAborted    RunStatus = "aborted"    // A side effect failed or the run was cancelled
)

// Stats counts what the engine did with the interactions it dequeued.
type Stats struct {
	Dequeued        int `json:"dequeued"`
	Matched         int `json:"matched"`
	Discarded       int `json:"discarded"`
	DroppedAfterEnd int `json:"dropped_after_end"`
}

// State is a point-in-time snapshot of a run, safe to hand to other goroutines.
// Only the current step is kept; past steps are not recorded.
type State struct {
	RunID       string    `json:"run_id"`
	Tutorial    string    `json:"tutorial,omitempty"`
	CurrentStep string    `json:"current_step"`
	Status      RunStatus `json:"status"`
	Enabled     []string  `json:"enabled_extensions"`
	Stats       Stats     `json:"stats"`
}

// Done reports whether the run will not move anymore.
func (s State) Done() bool {
	return s.Status == StatusTerminated || s.Status == StatusAborted
}
