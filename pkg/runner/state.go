// Package runner implements the case runner: the component that walks a
// loaded test list depth-first, resolves each case reference through the
// case registry, runs its four-phase lifecycle against the reporter, and
// records the per-case result used by later preconditions. Grounded on
// pkg/core/orchestrator/orchestrator.go's state-machine-with-defers idiom
// and original_source/core/testengine/caserunner.py's exact lifecycle.
package runner

// State is the runner's coarse lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	default:
		return "Unknown"
	}
}
