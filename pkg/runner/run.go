package runner

import (
	"time"

	"github.com/google/uuid"
)

// Run is a campaign invocation record: one Run per Start call, identified by
// a generated UUID the way the teacher's orchestrator stamped each
// TestResult with a generated test ID.
type Run struct {
	ID        uuid.UUID
	Label     string
	StartedAt time.Time
	EndedAt   time.Time
}

// NewRun creates a Run record with a fresh ID and the current time as its
// start timestamp.
func NewRun(label string) Run {
	return Run{ID: uuid.New(), Label: label, StartedAt: time.Now()}
}

// Finish stamps the Run's end timestamp.
func (r *Run) Finish() {
	r.EndedAt = time.Now()
}
