package merge

import (
	"fmt"
	"time"

	"splice/internal/staging"
)

// State is the lifecycle position of a merge job. Transitions are strictly
// forward; a job never returns to an earlier state.
type State string

const (
	StateStaging       State = "staging"
	StateManifestReady State = "manifest_ready"
	StateMerging       State = "merging"
	StateSucceeded     State = "succeeded"
	StateFailed        State = "failed"
)

var stateOrder = map[State]int{
	StateStaging:       0,
	StateManifestReady: 1,
	StateMerging:       2,
	StateSucceeded:     3,
	StateFailed:        3,
}

// Terminal reports whether the state concludes a job.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Job is one merge request's unit of work. It exclusively owns every path it
// creates; nothing outside the job may reference them.
type Job struct {
	ID         string
	Workspace  *staging.JobWorkspace
	InputFiles []staging.UploadedFile
	ReceivedAt time.Time

	state State
}

// State returns the job's current lifecycle position.
func (j *Job) State() State {
	return j.state
}

// InputBytes sums the staged input sizes.
func (j *Job) InputBytes() int64 {
	var total int64
	for _, file := range j.InputFiles {
		total += file.SizeBytes
	}
	return total
}

// advance moves the job forward. Backward transitions and transitions out of
// a terminal state indicate an orchestrator bug and are rejected.
func (j *Job) advance(to State) error {
	if j.state.Terminal() {
		return fmt.Errorf("job %s: cannot leave terminal state %s", j.ID, j.state)
	}
	if stateOrder[to] <= stateOrder[j.state] && to != StateFailed {
		return fmt.Errorf("job %s: invalid transition %s -> %s", j.ID, j.state, to)
	}
	j.state = to
	return nil
}
