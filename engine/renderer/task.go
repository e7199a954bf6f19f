package renderer

import (
	"fmt"

	"github.com/spaghettifunk/rendermanager/engine/renderer/metadata"
)

type RunType int

const (
	/** @brief A full frame; the frame slot retires once it ran. */
	RUN_TYPE_PRESENT RunType = iota
	/** @brief A partial flush; the submitter waits on the sync rendezvous. */
	RUN_TYPE_SYNC
	/** @brief The last task ever processed. */
	RUN_TYPE_EXIT
)

func (r RunType) String() string {
	switch r {
	case RUN_TYPE_PRESENT:
		return "PRESENT"
	case RUN_TYPE_SYNC:
		return "SYNC"
	case RUN_TYPE_EXIT:
		return "EXIT"
	}
	return fmt.Sprintf("RunType(%d)", int(r))
}

// Task is what the submitting side hands to the render thread. Ownership of
// the step lists moves to the render thread when the task is pushed.
type Task struct {
	Steps     []*metadata.Step
	InitSteps []metadata.InitStep
	Frame     int
	RunType   RunType
	// Handles whose destruction waits until this task ran.
	Deleter *Deleter
	// Submission order, starts at 0.
	Seq uint64
}

func (t *Task) references(res metadata.Resource) bool {
	for _, is := range t.InitSteps {
		if metadata.InitStepReferences(is, res) {
			return true
		}
	}
	for _, s := range t.Steps {
		if s.References(res) {
			return true
		}
	}
	return false
}
