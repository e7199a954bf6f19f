package null

import (
	"fmt"

	"github.com/spaghettifunk/rendermanager/engine/renderer/metadata"
)

type EventKind int

const (
	EVENT_RUN EventKind = iota
	EVENT_INIT_STEP
	EVENT_STEP
	EVENT_COMMAND
	EVENT_RELEASE
)

func (k EventKind) String() string {
	switch k {
	case EVENT_RUN:
		return "run"
	case EVENT_INIT_STEP:
		return "init_step"
	case EVENT_STEP:
		return "step"
	case EVENT_COMMAND:
		return "command"
	case EVENT_RELEASE:
		return "release"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is one entry of the execution log. Only the fields matching Kind are set.
type Event struct {
	Kind     EventKind
	Frame    int
	Step     *metadata.Step
	InitStep metadata.InitStep
	Command  metadata.Command
	Resource metadata.Resource
	Skipped  bool
}

func (e Event) String() string {
	switch e.Kind {
	case EVENT_RUN:
		return fmt.Sprintf("run frame=%d", e.Frame)
	case EVENT_INIT_STEP:
		return fmt.Sprintf("init_step %T", e.InitStep)
	case EVENT_STEP:
		return fmt.Sprintf("step %s %q", e.Step.Type, e.Step.Tag)
	case EVENT_COMMAND:
		return fmt.Sprintf("command %T", e.Command)
	case EVENT_RELEASE:
		return fmt.Sprintf("release %s %s", e.Resource.ResourceType(), e.Resource.ResourceID())
	}
	return e.Kind.String()
}
