package renderer

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/rendermanager/engine/renderer/metadata"
	"golang.org/x/exp/slices"
)

// GetGpuProfileString describes the last profiled run of the current slot.
func (rm *RenderManager) GetGpuProfileString() string {
	profile := rm.frameData[rm.curFrame].Profile()
	cpuTimeMS := float64(profile.CPUTime().Microseconds()) / 1000.0
	return fmt.Sprintf("CPU time to run the list: %0.2f ms\n\n%s", cpuTimeMS, profile.Passes)
}

func describeSteps(steps []*metadata.Step) string {
	var sb strings.Builder
	for _, s := range steps {
		tag := s.Tag
		if tag == "" {
			tag = "(untagged)"
		}
		switch s.Type {
		case metadata.STEP_TYPE_RENDER:
			fmt.Fprintf(&sb, "%s %s: %d commands, %d draws\n", s.Type, tag, len(s.Commands), s.RenderPass().NumDraws)
		default:
			fmt.Fprintf(&sb, "%s %s\n", s.Type, tag)
		}
	}
	return sb.String()
}

// Diagnostics returns one "key: value" line per counter, sorted by key.
func (rm *RenderManager) Diagnostics() string {
	fps, frameTime := rm.metrics.Frame()
	values := map[string]string{
		"inflight_frames":    fmt.Sprint(rm.inflightFrames),
		"cur_frame":          fmt.Sprint(rm.curFrame),
		"queued_tasks":       fmt.Sprint(len(rm.tasks)),
		"tasks_run":          fmt.Sprint(rm.stats.tasks.Load()),
		"steps_run":          fmt.Sprint(rm.stats.steps.Load()),
		"steps_skipped":      fmt.Sprint(rm.stats.skipped.Load()),
		"init_steps_run":     fmt.Sprint(rm.stats.initSteps.Load()),
		"resources_released": fmt.Sprint(rm.stats.released.Load()),
		"pending_deletes":    fmt.Sprint(rm.PendingDeletes()),
		"fps":                fmt.Sprintf("%.1f", fps),
		"frame_time_ms":      fmt.Sprintf("%.2f", frameTime),
		"out_of_memory":      fmt.Sprint(rm.backend.SawOutOfMemory()),
	}
	for i, fd := range rm.frameData {
		values[fmt.Sprintf("frame_%d", i)] = fmt.Sprintf("%s (retired %d)", fd.State(), fd.RetiredCount())
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s: %s\n", k, values[k])
	}
	return sb.String()
}
