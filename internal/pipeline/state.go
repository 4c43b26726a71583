package pipeline

import (
	"fmt"
	"strings"
)

// State is the lifecycle state of a Pipeline:
//
//	Idle -> Running -> Draining -> Done
//	               \-> Failed
type State int32

const (
	Idle State = iota
	Running
	Draining
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Terminal reports whether s is Done or Failed.
func (s State) Terminal() bool { return s == Done || s == Failed }

// Mode selects how lines are parsed and batches submitted.
type Mode string

const (
	// Sequential parses, batches and submits one line at a time on the
	// calling goroutine.
	Sequential Mode = "sequential"
	// Parallel fans parsing out over a bounded worker set and submits sealed
	// batches concurrently.
	Parallel Mode = "parallel"
)

// ParseMode accepts "sequential"/"s" and "parallel"/"p", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "s", "sequential":
		return Sequential, nil
	case "p", "parallel", "":
		return Parallel, nil
	default:
		return "", fmt.Errorf("pipeline: unknown mode %q (want sequential|parallel)", s)
	}
}
