// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package driver

import (
	"fmt"
	"sync"

	"github.com/specialistvlad/moldyngo/internal/stream"
)

// State is the lifecycle position of a BatchRun.
type State int

const (
	Launching State = iota
	Streaming
	Terminated
	Failed
)

func (s State) String() string {
	switch s {
	case Launching:
		return "launching"
	case Streaming:
		return "streaming"
	case Terminated:
		return "terminated"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s == Terminated || s == Failed }

// validTransitions lists the allowed moves out of each non-terminal state.
var validTransitions = map[State][]State{
	Launching: {Streaming, Failed},
	Streaming: {Terminated, Failed},
}

// runState guards a BatchRun's state and its outcome.
type runState struct {
	mu     sync.Mutex
	state  State
	status stream.ExitStatus
	err    error
}

func (r *runState) get() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// transition moves to next, recording the outcome when next is terminal.
func (r *runState) transition(next State, status stream.ExitStatus, err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, allowed := range validTransitions[r.state] {
		if allowed == next {
			r.state = next
			if next.Terminal() {
				r.status = status
				r.err = err
			}
			return nil
		}
	}
	return fmt.Errorf("invalid batch transition %s -> %s", r.state, next)
}
