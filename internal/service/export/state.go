package export

import (
	"fmt"
	"log/slog"
)

// State is a stage of one export request.
type State string

const (
	StateRequested        State = "requested"
	StateTemplateRendered State = "template_rendered"
	StateRasterized       State = "rasterized"
	StatePostProcessed    State = "post_processed"
	StateReady            State = "ready"
	StateFailed           State = "failed"
)

var nextState = map[State]State{
	StateRequested:        StateTemplateRendered,
	StateTemplateRendered: StateRasterized,
	StateRasterized:       StatePostProcessed,
	StatePostProcessed:    StateReady,
}

// CanTransition reports whether an export may move from s to next. Failed is
// reachable from every non-terminal state; Ready and Failed are terminal.
func (s State) CanTransition(next State) bool {
	if s.Terminal() {
		return false
	}
	if next == StateFailed {
		return true
	}
	return nextState[s] == next
}

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	return s == StateReady || s == StateFailed
}

// run tracks the state of a single export and logs each transition.
type run struct {
	state  State
	logger *slog.Logger
}

func newRun(logger *slog.Logger) *run {
	return &run{state: StateRequested, logger: logger}
}

func (r *run) advance(next State) error {
	if !r.state.CanTransition(next) {
		return fmt.Errorf("export cannot move from %s to %s", r.state, next)
	}
	r.logger.Debug("export state changed", "from", r.state, "to", next)
	r.state = next
	return nil
}

// fail moves the run to Failed unless it already ended.
func (r *run) fail(err error) {
	if r.state.Terminal() {
		return
	}
	r.logger.Warn("export failed", "state", r.state, "error", err)
	r.state = StateFailed
}
