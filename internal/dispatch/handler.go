package dispatch

import "github.com/PixPMusic/gopher-automate/internal/rules"

// ActionHandler is the per-ActionType execution strategy, generalized from
// the teacher's actions.ActionHandler (Execute/Validate/IsSupported on a flat
// code string) to the richer rules.Action sum type.
type ActionHandler interface {
	// Execute runs the action and returns a human-readable result or error.
	Execute(a rules.Action) (string, error)

	// Validate checks the action's fields without executing it.
	Validate(a rules.Action) error

	// IsSupported reports whether this handler can run on the current platform.
	IsSupported() bool

	// Blocking reports whether Execute may block on an external process or
	// I/O and should therefore run on the worker pool rather than inline on
	// the calling (processing) goroutine, per spec.md §5.
	Blocking() bool
}
