package dispatch

import "errors"

// Sentinel errors for the §7 error taxonomy entries this package produces.
var (
	// ErrUnknownAction is returned when an Action's Type has no registered handler.
	ErrUnknownAction = errors.New("dispatch: unknown action type")

	// ErrUnsupported is returned when a handler exists but cannot run on this
	// platform (§7 "ActionUnsupported").
	ErrUnsupported = errors.New("dispatch: action unsupported on this platform")

	// ErrTimeout is returned when an action's configured timeout elapses
	// before it completes (§5 "per-action timeout").
	ErrTimeout = errors.New("dispatch: action timed out")

	// ErrInternal wraps a recovered panic from a handler, counted rather than
	// propagated to the caller's caller (§5 "Failure isolation", §7 "InternalError").
	ErrInternal = errors.New("dispatch: internal error")
)
