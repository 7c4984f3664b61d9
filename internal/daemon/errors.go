package daemon

import "errors"

// Control socket error codes, per spec.md §6.
const (
	CodeUnknownCommand = 1000
	CodeInvalidArgs    = 1001
	CodeInternal       = 1002
	CodeConfigLoad     = 1003
	CodeInvalidRequest = 1004
)

var (
	// ErrRequestTooLarge is returned when a control socket request exceeds
	// the 1 MiB cap, surfaced to the caller as code 1004.
	ErrRequestTooLarge = errors.New("daemon: request exceeds size limit")

	// ErrUnknownCommand describes a command not in the status/reload/
	// validate/stop/profile/ping set; the control socket reports such a
	// command with code 1000 and its own message.
	ErrUnknownCommand = errors.New("daemon: unknown command")

	// ErrStateCorruption marks an integrity-check failure on state.json at
	// startup (spec.md §7 StateCorruption); the caller falls back to zero
	// values and logs a warning rather than treating this as fatal.
	ErrStateCorruption = errors.New("daemon: state file integrity check failed")
)
