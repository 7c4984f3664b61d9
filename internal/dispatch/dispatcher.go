// Package dispatch implements the Action Dispatcher (spec.md §4.3, §5):
// per-ActionType handlers, a bounded worker pool for blocking actions, and
// the control-flow actions (Sequence, Conditional, ModeChange).
package dispatch

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/PixPMusic/gopher-automate/internal/rules"
)

// DefaultTimeout is used when an action carries no explicit timeout
// override, per spec.md §5 "per-action timeout (default 5s)".
const DefaultTimeout = 5 * time.Second

// workerCount is the bounded pool size for blocking actions (spec.md §5:
// "2-4 goroutines").
const workerCount = 3

// ModeChanged carries a resolved mode-change request for collaborators such
// as LED feedback, which remain out of scope per spec.md §1 but still need a
// notification point to attach to.
type ModeChanged struct {
	NewIndex int
	NewName  string
}

// Dispatcher owns the ActionHandler registry, a bounded worker pool for
// blocking actions, and the live mode index mutated by ModeChange.
type Dispatcher struct {
	log      zerolog.Logger
	handlers map[rules.ActionType]ActionHandler

	jobs chan dispatchJob

	modeIndex   atomic.Int32
	modeNames   []string
	modeChanges chan ModeChanged

	internalErrors atomic.Uint64
}

type dispatchJob struct {
	handler ActionHandler
	action  rules.Action
	done    chan error
}

// New builds a Dispatcher with the standard handler set and starts its
// worker pool. modeNames is the declared mode order, used to resolve
// "next"/"previous"/named ModeChange targets.
func New(log zerolog.Logger, modeNames []string) *Dispatcher {
	d := &Dispatcher{
		log:         log.With().Str("component", "dispatch").Logger(),
		jobs:        make(chan dispatchJob, 64),
		modeNames:   modeNames,
		modeChanges: make(chan ModeChanged, 8),
	}
	d.handlers = map[rules.ActionType]ActionHandler{
		rules.ActionShell:         &ShellHandler{},
		rules.ActionLaunch:        &LaunchHandler{},
		rules.ActionDelay:         &SleepHandler{},
		rules.ActionKeystroke:     &KeystrokeHandler{},
		rules.ActionMouseClick:    &MouseClickHandler{},
		rules.ActionVolumeControl: &VolumeControlHandler{},
		rules.ActionSendMidi:      &SendMidiHandler{},
	}

	for i := 0; i < workerCount; i++ {
		go d.worker()
	}

	return d
}

// ModeChanges returns the channel ModeChange notifications are published on.
func (d *Dispatcher) ModeChanges() <-chan ModeChanged { return d.modeChanges }

// InternalErrorCount reports how many handler panics have been recovered and
// counted, surfaced through daemon.Status.
func (d *Dispatcher) InternalErrorCount() uint64 { return d.internalErrors.Load() }

// CurrentModeIndex returns the live, dispatcher-owned mode index (spec.md §5
// "Global mutable state": a single atomic.Int32 shared by dispatch and status).
func (d *Dispatcher) CurrentModeIndex() int { return int(d.modeIndex.Load()) }

// SetModeIndex seeds the live index; conductord calls it once, at startup.
func (d *Dispatcher) SetModeIndex(i int) { d.modeIndex.Store(int32(i)) }

func (d *Dispatcher) worker() {
	for job := range d.jobs {
		job.done <- d.runHandler(job.handler, job.action)
	}
}

// runHandler executes a handler with panic recovery, per spec.md §5
// "Failure isolation": a panicking handler must not crash the daemon.
func (d *Dispatcher) runHandler(handler ActionHandler, a rules.Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.internalErrors.Add(1)
			err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()
	_, err = handler.Execute(a)
	return err
}

// Dispatch executes a (possibly compound) Action against the given
// evaluation context, implementing Sequence, Conditional, and ModeChange
// control flow per spec.md §4.3.
func (d *Dispatcher) Dispatch(ctx context.Context, a rules.Action, evalCtx *rules.EvalContext) error {
	switch a.Type {
	case rules.ActionSequence:
		for _, sub := range a.Actions {
			if err := d.Dispatch(ctx, sub, evalCtx); err != nil {
				return err // skip-remaining-on-failure, per §4.3
			}
		}
		return nil

	case rules.ActionConditional:
		if a.Condition == nil {
			return fmt.Errorf("conditional missing condition")
		}
		if a.Condition.Evaluate(evalCtx) {
			if a.Then == nil {
				return nil
			}
			return d.Dispatch(ctx, *a.Then, evalCtx)
		}
		if a.Else == nil {
			return nil
		}
		return d.Dispatch(ctx, *a.Else, evalCtx)

	case rules.ActionModeChange:
		return d.dispatchModeChange(a)

	default:
		return d.dispatchSimple(ctx, a)
	}
}

func (d *Dispatcher) dispatchModeChange(a rules.Action) error {
	current := int(d.modeIndex.Load())
	next := current

	switch a.Target {
	case "next":
		next = (current + 1) % len(d.modeNames)
	case "previous":
		next = (current - 1 + len(d.modeNames)) % len(d.modeNames)
	default:
		if idx, ok := parseModeIndex(a.Target); ok {
			if idx < 0 || idx >= len(d.modeNames) {
				return fmt.Errorf("mode index %d out of range", idx)
			}
			next = idx
		} else {
			found := -1
			for i, name := range d.modeNames {
				if name == a.Target {
					found = i
					break
				}
			}
			if found < 0 {
				return fmt.Errorf("unresolvable mode target %q", a.Target)
			}
			next = found
		}
	}

	d.modeIndex.Store(int32(next))
	select {
	case d.modeChanges <- ModeChanged{NewIndex: next, NewName: d.modeNames[next]}:
	default:
	}
	return nil
}

func parseModeIndex(target string) (int, bool) {
	var idx int
	n, err := fmt.Sscanf(target, "%d", &idx)
	if err != nil || n != 1 {
		return 0, false
	}
	return idx, true
}

// dispatchSimple runs a leaf action, either inline (Keystroke, MouseClick,
// SendMidi) or on the worker pool (Shell, Launch, VolumeControl, Delay), per
// spec.md §5.
func (d *Dispatcher) dispatchSimple(ctx context.Context, a rules.Action) error {
	handler, ok := d.handlers[a.Type]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAction, a.Type)
	}
	if !handler.IsSupported() {
		return fmt.Errorf("%w: %s", ErrUnsupported, a.Type)
	}

	if !handler.Blocking() {
		return d.runHandler(handler, a)
	}

	timeout := DefaultTimeout
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	select {
	case d.jobs <- dispatchJob{handler: handler, action: a, done: done}:
	case <-timeoutCtx.Done():
		return fmt.Errorf("%w: %s", ErrTimeout, a.Type)
	}

	select {
	case err := <-done:
		return err
	case <-timeoutCtx.Done():
		return fmt.Errorf("%w: %s", ErrTimeout, a.Type)
	}
}
