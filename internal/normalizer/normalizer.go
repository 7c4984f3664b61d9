// Package normalizer implements the Input Normalizer (spec.md §4.1): MIDI and
// gamepad backend adapters that each emit unifiedevent.UnifiedInputEvent onto
// one shared, bounded channel.
package normalizer

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/PixPMusic/gopher-automate/internal/unifiedevent"
)

// channelCapacity is the bounded MPSC channel size (spec.md §4.1/§9).
const channelCapacity = 4096

func nowEvent() time.Time { return time.Now() }

// Normalizer merges the MIDI and gamepad adapters onto one channel with
// drop-oldest overflow behavior, tracked by an atomic drop counter surfaced
// through daemon.Status.
type Normalizer struct {
	log zerolog.Logger

	out chan unifiedevent.UnifiedInputEvent

	midi    *MIDIAdapter
	gamepad *GamepadAdapter

	dropped atomic.Uint64
}

// New constructs a Normalizer. Events() returns the merged output channel.
func New(log zerolog.Logger) *Normalizer {
	return &Normalizer{
		log: log.With().Str("component", "normalizer").Logger(),
		out: make(chan unifiedevent.UnifiedInputEvent, channelCapacity),
	}
}

// Events returns the bounded, shared channel every adapter feeds.
func (n *Normalizer) Events() <-chan unifiedevent.UnifiedInputEvent {
	return n.out
}

// DroppedCount reports how many events have been dropped due to a full
// channel since process start.
func (n *Normalizer) DroppedCount() uint64 {
	return n.dropped.Load()
}

// StartMIDI opens the named input port and begins feeding n.out.
func (n *Normalizer) StartMIDI(inPortName string) error {
	n.midi = NewMIDIAdapter(n.log)
	return n.midi.Start(inPortName, n.emit)
}

// StartGamepad begins polling for gamepad input and feeds n.out.
func (n *Normalizer) StartGamepad() error {
	n.gamepad = NewGamepadAdapter(n.log)
	return n.gamepad.Start(n.emit)
}

// Stop tears down whichever adapters were started.
func (n *Normalizer) Stop() {
	if n.midi != nil {
		n.midi.Stop()
	}
	if n.gamepad != nil {
		n.gamepad.Stop()
	}
}

// emit is the shared sink both adapters call into. A full channel drops the
// oldest queued event to make room for the new one, rather than blocking the
// adapter's delivery goroutine, per spec.md §4.1's overflow policy.
func (n *Normalizer) emit(ev unifiedevent.UnifiedInputEvent) {
	select {
	case n.out <- ev:
		return
	default:
	}

	select {
	case <-n.out:
		n.dropped.Add(1)
	default:
	}

	select {
	case n.out <- ev:
	default:
		n.dropped.Add(1)
	}
}
