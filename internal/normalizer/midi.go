package normalizer

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // registers the rtmidi driver

	"github.com/PixPMusic/gopher-automate/internal/unifiedevent"
)

// MIDIAdapter listens on one MIDI input port and emits UnifiedInputEvent onto
// a shared channel, mirroring the status-byte switch in the teacher's
// Manager.StartListening but producing unified events instead of grid
// callbacks.
type MIDIAdapter struct {
	mu   sync.Mutex
	log  zerolog.Logger
	stop func()
}

// NewMIDIAdapter constructs an adapter; Start must be called to begin
// listening.
func NewMIDIAdapter(log zerolog.Logger) *MIDIAdapter {
	return &MIDIAdapter{log: log.With().Str("adapter", "midi").Logger()}
}

// ListInPorts returns the names of available MIDI input ports, unchanged
// from the teacher's Manager.ListInPorts.
func ListInPorts() []string {
	ins := midi.GetInPorts()
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names
}

// ListOutPorts returns the names of available MIDI output ports.
func ListOutPorts() []string {
	outs := midi.GetOutPorts()
	names := make([]string, 0, len(outs))
	for _, out := range outs {
		names = append(names, out.String())
	}
	return names
}

func findInPort(name string) (drivers.In, error) {
	for _, in := range midi.GetInPorts() {
		if in.String() == name {
			return in, nil
		}
	}
	return nil, fmt.Errorf("normalizer: input port not found: %s", name)
}

// FindOutPort resolves an output port by name, used by internal/dispatch's
// SendMidi handler.
func FindOutPort(name string) (drivers.Out, error) {
	for _, out := range midi.GetOutPorts() {
		if out.String() == name {
			return out, nil
		}
	}
	return nil, fmt.Errorf("normalizer: output port not found: %s", name)
}

// Start opens inPortName and begins emitting UnifiedInputEvent onto emit for
// every recognized MIDI message. It returns once the listener goroutine is
// registered; emit is called from the midi library's own delivery goroutine.
func (a *MIDIAdapter) Start(inPortName string, emit func(unifiedevent.UnifiedInputEvent)) error {
	inPort, err := findInPort(inPortName)
	if err != nil {
		return err
	}

	stop, err := midi.ListenTo(inPort, func(msg midi.Message, timestampms int32) {
		a.handle(msg, emit)
	})
	if err != nil {
		return fmt.Errorf("normalizer: listen on %s: %w", inPortName, err)
	}

	a.mu.Lock()
	a.stop = stop
	a.mu.Unlock()

	a.log.Info().Str("port", inPortName).Msg("midi adapter listening")
	return nil
}

// Stop tears down the listener, if running.
func (a *MIDIAdapter) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stop != nil {
		a.stop()
		a.stop = nil
	}
}

// handle converts one midi.Message into zero or one UnifiedInputEvent.
// Velocity-0 NoteOn is rewritten to NoteOff at this boundary, per spec.md §8.
func (a *MIDIAdapter) handle(msg midi.Message, emit func(unifiedevent.UnifiedInputEvent)) {
	var channel, key, velocity, pressure, cc, ccValue, program uint8
	var bendRel int16
	var bendAbs uint16

	now := nowEvent()

	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		id, err := unifiedevent.NewMIDIControlID(int(key))
		if err != nil {
			a.log.Warn().Err(err).Msg("dropping out-of-range note")
			return
		}
		if velocity == 0 {
			emit(unifiedevent.UnifiedInputEvent{Kind: unifiedevent.NoteOff, ControlID: id, Channel: channel, Timestamp: now})
			return
		}
		emit(unifiedevent.UnifiedInputEvent{Kind: unifiedevent.NoteOn, ControlID: id, Value: int16(velocity), Channel: channel, Timestamp: now})

	case msg.GetNoteOff(&channel, &key, &velocity):
		id, err := unifiedevent.NewMIDIControlID(int(key))
		if err != nil {
			return
		}
		emit(unifiedevent.UnifiedInputEvent{Kind: unifiedevent.NoteOff, ControlID: id, Channel: channel, Timestamp: now})

	case msg.GetControlChange(&channel, &cc, &ccValue):
		id, err := unifiedevent.NewMIDIControlID(int(cc))
		if err != nil {
			return
		}
		emit(unifiedevent.UnifiedInputEvent{Kind: unifiedevent.ControlChange, ControlID: id, Value: int16(ccValue), Channel: channel, Timestamp: now})

	case msg.GetAfterTouch(&channel, &pressure):
		emit(unifiedevent.UnifiedInputEvent{Kind: unifiedevent.Aftertouch, Value: int16(pressure), Channel: channel, Timestamp: now})

	case msg.GetPitchBend(&channel, &bendRel, &bendAbs):
		// bendRel is already centered at 0 (±8192) by the gomidi library.
		emit(unifiedevent.UnifiedInputEvent{Kind: unifiedevent.PitchBend, Value: bendRel, Channel: channel, Timestamp: now})

	case msg.GetProgramChange(&channel, &program):
		emit(unifiedevent.UnifiedInputEvent{Kind: unifiedevent.ProgramChange, Value: int16(program), Channel: channel, Timestamp: now})
	}
}
