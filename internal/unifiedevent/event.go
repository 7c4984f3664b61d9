package unifiedevent

import "time"

// InputKind tags the variant of a raw UnifiedInputEvent.
type InputKind int

const (
	NoteOn InputKind = iota
	NoteOff
	ControlChange
	Aftertouch
	PitchBend
	ProgramChange
	ButtonDown
	ButtonUp
	AxisValue
)

func (k InputKind) String() string {
	switch k {
	case NoteOn:
		return "NoteOn"
	case NoteOff:
		return "NoteOff"
	case ControlChange:
		return "ControlChange"
	case Aftertouch:
		return "Aftertouch"
	case PitchBend:
		return "PitchBend"
	case ProgramChange:
		return "ProgramChange"
	case ButtonDown:
		return "ButtonDown"
	case ButtonUp:
		return "ButtonUp"
	case AxisValue:
		return "AxisValue"
	default:
		return "Unknown"
	}
}

// UnifiedInputEvent is the single event type every backend adapter emits.
// Value ranges by Kind: 0-127 for MIDI note/CC/program values, 0-255 for
// gamepad pressure/axis values, ±8192 for pitch bend.
type UnifiedInputEvent struct {
	Kind      InputKind
	ControlID ControlID
	Value     int16
	Channel   uint8 // MIDI channel; unused (0) for gamepad events
	Timestamp time.Time
}

// ProcessedEventKind tags the variant of a ProcessedEvent.
type ProcessedEventKind int

const (
	ProcessedNote ProcessedEventKind = iota
	ProcessedVelocityRange
	ProcessedLongPress
	ProcessedDoubleTap
	ProcessedChord
	ProcessedEncoder
	ProcessedCC
	ProcessedAftertouch
	ProcessedPitchBend
	ProcessedGamepadButton
	ProcessedGamepadButtonChord
	ProcessedGamepadAnalogStick
	ProcessedGamepadTrigger
)

// Direction is the rotational/axial sense used by Encoder and
// GamepadAnalogStick processed events.
type Direction int

const (
	Clockwise Direction = iota
	CounterClockwise
)

// ProcessedEvent is the closed sum type emitted by the timing layer
// (internal/timing). Exactly one payload group is meaningful for a given
// Kind; the rest are zero values.
type ProcessedEvent struct {
	Kind ProcessedEventKind

	// Note, VelocityRange, LongPress, DoubleTap, Aftertouch, GamepadButton
	ControlID ControlID
	Velocity  uint8 // Note, VelocityRange
	Band      uint8 // VelocityRange band index
	HeldMS    int64 // LongPress
	GapMS     int64 // DoubleTap
	Pressure  uint8 // Aftertouch

	// Chord / GamepadButtonChord
	ChordIDs  []ControlID
	WindowMS  int64

	// Encoder
	CC    uint8
	Steps int
	Dir   Direction

	// CC
	CCValue uint8

	// PitchBend
	Bend int16

	// GamepadAnalogStick
	Axis ControlID

	// GamepadTrigger
	OverThreshold bool

	Timestamp time.Time
}
