package dispatch

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"

	"github.com/PixPMusic/gopher-automate/internal/normalizer"
	"github.com/PixPMusic/gopher-automate/internal/rules"
)

// SendMidiHandler runs Action{Type: SendMidi}, adapted from the teacher's
// MidiHandler: message construction is the same per-type switch, but the
// output port is resolved through internal/normalizer instead of
// internal/midi.Manager.GetOutPort. The matched mapping's VelocityCurve
// output (if any), resolving spec.md §9's Open Question, is baked into the
// Action's Message.Velocity/Value fields by the caller before Dispatch, so
// Execute itself just reads whatever value the action already carries.
type SendMidiHandler struct{}

func (h *SendMidiHandler) IsSupported() bool { return true }
func (h *SendMidiHandler) Blocking() bool    { return false }

func (h *SendMidiHandler) Execute(a rules.Action) (string, error) {
	if a.PortName == "" {
		return "", fmt.Errorf("no port specified")
	}

	msgSpec := a.Message
	value := uint8(msgSpec.Velocity)
	if msgSpec.Value != 0 {
		value = uint8(msgSpec.Value)
	}

	channel := uint8(msgSpec.Channel)
	if channel > 15 {
		channel = 0
	}

	var msg midi.Message
	switch msgSpec.Type {
	case "NoteOn":
		msg = midi.NoteOn(channel, uint8(msgSpec.Note), value)
	case "NoteOff":
		msg = midi.NoteOff(channel, uint8(msgSpec.Note))
	case "CC":
		msg = midi.ControlChange(channel, uint8(msgSpec.CC), value)
	case "ProgramChange":
		msg = midi.ProgramChange(channel, uint8(msgSpec.Program))
	case "PitchBend":
		msg = midi.Pitchbend(channel, int16(msgSpec.Bend))
	case "Aftertouch":
		msg = midi.AfterTouch(channel, value)
	default:
		return "", fmt.Errorf("unknown MIDI message type: %s", msgSpec.Type)
	}

	outPort, err := normalizer.FindOutPort(a.PortName)
	if err != nil {
		return "", err
	}

	send, err := midi.SendTo(outPort)
	if err != nil {
		return "", fmt.Errorf("send setup failed: %w", err)
	}
	if err := send(msg); err != nil {
		return "", fmt.Errorf("send failed: %w", err)
	}

	return fmt.Sprintf("sent %s to %s", msgSpec.Type, a.PortName), nil
}

func (h *SendMidiHandler) Validate(a rules.Action) error {
	if a.PortName == "" {
		return fmt.Errorf("port_name required")
	}
	switch a.Message.Type {
	case "NoteOn", "NoteOff", "CC", "ProgramChange", "PitchBend", "Aftertouch":
		return nil
	default:
		return fmt.Errorf("unknown MIDI message type: %s", a.Message.Type)
	}
}
