package rules

import (
	"sort"

	"github.com/PixPMusic/gopher-automate/internal/unifiedevent"
)

// Match performs the spec.md §4.3 first-match search: mode_mappings[mode] in
// declared order, then global_mappings in declared order.
func Match(rs *RuleSet, modeName string, ev unifiedevent.ProcessedEvent) (*Mapping, bool) {
	if mode := rs.ModeByName(modeName); mode != nil {
		if m, ok := matchList(mode.Mappings, ev); ok {
			return m, true
		}
	}
	return matchList(rs.GlobalMappings, ev)
}

func matchList(mappings []Mapping, ev unifiedevent.ProcessedEvent) (*Mapping, bool) {
	for i := range mappings {
		if triggerMatches(mappings[i].Trigger, ev) {
			return &mappings[i], true
		}
	}
	return nil, false
}

func triggerMatches(t Trigger, ev unifiedevent.ProcessedEvent) bool {
	switch t.Type {
	case TriggerNote:
		if ev.Kind != unifiedevent.ProcessedNote {
			return false
		}
		if int(ev.ControlID) != t.Note {
			return false
		}
		if t.VelocityRange != (IntRange{}) && !t.VelocityRange.Contains(int(ev.Velocity)) {
			return false
		}
		return true

	case TriggerVelocityRange:
		if ev.Kind != unifiedevent.ProcessedNote {
			return false
		}
		if int(ev.ControlID) != t.Note {
			return false
		}
		return int(ev.Velocity) >= t.MinVelocity && int(ev.Velocity) <= t.MaxVelocity

	case TriggerLongPress:
		return ev.Kind == unifiedevent.ProcessedLongPress && int(ev.ControlID) == t.Note

	case TriggerDoubleTap:
		return ev.Kind == unifiedevent.ProcessedDoubleTap && int(ev.ControlID) == t.Note

	case TriggerChord, TriggerNoteChord:
		if ev.Kind != unifiedevent.ProcessedChord {
			return false
		}
		return sameIDSet(t.Notes, ev.ChordIDs)

	case TriggerEncoder, TriggerEncoderTurn:
		if ev.Kind != unifiedevent.ProcessedEncoder {
			return false
		}
		if int(ev.CC) != t.CC {
			return false
		}
		if t.Direction == "" {
			return true
		}
		return directionMatches(t.Direction, ev.Dir)

	case TriggerCC:
		if ev.Kind != unifiedevent.ProcessedCC {
			return false
		}
		if int(ev.CC) != t.CC {
			return false
		}
		if t.ValueRange == (IntRange{}) {
			return true
		}
		return t.ValueRange.Contains(int(ev.CCValue))

	case TriggerAftertouch:
		if ev.Kind != unifiedevent.ProcessedAftertouch {
			return false
		}
		if t.Note != 0 && int(ev.ControlID) != t.Note {
			return false
		}
		if t.PressureRange == (IntRange{}) {
			return true
		}
		return t.PressureRange.Contains(int(ev.Pressure))

	case TriggerPitchBend:
		if ev.Kind != unifiedevent.ProcessedPitchBend {
			return false
		}
		if t.BendRange == (IntRange{}) {
			return true
		}
		return t.BendRange.Contains(int(ev.Bend))

	case TriggerGamepadButton:
		return ev.Kind == unifiedevent.ProcessedGamepadButton && int(ev.ControlID) == t.Button

	case TriggerGamepadButtonChord:
		if ev.Kind != unifiedevent.ProcessedGamepadButtonChord {
			return false
		}
		return sameIDSet(t.Buttons, ev.ChordIDs)

	case TriggerGamepadAnalogStick:
		if ev.Kind != unifiedevent.ProcessedGamepadAnalogStick {
			return false
		}
		if !axisNameMatches(t.Axis, ev.Axis) {
			return false
		}
		return directionMatches(t.Direction, ev.Dir)

	case TriggerGamepadTrigger:
		if ev.Kind != unifiedevent.ProcessedGamepadTrigger {
			return false
		}
		if !axisNameMatches(t.Trig, ev.Axis) {
			return false
		}
		return ev.OverThreshold

	default:
		return false
	}
}

func directionMatches(name string, dir unifiedevent.Direction) bool {
	switch name {
	case "Clockwise":
		return dir == unifiedevent.Clockwise
	case "CounterClockwise":
		return dir == unifiedevent.CounterClockwise
	default:
		return false
	}
}

// axisNameMatches compares a config-declared axis/trigger name (e.g.
// "stick_left", "trigger_right") against the resolved ControlID. The name
// table mirrors the gamepad axis ids in internal/unifiedevent.
func axisNameMatches(name string, id unifiedevent.ControlID) bool {
	want, ok := axisNameToID[name]
	return ok && want == id
}

var axisNameToID = map[string]unifiedevent.ControlID{
	"stick_left":    unifiedevent.AxisStickLeft,
	"stick_right":   unifiedevent.AxisStickRight,
	"trigger_left":  unifiedevent.AxisTriggerLeft,
	"trigger_right": unifiedevent.AxisTriggerRight,
}

func sameIDSet(want []int, got []unifiedevent.ControlID) bool {
	if len(want) != len(got) {
		return false
	}
	w := append([]int(nil), want...)
	g := make([]int, len(got))
	for i, id := range got {
		g[i] = int(id)
	}
	sort.Ints(w)
	sort.Ints(g)
	for i := range w {
		if w[i] != g[i] {
			return false
		}
	}
	return true
}
