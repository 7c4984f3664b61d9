package rules

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Load reads, parses, and validates a TOML rule-set file from disk. It is a
// pure function: on any failure the caller's currently-active rule set is
// left untouched, exactly as spec.md §4.4 requires — Load never mutates
// process-wide state.
func Load(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses and validates raw TOML bytes into a RuleSet. sourcePath is
// recorded for daemon reload bookkeeping but not otherwise interpreted.
func Parse(data []byte, sourcePath string) (*RuleSet, error) {
	var rs RuleSet
	if _, err := toml.Decode(string(data), &rs); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, sourcePath, err)
	}

	applyDefaults(&rs)
	rs.SourcePath = sourcePath

	if err := Validate(&rs); err != nil {
		return nil, err
	}

	return &rs, nil
}

func applyDefaults(rs *RuleSet) {
	if rs.Device.InputMode == "" {
		rs.Device.InputMode = "hybrid"
	}
	if rs.Advanced.ChordTimeoutMS == 0 {
		rs.Advanced.ChordTimeoutMS = DefaultAdvancedSettings().ChordTimeoutMS
	}
	if rs.Advanced.DoubleTapTimeoutMS == 0 {
		rs.Advanced.DoubleTapTimeoutMS = DefaultAdvancedSettings().DoubleTapTimeoutMS
	}
	if rs.Advanced.HoldThresholdMS == 0 {
		rs.Advanced.HoldThresholdMS = DefaultAdvancedSettings().HoldThresholdMS
	}
}

// Validate performs the spec.md §4.4 validation pass: type-correct variants,
// id-range invariant, resolvable ModeChange targets, non-empty mode list.
func Validate(rs *RuleSet) error {
	if len(rs.Modes) == 0 {
		return fmt.Errorf("%w: rule set has no modes", ErrConfigValidation)
	}

	seen := make(map[string]bool, len(rs.Modes))
	for _, m := range rs.Modes {
		if m.Name == "" {
			return fmt.Errorf("%w: mode with empty name", ErrConfigValidation)
		}
		if seen[m.Name] {
			return fmt.Errorf("%w: duplicate mode name %q", ErrConfigValidation, m.Name)
		}
		seen[m.Name] = true
	}

	switch rs.Device.InputMode {
	case "", "midi", "gamepad", "hybrid":
	default:
		return fmt.Errorf("%w: invalid input_mode %q", ErrConfigValidation, rs.Device.InputMode)
	}

	for _, m := range rs.Modes {
		for i, mapping := range m.Mappings {
			if err := validateMapping(mapping); err != nil {
				return fmt.Errorf("%w: mode %q mapping %d: %v", ErrConfigValidation, m.Name, i, err)
			}
			if err := validateModeChangeTargets(mapping.Action, rs, seen); err != nil {
				return fmt.Errorf("%w: mode %q mapping %d: %v", ErrConfigValidation, m.Name, i, err)
			}
		}
	}
	for i, mapping := range rs.GlobalMappings {
		if err := validateMapping(mapping); err != nil {
			return fmt.Errorf("%w: global mapping %d: %v", ErrConfigValidation, i, err)
		}
		if err := validateModeChangeTargets(mapping.Action, rs, seen); err != nil {
			return fmt.Errorf("%w: global mapping %d: %v", ErrConfigValidation, i, err)
		}
	}

	if rs.CurrentModeIndex < 0 || rs.CurrentModeIndex >= len(rs.Modes) {
		rs.CurrentModeIndex = 0
	}

	return nil
}

func validateMapping(m Mapping) error {
	if err := validateTrigger(m.Trigger); err != nil {
		return err
	}
	return validateAction(m.Action)
}

// validateTrigger enforces the §3 "config-id-range invariant": a mapping's
// trigger variant must address an id within the range its kind owns.
func validateTrigger(t Trigger) error {
	inMIDIRange := func(n int) bool { return n >= 0 && n <= 127 }
	inGamepadButtonRange := func(n int) bool { return n >= 128 && n <= 144 }

	switch t.Type {
	case TriggerNote, TriggerVelocityRange, TriggerLongPress, TriggerDoubleTap:
		if !inMIDIRange(t.Note) {
			return fmt.Errorf("note %d out of MIDI range [0,127]", t.Note)
		}
	case TriggerChord, TriggerNoteChord:
		if len(t.Notes) < 1 {
			return fmt.Errorf("chord requires at least one note")
		}
		for _, n := range t.Notes {
			if !inMIDIRange(n) {
				return fmt.Errorf("chord note %d out of MIDI range [0,127]", n)
			}
		}
	case TriggerEncoder, TriggerEncoderTurn, TriggerCC:
		if !inMIDIRange(t.CC) {
			return fmt.Errorf("cc %d out of MIDI range [0,127]", t.CC)
		}
	case TriggerAftertouch, TriggerPitchBend:
		// note is optional on Aftertouch; bend_range has no id to check.
	case TriggerGamepadButton:
		if !inGamepadButtonRange(t.Button) {
			return fmt.Errorf("button %d out of gamepad button range [128,144]", t.Button)
		}
	case TriggerGamepadButtonChord:
		if len(t.Buttons) < 2 {
			return fmt.Errorf("gamepad button chord requires at least 2 buttons")
		}
		for _, b := range t.Buttons {
			if !inGamepadButtonRange(b) {
				return fmt.Errorf("chord button %d out of gamepad button range [128,144]", b)
			}
		}
	case TriggerGamepadAnalogStick:
		if _, ok := axisNameToID[t.Axis]; !ok {
			return fmt.Errorf("unknown gamepad axis %q", t.Axis)
		}
	case TriggerGamepadTrigger:
		if _, ok := axisNameToID[t.Trig]; !ok {
			return fmt.Errorf("unknown gamepad trigger axis %q", t.Trig)
		}
	default:
		return fmt.Errorf("unknown trigger type %q", t.Type)
	}
	return nil
}

func validateAction(a Action) error {
	switch a.Type {
	case ActionKeystroke:
		if a.Keys == "" {
			return fmt.Errorf("Keystroke requires keys")
		}
	case ActionText:
		if a.Text == "" {
			return fmt.Errorf("Text requires text")
		}
	case ActionLaunch:
		if a.App == "" {
			return fmt.Errorf("Launch requires app")
		}
	case ActionShell:
		if a.Command == "" {
			return fmt.Errorf("Shell requires command")
		}
	case ActionMouseClick:
		if a.Button == "" {
			return fmt.Errorf("MouseClick requires button")
		}
	case ActionVolumeControl:
		if a.Op == "" {
			return fmt.Errorf("VolumeControl requires op")
		}
	case ActionModeChange:
		if a.Target == "" {
			return fmt.Errorf("ModeChange requires target")
		}
	case ActionDelay:
		if a.MS <= 0 {
			return fmt.Errorf("Delay requires ms > 0")
		}
	case ActionSequence:
		if len(a.Actions) == 0 {
			return fmt.Errorf("Sequence requires at least one action")
		}
		for i, sub := range a.Actions {
			if err := validateAction(sub); err != nil {
				return fmt.Errorf("sequence action %d: %w", i, err)
			}
		}
	case ActionSendMidi:
		if a.PortName == "" {
			return fmt.Errorf("SendMidi requires port_name")
		}
	case ActionConditional:
		if a.Condition == nil || a.Then == nil {
			return fmt.Errorf("Conditional requires condition and then_action")
		}
		if err := validateAction(*a.Then); err != nil {
			return fmt.Errorf("then_action: %w", err)
		}
		if a.Else != nil {
			if err := validateAction(*a.Else); err != nil {
				return fmt.Errorf("else_action: %w", err)
			}
		}
	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
	return nil
}

// validateModeChangeTargets ensures no mapping ever dispatches a ModeChange
// whose numeric index target cannot possibly resolve, per spec.md §3
// invariant (c). Named targets are deliberately NOT resolved here — spec.md
// §4.3 allows a mapping to reference a mode added by a later hot reload, so
// only "next"/"previous"/an in-range index are checked at load time; an
// unresolvable named target is a soft error surfaced at dispatch time.
func validateModeChangeTargets(a Action, rs *RuleSet, modeNames map[string]bool) error {
	switch a.Type {
	case ActionModeChange:
		switch a.Target {
		case "next", "previous":
			return nil
		default:
			var idx int
			if _, err := fmt.Sscanf(a.Target, "%d", &idx); err == nil {
				if idx < 0 || idx >= len(rs.Modes) {
					return fmt.Errorf("ModeChange index target %d out of range [0,%d)", idx, len(rs.Modes))
				}
			}
			// Named target: resolved at dispatch time, not here.
		}
	case ActionSequence:
		for _, sub := range a.Actions {
			if err := validateModeChangeTargets(sub, rs, modeNames); err != nil {
				return err
			}
		}
	case ActionConditional:
		if a.Then != nil {
			if err := validateModeChangeTargets(*a.Then, rs, modeNames); err != nil {
				return err
			}
		}
		if a.Else != nil {
			if err := validateModeChangeTargets(*a.Else, rs, modeNames); err != nil {
				return err
			}
		}
	}
	return nil
}

// Serialize round-trips a RuleSet back to TOML, preserving mapping
// declaration order, per spec.md §8's round-trip invariant.
func Serialize(rs *RuleSet) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(rs); err != nil {
		return nil, fmt.Errorf("rules: serialize: %w", err)
	}
	return buf.Bytes(), nil
}
