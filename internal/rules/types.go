// Package rules holds the mapping-engine data model (spec.md §3), the TOML
// config loader/validator/serializer (spec.md §6), velocity curve math, and
// condition tree evaluation (spec.md §4.3).
package rules

// TriggerType is the wire-format "type" string for a Trigger, preserved
// verbatim from spec.md §6 for config compatibility.
type TriggerType string

const (
	TriggerNote               TriggerType = "Note"
	TriggerVelocityRange      TriggerType = "VelocityRange"
	TriggerLongPress          TriggerType = "LongPress"
	TriggerDoubleTap          TriggerType = "DoubleTap"
	TriggerChord              TriggerType = "Chord"
	TriggerNoteChord          TriggerType = "NoteChord"
	TriggerEncoder            TriggerType = "Encoder"
	TriggerEncoderTurn        TriggerType = "EncoderTurn"
	TriggerCC                 TriggerType = "CC"
	TriggerAftertouch         TriggerType = "Aftertouch"
	TriggerPitchBend          TriggerType = "PitchBend"
	TriggerGamepadButton      TriggerType = "GamepadButton"
	TriggerGamepadButtonChord TriggerType = "GamepadButtonChord"
	TriggerGamepadAnalogStick TriggerType = "GamepadAnalogStick"
	TriggerGamepadTrigger     TriggerType = "GamepadTrigger"
)

// IntRange is an inclusive [Min,Max] pair used for velocity_range,
// min_velocity/max_velocity, value_range, pressure_range, and bend_range.
type IntRange struct {
	Min int `toml:"min"`
	Max int `toml:"max"`
}

// Contains reports whether v falls within the inclusive range.
func (r IntRange) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Trigger describes the variant and parameters a ProcessedEvent must match.
// Only the fields relevant to Type are populated; the rest are zero values.
// This mirrors the teacher's own tagged-union habit (actions.Action's
// Type + Code) but with typed fields instead of an opaque payload, since
// triggers are validated structurally at load time.
type Trigger struct {
	Type TriggerType `toml:"type"`

	Note          int      `toml:"note,omitempty"`
	VelocityRange IntRange `toml:"velocity_range,omitempty"`

	MinVelocity int `toml:"min_velocity,omitempty"`
	MaxVelocity int `toml:"max_velocity,omitempty"`

	DurationMS int `toml:"duration_ms,omitempty"`
	TimeoutMS  int `toml:"timeout_ms,omitempty"`

	Notes    []int `toml:"notes,omitempty"`
	WindowMS int   `toml:"window_ms,omitempty"`

	CC        int    `toml:"cc,omitempty"`
	Direction string `toml:"direction,omitempty"`

	ValueRange IntRange `toml:"value_range,omitempty"`

	PressureRange IntRange `toml:"pressure_range,omitempty"`

	BendRange IntRange `toml:"bend_range,omitempty"`

	Button  int   `toml:"button,omitempty"`
	Buttons []int `toml:"buttons,omitempty"`

	Axis      string `toml:"axis,omitempty"`
	Trig      string `toml:"trigger,omitempty"`
	Threshold int    `toml:"threshold,omitempty"`
}

// CurveKind names a non-linear VelocityCurve shape.
type CurveKind string

const (
	CurveExponential CurveKind = "Exponential"
	CurveLogarithmic CurveKind = "Logarithmic"
	CurveSCurve      CurveKind = "SCurve"
)

// VelocityMappingType is the wire-format "type" string for a VelocityCurve.
type VelocityMappingType string

const (
	VelocityFixed       VelocityMappingType = "Fixed"
	VelocityPassThrough VelocityMappingType = "PassThrough"
	VelocityLinear      VelocityMappingType = "Linear"
	VelocityCurveType   VelocityMappingType = "Curve"
)

// VelocityCurve produces an output 0-127 from a 0-127 input per spec.md §4.3.
type VelocityCurve struct {
	Type      VelocityMappingType `toml:"type"`
	Value     int                 `toml:"value,omitempty"` // Fixed
	Min       int                 `toml:"min,omitempty"`   // Linear
	Max       int                 `toml:"max,omitempty"`   // Linear
	Kind      CurveKind           `toml:"kind,omitempty"`
	Intensity float64             `toml:"intensity,omitempty"`
}

// ActionType is the wire-format "type" string for an Action.
type ActionType string

const (
	ActionKeystroke     ActionType = "Keystroke"
	ActionText          ActionType = "Text"
	ActionLaunch        ActionType = "Launch"
	ActionShell         ActionType = "Shell"
	ActionMouseClick    ActionType = "MouseClick"
	ActionVolumeControl ActionType = "VolumeControl"
	ActionModeChange    ActionType = "ModeChange"
	ActionDelay         ActionType = "Delay"
	ActionSequence      ActionType = "Sequence"
	ActionSendMidi      ActionType = "SendMidi"
	ActionConditional   ActionType = "Conditional"
)

// MidiMessage is the payload of a SendMidi action (spec.md §6 "Outbound MIDI").
type MidiMessage struct {
	Type     string `toml:"type"` // NoteOn, NoteOff, CC, ProgramChange, PitchBend, Aftertouch
	Channel  int    `toml:"channel"`
	Note     int    `toml:"note,omitempty"`
	Velocity int    `toml:"velocity,omitempty"`
	CC       int    `toml:"cc,omitempty"`
	Value    int    `toml:"value,omitempty"`
	Program  int    `toml:"program,omitempty"`
	Bend     int    `toml:"bend,omitempty"`
}

// Action is the tagged variant dispatched by the mapping engine, per
// spec.md §3. As with Trigger, only fields relevant to Type are populated.
type Action struct {
	Type ActionType `toml:"type"`

	// Keystroke
	Keys      string   `toml:"keys,omitempty"`
	Modifiers []string `toml:"modifiers,omitempty"`

	// Text
	Text string `toml:"text,omitempty"`

	// Launch
	App string `toml:"app,omitempty"`

	// Shell
	Command string `toml:"command,omitempty"`

	// MouseClick
	Button string `toml:"button,omitempty"`
	X      *int   `toml:"x,omitempty"`
	Y      *int   `toml:"y,omitempty"`

	// VolumeControl
	Op    string `toml:"op,omitempty"`
	Value *int   `toml:"value,omitempty"`

	// ModeChange
	Target string `toml:"target,omitempty"`

	// Delay
	MS int `toml:"ms,omitempty"`

	// Sequence
	Actions []Action `toml:"actions,omitempty"`

	// SendMidi
	PortName string      `toml:"port_name,omitempty"`
	Message  MidiMessage `toml:"message,omitempty"`

	// Conditional
	Condition  *Condition `toml:"condition,omitempty"`
	Then       *Action    `toml:"then_action,omitempty"`
	Else       *Action    `toml:"else_action,omitempty"`
}

// ConditionType is the wire-format "type" string for a Condition.
type ConditionType string

const (
	CondAlways      ConditionType = "Always"
	CondNever       ConditionType = "Never"
	CondTimeRange   ConditionType = "TimeRange"
	CondDayOfWeek   ConditionType = "DayOfWeek"
	CondAppRunning  ConditionType = "AppRunning"
	CondAppFrontmost ConditionType = "AppFrontmost"
	CondModeIs      ConditionType = "ModeIs"
	CondAnd         ConditionType = "And"
	CondOr          ConditionType = "Or"
	CondNot         ConditionType = "Not"
)

// Condition is a boolean predicate tree, per spec.md §3/§4.3.
type Condition struct {
	Type ConditionType `toml:"type"`

	Start string `toml:"start,omitempty"` // TimeRange, "HH:MM"
	End   string `toml:"end,omitempty"`   // TimeRange, "HH:MM"

	Days []int `toml:"days,omitempty"` // DayOfWeek, 1=Mon...7=Sun

	Name string `toml:"name,omitempty"` // AppRunning/AppFrontmost/ModeIs

	Conds []Condition `toml:"conds,omitempty"` // And/Or
	Cond  *Condition  `toml:"cond,omitempty"`  // Not
}

// Mapping binds a Trigger to an Action, per spec.md §3.
type Mapping struct {
	Trigger          Trigger        `toml:"trigger"`
	Action           Action         `toml:"action"`
	VelocityMapping  *VelocityCurve `toml:"velocity_mapping,omitempty"`
	Description      string         `toml:"description,omitempty"`
}

// Mode is a named, ordered mapping list, per spec.md §3.
type Mode struct {
	Name     string    `toml:"name"`
	Color    string    `toml:"color,omitempty"`
	Mappings []Mapping `toml:"mappings"`
}

// AdvancedSettings holds the timing thresholds consumed by internal/timing.
type AdvancedSettings struct {
	ChordTimeoutMS     int `toml:"chord_timeout_ms"`
	DoubleTapTimeoutMS int `toml:"double_tap_timeout_ms"`
	HoldThresholdMS    int `toml:"hold_threshold_ms"`
}

// DefaultAdvancedSettings returns the spec.md §4.2 defaults.
func DefaultAdvancedSettings() AdvancedSettings {
	return AdvancedSettings{
		ChordTimeoutMS:     75,
		DoubleTapTimeoutMS: 300,
		HoldThresholdMS:    2000,
	}
}

// DeviceSettings is the `[device]` config section.
type DeviceSettings struct {
	Name        string `toml:"name"`
	AutoConnect bool   `toml:"auto_connect"`
	InputMode   string `toml:"input_mode,omitempty"` // midi, gamepad, hybrid; default hybrid
}

// RuleSet is a fully validated, immutable tree of modes, mappings, and
// settings, produced by Load and swapped atomically by internal/daemon.
type RuleSet struct {
	Device           DeviceSettings   `toml:"device"`
	Advanced         AdvancedSettings `toml:"advanced_settings"`
	Modes            []Mode           `toml:"modes"`
	GlobalMappings   []Mapping        `toml:"global_mappings"`
	CurrentModeIndex int              `toml:"-"`

	// SourcePath is the config file this rule set was loaded from; not part
	// of the wire format, used by the daemon for reload bookkeeping.
	SourcePath string `toml:"-"`
}

// ModeByName returns the mode with the given name, or nil.
func (rs *RuleSet) ModeByName(name string) *Mode {
	for i := range rs.Modes {
		if rs.Modes[i].Name == name {
			return &rs.Modes[i]
		}
	}
	return nil
}

// CurrentMode returns the mode at CurrentModeIndex, or nil if the index is
// out of range (which Load's validation pass never allows to persist).
func (rs *RuleSet) CurrentMode() *Mode {
	if rs.CurrentModeIndex < 0 || rs.CurrentModeIndex >= len(rs.Modes) {
		return nil
	}
	return &rs.Modes[rs.CurrentModeIndex]
}
