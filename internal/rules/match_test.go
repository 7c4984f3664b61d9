package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PixPMusic/gopher-automate/internal/unifiedevent"
)

func TestMatchFirstMatchWinsWithinMode(t *testing.T) {
	rs := &RuleSet{
		Modes: []Mode{
			{
				Name: "Default",
				Mappings: []Mapping{
					{Trigger: Trigger{Type: TriggerNote, Note: 60}, Action: Action{Type: ActionKeystroke, Keys: "a"}},
					{Trigger: Trigger{Type: TriggerNote, Note: 60}, Action: Action{Type: ActionKeystroke, Keys: "b"}},
				},
			},
		},
	}

	ev := unifiedevent.NewNote(60, 100, 0)
	m, ok := Match(rs, "Default", ev)
	require.True(t, ok)
	assert.Equal(t, "a", m.Action.Keys, "the first declared mapping matching the event must win")
}

func TestMatchFallsBackToGlobalMappings(t *testing.T) {
	rs := &RuleSet{
		Modes: []Mode{{Name: "Default", Mappings: []Mapping{
			{Trigger: Trigger{Type: TriggerNote, Note: 61}, Action: Action{Type: ActionKeystroke, Keys: "x"}},
		}}},
		GlobalMappings: []Mapping{
			{Trigger: Trigger{Type: TriggerNote, Note: 60}, Action: Action{Type: ActionKeystroke, Keys: "global"}},
		},
	}

	ev := unifiedevent.NewNote(60, 100, 0)
	m, ok := Match(rs, "Default", ev)
	require.True(t, ok)
	assert.Equal(t, "global", m.Action.Keys)
}

func TestMatchModeMappingTakesPrecedenceOverGlobal(t *testing.T) {
	rs := &RuleSet{
		Modes: []Mode{{Name: "Default", Mappings: []Mapping{
			{Trigger: Trigger{Type: TriggerNote, Note: 60}, Action: Action{Type: ActionKeystroke, Keys: "mode"}},
		}}},
		GlobalMappings: []Mapping{
			{Trigger: Trigger{Type: TriggerNote, Note: 60}, Action: Action{Type: ActionKeystroke, Keys: "global"}},
		},
	}

	ev := unifiedevent.NewNote(60, 100, 0)
	m, ok := Match(rs, "Default", ev)
	require.True(t, ok)
	assert.Equal(t, "mode", m.Action.Keys)
}

func TestMatchVelocityRangeOnNoteTrigger(t *testing.T) {
	rs := &RuleSet{Modes: []Mode{{Name: "Default", Mappings: []Mapping{
		{Trigger: Trigger{Type: TriggerNote, Note: 60, VelocityRange: IntRange{Min: 100, Max: 127}},
			Action: Action{Type: ActionKeystroke, Keys: "hard"}},
	}}}}

	soft := unifiedevent.NewNote(60, 50, 0)
	_, ok := Match(rs, "Default", soft)
	assert.False(t, ok, "velocity below the configured range must not match")

	hard := unifiedevent.NewNote(60, 110, 0)
	m, ok := Match(rs, "Default", hard)
	require.True(t, ok)
	assert.Equal(t, "hard", m.Action.Keys)
}

func TestMatchChordRequiresExactSet(t *testing.T) {
	rs := &RuleSet{Modes: []Mode{{Name: "Default", Mappings: []Mapping{
		{Trigger: Trigger{Type: TriggerChord, Notes: []int{60, 64, 67}},
			Action: Action{Type: ActionKeystroke, Keys: "c-major"}},
	}}}}

	wrongSet := unifiedevent.NewChord([]unifiedevent.ControlID{60, 64}, 75, 0)
	_, ok := Match(rs, "Default", wrongSet)
	assert.False(t, ok)

	rightSet := unifiedevent.NewChord([]unifiedevent.ControlID{67, 60, 64}, 75, 0)
	m, ok := Match(rs, "Default", rightSet)
	require.True(t, ok)
	assert.Equal(t, "c-major", m.Action.Keys)
}

func TestMatchGamepadTriggerRequiresOverThreshold(t *testing.T) {
	rs := &RuleSet{Modes: []Mode{{Name: "Default", Mappings: []Mapping{
		{Trigger: Trigger{Type: TriggerGamepadTrigger, Trig: "trigger_left"},
			Action: Action{Type: ActionKeystroke, Keys: "fire"}},
	}}}}

	notCrossed := unifiedevent.NewGamepadTrigger(unifiedevent.AxisTriggerLeft, false, 0)
	_, ok := Match(rs, "Default", notCrossed)
	assert.False(t, ok)

	crossed := unifiedevent.NewGamepadTrigger(unifiedevent.AxisTriggerLeft, true, 0)
	m, ok := Match(rs, "Default", crossed)
	require.True(t, ok)
	assert.Equal(t, "fire", m.Action.Keys)
}

func TestMatchEncoderDirection(t *testing.T) {
	rs := &RuleSet{Modes: []Mode{{Name: "Default", Mappings: []Mapping{
		{Trigger: Trigger{Type: TriggerEncoder, CC: 20, Direction: "Clockwise"},
			Action: Action{Type: ActionKeystroke, Keys: "vol-up"}},
	}}}}

	ccw := unifiedevent.NewEncoder(20, unifiedevent.CounterClockwise, 1, 0)
	_, ok := Match(rs, "Default", ccw)
	assert.False(t, ok)

	cw := unifiedevent.NewEncoder(20, unifiedevent.Clockwise, 1, 0)
	m, ok := Match(rs, "Default", cw)
	require.True(t, ok)
	assert.Equal(t, "vol-up", m.Action.Keys)
}

func TestMatchReturnsFalseWhenNothingMatches(t *testing.T) {
	rs := &RuleSet{Modes: []Mode{{Name: "Default"}}}
	ev := unifiedevent.NewNote(60, 100, 0)
	_, ok := Match(rs, "Default", ev)
	assert.False(t, ok)
}
