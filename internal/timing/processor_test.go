package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/PixPMusic/gopher-automate/internal/unifiedevent"
)

func testSettings() Settings {
	return Settings{
		HoldThresholdMS:    2000,
		DoubleTapTimeoutMS: 300,
		ChordTimeoutMS:     75,
		TriggerThreshold:   0.5,
	}
}

func collectEmit() (*Processor, *[]unifiedevent.ProcessedEvent) {
	events := []unifiedevent.ProcessedEvent{}
	p := New(testSettings(), func(ev unifiedevent.ProcessedEvent) {
		events = append(events, ev)
	})
	return p, &events
}

func noteOn(id unifiedevent.ControlID, velocity int16, ts time.Time) unifiedevent.UnifiedInputEvent {
	return unifiedevent.UnifiedInputEvent{Kind: unifiedevent.NoteOn, ControlID: id, Value: velocity, Timestamp: ts}
}

func noteOff(id unifiedevent.ControlID, ts time.Time) unifiedevent.UnifiedInputEvent {
	return unifiedevent.UnifiedInputEvent{Kind: unifiedevent.NoteOff, ControlID: id, Timestamp: ts}
}

func TestVelocityZeroNoteOnIsTreatedAsNoteOff(t *testing.T) {
	p, events := collectEmit()
	base := time.Now()

	p.Feed(noteOn(60, 100, base))
	assert.Equal(t, unifiedevent.ProcessedNote, (*events)[0].Kind)

	// A velocity-0 NoteOn must behave exactly like NoteOff: it must not
	// re-arm the long-press timer or emit a Note event.
	*events = nil
	p.Feed(noteOn(60, 0, base.Add(10*time.Millisecond)))
	assert.Empty(t, *events, "velocity-0 NoteOn should not emit a Note event")

	st := p.slots[60]
	assert.False(t, st.active, "velocity-0 NoteOn must release the control")
}

func TestLongPressFiresAfterHoldThreshold(t *testing.T) {
	p, events := collectEmit()
	p.settings.HoldThresholdMS = 20 // shrink for a fast test

	base := time.Now()
	p.Feed(noteOn(61, 100, base))

	time.Sleep(40 * time.Millisecond)

	p.mu.Lock()
	got := append([]unifiedevent.ProcessedEvent(nil), (*events)...)
	p.mu.Unlock()

	var found bool
	for _, ev := range got {
		if ev.Kind == unifiedevent.ProcessedLongPress {
			found = true
		}
	}
	assert.True(t, found, "LongPress should fire once the hold threshold elapses while still active")
}

func TestLongPressDoesNotFireOnEarlyRelease(t *testing.T) {
	p, events := collectEmit()
	p.settings.HoldThresholdMS = 50

	base := time.Now()
	p.Feed(noteOn(62, 100, base))
	p.Feed(noteOff(62, base.Add(10*time.Millisecond)))

	time.Sleep(80 * time.Millisecond)

	p.mu.Lock()
	got := append([]unifiedevent.ProcessedEvent(nil), (*events)...)
	p.mu.Unlock()

	for _, ev := range got {
		assert.NotEqual(t, unifiedevent.ProcessedLongPress, ev.Kind,
			"LongPress must not fire when release happens before the hold threshold")
	}
}

func TestDoubleTapWithinWindow(t *testing.T) {
	p, events := collectEmit()
	base := time.Now()

	p.Feed(noteOn(63, 100, base))
	p.Feed(noteOff(63, base.Add(20*time.Millisecond)))
	*events = nil
	p.Feed(noteOn(63, 100, base.Add(100*time.Millisecond)))

	var found bool
	for _, ev := range *events {
		if ev.Kind == unifiedevent.ProcessedDoubleTap {
			found = true
		}
	}
	assert.True(t, found, "second press within DoubleTapTimeoutMS of the release should emit DoubleTap")
}

func TestDoubleTapOutsideWindowDoesNotFire(t *testing.T) {
	p, events := collectEmit()
	base := time.Now()

	p.Feed(noteOn(64, 100, base))
	p.Feed(noteOff(64, base.Add(20*time.Millisecond)))
	*events = nil
	p.Feed(noteOn(64, 100, base.Add(500*time.Millisecond)))

	for _, ev := range *events {
		assert.NotEqual(t, unifiedevent.ProcessedDoubleTap, ev.Kind)
	}
}

func TestChordDedupWithinOneWindow(t *testing.T) {
	p, events := collectEmit()
	base := time.Now()

	p.Feed(noteOn(10, 100, base))
	p.Feed(noteOn(11, 100, base.Add(5*time.Millisecond)))

	chordCount := 0
	for _, ev := range *events {
		if ev.Kind == unifiedevent.ProcessedChord {
			chordCount++
		}
	}
	assert.Equal(t, 1, chordCount, "first overlap of the same composition should fire exactly once")

	// A third control joining within the window changes the composition and
	// should be allowed to fire again.
	p.Feed(noteOn(12, 100, base.Add(10*time.Millisecond)))
	chordCount = 0
	for _, ev := range *events {
		if ev.Kind == unifiedevent.ProcessedChord {
			chordCount++
		}
	}
	assert.Equal(t, 2, chordCount, "a differently-composed overlap should fire again")
}

func TestStickDeadZoneSuppressesSmallMovement(t *testing.T) {
	p, events := collectEmit()
	base := time.Now()

	// 128 is dead center; a value within 10% of range (~12.8) must not fire.
	p.Feed(unifiedevent.UnifiedInputEvent{
		Kind: unifiedevent.AxisValue, ControlID: unifiedevent.AxisStickLeft,
		Value: 135, Timestamp: base,
	})
	assert.Empty(t, *events, "movement inside the 10% dead zone must not emit GamepadAnalogStick")

	p.Feed(unifiedevent.UnifiedInputEvent{
		Kind: unifiedevent.AxisValue, ControlID: unifiedevent.AxisStickLeft,
		Value: 220, Timestamp: base.Add(10 * time.Millisecond),
	})
	assert.Len(t, *events, 1, "movement outside the dead zone must emit exactly one rising-edge event")
	assert.Equal(t, unifiedevent.ProcessedGamepadAnalogStick, (*events)[0].Kind)
}

func TestTriggerRisingEdgeFiresOncePerHold(t *testing.T) {
	p, events := collectEmit()
	base := time.Now()

	// Below threshold (0.5 * 255 = 127.5): no event.
	p.Feed(unifiedevent.UnifiedInputEvent{
		Kind: unifiedevent.AxisValue, ControlID: unifiedevent.AxisTriggerLeft,
		Value: 50, Timestamp: base,
	})
	assert.Empty(t, *events)

	// Cross the threshold: exactly one GamepadTrigger.
	p.Feed(unifiedevent.UnifiedInputEvent{
		Kind: unifiedevent.AxisValue, ControlID: unifiedevent.AxisTriggerLeft,
		Value: 200, Timestamp: base.Add(10 * time.Millisecond),
	})
	assert.Len(t, *events, 1)
	assert.Equal(t, unifiedevent.ProcessedGamepadTrigger, (*events)[0].Kind)
	assert.True(t, (*events)[0].OverThreshold)

	// Staying over threshold must not refire.
	p.Feed(unifiedevent.UnifiedInputEvent{
		Kind: unifiedevent.AxisValue, ControlID: unifiedevent.AxisTriggerLeft,
		Value: 210, Timestamp: base.Add(20 * time.Millisecond),
	})
	assert.Len(t, *events, 1, "holding past the threshold must not refire")

	// Drop back below, then cross again: fires a second time.
	p.Feed(unifiedevent.UnifiedInputEvent{
		Kind: unifiedevent.AxisValue, ControlID: unifiedevent.AxisTriggerLeft,
		Value: 0, Timestamp: base.Add(30 * time.Millisecond),
	})
	p.Feed(unifiedevent.UnifiedInputEvent{
		Kind: unifiedevent.AxisValue, ControlID: unifiedevent.AxisTriggerLeft,
		Value: 200, Timestamp: base.Add(40 * time.Millisecond),
	})
	assert.Len(t, *events, 2, "a fresh rising edge after release should fire again")
}

func TestEncoderDirectionAndWrap(t *testing.T) {
	p, events := collectEmit()
	base := time.Now()

	p.Feed(unifiedevent.UnifiedInputEvent{Kind: unifiedevent.ControlChange, ControlID: 20, Value: 64, Timestamp: base})
	*events = nil

	p.Feed(unifiedevent.UnifiedInputEvent{Kind: unifiedevent.ControlChange, ControlID: 20, Value: 65, Timestamp: base.Add(10 * time.Millisecond)})
	var enc *unifiedevent.ProcessedEvent
	for i := range *events {
		if (*events)[i].Kind == unifiedevent.ProcessedEncoder {
			enc = &(*events)[i]
		}
	}
	if assert.NotNil(t, enc) {
		assert.Equal(t, unifiedevent.Clockwise, enc.Dir)
	}

	p.Feed(unifiedevent.UnifiedInputEvent{Kind: unifiedevent.ControlChange, ControlID: 20, Value: 127, Timestamp: base.Add(15 * time.Millisecond)})
	*events = nil
	p.Feed(unifiedevent.UnifiedInputEvent{Kind: unifiedevent.ControlChange, ControlID: 20, Value: 0, Timestamp: base.Add(20 * time.Millisecond)})
	for i := range *events {
		if (*events)[i].Kind == unifiedevent.ProcessedEncoder {
			enc = &(*events)[i]
		}
	}
	if assert.NotNil(t, enc) {
		assert.Equal(t, unifiedevent.Clockwise, enc.Dir, "127->0 wrap counts as a clockwise step")
	}
}

func TestGCEvictsIdleControlsButNotActiveOnes(t *testing.T) {
	p, _ := collectEmit()
	p.settings.HoldThresholdMS = 10
	p.settings.DoubleTapTimeoutMS = 10
	p.settings.ChordTimeoutMS = 10

	base := time.Now()
	p.Feed(noteOn(70, 100, base))
	p.Feed(noteOff(70, base.Add(time.Millisecond)))
	p.Feed(noteOn(71, 100, base.Add(2 * time.Millisecond))) // left active

	p.mu.Lock()
	p.slots[70].lastSeen = time.Now().Add(-p.settings.maxWindow() - time.Second)
	p.slots[71].lastSeen = time.Now().Add(-p.settings.maxWindow() - time.Second)
	p.mu.Unlock()

	p.sweep()

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Nil(t, p.slots[70], "idle released control should be evicted")
	assert.NotNil(t, p.slots[71], "a control that is still held down must never be evicted")
}
