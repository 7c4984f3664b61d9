// Package timing converts a stream of unifiedevent.UnifiedInputEvent into
// unifiedevent.ProcessedEvent, implementing the per-control timing state
// machines from spec.md §4.2 (long press, double tap, chord window, encoder
// direction, analog stick dead zone, analog trigger rising edge).
package timing

import (
	"sort"
	"sync"
	"time"

	"github.com/PixPMusic/gopher-automate/internal/unifiedevent"
)

// Settings are the configurable thresholds from the active rule set's
// AdvancedSettings (spec.md §4.2).
type Settings struct {
	HoldThresholdMS    int
	DoubleTapTimeoutMS int
	ChordTimeoutMS     int

	// TriggerThreshold is the device-level rising-edge boundary (0-1,
	// fraction of the 0-255 trigger axis range) the processor uses to
	// decide GamepadTrigger crossings. spec.md §4.2 notes the per-mapping
	// "threshold" trigger field and this processor-level boundary are an
	// acknowledged, equivalent design choice; this implementation resolves
	// it at the processor so the boolean ProcessedEvent stays simple and
	// the mapping's own threshold field is parsed but read neither by
	// matching nor by config validation.
	TriggerThreshold float64
}

// DefaultTriggerThreshold is used when a Settings value omits TriggerThreshold.
const DefaultTriggerThreshold = 0.5

func (s Settings) maxWindow() time.Duration {
	max := s.HoldThresholdMS
	if s.DoubleTapTimeoutMS > max {
		max = s.DoubleTapTimeoutMS
	}
	if s.ChordTimeoutMS > max {
		max = s.ChordTimeoutMS
	}
	return time.Duration(max)*time.Millisecond + time.Second
}

// slotCount is the fixed arena size (spec.md §9: "256 entries is sufficient
// given the id range"). control ids span 0-255 so this is exact, not a hash.
const slotCount = 256

// controlState is one control's timing state, held in the fixed arena.
type controlState struct {
	active       bool
	pressedAt    time.Time
	lastReleased time.Time
	lastSeen     time.Time
	longPressTimer *time.Timer
	longPressFired bool

	// encoder relative-mode tracking
	hasLastCCValue bool
	lastCCValue    uint8
	encoderSteps   int
	encoderDir     unifiedevent.Direction

	// analog stick / trigger
	stickArmed   bool // true while outside dead zone (rising-edge tracking)
	triggerOver  bool
}

// chordGroup tracks presses within a chord window for one device class
// (midi notes vs gamepad buttons), keyed separately by the caller.
type chordGroup struct {
	pending map[unifiedevent.ControlID]time.Time
	fired   map[string]time.Time // dedup key -> last-fired time
}

func newChordGroup() *chordGroup {
	return &chordGroup{
		pending: make(map[unifiedevent.ControlID]time.Time),
		fired:   make(map[string]time.Time),
	}
}

// Processor owns all per-control timing state. Only the processing goroutine
// calls Feed. The mutex below guards that state against the two other
// goroutines that touch it: the GC ticker and the long-press timer
// callbacks.
type Processor struct {
	mu       sync.Mutex
	settings Settings
	slots    [slotCount]*controlState

	midiChord    *chordGroup
	gamepadChord *chordGroup

	emit func(unifiedevent.ProcessedEvent)

	stopGC chan struct{}
}

// New creates a Processor. emit is called synchronously from Feed for every
// derived ProcessedEvent except LongPress, in the deterministic order
// spec.md §4.2 requires (Note before any higher-order derived event for the
// same control). LongPress is emitted from the hold timer's own goroutine
// while it holds the processor mutex.
func New(settings Settings, emit func(unifiedevent.ProcessedEvent)) *Processor {
	return &Processor{
		settings:     settings,
		midiChord:    newChordGroup(),
		gamepadChord: newChordGroup(),
		emit:         emit,
		stopGC:       make(chan struct{}),
	}
}

// UpdateSettings swaps the configurable thresholds, e.g. after a hot reload.
func (p *Processor) UpdateSettings(s Settings) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settings = s
}

func (p *Processor) slot(id unifiedevent.ControlID) *controlState {
	if p.slots[id] == nil {
		p.slots[id] = &controlState{}
	}
	return p.slots[id]
}

// Feed processes one UnifiedInputEvent, emitting zero or more derived
// ProcessedEvents via the Processor's emit callback.
func (p *Processor) Feed(ev unifiedevent.UnifiedInputEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev.Kind {
	case unifiedevent.NoteOn:
		if ev.Value == 0 {
			// Velocity-0 NoteOn is a NoteOff, per spec.md §8 boundary behavior.
			p.handleRelease(ev.ControlID, ev.Timestamp, false)
			return
		}
		p.handlePress(ev.ControlID, uint8(ev.Value), ev.Timestamp, false)

	case unifiedevent.NoteOff:
		p.handleRelease(ev.ControlID, ev.Timestamp, false)

	case unifiedevent.ButtonDown:
		p.handlePress(ev.ControlID, uint8(ev.Value), ev.Timestamp, true)

	case unifiedevent.ButtonUp:
		p.handleRelease(ev.ControlID, ev.Timestamp, true)

	case unifiedevent.ControlChange:
		p.handleEncoderOrCC(ev)

	case unifiedevent.Aftertouch:
		p.emit(unifiedevent.NewAftertouch(ev.ControlID, uint8(ev.Value), ev.Timestamp.UnixMilli()))

	case unifiedevent.PitchBend:
		p.emit(unifiedevent.NewPitchBend(ev.Value, ev.Timestamp.UnixMilli()))

	case unifiedevent.AxisValue:
		p.handleAxis(ev)
	}

	p.slot(ev.ControlID).lastSeen = ev.Timestamp
}

func (p *Processor) handlePress(id unifiedevent.ControlID, velocity uint8, ts time.Time, gamepad bool) {
	st := p.slot(id)
	st.active = true
	st.pressedAt = ts
	st.longPressFired = false

	if gamepad {
		p.emit(unifiedevent.NewGamepadButton(id, ts.UnixMilli()))
	} else {
		p.emit(unifiedevent.NewNote(id, velocity, ts.UnixMilli()))
	}

	p.armLongPress(id, ts, gamepad)
	p.checkDoubleTap(id, ts)
	p.checkChord(id, ts, gamepad)
}

func (p *Processor) handleRelease(id unifiedevent.ControlID, ts time.Time, gamepad bool) {
	st := p.slot(id)
	st.active = false
	st.lastReleased = ts
	if st.longPressTimer != nil {
		st.longPressTimer.Stop()
		st.longPressTimer = nil
	}

	group := p.midiChord
	if gamepad {
		group = p.gamepadChord
	}
	delete(group.pending, id)
}

// armLongPress starts a timer that fires LongPress if the control is still
// active when it expires. The timer callback runs on its own goroutine: it
// takes the processor mutex and calls emit directly; it does not re-enter
// Feed.
func (p *Processor) armLongPress(id unifiedevent.ControlID, pressedAt time.Time, gamepad bool) {
	st := p.slot(id)
	threshold := time.Duration(p.settings.HoldThresholdMS) * time.Millisecond

	st.longPressTimer = time.AfterFunc(threshold, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		s := p.slot(id)
		if !s.active || s.pressedAt != pressedAt {
			return
		}
		s.longPressFired = true
		p.emit(unifiedevent.NewLongPress(id, time.Since(pressedAt).Milliseconds(), time.Now().UnixMilli()))
	})
}

// checkDoubleTap records this press and, if a prior release on the same id
// occurred within DoubleTapTimeoutMS, emits DoubleTap (spec.md §4.2).
func (p *Processor) checkDoubleTap(id unifiedevent.ControlID, ts time.Time) {
	st := p.slot(id)
	if st.lastReleased.IsZero() {
		return
	}
	gap := ts.Sub(st.lastReleased)
	timeout := time.Duration(p.settings.DoubleTapTimeoutMS) * time.Millisecond
	if gap <= timeout {
		p.emit(unifiedevent.NewDoubleTap(id, gap.Milliseconds(), ts.UnixMilli()))
		st.lastReleased = time.Time{} // consume, so a third tap restarts cleanly
	}
}

// checkChord tests whether >=1 other press on the same device class
// occurred within ChordTimeoutMS and, if so, emits a deduplicated Chord
// event (spec.md §4.2).
func (p *Processor) checkChord(id unifiedevent.ControlID, ts time.Time, gamepad bool) {
	group := p.midiChord
	if gamepad {
		group = p.gamepadChord
	}

	window := time.Duration(p.settings.ChordTimeoutMS) * time.Millisecond

	// Drop stale pending presses outside the window.
	for otherID, otherTS := range group.pending {
		if ts.Sub(otherTS) > window {
			delete(group.pending, otherID)
		}
	}
	group.pending[id] = ts

	if len(group.pending) < 2 {
		return
	}

	ids := make([]unifiedevent.ControlID, 0, len(group.pending))
	for otherID := range group.pending {
		ids = append(ids, otherID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	key := chordKey(ids)
	if last, ok := group.fired[key]; ok && ts.Sub(last) <= window {
		return // already fired for this exact composition within the window
	}
	group.fired[key] = ts

	if gamepad {
		p.emit(unifiedevent.NewGamepadButtonChord(ids, int64(p.settings.ChordTimeoutMS), ts.UnixMilli()))
	} else {
		p.emit(unifiedevent.NewChord(ids, int64(p.settings.ChordTimeoutMS), ts.UnixMilli()))
	}
}

func chordKey(ids []unifiedevent.ControlID) string {
	b := make([]byte, 0, len(ids)*3)
	for _, id := range ids {
		b = append(b, byte(id>>8), byte(id), ',')
	}
	return string(b)
}

// handleEncoderOrCC processes a ControlChange in relative encoder mode per
// spec.md §4.2: direction is Clockwise if value > last (or wraps 127->0 as
// +1), CounterClockwise otherwise. It also emits the plain CC event so a
// mapping can match on either interpretation.
func (p *Processor) handleEncoderOrCC(ev unifiedevent.UnifiedInputEvent) {
	st := p.slot(ev.ControlID)
	v := uint8(ev.Value)

	p.emit(unifiedevent.NewCC(uint8(ev.ControlID), v, ev.Timestamp.UnixMilli()))

	if !st.hasLastCCValue {
		st.hasLastCCValue = true
		st.lastCCValue = v
		return
	}

	var dir unifiedevent.Direction
	if v > st.lastCCValue || (st.lastCCValue == 127 && v == 0) {
		dir = unifiedevent.Clockwise
	} else {
		dir = unifiedevent.CounterClockwise
	}
	st.lastCCValue = v
	st.encoderDir = dir

	// st.encoderSteps is incremented and reset within the same call, so
	// ProcessedEvent.Steps is always 1 today: every relative-encoder tick is
	// emitted immediately rather than accumulated across a window. No
	// Trigger field currently reads Steps, so this is inert rather than
	// wrong, but it is not the "accumulate until a mapping fires" behavior
	// spec.md §4.2 describes — emitting per-tick was chosen so direction
	// changes are never lost to coalescing; revisit if a trigger needs
	// multi-step accumulation.
	st.encoderSteps++
	p.emit(unifiedevent.NewEncoder(uint8(ev.ControlID), dir, st.encoderSteps, ev.Timestamp.UnixMilli()))
	st.encoderSteps = 0
}

// deadZonePercent is the fixed 10% radial dead zone applied to stick axes
// (spec.md §4.1). Trigger axes have no dead zone; they use rising-edge
// threshold crossing instead (spec.md §4.2).
const deadZonePercent = 0.10

// handleAxis applies stick dead-zone rising-edge detection or trigger
// rising-edge threshold detection depending on axis identity.
func (p *Processor) handleAxis(ev unifiedevent.UnifiedInputEvent) {
	st := p.slot(ev.ControlID)

	switch ev.ControlID {
	case unifiedevent.AxisStickLeft, unifiedevent.AxisStickRight:
		// Stick axes are centered at 128 in a 0-255 range; magnitude is the
		// distance from center normalized to [0,1].
		magnitude := absInt16(ev.Value-128) / 128.0
		outside := magnitude > deadZonePercent
		if outside && !st.stickArmed {
			st.stickArmed = true
			dir := unifiedevent.Clockwise
			if ev.Value < 128 {
				dir = unifiedevent.CounterClockwise
			}
			p.emit(unifiedevent.NewGamepadAnalogStick(ev.ControlID, dir, ev.Timestamp.UnixMilli()))
		} else if !outside {
			st.stickArmed = false
		}

	case unifiedevent.AxisTriggerLeft, unifiedevent.AxisTriggerRight:
		threshold := p.settings.TriggerThreshold
		if threshold <= 0 {
			threshold = DefaultTriggerThreshold
		}
		value := float64(ev.Value) / 255.0
		crossed := value >= threshold
		if crossed && !st.triggerOver {
			st.triggerOver = true
			p.emit(unifiedevent.NewGamepadTrigger(ev.ControlID, true, ev.Timestamp.UnixMilli()))
		} else if !crossed {
			st.triggerOver = false
		}
	}
}

func absInt16(v int16) float64 {
	if v < 0 {
		return float64(-v)
	}
	return float64(v)
}
